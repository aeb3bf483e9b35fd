// Copyright (c) 2026 Rakaly Contributors

package imperator_test

import (
	"bytes"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	imperator "github.com/rakaly/imperator-save"
)

func mustReadAll(r io.Reader) string {
	b, err := io.ReadAll(r)
	Expect(err).To(BeNil())
	return string(b)
}

var _ = Describe("OpenEnvelope", func() {
	It("splits a plain text save at the declared metadata length", func() {
		meta := "version = 2\n"
		gamestate := "speed = 3\nplayer = 1\n"
		header := imperator.NewSaveHeader(imperator.FormatText, 2, 0, 4)
		header.SetMetadataLen(uint64(len(meta)))

		var buf bytes.Buffer
		Expect(header.Write(&buf)).To(Succeed())
		buf.WriteString(meta)
		buf.WriteString(gamestate)

		env, err := imperator.OpenEnvelope(buf.Bytes())
		Expect(err).To(BeNil())
		Expect(env.Header.Kind()).To(Equal(imperator.FormatText))
		Expect(mustReadAll(env.MetadataReader())).To(Equal(meta))
		Expect(mustReadAll(env.GamestateReader())).To(Equal(gamestate))
	})

	It("expands metadata to the whole body when the declared length looks implausible", func() {
		body := "version = 2\nspeed = 3\n"
		header := imperator.NewSaveHeader(imperator.FormatText, 2, 0, 4)
		header.SetMetadataLen(15) // more than half of body, triggers the fallback

		var buf bytes.Buffer
		Expect(header.Write(&buf)).To(Succeed())
		buf.WriteString(body)

		env, err := imperator.OpenEnvelope(buf.Bytes())
		Expect(err).To(BeNil())
		Expect(mustReadAll(env.MetadataReader())).To(Equal(body))
		Expect(mustReadAll(env.GamestateReader())).To(Equal(""))
	})

	It("routes a zip-wrapped save to its gamestate and meta entries", func() {
		archive := buildStoredZip([]struct {
			name string
			data []byte
		}{
			{name: "meta", data: []byte("version = 2\n")},
			{name: "gamestate", data: []byte("speed = 3\n")},
		})
		header := imperator.NewSaveHeader(imperator.FormatBinaryZip, 2, 0, 4)

		var buf bytes.Buffer
		Expect(header.Write(&buf)).To(Succeed())
		buf.Write(archive)

		env, err := imperator.OpenEnvelope(buf.Bytes())
		Expect(err).To(BeNil())
		Expect(env.Header.Kind()).To(Equal(imperator.FormatBinaryZip))
		Expect(mustReadAll(env.MetadataReader())).To(Equal("version = 2\n"))
		Expect(mustReadAll(env.GamestateReader())).To(Equal("speed = 3\n"))
	})

	It("treats bytes before the zip signature as inlined metadata when no meta entry exists", func() {
		archive := buildStoredZip([]struct {
			name string
			data []byte
		}{
			{name: "gamestate", data: []byte("speed = 3\n")},
		})
		header := imperator.NewSaveHeader(imperator.FormatBinaryZip, 2, 0, 4)

		var buf bytes.Buffer
		Expect(header.Write(&buf)).To(Succeed())
		buf.WriteString("version = 2\n")
		buf.Write(archive)

		env, err := imperator.OpenEnvelope(buf.Bytes())
		Expect(err).To(BeNil())
		Expect(mustReadAll(env.MetadataReader())).To(Equal("version = 2\n"))
		Expect(mustReadAll(env.GamestateReader())).To(Equal("speed = 3\n"))
	})

	It("errors on a zip archive missing a gamestate entry", func() {
		archive := buildStoredZip([]struct {
			name string
			data []byte
		}{
			{name: "meta", data: []byte("version = 2\n")},
		})
		header := imperator.NewSaveHeader(imperator.FormatBinaryZip, 2, 0, 4)

		var buf bytes.Buffer
		Expect(header.Write(&buf)).To(Succeed())
		buf.Write(archive)

		_, err := imperator.OpenEnvelope(buf.Bytes())
		Expect(err).To(Equal(imperator.ErrZipMissingGamestate))
	})

	It("rejects input shorter than the header", func() {
		_, err := imperator.OpenEnvelope([]byte("too short"))
		Expect(err).To(Equal(imperator.ErrInvalidHeader))
	})
})
