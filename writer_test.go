// Copyright (c) 2026 Rakaly Contributors

package imperator_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	imperator "github.com/rakaly/imperator-save"
)

var _ = Describe("TextWriter", func() {
	It("writes a flat key/value pair", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteUnquoted([]byte("tag"))
		w.WriteOperator()
		w.WriteQuoted([]byte("Rome"))
		Expect(w.Err()).To(BeNil())
		Expect(buf.String()).To(Equal(`tag = "Rome"`))
	})

	It("separates array elements with spaces", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteUnquoted([]byte("provinces"))
		w.WriteOperator()
		w.WriteArrayStart()
		w.WriteI32(1)
		w.WriteI32(2)
		w.WriteI32(3)
		w.WriteEnd()
		Expect(w.Err()).To(BeNil())
		Expect(buf.String()).To(Equal("provinces = {1 2 3}"))
	})

	It("quotes a value needing it but never quotes a key", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteUnquoted([]byte("123starts_with_digit"))
		w.WriteOperator()
		w.WriteUnquoted([]byte("123"))
		Expect(buf.String()).To(Equal(`123starts_with_digit = "123"`))
	})

	It("honors QueueUnquoteAll for the next container only", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteUnquoted([]byte("technology"))
		w.WriteOperator()
		w.QueueUnquoteAll()
		w.WriteArrayStart()
		w.WriteUnquoted([]byte("123")) // would normally be quoted
		w.WriteEnd()

		w.WriteUnquoted([]byte("other"))
		w.WriteOperator()
		w.WriteUnquoted([]byte("123")) // quoting resumes as normal afterward
		Expect(buf.String()).To(ContainSubstring("technology = {123}"))
		Expect(buf.String()).To(ContainSubstring(`other = "123"`))
	})

	It("writes an rgb token", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteRgb(imperator.Rgb{R: 10, G: 20, B: 30})
		Expect(buf.String()).To(Equal("rgb { 10 20 30 }"))
	})

	It("writes dates in Y.M.D form", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		d, _ := imperator.New(1444, 11, 11)
		w.WriteDate(d)
		Expect(buf.String()).To(Equal("1444.11.11"))
	})

	It("renders f64 with a five-digit fixed fraction unless the remainder is zero", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteF64(1.5)
		Expect(buf.String()).To(Equal("1.50000"))

		buf.Reset()
		w = imperator.NewTextWriter(&buf)
		w.WriteF64(2)
		Expect(buf.String()).To(Equal("2"))
	})

	It("resolves an ambiguous container to an array when no operator follows", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteUnquoted([]byte("provinces"))
		w.WriteOperator()
		w.WriteStart()
		w.WriteI32(1)
		w.WriteI32(2)
		w.WriteI32(3)
		w.WriteEnd()
		Expect(w.Err()).To(BeNil())
		Expect(buf.String()).To(Equal("provinces = {1 2 3}"))
	})

	It("keeps quotes on strings that turn out to be array elements", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteStart()
		w.WriteQuoted([]byte("first"))
		w.WriteQuoted([]byte("second"))
		w.WriteEnd()
		Expect(buf.String()).To(Equal(`{"first" "second"}`))
	})

	It("renders a quoted wire string bare when it turns out to be a key", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteStart()
		w.WriteQuoted([]byte("flag_name"))
		w.WriteOperator()
		w.WriteQuoted([]byte("set"))
		w.WriteEnd()
		Expect(buf.String()).To(Equal("{\n\tflag_name = \"set\"\n}"))
	})

	It("renders a lone buffered scalar as a single-element array", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteStart()
		w.WriteI32(7)
		w.WriteEnd()
		Expect(buf.String()).To(Equal("{7}"))
	})

	It("renders an empty container as {}", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteStart()
		w.WriteEnd()
		Expect(buf.String()).To(Equal("{}"))
	})

	It("treats a container opening a container as an array of containers", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteStart()
		w.WriteStart()
		w.WriteI32(1)
		w.WriteEnd()
		w.WriteStart()
		w.WriteI32(2)
		w.WriteEnd()
		w.WriteEnd()
		Expect(buf.String()).To(Equal("{{1} {2}}"))
	})

	It("emits nested objects with newline-separated indented keys", func() {
		var buf bytes.Buffer
		w := imperator.NewTextWriter(&buf)
		w.WriteUnquoted([]byte("country"))
		w.WriteOperator()
		w.WriteStart()
		w.WriteUnquoted([]byte("tag"))
		w.WriteOperator()
		w.WriteQuoted([]byte("ROM"))
		w.WriteUnquoted([]byte("capital"))
		w.WriteOperator()
		w.WriteI32(1)
		w.WriteEnd()

		Expect(buf.String()).To(Equal("country = {\n\ttag = \"ROM\"\n\tcapital = 1\n}"))
	})
})
