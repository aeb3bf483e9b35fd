// Copyright (c) 2026 Rakaly Contributors

package imperator_test

import (
	"bytes"
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	imperator "github.com/rakaly/imperator-save"
)

var _ = Describe("BinaryTokenReader", func() {
	It("reads a flat sequence of scalar tokens", func() {
		raw := (&wireBuilder{}).
			id(0x2ab1).equal().quoted("Rome").
			id(0x2ab2).equal().i32Val(42).
			bytes()
		reader := imperator.NewBinaryTokenReader(bytes.NewReader(raw))

		tok, err := reader.Next()
		Expect(err).To(BeNil())
		Expect(tok.Kind).To(Equal(imperator.TokenID))
		Expect(tok.ID).To(Equal(uint16(0x2ab1)))

		tok, err = reader.Next()
		Expect(err).To(BeNil())
		Expect(tok.Kind).To(Equal(imperator.TokenEqual))

		tok, err = reader.Next()
		Expect(err).To(BeNil())
		Expect(tok.Kind).To(Equal(imperator.TokenQuoted))
		Expect(string(tok.Bytes)).To(Equal("Rome"))

		tok, err = reader.Next()
		Expect(err).To(BeNil())
		Expect(tok.Kind).To(Equal(imperator.TokenID))
		Expect(tok.ID).To(Equal(uint16(0x2ab2)))

		tok, err = reader.Next()
		Expect(err).To(BeNil())
		Expect(tok.Kind).To(Equal(imperator.TokenEqual))

		tok, err = reader.Next()
		Expect(err).To(BeNil())
		Expect(tok.Kind).To(Equal(imperator.TokenI32))
		Expect(tok.I32).To(Equal(int32(42)))

		_, err = reader.Next()
		Expect(err).To(Equal(io.EOF))
	})

	It("decodes every fixed-width scalar kind", func() {
		raw := (&wireBuilder{}).
			boolVal(true).
			u32Val(7).
			u64Val(123456789012).
			i64Val(-9).
			bytes()
		reader := imperator.NewBinaryTokenReader(bytes.NewReader(raw))

		tok, _ := reader.Next()
		Expect(tok.Kind).To(Equal(imperator.TokenBool))
		Expect(tok.Bool).To(BeTrue())

		tok, _ = reader.Next()
		Expect(tok.Kind).To(Equal(imperator.TokenU32))
		Expect(tok.U32).To(Equal(uint32(7)))

		tok, _ = reader.Next()
		Expect(tok.Kind).To(Equal(imperator.TokenU64))
		Expect(tok.U64).To(Equal(uint64(123456789012)))

		tok, _ = reader.Next()
		Expect(tok.Kind).To(Equal(imperator.TokenI64))
		Expect(tok.I64).To(Equal(int64(-9)))
	})

	It("skips a nested container via SkipContainer", func() {
		raw := (&wireBuilder{}).
			open().
			id(0x2a01).equal().i32Val(1).
			open().id(0x2a02).equal().i32Val(2).close().
			close().
			id(0x2a03).equal().i32Val(3).
			bytes()
		reader := imperator.NewBinaryTokenReader(bytes.NewReader(raw))

		Expect(reader.SkipContainer()).To(Succeed())

		tok, err := reader.Next()
		Expect(err).To(BeNil())
		Expect(tok.Kind).To(Equal(imperator.TokenID))
		Expect(tok.ID).To(Equal(uint16(0x2a03)))
	})

	It("rejects a reserved-range discriminant that is not a known tag", func() {
		raw := (&wireBuilder{}).tag(0x0002).bytes()
		reader := imperator.NewBinaryTokenReader(bytes.NewReader(raw))

		_, err := reader.Next()
		Expect(err).To(Equal(imperator.ErrInvalidDiscriminant))
	})

	It("reports truncation for a cut-off fixed-width payload", func() {
		raw := (&wireBuilder{}).i32Val(42).bytes()
		raw = raw[:len(raw)-1] // chop one byte off the i32 payload
		reader := imperator.NewBinaryTokenReader(bytes.NewReader(raw))

		_, err := reader.Next()
		Expect(err).To(Equal(imperator.ErrTruncated))
	})

	It("reports truncation when a string's declared length outruns its payload", func() {
		raw := (&wireBuilder{}).tag(wireQuoted).u16(10).bytes()
		reader := imperator.NewBinaryTokenReader(bytes.NewReader(raw))
		_, err := reader.Next()
		Expect(err).To(Equal(imperator.ErrTruncated))
	})
})
