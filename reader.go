// Copyright (c) 2026 Rakaly Contributors

package imperator

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Wire discriminants for the binary token stream. Values below 0x0800 are
// reserved for structural and scalar tags; every other u16 discriminant is
// a field Id whose name is supplied by a Resolver.
const (
	tagEqual    uint16 = 0x0001
	tagOpen     uint16 = 0x0003
	tagClose    uint16 = 0x0004
	tagI32      uint16 = 0x000c
	tagF32      uint16 = 0x000d
	tagBool     uint16 = 0x000e
	tagQuoted   uint16 = 0x000f
	tagU32      uint16 = 0x0014
	tagUnquoted uint16 = 0x0017
	tagF64      uint16 = 0x0167
	tagU64      uint16 = 0x0312
	tagI64      uint16 = 0x0313
	tagRgb      uint16 = 0x0243
)

// minFieldID is the first discriminant interpreted as a field Id. A tag
// below it that is not one of the enumerated constants is not a field
// the resolver could ever name; it is a corrupt stream.
const minFieldID uint16 = 0x0800

// defaultReaderBufferSize sizes the bufio.Reader BinaryTokenReader scans
// over; it bounds reader-side overhead independent of save size.
const defaultReaderBufferSize = 16 * 1024

// BinaryTokenReader is a streaming lexer over the binary encoding. Next
// must be called once per token; it never reads past the end of the
// current token to classify the next one.
type BinaryTokenReader struct {
	src     *bufio.Reader
	scratch []byte // reused for Quoted/Unquoted payloads
	depth   int    // open container depth, used by Next to reject a Close with no open container
}

// NewBinaryTokenReader wraps r in a streaming token lexer.
func NewBinaryTokenReader(r io.Reader) *BinaryTokenReader {
	return &BinaryTokenReader{
		src:     bufio.NewReaderSize(r, defaultReaderBufferSize),
		scratch: make([]byte, 0, 256),
	}
}

// Next reads and returns the next token, or io.EOF at a clean end of
// stream. Any other error is fatal for the current operation.
func (r *BinaryTokenReader) Next() (Token, error) {
	var tagBuf [2]byte
	if _, err := io.ReadFull(r.src, tagBuf[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Token{}, ErrTruncated
		}
		return Token{}, err
	}
	tag := binary.LittleEndian.Uint16(tagBuf[:])

	switch tag {
	case tagOpen:
		r.depth++
		return Token{Kind: TokenOpen}, nil
	case tagClose:
		if r.depth == 0 {
			return Token{}, ErrNoOpenContainer
		}
		r.depth--
		return Token{Kind: TokenClose}, nil
	case tagEqual:
		return Token{Kind: TokenEqual}, nil
	case tagBool:
		b, err := r.readByte()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenBool, Bool: b != 0}, nil
	case tagU32:
		var b [4]byte
		if err := r.readFull(b[:]); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenU32, U32: binary.LittleEndian.Uint32(b[:])}, nil
	case tagU64:
		var b [8]byte
		if err := r.readFull(b[:]); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenU64, U64: binary.LittleEndian.Uint64(b[:])}, nil
	case tagI32:
		var b [4]byte
		if err := r.readFull(b[:]); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenI32, I32: int32(binary.LittleEndian.Uint32(b[:]))}, nil
	case tagI64:
		var b [8]byte
		if err := r.readFull(b[:]); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenI64, I64: int64(binary.LittleEndian.Uint64(b[:]))}, nil
	case tagF32:
		var b [4]byte
		if err := r.readFull(b[:]); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenF32, F32: b}, nil
	case tagF64:
		var b [8]byte
		if err := r.readFull(b[:]); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenF64, F64: b}, nil
	case tagRgb:
		var b [12]byte
		if err := r.readFull(b[:]); err != nil {
			return Token{}, err
		}
		return Token{Kind: TokenRgb, Rgb: Rgb{
			R: binary.LittleEndian.Uint32(b[0:4]),
			G: binary.LittleEndian.Uint32(b[4:8]),
			B: binary.LittleEndian.Uint32(b[8:12]),
		}}, nil
	case tagQuoted, tagUnquoted:
		buf, err := r.readString()
		if err != nil {
			return Token{}, err
		}
		kind := TokenQuoted
		if tag == tagUnquoted {
			kind = TokenUnquoted
		}
		return Token{Kind: kind, Bytes: buf}, nil
	default:
		if tag < minFieldID {
			return Token{}, ErrInvalidDiscriminant
		}
		return Token{Kind: TokenID, ID: tag}, nil
	}
}

func (r *BinaryTokenReader) readByte() (byte, error) {
	b, err := r.src.ReadByte()
	if err != nil {
		if err == io.EOF {
			return 0, ErrTruncated
		}
		return 0, err
	}
	return b, nil
}

func (r *BinaryTokenReader) readFull(b []byte) error {
	if _, err := io.ReadFull(r.src, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ErrTruncated
		}
		return err
	}
	return nil
}

func (r *BinaryTokenReader) readString() ([]byte, error) {
	var lenBuf [2]byte
	if err := r.readFull(lenBuf[:]); err != nil {
		return nil, err
	}
	n := int(binary.LittleEndian.Uint16(lenBuf[:]))
	if n > maxTokenStringLen {
		return nil, ErrOversizedString
	}
	if cap(r.scratch) < n {
		r.scratch = make([]byte, n)
	}
	buf := r.scratch[:n]
	if err := r.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// SkipContainer consumes tokens until it has matched the Close for the
// Open token that must be the next token read. Nested containers are
// accounted for. After it returns, Next yields the token immediately
// following the matched Close.
func (r *BinaryTokenReader) SkipContainer() error {
	tok, err := r.Next()
	if err != nil {
		if err == io.EOF {
			return ErrTruncated
		}
		return err
	}
	if tok.Kind != TokenOpen {
		return ErrNoOpenContainer
	}
	return skipToMatchingClose(r)
}

// skipToMatchingClose consumes tokens until it has matched one more Close
// than Open, i.e. the Close for a container whose Open was already
// consumed by the caller.
func skipToMatchingClose(r *BinaryTokenReader) error {
	depth := 1
	for depth > 0 {
		tok, err := r.Next()
		if err != nil {
			if err == io.EOF {
				return ErrTruncated
			}
			return err
		}
		switch tok.Kind {
		case TokenOpen:
			depth++
		case TokenClose:
			depth--
		}
	}
	return nil
}
