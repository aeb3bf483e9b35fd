// Copyright (c) 2026 Rakaly Contributors

package imperator

import (
	"bufio"
	"io"
)

type textTokenKind uint8

const (
	textOpen textTokenKind = iota
	textClose
	textEqual
	textScalar
)

type textToken struct {
	Kind   textTokenKind
	Text   string
	Quoted bool
}

// TextTokenReader is a streaming lexer over the plaintext save encoding,
// the text-side counterpart to BinaryTokenReader. It recognizes `{`, `}`,
// `=`, bare identifiers, and double-quoted strings, and treats `#` as a
// line comment.
type TextTokenReader struct {
	src *bufio.Reader
}

// NewTextTokenReader wraps r in a streaming plaintext lexer.
func NewTextTokenReader(r io.Reader) *TextTokenReader {
	return &TextTokenReader{src: bufio.NewReaderSize(r, defaultReaderBufferSize)}
}

// Next reads and returns the next token, or io.EOF at a clean end of
// stream.
func (t *TextTokenReader) Next() (textToken, error) {
	if err := t.skipInsignificant(); err != nil {
		return textToken{}, err
	}
	b, err := t.src.ReadByte()
	if err != nil {
		return textToken{}, err
	}
	switch b {
	case '{':
		return textToken{Kind: textOpen}, nil
	case '}':
		return textToken{Kind: textClose}, nil
	case '=':
		return textToken{Kind: textEqual}, nil
	case '"':
		return t.readQuoted()
	default:
		return t.readUnquoted(b)
	}
}

func (t *TextTokenReader) skipInsignificant() error {
	for {
		b, err := t.src.ReadByte()
		if err != nil {
			return err
		}
		switch {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			continue
		case b == '#':
			if err := t.skipToEOL(); err != nil {
				return err
			}
		default:
			return t.src.UnreadByte()
		}
	}
}

func (t *TextTokenReader) skipToEOL() error {
	for {
		b, err := t.src.ReadByte()
		if err != nil {
			return err
		}
		if b == '\n' {
			return nil
		}
	}
}

func (t *TextTokenReader) readQuoted() (textToken, error) {
	var buf []byte
	for {
		b, err := t.src.ReadByte()
		if err != nil {
			if err == io.EOF {
				return textToken{}, ErrTruncated
			}
			return textToken{}, err
		}
		if b == '"' {
			return textToken{Kind: textScalar, Text: string(buf), Quoted: true}, nil
		}
		buf = append(buf, b)
	}
}

func isBareTerminator(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '=', '{', '}', '#':
		return true
	default:
		return false
	}
}

func (t *TextTokenReader) readUnquoted(first byte) (textToken, error) {
	buf := []byte{first}
	for {
		b, err := t.src.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return textToken{}, err
		}
		if isBareTerminator(b) {
			_ = t.src.UnreadByte()
			break
		}
		buf = append(buf, b)
	}
	return textToken{Kind: textScalar, Text: string(buf)}, nil
}
