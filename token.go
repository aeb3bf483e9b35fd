// Copyright (c) 2026 Rakaly Contributors

package imperator

// TokenKind discriminates the binary wire's token stream. Field names are
// opaque u16 ids (Id); everything else is structural or a scalar.
type TokenKind uint8

const (
	TokenOpen TokenKind = iota
	TokenClose
	TokenEqual
	TokenID
	TokenBool
	TokenU32
	TokenU64
	TokenI32
	TokenI64
	TokenF32
	TokenF64
	TokenQuoted
	TokenUnquoted
	TokenRgb
)

// Rgb is the three-channel color token payload.
type Rgb struct {
	R, G, B uint32
}

// Token is one element of the binary wire. Only the field matching Kind is
// meaningful; the rest are zero. Quoted/Unquoted strings borrow the
// reader's scratch buffer and are only valid until the next call to Next
// or SkipContainer.
type Token struct {
	Kind  TokenKind
	ID    uint16
	Bool  bool
	U32   uint32
	U64   uint64
	I32   int32
	I64   int64
	F32   [4]byte
	F64   [8]byte
	Rgb   Rgb
	Bytes []byte
}
