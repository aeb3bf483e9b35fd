// Copyright (c) 2026 Rakaly Contributors

package imperator

import (
	"fmt"
	"io"
	"strconv"
)

// DeserializeOptions controls how Deserializer reacts to an id the
// Resolver cannot name. Unlike Melt, there is no Verbatim knob: the
// deserializer never rewrites field semantics, it only reports them.
type DeserializeOptions struct {
	OnFailedResolve OnUnresolved
}

// Deserializer drives either encoding's token stream into a Visitor,
// resolving binary ids via the given Resolver. It materializes nothing
// itself; concrete record construction is the Visitor implementation's
// concern.
type Deserializer struct {
	resolver Resolver
	opts     DeserializeOptions
}

// NewDeserializer builds a Deserializer over resolver with the given
// options.
func NewDeserializer(resolver Resolver, opts DeserializeOptions) *Deserializer {
	return &Deserializer{resolver: resolver, opts: opts}
}

// VisitBinary drives a binary token stream into v. The top level of a save
// is always a flat sequence of key/value pairs, so no OnObjectStart/
// OnObjectEnd wraps it.
func (d *Deserializer) VisitBinary(r io.Reader, v Visitor) error {
	bp := &binaryPeeker{reader: NewBinaryTokenReader(r)}
	_, err := d.binaryContainerIsArray(bp)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	return d.driveBinaryBody(bp, v, true, false)
}

// VisitText drives a plaintext token stream into v, with the same
// top-level convention as VisitBinary.
func (d *Deserializer) VisitText(r io.Reader, v Visitor) error {
	tp := &textPeeker{reader: NewTextTokenReader(r)}
	_, err := d.textContainerIsArray(tp)
	if err == io.EOF {
		return nil
	}
	if err != nil {
		return err
	}
	return d.driveTextBody(tp, v, true, false)
}

// binaryPeeker adds lookahead atop BinaryTokenReader, needed to tell an
// object (Id Equal ...) apart from an array (bare values) just inside an
// Open.
type binaryPeeker struct {
	reader  *BinaryTokenReader
	peeked  *Token
	pending []Token
}

func (p *binaryPeeker) next() (Token, error) {
	if p.peeked != nil {
		t := *p.peeked
		if len(p.pending) > 0 {
			next := p.pending[len(p.pending)-1]
			p.pending = p.pending[:len(p.pending)-1]
			p.peeked = &next
		} else {
			p.peeked = nil
		}
		return t, nil
	}
	return p.reader.Next()
}

func (p *binaryPeeker) peek() (Token, error) {
	if p.peeked == nil {
		t, err := p.reader.Next()
		if err != nil {
			return Token{}, err
		}
		p.peeked = &t
	}
	return *p.peeked, nil
}

// unread pushes tok back in front of whatever is currently peeked.
func (p *binaryPeeker) unread(tok Token) {
	if p.peeked != nil {
		p.pending = append(p.pending, *p.peeked)
	}
	p.peeked = &tok
}

// binaryContainerIsArray peeks (without losing) the first two tokens of a
// just-opened container to decide whether it is a key/value object (a
// key candidate followed by Equal) or a bare array of elements. Keys may
// be Id tokens or strings; anything else can only open an array.
func (d *Deserializer) binaryContainerIsArray(p *binaryPeeker) (bool, error) {
	first, err := p.peek()
	if err != nil {
		return false, err
	}
	switch first.Kind {
	case TokenID, TokenQuoted, TokenUnquoted:
	default:
		return true, nil
	}
	firstTok, _ := p.next()
	// A string payload borrows the reader's scratch buffer; copy it so it
	// survives the read of the second token.
	if firstTok.Bytes != nil {
		firstTok.Bytes = append([]byte(nil), firstTok.Bytes...)
	}
	second, err := p.reader.Next()
	if err != nil {
		return false, err
	}
	isArray := second.Kind != TokenEqual
	p.peeked = &second
	p.unread(firstTok)
	return isArray, nil
}

// driveBinaryBody reads field (or array-element) entries until a Close
// token (or, at the top level, EOF).
func (d *Deserializer) driveBinaryBody(p *binaryPeeker, v Visitor, atTop, isArray bool) error {
	for {
		tok, err := p.next()
		if err != nil {
			if err == io.EOF && atTop {
				return nil
			}
			return err
		}
		if tok.Kind == TokenClose {
			return nil
		}

		if isArray {
			if err := d.emitBinaryScalarOrContainer(p, tok, v); err != nil {
				return err
			}
			continue
		}

		switch tok.Kind {
		case TokenID:
			name, ok := d.resolver.Resolve(tok.ID)
			if !ok {
				if d.opts.OnFailedResolve == OnUnresolvedError {
					return unknownTokenError(tok.ID)
				}
				if err := v.OnUnknownField(tok.ID); err != nil {
					return err
				}
				if err := d.visitUnknownValue(p, v); err != nil {
					return err
				}
				continue
			}
			if err := v.OnKey(name); err != nil {
				return err
			}
			if err := d.visitBinaryFieldValue(p, name, v); err != nil {
				return err
			}
		case TokenQuoted, TokenUnquoted:
			// Objects can carry string keys (player-named variables and
			// the like) alongside Id keys.
			name := string(tok.Bytes)
			if err := v.OnKey(name); err != nil {
				return err
			}
			if err := d.visitBinaryFieldValue(p, name, v); err != nil {
				return err
			}
		default:
			if err := d.emitBinaryScalarOrContainer(p, tok, v); err != nil {
				return err
			}
		}
	}
}

func (d *Deserializer) visitBinaryFieldValue(p *binaryPeeker, name string, v Visitor) error {
	eq, err := p.next()
	if err != nil {
		return err
	}
	if eq.Kind != TokenEqual {
		return unexpectedKindError(name, "'=' operator")
	}
	valTok, err := p.next()
	if err != nil {
		return err
	}
	return d.emitBinaryScalarOrContainer(p, valTok, v)
}

// visitUnknownValue consumes an unresolved field's value. A scalar is
// still surfaced to the visitor under the unknown-field key it just
// received; a container is skipped whole.
func (d *Deserializer) visitUnknownValue(p *binaryPeeker, v Visitor) error {
	tok, err := p.next()
	if err != nil {
		return err
	}
	if tok.Kind != TokenEqual {
		p.unread(tok)
		return nil
	}
	tok, err = p.next()
	if err != nil {
		return err
	}
	if tok.Kind == TokenOpen {
		return skipToMatchingClose(p.reader)
	}
	return d.emitBinaryScalarOrContainer(p, tok, v)
}

func (d *Deserializer) emitBinaryScalarOrContainer(p *binaryPeeker, tok Token, v Visitor) error {
	switch tok.Kind {
	case TokenOpen:
		isArray, err := d.binaryContainerIsArray(p)
		if err != nil {
			return err
		}
		if isArray {
			if err := v.OnArrayStart(); err != nil {
				return err
			}
		} else if err := v.OnObjectStart(); err != nil {
			return err
		}
		if err := d.driveBinaryBody(p, v, false, isArray); err != nil {
			return err
		}
		if isArray {
			return v.OnArrayEnd()
		}
		return v.OnObjectEnd()
	case TokenBool:
		return v.OnBool(tok.Bool)
	case TokenU32:
		return v.OnUint64(uint64(tok.U32))
	case TokenU64:
		return v.OnUint64(tok.U64)
	case TokenI64:
		return v.OnInt64(tok.I64)
	case TokenF32:
		return v.OnFloat64(float64(BinaryFlavor{}.VisitF32(tok.F32)))
	case TokenF64:
		return v.OnFloat64(BinaryFlavor{}.VisitF64(tok.F64))
	case TokenRgb:
		return v.OnRgb(tok.Rgb)
	case TokenI32:
		if date, ok := PlausibleBinaryDate(tok.I32); ok {
			return v.OnDate(date)
		}
		return v.OnInt64(int64(tok.I32))
	case TokenQuoted, TokenUnquoted:
		return v.OnString(string(tok.Bytes))
	case TokenID:
		// An id in value position is an enum-like reference; surface its
		// resolved name as a plain string.
		name, ok := d.resolver.Resolve(tok.ID)
		if !ok {
			if d.opts.OnFailedResolve == OnUnresolvedError {
				return unknownTokenError(tok.ID)
			}
			return v.OnString(fmt.Sprintf("__unknown_0x%x", tok.ID))
		}
		return v.OnString(name)
	default:
		return ErrInvalidDiscriminant
	}
}

// textPeeker adds lookahead atop TextTokenReader.
type textPeeker struct {
	reader  *TextTokenReader
	peeked  *textToken
	pending []textToken
}

func (p *textPeeker) next() (textToken, error) {
	if p.peeked != nil {
		t := *p.peeked
		if len(p.pending) > 0 {
			next := p.pending[len(p.pending)-1]
			p.pending = p.pending[:len(p.pending)-1]
			p.peeked = &next
		} else {
			p.peeked = nil
		}
		return t, nil
	}
	return p.reader.Next()
}

func (p *textPeeker) peek() (textToken, error) {
	if p.peeked == nil {
		t, err := p.reader.Next()
		if err != nil {
			return textToken{}, err
		}
		p.peeked = &t
	}
	return *p.peeked, nil
}

func (p *textPeeker) unread(tok textToken) {
	if p.peeked != nil {
		p.pending = append(p.pending, *p.peeked)
	}
	p.peeked = &tok
}

func (d *Deserializer) textContainerIsArray(p *textPeeker) (bool, error) {
	first, err := p.peek()
	if err != nil {
		return false, err
	}
	if first.Kind != textScalar {
		return true, nil
	}
	firstTok, _ := p.next()
	second, err := p.reader.Next()
	if err != nil {
		return false, err
	}
	isArray := second.Kind != textEqual
	p.peeked = &second
	p.unread(firstTok)
	return isArray, nil
}

func (d *Deserializer) driveTextBody(p *textPeeker, v Visitor, atTop, isArray bool) error {
	for {
		tok, err := p.next()
		if err != nil {
			if err == io.EOF && atTop {
				return nil
			}
			return err
		}
		if tok.Kind == textClose {
			return nil
		}

		if isArray || tok.Kind != textScalar {
			if err := d.emitTextScalarOrContainer(p, tok, v); err != nil {
				return err
			}
			continue
		}

		if err := v.OnKey(tok.Text); err != nil {
			return err
		}
		if eq, err := p.next(); err != nil || eq.Kind != textEqual {
			if err != nil {
				return err
			}
			return unexpectedKindError(tok.Text, "'=' operator")
		}
		valTok, err := p.next()
		if err != nil {
			return err
		}
		if err := d.emitTextScalarOrContainer(p, valTok, v); err != nil {
			return err
		}
	}
}

func (d *Deserializer) emitTextScalarOrContainer(p *textPeeker, tok textToken, v Visitor) error {
	switch tok.Kind {
	case textOpen:
		isArray, err := d.textContainerIsArray(p)
		if err != nil {
			return err
		}
		if isArray {
			if err := v.OnArrayStart(); err != nil {
				return err
			}
		} else if err := v.OnObjectStart(); err != nil {
			return err
		}
		if err := d.driveTextBody(p, v, false, isArray); err != nil {
			return err
		}
		if isArray {
			return v.OnArrayEnd()
		}
		return v.OnObjectEnd()
	case textScalar:
		return d.emitTextScalar(tok, v)
	default:
		return ErrInvalidDiscriminant
	}
}

// emitTextScalar classifies a bare or quoted text scalar. Quoted scalars
// are always strings; bare scalars are tried as bool, integer, float, and
// date before falling back to string.
func (d *Deserializer) emitTextScalar(tok textToken, v Visitor) error {
	if tok.Quoted {
		return v.OnString(tok.Text)
	}
	switch tok.Text {
	case "yes":
		return v.OnBool(true)
	case "no":
		return v.OnBool(false)
	}
	if i, err := strconv.ParseInt(tok.Text, 10, 64); err == nil {
		return v.OnInt64(i)
	}
	if u, err := strconv.ParseUint(tok.Text, 10, 64); err == nil {
		return v.OnUint64(u)
	}
	if f, err := strconv.ParseFloat(tok.Text, 64); err == nil {
		return v.OnFloat64(f)
	}
	if date, ok := Parse(tok.Text); ok {
		return v.OnDate(date)
	}
	return v.OnString(tok.Text)
}
