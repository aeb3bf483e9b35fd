// Copyright (c) 2026 Rakaly Contributors

package imperator

import (
	"bytes"
	"fmt"
	"io"
)

// OnUnresolved selects how Melt and Deserialize react to a field id the
// Resolver cannot name. The Deserializer treats OnUnresolvedIgnore and
// OnUnresolvedStringify alike: it reports the field through
// Visitor.OnUnknownField, surfaces a scalar value, and skips a container
// value.
type OnUnresolved uint8

const (
	// OnUnresolvedIgnore makes Melt elide the whole field (key, operator,
	// and value) and record the id in the returned unknown-token set. An
	// unresolved id in value position has no field to elide; it is
	// written as "__unknown_0x{hex}" and recorded.
	OnUnresolvedIgnore OnUnresolved = iota
	// OnUnresolvedError aborts the operation with an error naming the
	// offending id.
	OnUnresolvedError
	// OnUnresolvedStringify writes a synthetic "__unknown_0x{hex}" key
	// and records the id in the returned unknown-token set.
	OnUnresolvedStringify
)

// MeltOptions controls Melt's behavior.
type MeltOptions struct {
	// Verbatim disables the key-driven rewrite rules (is_ironman elision,
	// seed/known_number arming, UnquoteAll queuing). Off by default.
	Verbatim bool
	// OnFailedResolve selects the unknown-token policy. Defaults to
	// OnUnresolvedIgnore.
	OnFailedResolve OnUnresolved
}

// MeltResult is the output of melting a binary save to plaintext: the set
// of field ids the resolver could not name.
type MeltResult struct {
	UnknownTokens map[uint16]struct{}
}

// quirkUnquotesValue reports whether a resolved key queues
// QuoteUnquoteAll on its value, so every quoted scalar inside is emitted
// bare. The game quirk covers event_targets and historical_regnal_numbers
// everywhere; technology only outside the country-level nesting depth,
// where the game re-reads it unquoted.
func quirkUnquotesValue(name string, depth int) bool {
	switch name {
	case "event_targets", "historical_regnal_numbers":
		return true
	case "technology":
		return depth != 2
	default:
		return false
	}
}

// Melt drives a BinaryTokenReader into a text save, splitting the output
// into metadata (everything before the gamestateSentinel field) and
// gamestate (the sentinel field onward), rewriting header's metadata_len
// in place once the metadata section's length is known.
func Melt(r io.Reader, w io.Writer, header SaveHeader, resolver Resolver, opts MeltOptions) (MeltResult, error) {
	result := MeltResult{UnknownTokens: make(map[uint16]struct{})}
	reader := NewBinaryTokenReader(r)

	var metaBuf bytes.Buffer
	header.SetKind(FormatText)
	if err := header.Write(&metaBuf); err != nil {
		return result, err
	}
	headerPrefixLen := metaBuf.Len()

	sawSentinel, err := meltSection(reader, &metaBuf, resolver, opts, result.UnknownTokens, true)
	if err != nil {
		return result, err
	}

	metaBytes := metaBuf.Bytes()
	header.SetMetadataLen(uint64(len(metaBytes) + 1 - headerPrefixLen))
	rewritten := bytes.NewBuffer(nil)
	if err := header.Write(rewritten); err != nil {
		return result, err
	}
	copy(metaBytes[:headerPrefixLen], rewritten.Bytes())

	if _, err := w.Write(metaBytes); err != nil {
		return result, writerIOError(err)
	}
	if _, err := w.Write([]byte{'\n'}); err != nil {
		return result, writerIOError(err)
	}

	if !sawSentinel {
		return result, nil
	}

	tw := NewTextWriter(w)
	tw.WriteUnquoted([]byte(gamestateSentinel))
	if err := drainSection(reader, tw, resolver, opts, result.UnknownTokens); err != nil {
		return result, err
	}
	if tw.Err() != nil {
		return result, tw.Err()
	}
	if _, err := w.Write([]byte{'\n'}); err != nil {
		return result, writerIOError(err)
	}
	return result, nil
}

// meltSection melts tokens into buf until it either hits EOF (returns
// false) or resolves a key equal to gamestateSentinel (returns true,
// having consumed the Id token but not yet emitted it).
func meltSection(reader *BinaryTokenReader, buf *bytes.Buffer, resolver Resolver, opts MeltOptions, unknown map[uint16]struct{}, stopAtSentinel bool) (bool, error) {
	tw := NewTextWriter(buf)
	knownNumber := false
	for {
		tok, err := reader.Next()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		sentinel, err := handleToken(reader, tw, tok, resolver, opts, unknown, &knownNumber, stopAtSentinel)
		if err != nil {
			return false, err
		}
		if tw.Err() != nil {
			return false, tw.Err()
		}
		if sentinel {
			return true, nil
		}
	}
}

// drainSection melts the remainder of the stream (gamestate) with no
// sentinel stop condition.
func drainSection(reader *BinaryTokenReader, tw *TextWriter, resolver Resolver, opts MeltOptions, unknown map[uint16]struct{}) error {
	knownNumber := false
	for {
		tok, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := handleToken(reader, tw, tok, resolver, opts, unknown, &knownNumber, false); err != nil {
			return err
		}
		if tw.Err() != nil {
			return tw.Err()
		}
	}
}

// handleToken applies one token to the writer. It returns true only
// when stopAtSentinel is set and the token resolved to
// gamestateSentinel in key position (the caller must then emit that key
// itself, since handleToken consumed but did not write it).
func handleToken(reader *BinaryTokenReader, tw *TextWriter, tok Token, resolver Resolver, opts MeltOptions, unknown map[uint16]struct{}, knownNumber *bool, stopAtSentinel bool) (bool, error) {
	switch tok.Kind {
	case TokenOpen:
		tw.WriteStart()
	case TokenClose:
		tw.WriteEnd()
	case TokenEqual:
		tw.WriteOperator()
	case TokenBool:
		tw.WriteBool(tok.Bool)
	case TokenU32:
		tw.WriteU32(tok.U32)
	case TokenU64:
		tw.WriteU64(tok.U64)
	case TokenI64:
		tw.WriteI64(tok.I64)
	case TokenF32:
		tw.WriteF32(BinaryFlavor{}.VisitF32(tok.F32))
	case TokenF64:
		tw.WriteF64(BinaryFlavor{}.VisitF64(tok.F64))
	case TokenRgb:
		tw.WriteRgb(tok.Rgb)
	case TokenI32:
		if *knownNumber {
			tw.WriteI32(tok.I32)
			*knownNumber = false
		} else if d, ok := PlausibleBinaryDate(tok.I32); ok {
			tw.WriteDate(d)
		} else {
			tw.WriteI32(tok.I32)
		}
	case TokenQuoted:
		// The writer resolves key-vs-value itself, deferring the scalar
		// when a container has just opened and either is still possible.
		tw.WriteQuoted(tok.Bytes)
	case TokenUnquoted:
		tw.WriteUnquoted(tok.Bytes)
	case TokenID:
		return handleID(reader, tw, tok.ID, resolver, opts, unknown, knownNumber, stopAtSentinel)
	}
	return false, nil
}

func handleID(reader *BinaryTokenReader, tw *TextWriter, id uint16, resolver Resolver, opts MeltOptions, unknown map[uint16]struct{}, knownNumber *bool, stopAtSentinel bool) (bool, error) {
	name, ok := resolver.Resolve(id)
	if !ok {
		unknown[id] = struct{}{}
		switch {
		case opts.OnFailedResolve == OnUnresolvedError:
			return false, unknownTokenError(id)
		case opts.OnFailedResolve == OnUnresolvedIgnore && tw.ExpectingKey():
			return false, elideField(reader)
		default:
			// Stringify, and Ignore when the id sits in value position
			// (there is no whole field to elide there).
			tw.WriteUnquoted([]byte(fmt.Sprintf("__unknown_0x%x", id)))
			return false, nil
		}
	}

	if !opts.Verbatim && name == "is_ironman" && tw.ExpectingKey() {
		return false, elideField(reader)
	}

	if stopAtSentinel && name == gamestateSentinel && tw.ExpectingKey() {
		return true, nil
	}

	if !opts.Verbatim {
		*knownNumber = name == "seed"
		if quirkUnquotesValue(name, tw.Depth()) {
			tw.QueueUnquoteAll()
		}
	}

	tw.WriteUnquoted([]byte(name))
	return false, nil
}

// elideField consumes a field's value without writing anything: an
// optional '=' operator followed by either a scalar token or a whole
// nested container.
func elideField(reader *BinaryTokenReader) error {
	tok, err := reader.Next()
	if err != nil {
		return elideErr(err)
	}
	if tok.Kind == TokenEqual {
		tok, err = reader.Next()
		if err != nil {
			return elideErr(err)
		}
	}
	if tok.Kind == TokenOpen {
		return skipToMatchingClose(reader)
	}
	return nil
}

// elideErr maps a clean EOF in the middle of an elision to ErrTruncated:
// a key with no value is a cut-off stream, not a clean end.
func elideErr(err error) error {
	if err == io.EOF {
		return ErrTruncated
	}
	return err
}
