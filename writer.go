// Copyright (c) 2026 Rakaly Contributors

package imperator

import (
	"fmt"
	"io"
	"math"
	"strconv"
)

// writerState tracks what TextWriter expects next inside an object
// container: a key or a value. Array position is tracked per-frame.
type writerState uint8

const (
	stateExpectKey writerState = iota
	stateExpectValue
)

// QuoteMode controls how TextWriter renders quoted-position scalars
// within one container nesting level.
type QuoteMode uint8

const (
	// QuoteDefault quotes scalars that need it per the usual rules.
	QuoteDefault QuoteMode = iota
	// QuoteUnquoteAll emits every scalar bare regardless of content,
	// used for the event_targets/technology/historical_regnal_numbers
	// game quirk.
	QuoteUnquoteAll
)

// frameKind records what a container turned out to be. A just-opened
// container is frameUnknown until its first writes disambiguate it: a
// scalar followed by an operator makes it an object, anything else makes
// it an array. The binary wire doesn't distinguish the two, so the
// writer has to.
type frameKind uint8

const (
	frameUnknown frameKind = iota
	frameObject
	frameArray
)

// scalarClass distinguishes how a scalar arrived at the writer, which
// determines its quoting in value position. Keys are always bare.
type scalarClass uint8

const (
	classUnquoted scalarClass = iota
	classQuoted
	classBare // numbers, bools, dates, rgb: never quoted
)

// containerFrame is one entry of the quoting-mode stack: invariant is
// that the stack depth equals the depth of open containers, pushed on
// Open and popped on Close.
type containerFrame struct {
	kind  frameKind
	mode  QuoteMode
	first bool // true until the first element/key has been written
}

// pendingScalar is the one-token buffer for a scalar written at the
// start of a frameUnknown container, held until the next write resolves
// whether it was a key or an array element. The bytes are copied since
// the caller's buffer may be reused before resolution.
type pendingScalar struct {
	data  []byte
	class scalarClass
}

// TextWriter emits the plaintext save representation: tab-indented
// `key = value` pairs, space-separated array elements, and a
// per-container quoting mode stack with one queued override.
type TextWriter struct {
	w       io.Writer
	state   writerState
	stack   []containerFrame
	queued  *QuoteMode // applies to the next Open or the next scalar, whichever comes first
	pending *pendingScalar
	err     error
}

// NewTextWriter wraps w in a TextWriter. The top level of a save is a
// flat sequence of fields, so the initial frame is an object.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{
		w:     w,
		state: stateExpectKey,
		stack: []containerFrame{{kind: frameObject, mode: QuoteDefault, first: true}},
	}
}

// Depth returns the writer's current container nesting depth.
func (t *TextWriter) Depth() int { return len(t.stack) - 1 }

// ExpectingKey reports whether the next scalar write will be treated as
// a key (and therefore rendered bare). At the start of a still-ambiguous
// container the first scalar may yet turn out to be a key, so it counts.
func (t *TextWriter) ExpectingKey() bool {
	f := t.top()
	if f.kind == frameUnknown {
		return t.pending == nil
	}
	return f.kind == frameObject && t.state == stateExpectKey
}

// QueueUnquoteAll arms QuoteUnquoteAll for the next container pushed, or
// the very next value scalar if no container intervenes first.
func (t *TextWriter) QueueUnquoteAll() {
	m := QuoteUnquoteAll
	t.queued = &m
}

// Err returns the first I/O error encountered, if any.
func (t *TextWriter) Err() error { return t.err }

func (t *TextWriter) top() *containerFrame { return &t.stack[len(t.stack)-1] }

func (t *TextWriter) write(b []byte) {
	if t.err != nil {
		return
	}
	if _, err := t.w.Write(b); err != nil {
		t.err = writerIOError(err)
	}
}

func (t *TextWriter) writeIndent(depth int) {
	for i := 0; i < depth; i++ {
		t.write([]byte{'\t'})
	}
}

func (t *TextWriter) consumeQueued() QuoteMode {
	if t.queued != nil {
		m := *t.queued
		t.queued = nil
		return m
	}
	return t.top().mode
}

func needsQuote(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	switch b[0] {
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return true
	}
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '=', '{', '}', '#':
			return true
		}
	}
	return false
}

// renderValue writes a scalar in value or array-element position,
// applying the quoting rules for its class under the given mode.
func (t *TextWriter) renderValue(b []byte, class scalarClass, mode QuoteMode) {
	quote := false
	switch class {
	case classQuoted:
		quote = mode != QuoteUnquoteAll
	case classUnquoted:
		quote = mode != QuoteUnquoteAll && needsQuote(b)
	}
	if quote {
		t.write([]byte{'"'})
		t.write(b)
		t.write([]byte{'"'})
	} else {
		t.write(b)
	}
}

// resolveArray commits a frameUnknown container to being an array,
// flushing the deferred first element if one is buffered.
func (t *TextWriter) resolveArray() {
	f := t.top()
	f.kind = frameArray
	if t.pending != nil {
		p := t.pending
		t.pending = nil
		t.renderValue(p.data, p.class, f.mode)
		f.first = false
	}
}

// writeScalar routes one scalar through the container state machine.
func (t *TextWriter) writeScalar(b []byte, class scalarClass) {
	if t.err != nil {
		return
	}
	f := t.top()
	switch f.kind {
	case frameUnknown:
		if t.pending == nil {
			t.pending = &pendingScalar{data: append([]byte(nil), b...), class: class}
			return
		}
		// Two scalars with no operator between them: an array.
		t.resolveArray()
		t.writeArrayElement(b, class)
	case frameArray:
		t.writeArrayElement(b, class)
	default:
		if t.state == stateExpectKey {
			if !f.first {
				t.write([]byte{'\n'})
				t.writeIndent(t.Depth())
			}
			f.first = false
			t.write(b) // keys are always bare
			t.state = stateExpectValue
		} else {
			t.renderValue(b, class, t.consumeQueued())
			t.state = stateExpectKey
		}
	}
}

func (t *TextWriter) writeArrayElement(b []byte, class scalarClass) {
	f := t.top()
	if !f.first {
		t.write([]byte{' '})
	}
	f.first = false
	mode := f.mode
	if t.queued != nil {
		mode = *t.queued
		t.queued = nil
	}
	t.renderValue(b, class, mode)
}

// WriteStart opens a container ('{') whose object/array nature is not
// yet known; the following writes resolve it. Depth increases by one.
func (t *TextWriter) WriteStart() { t.pushContainer(frameUnknown) }

// WriteArrayStart opens a container that is known up front to be an
// array: subsequent scalars are space-separated elements until WriteEnd.
func (t *TextWriter) WriteArrayStart() { t.pushContainer(frameArray) }

func (t *TextWriter) pushContainer(kind frameKind) {
	if t.err != nil {
		return
	}
	f := t.top()
	switch f.kind {
	case frameUnknown:
		// A nested container before any operator makes the enclosing
		// container an array.
		t.resolveArray()
		if !f.first {
			t.write([]byte{' '})
		}
		f.first = false
	case frameArray:
		if !f.first {
			t.write([]byte{' '})
		}
		f.first = false
	default:
		// Object: this container is the pending value, '=' already out.
	}
	t.write([]byte{'{'})
	mode := t.consumeQueued()
	t.stack = append(t.stack, containerFrame{kind: kind, mode: mode, first: true})
	t.state = stateExpectKey
}

// WriteEnd closes the current container ('}') and pops the quoting
// stack; depth decreases by one. A container closed while still
// ambiguous is rendered as an array (a lone buffered scalar becomes its
// single element).
func (t *TextWriter) WriteEnd() {
	if t.err != nil {
		return
	}
	if len(t.stack) == 1 {
		t.err = ErrNoOpenContainer
		return
	}
	f := *t.top()
	if f.kind == frameUnknown && t.pending != nil {
		p := t.pending
		t.pending = nil
		t.renderValue(p.data, p.class, f.mode)
		f.kind = frameArray
		f.first = false
	}
	t.stack = t.stack[:len(t.stack)-1]
	if f.kind == frameObject {
		t.write([]byte{'\n'})
		t.writeIndent(t.Depth())
	}
	t.write([]byte{'}'})
	if t.top().kind != frameArray {
		t.state = stateExpectKey
	}
}

// WriteOperator writes the '=' between a key and its value. In a
// still-ambiguous container it also settles the question: the buffered
// scalar was a key, so the container is an object.
func (t *TextWriter) WriteOperator() {
	if t.err != nil {
		return
	}
	f := t.top()
	if f.kind == frameUnknown {
		f.kind = frameObject
		if p := t.pending; p != nil {
			t.pending = nil
			t.write([]byte{'\n'})
			t.writeIndent(t.Depth())
			t.write(p.data)
			f.first = false
		}
	}
	t.write([]byte(" = "))
	t.state = stateExpectValue
}

// WriteQuoted writes a string that was quoted on the wire. In key
// position it is rendered bare; in value position it is quoted unless
// the current quoting mode is QuoteUnquoteAll.
func (t *TextWriter) WriteQuoted(b []byte) { t.writeScalar(b, classQuoted) }

// WriteUnquoted writes an identifier-like scalar. Keys are always bare;
// a value is quoted only if its content would be ambiguous on re-parse.
func (t *TextWriter) WriteUnquoted(b []byte) { t.writeScalar(b, classUnquoted) }

// WriteBool writes "yes" or "no".
func (t *TextWriter) WriteBool(v bool) {
	if v {
		t.writeScalar([]byte("yes"), classBare)
	} else {
		t.writeScalar([]byte("no"), classBare)
	}
}

// WriteI32 writes a signed 32-bit integer in decimal.
func (t *TextWriter) WriteI32(v int32) {
	t.writeScalar([]byte(strconv.FormatInt(int64(v), 10)), classBare)
}

// WriteI64 writes a signed 64-bit integer in decimal.
func (t *TextWriter) WriteI64(v int64) {
	t.writeScalar([]byte(strconv.FormatInt(v, 10)), classBare)
}

// WriteU32 writes an unsigned 32-bit integer in decimal.
func (t *TextWriter) WriteU32(v uint32) {
	t.writeScalar([]byte(strconv.FormatUint(uint64(v), 10)), classBare)
}

// WriteU64 writes an unsigned 64-bit integer in decimal.
func (t *TextWriter) WriteU64(v uint64) {
	t.writeScalar([]byte(strconv.FormatUint(v, 10)), classBare)
}

// WriteF32 writes a float32 with its minimal decimal representation.
func (t *TextWriter) WriteF32(v float32) {
	t.writeScalar([]byte(strconv.FormatFloat(float64(v), 'f', -1, 32)), classBare)
}

// WriteF64 writes a float64 with a five-digit fixed fraction, or as a
// bare integer when the fraction is exactly zero, matching the game's
// own fixed-point save rendering.
func (t *TextWriter) WriteF64(v float64) {
	if v == math.Trunc(v) {
		t.writeScalar([]byte(strconv.FormatFloat(v, 'f', 0, 64)), classBare)
		return
	}
	t.writeScalar([]byte(strconv.FormatFloat(v, 'f', 5, 64)), classBare)
}

// WriteDate writes a Date in the game's native Y.M.D form.
func (t *TextWriter) WriteDate(d Date) {
	t.writeScalar([]byte(d.Format()), classBare)
}

// WriteRgb writes an rgb token as "rgb { r g b }".
func (t *TextWriter) WriteRgb(c Rgb) {
	t.writeScalar([]byte(fmt.Sprintf("rgb { %d %d %d }", c.R, c.G, c.B)), classBare)
}
