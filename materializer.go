// Copyright (c) 2026 Rakaly Contributors

package imperator

import "fmt"

// MapVisitor is the default concrete Visitor: it materializes whatever it
// is driven with into plain map[string]any / []any trees, the shape
// encoding/json and segmentio/encoding/json both marshal directly. It is a
// reference collaborator, not the only legal one: any type satisfying
// Visitor can stand in its place.
type MapVisitor struct {
	stack  []frame
	key    string
	hasKey bool
}

// frame is one open container during materialization. parentKey and
// parentHasKey snapshot the enclosing object's pending key so a nested
// container's own keys can't clobber it before the container closes.
type frame struct {
	obj          map[string]any
	arr          []any
	parentKey    string
	parentHasKey bool
}

// NewMapVisitor returns an empty MapVisitor ready to be driven by a
// Deserializer. The stack starts with one object frame: a save's top
// level is always an implicit flat sequence of fields, never wrapped in
// its own OnObjectStart/OnObjectEnd.
func NewMapVisitor() *MapVisitor {
	return &MapVisitor{stack: []frame{{obj: make(map[string]any)}}}
}

// Value returns the materialized top-level map once driving has
// finished.
func (m *MapVisitor) Value() any { return m.stack[0].obj }

func (m *MapVisitor) OnKey(name string) error {
	m.key = name
	m.hasKey = true
	return nil
}

func (m *MapVisitor) OnUnknownField(id uint16) error {
	m.key = fmt.Sprintf("__unknown_0x%x", id)
	m.hasKey = true
	return nil
}

func (m *MapVisitor) emit(v any) error {
	top := &m.stack[len(m.stack)-1]
	if top.obj != nil {
		if !m.hasKey {
			return ErrMissingRequired
		}
		top.obj[m.key] = mergeDuplicate(top.obj[m.key], v)
		m.hasKey = false
		return nil
	}
	top.arr = append(top.arr, v)
	return nil
}

// mergeDuplicate folds a repeated key into a slice, since the save format
// allows the same key to appear more than once in an object (a history of
// events, for instance) without wrapping it in an explicit array.
func mergeDuplicate(existing, next any) any {
	if existing == nil {
		return next
	}
	if arr, ok := existing.([]any); ok {
		return append(arr, next)
	}
	return []any{existing, next}
}

func (m *MapVisitor) OnString(v string) error   { return m.emit(v) }
func (m *MapVisitor) OnBool(v bool) error       { return m.emit(v) }
func (m *MapVisitor) OnInt64(v int64) error     { return m.emit(v) }
func (m *MapVisitor) OnUint64(v uint64) error   { return m.emit(v) }
func (m *MapVisitor) OnFloat64(v float64) error { return m.emit(v) }
func (m *MapVisitor) OnDate(v Date) error       { return m.emit(v.Format()) }
func (m *MapVisitor) OnRgb(v Rgb) error {
	return m.emit(map[string]any{"r": v.R, "g": v.G, "b": v.B})
}

func (m *MapVisitor) OnObjectStart() error {
	m.pushFrame(frame{obj: make(map[string]any)})
	return nil
}

func (m *MapVisitor) OnObjectEnd() error {
	return m.popAndEmit(func(f frame) any { return f.obj })
}

func (m *MapVisitor) OnArrayStart() error {
	m.pushFrame(frame{arr: []any{}})
	return nil
}

func (m *MapVisitor) OnArrayEnd() error {
	return m.popAndEmit(func(f frame) any { return f.arr })
}

func (m *MapVisitor) pushFrame(f frame) {
	f.parentKey = m.key
	f.parentHasKey = m.hasKey
	m.hasKey = false
	m.stack = append(m.stack, f)
}

func (m *MapVisitor) popAndEmit(extract func(frame) any) error {
	if len(m.stack) <= 1 {
		return ErrNoOpenContainer
	}
	f := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	m.key = f.parentKey
	m.hasKey = f.parentHasKey
	return m.emit(extract(f))
}

var _ Visitor = (*MapVisitor)(nil)
