// Copyright (c) 2026 Rakaly Contributors

package imperator

import (
	"bytes"
	"io"
	"os"
)

// SaveRecord is a fully materialized save: the metadata section and the
// gamestate section, each as whatever tree shape the Visitor driving them
// produced.
type SaveRecord struct {
	Meta      any
	Gamestate any
}

// ParseOptions bundles the collaborators ParseSlice/ParseFile need: a
// Resolver for binary field ids, and the unresolved-id policy to apply
// while deserializing.
type ParseOptions struct {
	Resolver Resolver
	Options  DeserializeOptions
}

// ParseFile reads path fully into memory and materializes it. Saves are
// bounded by in-game file size limits, so slurping the whole file is
// fine here; Melt is the streaming path.
func ParseFile(path string, opts ParseOptions) (*SaveRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSlice(data, opts)
}

// ParseSlice detects the envelope, then drives each section's tokens (text
// or binary, per the header) into a MapVisitor.
func ParseSlice(data []byte, opts ParseOptions) (*SaveRecord, error) {
	env, err := OpenEnvelope(data)
	if err != nil {
		return nil, err
	}
	des := NewDeserializer(opts.Resolver, opts.Options)

	metaVisitor := NewMapVisitor()
	if err := visitSection(des, env.Header.Kind(), env.MetadataReader(), metaVisitor); err != nil {
		return nil, err
	}
	gamestateVisitor := NewMapVisitor()
	if err := visitSection(des, env.Header.Kind(), env.GamestateReader(), gamestateVisitor); err != nil {
		return nil, err
	}
	return &SaveRecord{Meta: metaVisitor.Value(), Gamestate: gamestateVisitor.Value()}, nil
}

func visitSection(des *Deserializer, kind FormatKind, r io.Reader, v Visitor) error {
	if kind.IsBinary() {
		return des.VisitBinary(r, v)
	}
	return des.VisitText(r, v)
}

// MeltFile reads path fully into memory and melts it to plaintext,
// returning the melted bytes alongside the set of ids the resolver could
// not name.
func MeltFile(path string, resolver Resolver, opts MeltOptions) ([]byte, MeltResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, MeltResult{}, err
	}
	return MeltSlice(data, resolver, opts)
}

// MeltSlice detects the envelope and melts a binary save to plaintext. A
// save that is already text-encoded is copied through unchanged (its
// sections simply concatenated back into a single stream with the header
// re-rendered), matching the real game's own behavior of accepting melted
// output as valid input.
func MeltSlice(data []byte, resolver Resolver, opts MeltOptions) ([]byte, MeltResult, error) {
	env, err := OpenEnvelope(data)
	if err != nil {
		return nil, MeltResult{}, err
	}
	if !env.Header.Kind().IsBinary() {
		return meltPassthrough(env)
	}

	var out bytes.Buffer
	combined := io.MultiReader(env.MetadataReader(), env.GamestateReader())
	result, err := Melt(combined, &out, env.Header, resolver, opts)
	if err != nil {
		return nil, result, err
	}
	return out.Bytes(), result, nil
}

// meltPassthrough re-emits an already-text save's header followed by its
// two sections, without touching either.
func meltPassthrough(env *Envelope) ([]byte, MeltResult, error) {
	var out bytes.Buffer
	header := env.Header
	header.SetKind(FormatText)
	if err := header.Write(&out); err != nil {
		return nil, MeltResult{}, err
	}
	if _, err := io.Copy(&out, env.MetadataReader()); err != nil {
		return nil, MeltResult{}, err
	}
	if _, err := io.Copy(&out, env.GamestateReader()); err != nil {
		return nil, MeltResult{}, err
	}
	return out.Bytes(), MeltResult{UnknownTokens: map[uint16]struct{}{}}, nil
}
