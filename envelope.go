// Copyright (c) 2026 Rakaly Contributors

package imperator

import (
	"bytes"
	"io"
)

// Envelope is a detected, routed save: a parsed header plus streaming
// readers over its two logical sections. It borrows the bytes it was
// opened from; it does not materialize the gamestate.
type Envelope struct {
	Header    SaveHeader
	metadata  io.Reader
	gamestate io.Reader
}

// MetadataReader returns a byte stream over the metadata section.
func (e *Envelope) MetadataReader() io.Reader { return e.metadata }

// GamestateReader returns a byte stream over the gamestate section.
func (e *Envelope) GamestateReader() io.Reader { return e.gamestate }

// OpenEnvelope detects and routes a save held entirely in memory. It
// peeks HeaderSize bytes to parse the header, then either locates a zip
// central directory within zipDirectorySearchWindow bytes after the
// header (for the two zip-wrapped kinds) or treats the remainder as a
// single binary/text stream per the header's declared kind.
func OpenEnvelope(data []byte) (*Envelope, error) {
	if len(data) < HeaderSize {
		return nil, ErrInvalidHeader
	}
	header, err := ParseHeader(data[:HeaderSize])
	if err != nil {
		return nil, err
	}
	body := data[HeaderSize:]

	if !header.Kind().IsZip() {
		metaLen := declaredMetadataLen(header, body)
		return &Envelope{
			Header:    header,
			metadata:  bytes.NewReader(body[:metaLen]),
			gamestate: bytes.NewReader(body[metaLen:]),
		}, nil
	}

	zr, err := OpenZipReader(body)
	if err != nil {
		return nil, err
	}
	if !zr.Has("gamestate") {
		return nil, ErrZipMissingGamestate
	}
	gamestateReader, _ := zr.Open("gamestate")

	var metaReader io.Reader
	if zr.Has("meta") {
		metaReader, _ = zr.Open("meta")
	} else {
		// Metadata is inlined between the header and the zip payload,
		// typical for uncompressed metadata prepended to a zipped
		// gamestate.
		prefixLen := zipPrefixLen(body)
		metaReader = bytes.NewReader(body[:prefixLen])
	}

	return &Envelope{Header: header, metadata: metaReader, gamestate: gamestateReader}, nil
}

// declaredMetadataLen applies the header's metadata_len, expanding to the
// whole remaining buffer if the declared length disagrees badly with the
// actual content. Compatibility shim for saves whose line endings were
// altered after writing.
func declaredMetadataLen(header SaveHeader, body []byte) int {
	declared := int(header.MetadataLen())
	if declared < 0 || declared > len(body) {
		return len(body)
	}
	if declared*2 > len(body) {
		return len(body)
	}
	return declared
}

// zipPrefixLen finds where the zip local-file-header signature begins in
// body, so the bytes before it can be treated as inlined metadata.
func zipPrefixLen(body []byte) int {
	sig := []byte{0x50, 0x4b, 0x03, 0x04}
	limit := len(body)
	if limit > zipDirectorySearchWindow {
		limit = zipDirectorySearchWindow
	}
	idx := bytes.Index(body[:limit], sig)
	if idx < 0 {
		return 0
	}
	return idx
}
