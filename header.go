// Copyright (c) 2026 Rakaly Contributors

package imperator

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatKind identifies which of the four save envelopes a header
// describes.
type FormatKind uint8

const (
	FormatText FormatKind = iota
	FormatBinary
	FormatTextZip
	FormatBinaryZip
)

func (k FormatKind) token() string {
	switch k {
	case FormatText:
		return "TEXT"
	case FormatBinary:
		return "BINR"
	case FormatTextZip:
		return "TZIP"
	case FormatBinaryZip:
		return "BZIP"
	default:
		return "????"
	}
}

func formatKindFromToken(tok string) (FormatKind, bool) {
	switch tok {
	case "TEXT":
		return FormatText, true
	case "BINR":
		return FormatBinary, true
	case "TZIP":
		return FormatTextZip, true
	case "BZIP":
		return FormatBinaryZip, true
	default:
		return 0, false
	}
}

// IsBinary reports whether k denotes one of the two binary-encoded
// envelopes (plain or zip-wrapped).
func (k FormatKind) IsBinary() bool {
	return k == FormatBinary || k == FormatBinaryZip
}

// IsZip reports whether k denotes one of the two zip-wrapped envelopes.
func (k FormatKind) IsZip() bool {
	return k == FormatTextZip || k == FormatBinaryZip
}

// SaveHeader is the fixed-width descriptor line at offset 0 of every save:
// magic, format kind, version triple, and the byte length of the metadata
// section that follows. The fixed width lets melt rewrite metadata_len in
// place without shifting the gamestate section.
type SaveHeader struct {
	kind         FormatKind
	versionMajor uint8
	versionMinor uint8
	versionPatch uint8
	metadataLen  uint64
}

// NewSaveHeader builds a header for the given kind and version, with a
// metadata length of zero (set later via SetMetadataLen).
func NewSaveHeader(kind FormatKind, major, minor, patch uint8) SaveHeader {
	return SaveHeader{kind: kind, versionMajor: major, versionMinor: minor, versionPatch: patch}
}

// Kind returns the header's format kind.
func (h SaveHeader) Kind() FormatKind { return h.kind }

// IsBinary derives from the header's format kind.
func (h SaveHeader) IsBinary() bool { return h.kind.IsBinary() }

// MetadataLen returns the declared metadata section length in bytes.
func (h SaveHeader) MetadataLen() uint64 { return h.metadataLen }

// Version returns the major.minor.patch version triple as a string.
func (h SaveHeader) Version() string {
	return fmt.Sprintf("%d.%d.%d", h.versionMajor, h.versionMinor, h.versionPatch)
}

// SetKind mutates the header's format kind, used by melt to rewrite the
// envelope as text once the binary stream has been converted.
func (h *SaveHeader) SetKind(kind FormatKind) { h.kind = kind }

// SetMetadataLen mutates the declared metadata length, used by melt once
// the emitted metadata section's byte count is known.
func (h *SaveHeader) SetMetadataLen(n uint64) { h.metadataLen = n }

// ParseHeader parses the first HeaderSize bytes of a save. It rejects
// inputs shorter than HeaderSize, a magic mismatch, an unrecognized
// format_kind token, or non-numeric version/metadata_len fields.
func ParseHeader(b []byte) (SaveHeader, error) {
	if len(b) < HeaderSize {
		return SaveHeader{}, ErrInvalidHeader
	}
	line := string(b[:HeaderSize])
	fields := strings.Fields(line)
	if len(fields) != 4 || fields[0] != "SAV" {
		return SaveHeader{}, ErrInvalidHeader
	}
	kind, ok := formatKindFromToken(fields[1])
	if !ok {
		return SaveHeader{}, ErrInvalidHeader
	}
	versionParts := strings.Split(fields[2], ".")
	if len(versionParts) != 3 {
		return SaveHeader{}, ErrInvalidHeader
	}
	major, err := strconv.ParseUint(versionParts[0], 10, 8)
	if err != nil {
		return SaveHeader{}, ErrInvalidHeader
	}
	minor, err := strconv.ParseUint(versionParts[1], 10, 8)
	if err != nil {
		return SaveHeader{}, ErrInvalidHeader
	}
	patch, err := strconv.ParseUint(versionParts[2], 10, 8)
	if err != nil {
		return SaveHeader{}, ErrInvalidHeader
	}
	metadataLen, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return SaveHeader{}, ErrInvalidHeader
	}
	return SaveHeader{
		kind:         kind,
		versionMajor: uint8(major),
		versionMinor: uint8(minor),
		versionPatch: uint8(patch),
		metadataLen:  metadataLen,
	}, nil
}

// Write emits exactly HeaderSize bytes: left-padded numeric fields so an
// in-place rewrite (changing only kind and metadata_len) never shifts the
// gamestate section's offset.
func (h SaveHeader) Write(w io.Writer) error {
	line := fmt.Sprintf("SAV %-4s %02d.%02d.%02d %010d\n",
		h.kind.token(), h.versionMajor, h.versionMinor, h.versionPatch, h.metadataLen)
	if len(line) != HeaderSize {
		// Version or metadata_len overflowed their fixed fields.
		return ErrInvalidHeader
	}
	_, err := w.Write([]byte(line))
	return err
}

// Bytes renders the header to a HeaderSize-length byte slice.
func (h SaveHeader) Bytes() []byte {
	var buf strings.Builder
	_ = h.Write(&buf)
	return []byte(buf.String())
}
