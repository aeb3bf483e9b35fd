// Copyright (c) 2026 Rakaly Contributors
//
// Saves only ever carry two named entries compressed with DEFLATE or
// stored raw, so the container handling here is a minimal end-of-central-
// directory and central-directory-header scan over an in-memory slice,
// with klauspost/compress/flate doing the actual inflation. stdlib's
// archive/zip wants an io.ReaderAt over the whole archive and buffers
// accordingly, which doesn't fit streaming two entries out of a save.

package imperator

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"
)

const (
	eocdSignature = 0x06054b50
	cdhSignature  = 0x02014b50
	eocdMinSize   = 22
)

// zipEntry is a located-but-not-yet-decompressed member of a zip archive.
type zipEntry struct {
	name       string
	compressed bool // false => stored
	offset     uint32
	size       uint32
}

// ZipReader locates named entries within a zip archive and yields a
// decompressing io.Reader for each. It only supports DEFLATE and stored
// (uncompressed) entries, which is all the save format ever produces.
type ZipReader struct {
	data    []byte
	entries map[string]zipEntry
}

// OpenZipReader scans data for a zip end-of-central-directory record
// within the first zipDirectorySearchWindow bytes and indexes its
// entries. Bytes ahead of the archive in data are allowed: the offsets
// the directory records are taken relative to where the archive starts.
// It returns ErrZipCorrupt if no valid directory is found.
func OpenZipReader(data []byte) (*ZipReader, error) {
	limit := len(data)
	if limit > zipDirectorySearchWindow {
		limit = zipDirectorySearchWindow
	}
	eocdOffset := -1
	for i := limit - eocdMinSize; i >= 0; i-- {
		if binary.LittleEndian.Uint32(data[i:i+4]) == eocdSignature {
			eocdOffset = i
			break
		}
	}
	if eocdOffset < 0 {
		return nil, ErrZipCorrupt
	}
	eocd := data[eocdOffset:]
	entryCount := binary.LittleEndian.Uint16(eocd[10:12])
	cdSize := binary.LittleEndian.Uint32(eocd[12:16])
	cdOffset := binary.LittleEndian.Uint32(eocd[16:20])
	// The central directory ends where the EOCD record begins; the gap
	// between that and the recorded cdOffset is the length of whatever
	// precedes the archive (e.g. inlined metadata).
	base := eocdOffset - int(cdSize) - int(cdOffset)
	if base < 0 {
		return nil, ErrZipCorrupt
	}
	cdStart := base + int(cdOffset)

	entries := make(map[string]zipEntry, entryCount)
	cursor := data[cdStart : cdStart+int(cdSize)]
	for i := uint16(0); i < entryCount; i++ {
		if len(cursor) < 46 || binary.LittleEndian.Uint32(cursor[0:4]) != cdhSignature {
			return nil, ErrZipCorrupt
		}
		method := binary.LittleEndian.Uint16(cursor[10:12])
		compSize := binary.LittleEndian.Uint32(cursor[20:24])
		nameLen := binary.LittleEndian.Uint16(cursor[28:30])
		extraLen := binary.LittleEndian.Uint16(cursor[30:32])
		commentLen := binary.LittleEndian.Uint16(cursor[32:34])
		localOffset := binary.LittleEndian.Uint32(cursor[42:46])
		recordLen := 46 + int(nameLen) + int(extraLen) + int(commentLen)
		if len(cursor) < recordLen {
			return nil, ErrZipCorrupt
		}
		name := string(cursor[46 : 46+int(nameLen)])

		dataOffset, err := localFileDataOffset(data, localOffset+uint32(base))
		if err != nil {
			return nil, err
		}
		if int(dataOffset)+int(compSize) > len(data) {
			return nil, ErrZipCorrupt
		}
		entries[name] = zipEntry{
			name:       name,
			compressed: method != 0,
			offset:     dataOffset,
			size:       compSize,
		}
		cursor = cursor[recordLen:]
	}
	return &ZipReader{data: data, entries: entries}, nil
}

func localFileDataOffset(data []byte, localOffset uint32) (uint32, error) {
	if int(localOffset)+30 > len(data) {
		return 0, ErrZipCorrupt
	}
	lfh := data[localOffset:]
	if binary.LittleEndian.Uint32(lfh[0:4]) != 0x04034b50 {
		return 0, ErrZipCorrupt
	}
	nameLen := binary.LittleEndian.Uint16(lfh[26:28])
	extraLen := binary.LittleEndian.Uint16(lfh[28:30])
	return localOffset + 30 + uint32(nameLen) + uint32(extraLen), nil
}

// Open returns a reader over the decompressed contents of the named
// entry, or (nil, false) if no such entry exists.
func (z *ZipReader) Open(name string) (io.Reader, bool) {
	e, ok := z.entries[name]
	if !ok {
		return nil, false
	}
	raw := bytes.NewReader(z.data[e.offset : e.offset+e.size])
	if !e.compressed {
		return raw, true
	}
	return flate.NewReader(raw), true
}

// Has reports whether the archive contains an entry with the given name.
func (z *ZipReader) Has(name string) bool {
	_, ok := z.entries[name]
	return ok
}
