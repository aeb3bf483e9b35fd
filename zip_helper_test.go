// Copyright (c) 2026 Rakaly Contributors

package imperator_test

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/flate"
)

// buildStoredZip assembles a minimal, valid zip archive (method: stored,
// no compression) containing the given named entries, in the order
// given. It exists so OpenZipReader/ZipReader can be exercised without a
// real save fixture.
func buildStoredZip(entries []struct {
	name string
	data []byte
}) []byte {
	var body []byte
	var central []byte

	for _, e := range entries {
		localOffset := uint32(len(body))

		var lfh []byte
		lfh = append(lfh, le32(0x04034b50)...)
		lfh = append(lfh, le16(20)...)                  // version needed
		lfh = append(lfh, le16(0)...)                   // flags
		lfh = append(lfh, le16(0)...)                   // method: stored
		lfh = append(lfh, le16(0)...)                   // mod time
		lfh = append(lfh, le16(0)...)                   // mod date
		lfh = append(lfh, le32(0)...)                   // crc32
		lfh = append(lfh, le32(uint32(len(e.data)))...) // compressed size
		lfh = append(lfh, le32(uint32(len(e.data)))...) // uncompressed size
		lfh = append(lfh, le16(uint16(len(e.name)))...)
		lfh = append(lfh, le16(0)...) // extra length
		lfh = append(lfh, []byte(e.name)...)
		body = append(body, lfh...)
		body = append(body, e.data...)

		var cdh []byte
		cdh = append(cdh, le32(0x02014b50)...)
		cdh = append(cdh, le16(20)...) // version made by
		cdh = append(cdh, le16(20)...) // version needed
		cdh = append(cdh, le16(0)...)  // flags
		cdh = append(cdh, le16(0)...)  // method
		cdh = append(cdh, le16(0)...)  // mod time
		cdh = append(cdh, le16(0)...)  // mod date
		cdh = append(cdh, le32(0)...)  // crc32
		cdh = append(cdh, le32(uint32(len(e.data)))...)
		cdh = append(cdh, le32(uint32(len(e.data)))...)
		cdh = append(cdh, le16(uint16(len(e.name)))...)
		cdh = append(cdh, le16(0)...) // extra length
		cdh = append(cdh, le16(0)...) // comment length
		cdh = append(cdh, le16(0)...) // disk number start
		cdh = append(cdh, le16(0)...) // internal attrs
		cdh = append(cdh, le32(0)...) // external attrs
		cdh = append(cdh, le32(localOffset)...)
		cdh = append(cdh, []byte(e.name)...)
		central = append(central, cdh...)
	}

	cdOffset := uint32(len(body))
	out := append([]byte{}, body...)
	out = append(out, central...)

	var eocd []byte
	eocd = append(eocd, le32(0x06054b50)...)
	eocd = append(eocd, le16(0)...) // disk number
	eocd = append(eocd, le16(0)...) // disk with cd
	eocd = append(eocd, le16(uint16(len(entries)))...)
	eocd = append(eocd, le16(uint16(len(entries)))...)
	eocd = append(eocd, le32(uint32(len(central)))...)
	eocd = append(eocd, le32(cdOffset)...)
	eocd = append(eocd, le16(0)...) // comment length
	out = append(out, eocd...)

	return out
}

// buildDeflateZip is buildStoredZip's sibling for method-8 entries: each
// entry's data is DEFLATE-compressed before being placed in the archive.
func buildDeflateZip(entries []struct {
	name string
	data []byte
}) []byte {
	var body []byte
	var central []byte

	for _, e := range entries {
		var compressed bytes.Buffer
		fw, _ := flate.NewWriter(&compressed, flate.DefaultCompression)
		_, _ = fw.Write(e.data)
		_ = fw.Close()

		localOffset := uint32(len(body))

		var lfh []byte
		lfh = append(lfh, le32(0x04034b50)...)
		lfh = append(lfh, le16(20)...)
		lfh = append(lfh, le16(0)...)
		lfh = append(lfh, le16(8)...) // method: deflate
		lfh = append(lfh, le16(0)...)
		lfh = append(lfh, le16(0)...)
		lfh = append(lfh, le32(0)...)
		lfh = append(lfh, le32(uint32(compressed.Len()))...)
		lfh = append(lfh, le32(uint32(len(e.data)))...)
		lfh = append(lfh, le16(uint16(len(e.name)))...)
		lfh = append(lfh, le16(0)...)
		lfh = append(lfh, []byte(e.name)...)
		body = append(body, lfh...)
		body = append(body, compressed.Bytes()...)

		var cdh []byte
		cdh = append(cdh, le32(0x02014b50)...)
		cdh = append(cdh, le16(20)...)
		cdh = append(cdh, le16(20)...)
		cdh = append(cdh, le16(0)...)
		cdh = append(cdh, le16(8)...) // method: deflate
		cdh = append(cdh, le16(0)...)
		cdh = append(cdh, le16(0)...)
		cdh = append(cdh, le32(0)...)
		cdh = append(cdh, le32(uint32(compressed.Len()))...)
		cdh = append(cdh, le32(uint32(len(e.data)))...)
		cdh = append(cdh, le16(uint16(len(e.name)))...)
		cdh = append(cdh, le16(0)...)
		cdh = append(cdh, le16(0)...)
		cdh = append(cdh, le16(0)...)
		cdh = append(cdh, le16(0)...)
		cdh = append(cdh, le32(0)...)
		cdh = append(cdh, le32(localOffset)...)
		cdh = append(cdh, []byte(e.name)...)
		central = append(central, cdh...)
	}

	cdOffset := uint32(len(body))
	out := append([]byte{}, body...)
	out = append(out, central...)

	var eocd []byte
	eocd = append(eocd, le32(0x06054b50)...)
	eocd = append(eocd, le16(0)...)
	eocd = append(eocd, le16(0)...)
	eocd = append(eocd, le16(uint16(len(entries)))...)
	eocd = append(eocd, le16(uint16(len(entries)))...)
	eocd = append(eocd, le32(uint32(len(central)))...)
	eocd = append(eocd, le32(cdOffset)...)
	eocd = append(eocd, le16(0)...)
	out = append(out, eocd...)

	return out
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}
