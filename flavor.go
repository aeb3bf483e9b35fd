// Copyright (c) 2026 Rakaly Contributors

package imperator

import (
	"encoding/binary"
	"math"
)

// BinaryFlavor decodes the two floating point wire widths the game uses.
// There are no other flavor knobs: Imperator always uses these two
// interpretations, unlike other Paradox titles that vary per-release.
type BinaryFlavor struct{}

// VisitF32 interprets b as a raw little-endian IEEE-754 single.
func (BinaryFlavor) VisitF32(b [4]byte) float32 {
	bits := binary.LittleEndian.Uint32(b[:])
	return math.Float32frombits(bits)
}

// VisitF64 interprets b as a little-endian i64 fixed-point value with five
// implied decimal digits ("Q5"): the game never writes raw IEEE-754
// doubles on the wire.
func (BinaryFlavor) VisitF64(b [8]byte) float64 {
	raw := int64(binary.LittleEndian.Uint64(b[:]))
	return float64(raw) / 100_000.0
}
