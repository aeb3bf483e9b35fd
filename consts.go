// Copyright (c) 2026 Rakaly Contributors

package imperator

// HeaderSize is the fixed byte width of the SaveHeader line at offset 0.
// Fixed width lets melt rewrite metadata_len in place without shifting the
// gamestate section that follows.
const HeaderSize = 29

// gamestateSentinel is the field name whose appearance in the token stream
// marks the end of metadata and the start of gamestate. A named constant
// since a future game patch could move the boundary to a different field.
const gamestateSentinel = "speed"

// Date heuristic plausibility window. An I32 only renders as a date during
// melt if its decoded year falls in this range. The window is a named
// constant (rather than hardcoded in the heuristic) because the game does
// not document it and it isn't recoverable from a single source; it was
// chosen to comfortably bracket every year observed in the fixture saves
// (1436, 1444, 1804, and metadata-reported play dates) while still
// rejecting small integers that happen to decode to implausible years.
const (
	minPlausibleYear = 1
	maxPlausibleYear = 5000
)

// maxTokenStringLen caps the length prefix BinaryTokenReader will accept
// for a Quoted/Unquoted token, guarding against memory exhaustion from an
// adversarial length prefix.
const maxTokenStringLen = 1 << 20

// zipDirectorySearchWindow bounds how far past the header EnvelopeRouter
// will scan looking for a zip end-of-central-directory record.
const zipDirectorySearchWindow = 64 * 1024
