// Copyright (c) 2026 Rakaly Contributors

package imperator

import (
	"fmt"
	"strconv"
	"strings"
)

// daysPerMonth has no leap-year entry: Imperator treats every year as a
// non-leap year. Index 0 is unused so month indexes line up 1..12.
var daysPerMonth = [13]uint8{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Date is a year/month/day value in Imperator's calendar, which has no
// leap years. The zero value is not a valid Date; construct one with New,
// Parse, or ParseISO.
type Date struct {
	year  uint16
	month uint8
	day   uint8
}

// New builds a Date from its parts, returning false if year, month, or day
// fall outside their valid ranges.
func New(year uint16, month, day uint8) (Date, bool) {
	if year == 0 || month == 0 || day == 0 {
		return Date{}, false
	}
	if int(month) >= len(daysPerMonth) {
		return Date{}, false
	}
	if day > daysPerMonth[month] {
		return Date{}, false
	}
	return Date{year: year, month: month, day: day}, true
}

// Year returns the date's year.
func (d Date) Year() uint16 { return d.year }

// Month returns the date's month, 1-12.
func (d Date) Month() uint8 { return d.month }

// Day returns the date's day of month, 1-31.
func (d Date) Day() uint8 { return d.day }

// Compare returns -1, 0, or 1 ordering d against other, lexicographic on
// (year, month, day).
func (d Date) Compare(other Date) int {
	switch {
	case d.year != other.year:
		if d.year < other.year {
			return -1
		}
		return 1
	case d.month != other.month:
		if d.month < other.month {
			return -1
		}
		return 1
	case d.day != other.day:
		if d.day < other.day {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Parse reads the game's native Y.M.D textual form, e.g. "1444.11.11".
func Parse(s string) (Date, bool) {
	return parseDotted(s, '.')
}

// ParseISO reads the ISO 8601 form, e.g. "1444-11-11".
func ParseISO(s string) (Date, bool) {
	return parseDotted(s, '-')
}

func parseDotted(s string, sep byte) (Date, bool) {
	parts := strings.Split(s, string(sep))
	if len(parts) != 3 {
		return Date{}, false
	}
	y, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return Date{}, false
	}
	m, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Date{}, false
	}
	d, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return Date{}, false
	}
	return New(uint16(y), uint8(m), uint8(d))
}

// Format renders the game's native Y.M.D form.
func (d Date) Format() string {
	return fmt.Sprintf("%d.%d.%d", d.year, d.month, d.day)
}

// FormatISO renders the ISO 8601 form with zero-padded fields.
func (d Date) FormatISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

// dayOfYear returns the zero-based day-of-year offset (0..364) for d.
func (d Date) dayOfYear() int32 {
	days := int32(0)
	for m := uint8(1); m < d.month; m++ {
		days += int32(daysPerMonth[m])
	}
	return days + int32(d.day) - 1
}

// monthDayFromDayOfYear inverts dayOfYear for a 0..364 julian offset.
func monthDayFromDayOfYear(dayOfYear int32) (uint8, uint8) {
	remaining := dayOfYear
	for month := uint8(1); month <= 12; month++ {
		span := int32(daysPerMonth[month])
		if remaining < span {
			return month, uint8(remaining) + 1
		}
		remaining -= span
	}
	// Unreachable for any dayOfYear in [0,364]; fall back to Dec 31.
	return 12, daysPerMonth[12]
}

// days returns an absolute day count suitable for arithmetic: each year
// contributes exactly 365 days, matching the calendar's no-leap-year rule.
func (d Date) days() int64 {
	return int64(d.year)*365 + int64(d.dayOfYear())
}

// AddDays returns the date k days after d. k may be negative. The result's
// year is computed modulo the 365-day calendar, matching the in-game
// representation used by DecodeBinaryDate.
func (d Date) AddDays(k int64) Date {
	total := d.days() + k
	year := total / 365
	dayOfYear := total % 365
	if dayOfYear < 0 {
		dayOfYear += 365
		year--
	}
	month, day := monthDayFromDayOfYear(int32(dayOfYear))
	return Date{year: uint16(year), month: month, day: day}
}

// DaysUntil returns the signed day count from d to other: other.days() - d.days().
func (d Date) DaysUntil(other Date) int64 {
	return other.days() - d.days()
}

// DecodeBinaryDate decodes the signed 32-bit integer encoding used on the
// binary wire. Hours are present but discarded; dates whose decoded year
// is below 1 are absent, matching the game's own representation which
// treats anything decoding below year 1 as not-a-date.
func DecodeBinaryDate(v int32) (Date, bool) {
	v /= 24 // discard hours
	dayOfYear := v % 365
	yearOffset := v / 365
	if dayOfYear < 0 {
		dayOfYear += 365
		yearOffset--
	}
	year := yearOffset - 5000
	if year < 1 || year > 65535 {
		return Date{}, false
	}
	month, day := monthDayFromDayOfYear(dayOfYear)
	return Date{year: uint16(year), month: month, day: day}, true
}

// PlausibleBinaryDate applies the date heuristic used during melt: a
// successful decode whose year falls within the game-plausible window
// defined by minPlausibleYear/maxPlausibleYear.
func PlausibleBinaryDate(v int32) (Date, bool) {
	d, ok := DecodeBinaryDate(v)
	if !ok {
		return Date{}, false
	}
	if d.year < minPlausibleYear || d.year > maxPlausibleYear {
		return Date{}, false
	}
	return d, true
}
