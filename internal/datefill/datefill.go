// Package datefill canonicalizes retrieval range boundaries to fixed-width
// date (yyyymmdd) or datetime (yyyymmddhhmmss) strings.
//
// Water-year input is a year Y and expands to October 1 of Y-1 (begin) or
// September 30 of Y (end). All zeros denotes the start and all nines the
// end of the period of record. Input wider than the target is truncated,
// not rejected.
package datefill

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bft-labs/aq2rdb/internal/fixed"
)

// Boundary widths.
const (
	DateWidth     = 8
	DateTimeWidth = 14
)

// Period-of-record sentinels.
const (
	BeginOfRecordDate     = "00000000"
	EndOfRecordDate       = "99999999"
	BeginOfRecordDateTime = "00000000000000"
	EndOfRecordDateTime   = "99999999999999"
)

const endOfRecordYear = 9999

// FillBeginDate returns the 8-character begin date for raw.
func FillBeginDate(waterYear bool, raw string) string {
	if waterYear {
		y := year(raw)
		if y <= 0 {
			return BeginOfRecordDate
		}
		return fmt.Sprintf("%04d1001", y-1)
	}
	return pad(raw, DateWidth)
}

// FillEndDate returns the 8-character end date for raw.
func FillEndDate(waterYear bool, raw string) string {
	if waterYear {
		y := year(raw)
		if y == endOfRecordYear {
			return EndOfRecordDate
		}
		return fmt.Sprintf("%04d0930", y)
	}
	return pad(raw, DateWidth)
}

// FillBeginDtm returns the 14-character begin datetime for raw.
func FillBeginDtm(waterYear bool, raw string) string {
	if waterYear {
		y := year(raw)
		if y <= 0 {
			return BeginOfRecordDateTime
		}
		return fmt.Sprintf("%04d1001000000", y-1)
	}
	return pad(raw, DateTimeWidth)
}

// FillEndDtm returns the 14-character end datetime for raw. A date without
// a time of day ends at 235959, or at 999999 for the end-of-record date.
//
// When raw already carries part of a time of day, the raw value (truncated
// and zero-filled but not padded) is returned instead of the padded one.
// Callers may therefore see fewer than 14 characters for input such as
// "2005061512"; this matches the established output of the end-datetime
// routine and is pinned by TestFillEndDtmPartialTimeKeepsRawWidth.
func FillEndDtm(waterYear bool, raw string) string {
	if waterYear {
		y := year(raw)
		if y == endOfRecordYear {
			return EndOfRecordDateTime
		}
		return fmt.Sprintf("%04d0930235959", y)
	}
	s := fixed.Left(raw, DateTimeWidth)
	if fixed.Blank(s[DateWidth:]) {
		date := fixed.ZeroFill(s[:DateWidth])
		if date == EndOfRecordDate {
			return date + "999999"
		}
		return date + "235959"
	}
	return fixed.ZeroFill(fixed.Truncate(raw, DateTimeWidth))
}

// Begin fills raw as a begin boundary of the given width.
func Begin(waterYear bool, raw string, width int) string {
	if width == DateTimeWidth {
		return FillBeginDtm(waterYear, raw)
	}
	return FillBeginDate(waterYear, raw)
}

// End fills raw as an end boundary of the given width.
func End(waterYear bool, raw string, width int) string {
	if width == DateTimeWidth {
		return FillEndDtm(waterYear, raw)
	}
	return FillEndDate(waterYear, raw)
}

// IsBeginOfRecord reports whether b is an all-zero boundary.
func IsBeginOfRecord(b string) bool {
	return b != "" && strings.Trim(b, "0") == ""
}

// IsEndOfRecord reports whether b is an all-nine boundary.
func IsEndOfRecord(b string) bool {
	return b != "" && strings.Trim(b, "9") == ""
}

// year reads up to four leading characters of raw as a year, ignoring
// surrounding blanks. Unreadable input yields zero.
func year(raw string) int {
	s := strings.TrimSpace(fixed.Truncate(raw, 4))
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return y
}

// pad left-justifies raw in width characters; every blank, leading ones
// included, becomes '0'.
func pad(raw string, width int) string {
	return fixed.ZeroFill(fixed.Left(raw, width))
}
