package domain

import "strings"

// Datatype selects the kind of time series retrieved.
type Datatype string

const (
	DV Datatype = "DV" // daily values
	UV Datatype = "UV" // unit values
	MS Datatype = "MS" // discharge measurements
	PK Datatype = "PK" // peak flows
	DC Datatype = "DC" // data corrections
	SV Datatype = "SV" // variable shifts
	WL Datatype = "WL" // water levels
	QW Datatype = "QW" // water quality
	VT Datatype = "VT" // site visit readings
)

// Datatypes lists every datatype accepted for a single request.
var Datatypes = []Datatype{DV, UV, MS, PK, DC, SV, WL, QW, VT}

// BatchDatatypes lists the datatypes a control-file row may name.
var BatchDatatypes = []Datatype{DV, UV, DC, SV, MS, PK}

// ParseDatatype upper-cases s, keeps its first two characters and reports
// whether the result is a known datatype.
func ParseDatatype(s string) (Datatype, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) > 2 {
		s = s[:2]
	}
	d := Datatype(s)
	return d, d.In(Datatypes...)
}

// In reports whether d is one of set.
func (d Datatype) In(set ...Datatype) bool {
	for _, s := range set {
		if d == s {
			return true
		}
	}
	return false
}

// RequiresStat reports whether a stat/subtype code must be supplied.
func (d Datatype) RequiresStat() bool {
	return !d.In(DC, SV, WL, QW)
}

// RequiresDDID reports whether a descriptor id (or a parameter code that
// resolves to one) must be supplied.
func (d Datatype) RequiresDDID() bool {
	return !d.In(MS, PK, WL, QW)
}

// UsesDateTime reports whether begin/end boundaries are 14-character
// datetimes rather than 8-character dates. Measurement types 1 to 3 are
// pseudo unit values and use datetimes.
func (d Datatype) UsesDateTime(stat string) bool {
	switch d {
	case UV, WL, QW, VT:
		return true
	case MS:
		return stat != "" && stat[0] >= '1' && stat[0] <= '3'
	default:
		return false
	}
}

// FileType is the RDB "FILE TYPE" label written in report headers.
func (d Datatype) FileType() string {
	switch d {
	case DV:
		return "NWIS-I DAILY-VALUES"
	case UV:
		return "NWIS-I UNIT-VALUES"
	case MS:
		return "NWIS-I MEASUREMENTS"
	case PK:
		return "NWIS-I PEAK-FLOWS"
	case DC:
		return "NWIS-I DATA-CORRECTIONS"
	case SV:
		return "NWIS-I VARIABLE-SHIFTS"
	case WL:
		return "GWSI WATER-LEVELS"
	case QW:
		return "QWDATA SAMPLES"
	case VT:
		return "NWIS-I SITE-VISIT-READINGS"
	default:
		return "UNKNOWN"
	}
}
