package domain

// DefaultAgency is used when no agency code is supplied.
const DefaultAgency = "USGS"

// DefaultTimeZone is the time zone code used when none is supplied.
const DefaultTimeZone = "LOC"

// Field widths of the canonical request.
const (
	AgencyWidth    = 5
	StationWidth   = 15
	DDIDWidth      = 4
	ParameterWidth = 5
	StatWidth      = 5
	TitleWidth     = 80
)

// Flags are the boolean retrieval options of a request.
type Flags struct {
	WaterYear          bool `json:"water_year"`
	RoundingSuppressed bool `json:"rounding_suppressed"`
	Verbose            bool `json:"verbose"`
	CombineDateTime    bool `json:"combine_datetime"`
	Hydra              bool `json:"hydra"`
	MultiFile          bool `json:"multi_file"`
	// Keyed is set when several control-file rows share one output, so
	// every row set carries its key columns.
	Keyed bool `json:"keyed"`
}

// RawRequest holds the uninterpreted fields of a single request, as given
// on the command line or as HTTP query parameters. Empty means absent.
type RawRequest struct {
	Datatype  string `json:"datatype,omitempty"`
	Agency    string `json:"agency,omitempty"`
	Station   string `json:"station,omitempty"`
	DDID      string `json:"ddid,omitempty"`
	Parameter string `json:"parameter,omitempty"`
	Location  string `json:"location,omitempty"`
	Stat      string `json:"stat,omitempty"`
	Begin     string `json:"begin,omitempty"`
	End       string `json:"end,omitempty"`
	Transport string `json:"transport,omitempty"`
	Title     string `json:"title,omitempty"`
}

// ControlFileRow is one data row of a control file. Values are left-trimmed
// and upper-cased; an empty column holds a single blank.
type ControlFileRow struct {
	Line     int
	Datatype string
	Agency   string
	Station  string
	DDID     string
	Subtype  string
	BegDate  string
	EndDate  string
}

// RequestSpec is a fully validated, canonical retrieval request. It is
// built fresh for every request and never mutated after dispatch begins.
type RequestSpec struct {
	Datatype Datatype `json:"datatype" validate:"required,oneof=DV UV MS PK DC SV WL QW VT"`
	Agency   string   `json:"agency" validate:"required,max=5"`
	Station  string   `json:"station" validate:"required,max=15"`
	// DDID is the 4-character descriptor id. It is empty until a
	// parameter code has been resolved to its primary descriptor.
	DDID      string `json:"ddid,omitempty" validate:"omitempty,len=4,numeric"`
	Parameter string `json:"parameter,omitempty" validate:"omitempty,len=5,numeric"`
	Location  string `json:"location,omitempty" validate:"omitempty,numeric"`
	Stat      string `json:"stat,omitempty" validate:"max=5"`
	Begin     string `json:"begin" validate:"required,numeric,min=8,max=14"`
	End       string `json:"end" validate:"required,numeric,min=8,max=14"`
	TimeZone  string `json:"time_zone" validate:"required"`
	Transport string `json:"transport,omitempty" validate:"max=1"`
	Title     string `json:"title,omitempty" validate:"max=80"`
	Flags     Flags  `json:"flags"`
	// Line is the originating control-file line, zero for single requests.
	Line int `json:"line,omitempty"`
}

// NeedsPrimaryDD reports whether the descriptor must still be looked up
// from the parameter code before the request can be dispatched.
func (s RequestSpec) NeedsPrimaryDD() bool {
	return s.DDID == "" && s.Parameter != "" && s.Datatype.RequiresDDID() && s.Datatype != VT
}

// Station is the metadata of a monitoring station.
type Station struct {
	Agency   string `json:"agency"`
	Number   string `json:"number"`
	Name     string `json:"name"`
	TimeZone string `json:"time_zone"`
	DST      bool   `json:"dst"`
}
