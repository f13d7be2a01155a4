// Package resolve turns raw request fields into canonical request specs.
//
// Resolution is pure: it reads no files and calls no services, except for
// the primary descriptor lookup in PrimaryDD, which callers run as a
// separate step once a spec is otherwise complete.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bft-labs/aq2rdb/internal/datefill"
	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/fixed"
	"github.com/bft-labs/aq2rdb/internal/ports"
)

// Options are the run-wide settings applied to every request.
type Options struct {
	// OutputPath is the report destination. Empty means standard output.
	OutputPath string
	Flags      domain.Flags
	// TimeZone defaults to domain.DefaultTimeZone.
	TimeZone string
}

// Field names used in diagnostics.
const (
	FieldDatatype  = "datatype"
	FieldAgency    = "agency"
	FieldStation   = "station"
	FieldDDID      = "ddid"
	FieldParameter = "parameter"
	FieldLocation  = "location"
	FieldStat      = "stat"
	FieldBegin     = "begin"
	FieldEnd       = "end"
	FieldTransport = "transport"
	FieldTitle     = "title"
)

var validate = validator.New()

// fields is the datatype-independent input to build.
type fields struct {
	datatype domain.Datatype
	agency   string
	station  string
	ddpm     string // descriptor id, or parameter code prefixed with P
	location string
	stat     string
	begin    string
	end      string
	transp   string
	title    string
	line     int
	batch    bool
}

// Single resolves a request given as individual fields.
//
// When fields are missing and an interactive prompter could supply them,
// the error wraps domain.ErrNeedsInteractiveCompletion and is a
// *domain.FieldsError naming them.
func Single(req domain.RawRequest, opts Options) (domain.RequestSpec, error) {
	return single(req, opts, false)
}

// Completed resolves a request whose missing fields were supplied by an
// interactive prompter. Prompted fields are exempt from the hydra
// argument restrictions.
func Completed(req domain.RawRequest, opts Options) (domain.RequestSpec, error) {
	return single(req, opts, true)
}

func single(req domain.RawRequest, opts Options, prompted bool) (domain.RequestSpec, error) {
	req = trimRequest(req)
	flags := opts.Flags
	flags.MultiFile = false

	if flags.Hydra {
		if err := checkHydra(req, opts, prompted); err != nil {
			return domain.RequestSpec{}, err
		}
		req.Datatype = string(domain.UV)
		flags.CombineDateTime = false
	} else {
		if req.DDID != "" && req.Parameter != "" {
			return domain.RequestSpec{}, domain.ErrConflictingIdentifier
		}
		if opts.OutputPath == "" {
			if missing := stdoutMissing(req); len(missing) > 0 {
				return domain.RequestSpec{}, domain.MissingFields(domain.ErrIncompleteForStdout, missing...)
			}
		}
	}

	ddpm := req.DDID
	if req.Parameter != "" {
		ddpm = "P" + req.Parameter
	}

	if req.Datatype == "" {
		return domain.RequestSpec{}, domain.MissingFields(domain.ErrNeedsInteractiveCompletion,
			append([]string{FieldDatatype}, singleMissing("", req, ddpm, flags)...)...)
	}
	dt, ok := domain.ParseDatatype(req.Datatype)
	if !ok {
		return domain.RequestSpec{}, fmt.Errorf("%w: %q", domain.ErrInvalidDatatype, req.Datatype)
	}
	if dt == domain.VT && flags.CombineDateTime {
		return domain.RequestSpec{}, fmt.Errorf("%w: %s cannot combine date and time", domain.ErrIncompatibleFlags, dt)
	}
	if missing := singleMissing(dt, req, ddpm, flags); len(missing) > 0 {
		return domain.RequestSpec{}, domain.MissingFields(domain.ErrNeedsInteractiveCompletion, missing...)
	}

	return build(fields{
		datatype: dt,
		agency:   req.Agency,
		station:  req.Station,
		ddpm:     ddpm,
		location: req.Location,
		stat:     req.Stat,
		begin:    req.Begin,
		end:      req.End,
		transp:   req.Transport,
		title:    req.Title,
	}, flags, opts)
}

// Row resolves one control-file data row. Every error carries the row's
// line number.
func Row(row domain.ControlFileRow, opts Options) (domain.RequestSpec, error) {
	f := fields{
		agency:  value(row.Agency),
		station: value(row.Station),
		ddpm:    value(row.DDID),
		stat:    value(row.Subtype),
		begin:   value(row.BegDate),
		end:     value(row.EndDate),
		line:    row.Line,
		batch:   true,
	}

	dt, ok := domain.ParseDatatype(value(row.Datatype))
	if !ok || !dt.In(domain.BatchDatatypes...) {
		return domain.RequestSpec{}, domain.AtLine(row.Line,
			fmt.Errorf("%w: %q in control file", domain.ErrInvalidDatatype, value(row.Datatype)))
	}
	f.datatype = dt

	var missing []string
	if f.agency == "" {
		missing = append(missing, FieldAgency)
	}
	if f.station == "" {
		missing = append(missing, FieldStation)
	}
	if f.ddpm == "" && dt.RequiresDDID() {
		missing = append(missing, FieldDDID)
	}
	if f.stat == "" && dt.RequiresStat() {
		missing = append(missing, FieldStat)
	}
	if f.begin == "" {
		missing = append(missing, FieldBegin)
	}
	if f.end == "" {
		missing = append(missing, FieldEnd)
	}
	if len(missing) > 0 {
		return domain.RequestSpec{}, domain.AtLine(row.Line, domain.MissingFields(domain.ErrIncompleteRow, missing...))
	}

	flags := opts.Flags
	flags.Hydra = false
	spec, err := build(f, flags, opts)
	if err != nil {
		return domain.RequestSpec{}, domain.AtLine(row.Line, err)
	}
	return spec, nil
}

// PrimaryDD fills in the descriptor id of a spec that was given a
// parameter code. Specs that already have a descriptor are returned
// unchanged.
func PrimaryDD(ctx context.Context, spec domain.RequestSpec, r ports.PrimaryDDResolver) (domain.RequestSpec, error) {
	if !spec.NeedsPrimaryDD() {
		return spec, nil
	}
	dd, err := r.PrimaryDD(ctx, spec.Agency, spec.Station, spec.Parameter)
	if err != nil && !errors.Is(err, domain.ErrNoPrimaryDD) {
		return spec, domain.AtLine(spec.Line, fmt.Errorf("%w: primary descriptor lookup: %v", domain.ErrCollaborator, err))
	}
	if err != nil || fixed.Blank(dd) {
		return spec, domain.AtLine(spec.Line, fmt.Errorf("%w for station %s %s, parameter %s",
			domain.ErrNoPrimaryDD, spec.Agency, spec.Station, spec.Parameter))
	}
	spec.DDID = fixed.ZeroRight(fixed.Truncate(strings.TrimSpace(dd), domain.DDIDWidth), domain.DDIDWidth)
	return spec, nil
}

// build applies the per-datatype rules shared by single requests and
// control-file rows.
func build(f fields, flags domain.Flags, opts Options) (domain.RequestSpec, error) {
	spec := domain.RequestSpec{
		Datatype: f.datatype,
		Agency:   strings.ToUpper(fixed.Truncate(f.agency, domain.AgencyWidth)),
		Station:  fixed.Truncate(f.station, domain.StationWidth),
		TimeZone: strings.ToUpper(opts.TimeZone),
		Title:    fixed.Truncate(f.title, domain.TitleWidth),
		Flags:    flags,
		Line:     f.line,
	}
	if spec.Agency == "" {
		spec.Agency = domain.DefaultAgency
	}
	if spec.TimeZone == "" {
		spec.TimeZone = domain.DefaultTimeZone
	}
	if f.transp != "" {
		spec.Transport = strings.ToUpper(f.transp[:1])
	}

	// A descriptor beginning with P is a parameter code.
	if f.ddpm != "" {
		if f.ddpm[0] == 'P' || f.ddpm[0] == 'p' {
			spec.Parameter = fixed.ZeroRight(fixed.Truncate(f.ddpm[1:], domain.ParameterWidth), domain.ParameterWidth)
		} else {
			spec.DDID = fixed.ZeroRight(fixed.Truncate(f.ddpm, domain.DDIDWidth), domain.DDIDWidth)
		}
	}
	switch {
	case f.datatype == domain.QW:
		spec.DDID = ""
	case f.datatype == domain.VT:
		spec.Location = f.location
	case !f.datatype.RequiresDDID():
		spec.DDID, spec.Parameter = "", ""
	}

	stat, err := subtype(f.datatype, f.stat, f.batch, flags.Hydra)
	if err != nil {
		var se *domain.SubtypeError
		if errors.As(err, &se) {
			se.Line = f.line
		}
		return domain.RequestSpec{}, err
	}
	spec.Stat = stat

	begin, end := strings.TrimSpace(f.begin), strings.TrimSpace(f.end)
	if !fixed.Digits(begin) || !fixed.Digits(end) {
		return domain.RequestSpec{}, fmt.Errorf("%w: %q to %q", domain.ErrMalformedDateRange, f.begin, f.end)
	}
	width := datefill.DateWidth
	if f.datatype.UsesDateTime(stat) {
		width = datefill.DateTimeWidth
	}
	spec.Begin = datefill.Begin(flags.WaterYear, begin, width)
	spec.End = datefill.End(flags.WaterYear, end, width)

	if err := validate.Struct(spec); err != nil {
		return domain.RequestSpec{}, fmt.Errorf("%w: %v", domain.ErrInvalidSpec, err)
	}
	return spec, nil
}

// subtype canonicalizes the stat/subtype code of datatype dt.
func subtype(dt domain.Datatype, raw string, batch, hydra bool) (string, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	first := ""
	if raw != "" {
		first = raw[:1]
	}
	bad := func() (string, error) {
		return "", &domain.SubtypeError{Datatype: dt, Value: raw}
	}

	switch dt {
	case domain.DV:
		stat := fixed.ZeroRight(fixed.Truncate(raw, domain.StatWidth), domain.StatWidth)
		if !fixed.Digits(stat) {
			return bad()
		}
		return stat, nil
	case domain.UV:
		if hydra && raw == "" {
			return "", nil
		}
		if !oneOf(first, "M", "N", "E", "R", "S", "C") {
			return bad()
		}
		return first, nil
	case domain.MS:
		legal := []string{"C", "M", "D", "G"}
		if !batch {
			legal = append(legal, "1", "2", "3")
		}
		if !oneOf(first, legal...) {
			return bad()
		}
		return first, nil
	case domain.PK:
		if !oneOf(first, "F", "P", "B") {
			return bad()
		}
		return first, nil
	case domain.VT:
		if first == "" {
			return "A", nil
		}
		if !oneOf(first, "P", "R", "A", "M", "F") {
			return bad()
		}
		return first, nil
	case domain.WL:
		if !oneOf(first, "", "1", "2", "3") {
			return bad()
		}
		return first, nil
	case domain.QW:
		return fixed.Truncate(raw, domain.StatWidth), nil
	default:
		// DC and SV take no subtype.
		return "", nil
	}
}

// checkHydra enforces the restricted argument set of hydra mode.
func checkHydra(req domain.RawRequest, opts Options, prompted bool) error {
	if prompted {
		req = domain.RawRequest{Agency: req.Agency, Begin: req.Begin, End: req.End}
	}
	var extra []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{FieldDatatype, req.Datatype != ""},
		{FieldStation, req.Station != ""},
		{FieldDDID, req.DDID != ""},
		{FieldParameter, req.Parameter != ""},
		{FieldLocation, req.Location != ""},
		{FieldStat, req.Stat != ""},
		{FieldTransport, req.Transport != ""},
		{FieldTitle, req.Title != ""},
		{"water-year", opts.Flags.WaterYear},
		{"multi-file", opts.Flags.MultiFile},
	} {
		if f.set {
			extra = append(extra, f.name)
		}
	}
	if len(extra) > 0 {
		return &domain.FieldsError{Err: domain.ErrIncompatibleFlags, Fields: extra}
	}
	if req.Begin == "" || req.End == "" {
		return domain.ErrHydraRangeRequired
	}
	if opts.OutputPath == "" {
		return domain.ErrHydraOutputRequired
	}
	return nil
}

// stdoutMissing lists the fields a request written to standard output
// must carry, since it cannot be completed interactively.
func stdoutMissing(req domain.RawRequest) []string {
	dt := domain.Datatype(strings.ToUpper(fixed.Truncate(req.Datatype, 2)))
	var missing []string
	if req.Datatype == "" {
		missing = append(missing, FieldDatatype)
	}
	if req.Station == "" {
		missing = append(missing, FieldStation)
	}
	if req.Begin == "" {
		missing = append(missing, FieldBegin)
	}
	if req.End == "" {
		missing = append(missing, FieldEnd)
	}
	if req.Stat == "" && !dt.In(domain.DC, domain.SV) {
		missing = append(missing, FieldStat)
	}
	if req.DDID == "" && req.Parameter == "" && !dt.In(domain.MS, domain.PK, domain.WL, domain.QW) {
		missing = append(missing, FieldDDID)
	}
	return missing
}

// singleMissing lists the fields of a single request that must be
// completed interactively.
func singleMissing(dt domain.Datatype, req domain.RawRequest, ddpm string, flags domain.Flags) []string {
	var missing []string
	if req.Station == "" {
		missing = append(missing, FieldStation)
	}
	if dt != "" && dt.RequiresDDID() {
		if ddpm == "" {
			missing = append(missing, FieldDDID)
		} else if dt == domain.VT && (ddpm[0] == 'P' || ddpm[0] == 'p') && req.Location == "" {
			missing = append(missing, FieldLocation)
		}
	}
	if dt != "" && req.Stat == "" && dt.RequiresStat() && dt != domain.VT && !(flags.Hydra && dt == domain.UV) {
		missing = append(missing, FieldStat)
	}
	if req.Begin == "" {
		missing = append(missing, FieldBegin)
	}
	if req.End == "" {
		missing = append(missing, FieldEnd)
	}
	return missing
}

func trimRequest(req domain.RawRequest) domain.RawRequest {
	return domain.RawRequest{
		Datatype:  strings.TrimSpace(req.Datatype),
		Agency:    strings.TrimSpace(req.Agency),
		Station:   strings.TrimSpace(req.Station),
		DDID:      strings.TrimSpace(req.DDID),
		Parameter: strings.TrimSpace(req.Parameter),
		Location:  strings.TrimSpace(req.Location),
		Stat:      strings.TrimSpace(req.Stat),
		Begin:     strings.TrimSpace(req.Begin),
		End:       strings.TrimSpace(req.End),
		Transport: strings.TrimSpace(req.Transport),
		Title:     strings.TrimSpace(req.Title),
	}
}

// value maps a control-file column to its content; the blank sentinel
// becomes empty.
func value(s string) string {
	return strings.TrimSpace(s)
}

func oneOf(s string, set ...string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
