// Package rdb writes RDB report headers.
package rdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/ports"
)

const notInSiteFile = "*** NOT IN SITE FILE ***"

var keyColumns = column{names: "AGENCY\tSTATION\tDD\tPARAMETER\tSTATISTIC", defs: "5S\t15S\t4S\t5S\t5S"}

type column struct {
	names string
	defs  string
}

// HeaderFormatter writes the metadata block and column headings of an RDB
// report. It retrieves no values, so every request reports no data.
type HeaderFormatter struct {
	stations ports.StationMetadataService
	now      func() time.Time
}

// Option configures a HeaderFormatter.
type Option func(*HeaderFormatter)

// WithClock sets the source of the RETRIEVED timestamp.
func WithClock(now func() time.Time) Option {
	return func(h *HeaderFormatter) { h.now = now }
}

// NewHeaderFormatter creates a header formatter. stations may be nil, in
// which case station lines carry only the request's own fields.
func NewHeaderFormatter(stations ports.StationMetadataService, opts ...Option) *HeaderFormatter {
	h := &HeaderFormatter{stations: stations, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Formatters binds f to every datatype.
func Formatters(f ports.Formatter) map[domain.Datatype]ports.Formatter {
	m := make(map[domain.Datatype]ports.Formatter, len(domain.Datatypes))
	for _, dt := range domain.Datatypes {
		m[dt] = f
	}
	return m
}

// Format writes the header for spec to out.
func (h *HeaderFormatter) Format(ctx context.Context, spec domain.RequestSpec, out ports.Output) (domain.Status, error) {
	var b strings.Builder
	cols := columns(spec)

	if spec.Flags.Keyed {
		if out.Fresh {
			fmt.Fprintf(&b, "# //FILE TYPE=\"%s\" EDITABLE=NO\n", spec.Datatype.FileType())
			fmt.Fprintf(&b, "%s\t%s\n%s\t%s\n", keyColumns.names, cols.names, keyColumns.defs, cols.defs)
		}
		return domain.StatusNoData, write(out, b.String())
	}

	station, err := h.station(ctx, spec)
	if err != nil {
		return domain.StatusNoData, err
	}
	dst := "N"
	if station.DST {
		dst = "Y"
	}

	b.WriteString("# //UNITED STATES GEOLOGICAL SURVEY       http://water.usgs.gov/\n")
	b.WriteString("# //NATIONAL WATER INFORMATION SYSTEM     http://water.usgs.gov/data.html\n")
	b.WriteString("# //DATA ARE PROVISIONAL AND SUBJECT TO CHANGE UNTIL PUBLISHED BY USGS\n")
	fmt.Fprintf(&b, "# //RETRIEVED: %s\n", h.now().Format("2006-01-02 15:04:05"))
	if spec.Title != "" {
		fmt.Fprintf(&b, "# //TITLE=\"%s\"\n", spec.Title)
	}
	fmt.Fprintf(&b, "# //FILE TYPE=\"%s\" EDITABLE=NO\n", spec.Datatype.FileType())
	fmt.Fprintf(&b, "# //STATION AGENCY=\"%-5s\" NUMBER=\"%-15s\" TIME_ZONE=\"%s\" DST_FLAG=%s\n",
		station.Agency, station.Number, station.TimeZone, dst)
	fmt.Fprintf(&b, "# //STATION NAME=\"%s\"\n", station.Name)
	if spec.DDID != "" {
		fmt.Fprintf(&b, "# //DD DDID=\"%s\"\n", spec.DDID)
	}
	if spec.Parameter != "" {
		fmt.Fprintf(&b, "# //PARAMETER CODE=\"%s\"\n", spec.Parameter)
	}
	if spec.Location != "" {
		fmt.Fprintf(&b, "# //LOCATION NUMBER=%s\n", spec.Location)
	}
	if spec.Stat != "" {
		label := "TYPE"
		if spec.Datatype == domain.DV {
			label = "STATISTIC"
		}
		fmt.Fprintf(&b, "# //%s CODE=\"%s\"\n", label, spec.Stat)
	}
	fmt.Fprintf(&b, "# //RANGE START=\"%s\" END=\"%s\"\n", spec.Begin, spec.End)
	fmt.Fprintf(&b, "%s\n%s\n", cols.names, cols.defs)

	return domain.StatusNoData, write(out, b.String())
}

func (h *HeaderFormatter) station(ctx context.Context, spec domain.RequestSpec) (domain.Station, error) {
	fallback := domain.Station{Agency: spec.Agency, Number: spec.Station, TimeZone: spec.TimeZone}
	if h.stations == nil {
		return fallback, nil
	}
	st, err := h.stations.Station(ctx, spec.Agency, spec.Station)
	if errors.Is(err, domain.ErrStationNotFound) {
		fallback.Name = notInSiteFile
		return fallback, nil
	}
	if err != nil {
		return domain.Station{}, err
	}
	if st.TimeZone == "" {
		st.TimeZone = spec.TimeZone
	}
	return st, nil
}

// columns returns the column headings for spec. Datetime series carry a
// time zone column; verbose output widens the date column.
func columns(spec domain.RequestSpec) column {
	date := "8D"
	if spec.Flags.Verbose {
		date = "10D"
	}
	if spec.Datatype.UsesDateTime(spec.Stat) {
		return column{
			names: "DATE\tTIME\tTZCD\tVALUE\tPRECISION\tREMARK\tFLAGS\tQA",
			defs:  date + "\t6S\t6S\t16N\t1S\t1S\t32S\t1S",
		}
	}
	return column{
		names: "DATE\tTIME\tVALUE\tPRECISION\tREMARK\tFLAGS\tTYPE\tQA",
		defs:  date + "\t6S\t16N\t1S\t1S\t32S\t1S\t1S",
	}
}

func write(w io.Writer, s string) error {
	if s == "" {
		return nil
	}
	if _, err := io.WriteString(w, s); err != nil {
		return fmt.Errorf("%w: write report: %v", domain.ErrResource, err)
	}
	return nil
}
