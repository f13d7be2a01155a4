package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logadapter "github.com/bft-labs/aq2rdb/internal/adapters/log"
	"github.com/bft-labs/aq2rdb/internal/ctlfile"
	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/output"
	"github.com/bft-labs/aq2rdb/internal/ports"
	"github.com/bft-labs/aq2rdb/internal/resolve"
)

const ctlHeader = "DATATYPE\tAGENCY\tSTATION\tDDID\tSUBTYPE\tBEGDATE\tENDDATE\n" +
	"2S\t5S\t15S\t4S\t5S\t8D\t8D\n"

type recordingFormatter struct {
	specs  []domain.RequestSpec
	status domain.Status
	err    error
}

func (f *recordingFormatter) Format(_ context.Context, spec domain.RequestSpec, out ports.Output) (domain.Status, error) {
	f.specs = append(f.specs, spec)
	fmt.Fprintf(out, "%s\t%s\t%s\n", spec.Datatype, spec.Station, spec.DDID)
	return f.status, f.err
}

type countingObserver struct {
	outcomes map[string]int
}

func (o *countingObserver) OnRequest(_ domain.Datatype, outcome string, _ domain.Status) {
	if o.outcomes == nil {
		o.outcomes = map[string]int{}
	}
	o.outcomes[outcome]++
}

func (o *countingObserver) OnRun(ports.RunSummary) {}

type primaryDD map[string]string

func (p primaryDD) PrimaryDD(_ context.Context, _, station, parameter string) (string, error) {
	dd, ok := p[station+"/"+parameter]
	if !ok {
		return "", domain.ErrNoPrimaryDD
	}
	return dd, nil
}

type stubPrompter struct {
	calls  int
	fields []string
	fill   func(domain.RawRequest) domain.RawRequest
}

func (p *stubPrompter) Complete(_ context.Context, fields []string, req domain.RawRequest) (domain.RawRequest, error) {
	p.calls++
	p.fields = fields
	if p.fill == nil {
		return req, domain.ErrPromptUnavailable
	}
	return p.fill(req), nil
}

func newDispatcher(t *testing.T, f ports.Formatter, buf *bytes.Buffer, obs ports.RunObserver, prompter ports.InteractivePrompter) *Dispatcher {
	t.Helper()
	router, err := output.New(output.Config{Stdout: buf, Batch: true})
	require.NoError(t, err)
	formatters := map[domain.Datatype]ports.Formatter{}
	for _, dt := range domain.Datatypes {
		formatters[dt] = f
	}
	return New(Config{
		Formatters: formatters,
		Primary:    primaryDD{"01646500/00060": "3"},
		Router:     router,
		Observer:   obs,
		Prompter:   prompter,
	})
}

func TestRunControlFile_SkipsBadRowsAndContinues(t *testing.T) {
	src := ctlHeader +
		"DV\tUSGS\t01646500\t0001\t00003\t19901001\t19900930\n" +
		"DV\tUSGS\t\t0001\t00003\t19901001\t19900930\n" +
		"DV\tUSGS\t01646500\tP00060\t00003\t19901001\t19901031\n" +
		"UV\tUSGS\t01646500\t0001\tM\t19901001\t19901031\n" +
		"DV\tUSGS\t01646500\t0001\tX\t19901001\t19901031\n" +
		"DV\tUSGS\t01646500\tP00010\t00003\t19901001\t19901031\n" +
		"DV\tUSGS\t01646501\t0002\t00001\t0\t99999999\n"

	f := &recordingFormatter{status: domain.StatusOK}
	var buf bytes.Buffer
	obs := &countingObserver{}
	prompter := &stubPrompter{}
	d := newDispatcher(t, f, &buf, obs, prompter)

	tally, err := d.RunControlFile(context.Background(), ctlfile.NewReader(strings.NewReader(src), "test.ctl"), resolve.Options{})
	require.NoError(t, err)

	assert.Equal(t, 7, tally.Rows)
	assert.Equal(t, 3, tally.Dispatched)
	assert.Equal(t, 4, tally.Skipped)
	assert.Equal(t, domain.StatusOK, tally.Status())
	assert.Equal(t, 3, obs.outcomes[OutcomeDispatched])
	assert.Equal(t, 4, obs.outcomes[OutcomeSkipped])
	assert.Zero(t, prompter.calls, "batch runs never prompt")

	require.Len(t, f.specs, 3)
	assert.Equal(t, "0001", f.specs[0].DDID)
	assert.Equal(t, "0003", f.specs[1].DDID, "primary descriptor resolved")
	assert.Equal(t, "00060", f.specs[1].Parameter)
	assert.Equal(t, "00000000", f.specs[2].Begin)
	assert.Equal(t, "99999999", f.specs[2].End)
}

func TestRunControlFile_SkippedRowsLogTheirLine(t *testing.T) {
	src := ctlHeader +
		"DV\tUSGS\t01646500\t0001\t00003\t19901001\t19901031\n" +
		"DV\tUSGS\t\t0001\t00003\t19901001\t19901031\n" +
		"DV\tUSGS\t01646500\tP00010\t00003\t19901001\t19901031\n"

	var logs bytes.Buffer
	logger, err := logadapter.New(&logs, "debug", logadapter.FormatJSON)
	require.NoError(t, err)

	router, err := output.New(output.Config{Stdout: &bytes.Buffer{}, Batch: true})
	require.NoError(t, err)
	f := &recordingFormatter{status: domain.StatusOK}
	d := New(Config{
		Formatters: map[domain.Datatype]ports.Formatter{domain.DV: f},
		Primary:    primaryDD{"01646500/00060": "3"},
		Router:     router,
		Logger:     logger,
	})

	tally, err := d.RunControlFile(context.Background(), ctlfile.NewReader(strings.NewReader(src), "test.ctl"), resolve.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, tally.Skipped)

	var skipped []int
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry struct {
			Level   string `json:"level"`
			Message string `json:"message"`
			Line    int    `json:"line"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &entry), line)
		if entry.Message == "row skipped" {
			assert.Equal(t, "warn", entry.Level)
			skipped = append(skipped, entry.Line)
		}
	}
	assert.Equal(t, []int{4, 5}, skipped)
}

func TestRunControlFile_HeaderErrorAborts(t *testing.T) {
	src := "DATATYPE\tAGENCY\tSTATION\tDDID\tSUBTYPE\tBEGDATE\n2S\t5S\t15S\t4S\t5S\t8D\n" +
		"DV\tUSGS\t01646500\t0001\t00003\t19901001\n"
	f := &recordingFormatter{}
	var buf bytes.Buffer
	d := newDispatcher(t, f, &buf, nil, nil)

	tally, err := d.RunControlFile(context.Background(), ctlfile.NewReader(strings.NewReader(src), "bad.ctl"), resolve.Options{})
	assert.ErrorIs(t, err, domain.ErrControlFileFormat)
	assert.Zero(t, tally.Rows)
	assert.Empty(t, f.specs)
}

func TestRunControlFile_RowCountMismatchAborts(t *testing.T) {
	src := ctlHeader +
		"DV\tUSGS\t01646500\t0001\t00003\t19901001\t19900930\n" +
		"DV\tUSGS\t01646500\n" +
		"DV\tUSGS\t01646500\t0001\t00003\t19901001\t19900930\n"
	f := &recordingFormatter{}
	var buf bytes.Buffer
	d := newDispatcher(t, f, &buf, nil, nil)

	tally, err := d.RunControlFile(context.Background(), ctlfile.NewReader(strings.NewReader(src), "short.ctl"), resolve.Options{})
	assert.ErrorIs(t, err, domain.ErrRowColumnCountMismatch)
	assert.Equal(t, 1, tally.Dispatched)
	assert.Len(t, f.specs, 1)
}

func TestRunControlFile_BadDateRangeStatus(t *testing.T) {
	src := ctlHeader +
		"DV\tUSGS\t01646500\t0001\t00003\t1990AB01\t19900930\n" +
		"DV\tUSGS\t01646500\t0001\t00003\t19901001\t19901030\n"
	f := &recordingFormatter{status: domain.StatusOK}
	var buf bytes.Buffer
	d := newDispatcher(t, f, &buf, nil, nil)

	tally, err := d.RunControlFile(context.Background(), ctlfile.NewReader(strings.NewReader(src), "dates.ctl"), resolve.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Skipped)
	assert.Equal(t, domain.StatusBadDateRange, tally.Status())
}

func TestRunControlFile_CollaboratorErrorContinues(t *testing.T) {
	src := ctlHeader +
		"DV\tUSGS\t01646500\t0001\t00003\t19901001\t19901030\n" +
		"DV\tUSGS\t01646500\t0002\t00003\t19901001\t19901030\n"
	f := &recordingFormatter{err: &domain.StatusError{Status: domain.StatusProvisional, Err: errors.New("partial")}}
	var buf bytes.Buffer
	d := newDispatcher(t, f, &buf, nil, nil)

	tally, err := d.RunControlFile(context.Background(), ctlfile.NewReader(strings.NewReader(src), "collab.ctl"), resolve.Options{})
	require.NoError(t, err)
	assert.Len(t, f.specs, 2)
	assert.Equal(t, 2, tally.Dispatched)
	assert.Equal(t, domain.StatusProvisional, tally.Status())
}

func TestRunRequest(t *testing.T) {
	f := &recordingFormatter{status: domain.StatusProvisional}
	var buf bytes.Buffer
	d := newDispatcher(t, f, &buf, nil, nil)

	tally, err := d.RunRequest(context.Background(), domain.RawRequest{
		Datatype: "DV", Station: "01646500", DDID: "P00060", Stat: "3", Begin: "20050101", End: "20051231",
	}, resolve.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProvisional, tally.Status())
	require.Len(t, f.specs, 1)
	assert.Equal(t, "0003", f.specs[0].DDID)
	assert.Equal(t, "DV\t01646500\t0003\n", buf.String())
}

func TestRunRequest_SubtypeAborts(t *testing.T) {
	f := &recordingFormatter{}
	var buf bytes.Buffer
	d := newDispatcher(t, f, &buf, nil, nil)

	_, err := d.RunRequest(context.Background(), domain.RawRequest{
		Datatype: "UV", Station: "01646500", DDID: "1", Stat: "Z", Begin: "20050101", End: "20051231",
	}, resolve.Options{})
	assert.ErrorIs(t, err, domain.ErrSubtype)
	assert.Equal(t, AbortRun, Classify(err, false))
	assert.Empty(t, f.specs)
}

func TestRunRequest_NoPrimaryDD(t *testing.T) {
	f := &recordingFormatter{}
	var buf bytes.Buffer
	d := newDispatcher(t, f, &buf, nil, nil)

	_, err := d.RunRequest(context.Background(), domain.RawRequest{
		Datatype: "DV", Station: "01646500", Parameter: "00065", Stat: "3", Begin: "20050101", End: "20051231",
	}, resolve.Options{})
	require.ErrorIs(t, err, domain.ErrNoPrimaryDD)
	assert.Contains(t, err.Error(), "01646500")
	assert.Contains(t, err.Error(), "00065")
}

func TestRunRequest_Prompting(t *testing.T) {
	dir := t.TempDir()
	f := &recordingFormatter{status: domain.StatusOK}
	prompter := &stubPrompter{fill: func(req domain.RawRequest) domain.RawRequest {
		req.Station = "01646500"
		return req
	}}
	router, err := output.New(output.Config{Path: dir + "/out.rdb"})
	require.NoError(t, err)
	defer router.Close()
	d := New(Config{
		Formatters: map[domain.Datatype]ports.Formatter{domain.DV: f},
		Router:     router,
		Prompter:   prompter,
	})

	req := domain.RawRequest{Datatype: "DV", DDID: "1", Stat: "3", Begin: "20050101", End: "20051231"}
	_, err = d.RunRequest(context.Background(), req, resolve.Options{OutputPath: dir + "/out.rdb"})
	require.NoError(t, err)
	assert.Equal(t, 1, prompter.calls)
	assert.Equal(t, []string{resolve.FieldStation}, prompter.fields)
	require.Len(t, f.specs, 1)
	assert.Equal(t, "01646500", f.specs[0].Station)
}

func TestRunRequest_FailClosedPrompter(t *testing.T) {
	f := &recordingFormatter{}
	prompter := &stubPrompter{}
	var buf bytes.Buffer
	d := newDispatcher(t, f, &buf, nil, prompter)

	req := domain.RawRequest{Datatype: "DV", DDID: "1", Stat: "3", Begin: "20050101", End: "20051231"}
	_, err := d.RunRequest(context.Background(), req, resolve.Options{OutputPath: "out.rdb"})
	assert.ErrorIs(t, err, domain.ErrNeedsInteractiveCompletion)
	assert.ErrorIs(t, err, domain.ErrPromptUnavailable)
	assert.Equal(t, 1, prompter.calls)

	_, err = d.RunRequest(context.Background(), req, resolve.Options{})
	assert.ErrorIs(t, err, domain.ErrIncompleteForStdout)
	assert.Equal(t, 1, prompter.calls, "standard output runs never prompt")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err   error
		batch bool
		want  Outcome
	}{
		{nil, true, Continue},
		{domain.ErrMissingColumns, true, AbortRun},
		{domain.ErrOpenOutput, true, AbortRun},
		{domain.ErrMultiFileWithoutPath, false, AbortRun},
		{domain.ErrIncompleteRow, true, SkipRow},
		{domain.ErrIncompleteRow, false, AbortRun},
		{&domain.SubtypeError{Datatype: domain.UV, Value: "Z"}, true, SkipRow},
		{&domain.SubtypeError{Datatype: domain.UV, Value: "Z"}, false, AbortRun},
		{domain.ErrStationNotFound, false, Continue},
		{context.Canceled, true, AbortRun},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.err, tt.batch), "%v batch=%v", tt.err, tt.batch)
	}
}

func TestTally(t *testing.T) {
	var empty Tally
	assert.Equal(t, domain.StatusNoData, empty.Status())

	var tally Tally
	tally.Record(domain.StatusNoData)
	tally.Record(domain.StatusOK)
	assert.Equal(t, domain.StatusOK, tally.Status())
	tally.Record(domain.StatusProvisional)
	assert.Equal(t, domain.StatusProvisional, tally.Status())
	tally.Record(domain.StatusBadDateRange)
	assert.Equal(t, domain.StatusBadDateRange, tally.Status())
}
