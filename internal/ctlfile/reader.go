// Package ctlfile reads batch control files.
//
// A control file is tab-separated text. Lines starting with '#' are
// comments. The first remaining line names the columns, the second holds
// one type definition per column, and every later line is a data row with
// the same number of columns.
package ctlfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bft-labs/aq2rdb/internal/domain"
)

// Required column names.
const (
	ColDatatype = "DATATYPE"
	ColAgency   = "AGENCY"
	ColStation  = "STATION"
	ColDDID     = "DDID"
	ColSubtype  = "SUBTYPE"
	ColBegDate  = "BEGDATE"
	ColEndDate  = "ENDDATE"
)

// RequiredColumns lists the columns every header must declare.
var RequiredColumns = []string{
	ColDatatype, ColAgency, ColStation, ColDDID, ColSubtype, ColBegDate, ColEndDate,
}

// Blank stands for an empty data column.
const Blank = " "

const maxLineBytes = 1 << 20

// State is the position of a Reader in the file.
type State int

const (
	StateUnopened State = iota
	StateHeaderRead
	StateTypeLineRead
	StateReading
	StateClosed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateUnopened:
		return "Unopened"
	case StateHeaderRead:
		return "HeaderRead"
	case StateTypeLineRead:
		return "TypeLineRead"
	case StateReading:
		return "Reading"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Reader yields the data rows of a control file. It moves strictly
// forward through its states and cannot be rewound.
type Reader struct {
	name    string
	scanner *bufio.Scanner
	closer  io.Closer
	state   State
	line    int
	columns []string
	index   map[string]int
}

// Open opens the control file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrOpenControlFile, path, err)
	}
	r := NewReader(f, path)
	r.closer = f
	return r, nil
}

// NewReader reads a control file from src. name is used in diagnostics.
func NewReader(src io.Reader, name string) *Reader {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{name: name, scanner: sc, state: StateUnopened}
}

// Name returns the name the reader was opened with.
func (r *Reader) Name() string { return r.name }

// State returns the current reader state.
func (r *Reader) State() State { return r.state }

// Line returns the number of the last physical line read.
func (r *Reader) Line() int { return r.line }

// Columns returns the header column names in file order.
func (r *Reader) Columns() []string { return r.columns }

// ReadPreamble reads the header and type-definition lines.
func (r *Reader) ReadPreamble() error {
	if r.state != StateUnopened {
		return fmt.Errorf("%w: read preamble in state %s", domain.ErrReaderState, r.state)
	}

	header, ok, err := r.nextLine()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMissingHeader, r.name)
	}
	r.columns = split(header)
	r.index = make(map[string]int, len(r.columns))
	for i, c := range r.columns {
		r.index[strings.ToUpper(strings.TrimSpace(c))] = i
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := r.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return domain.AtLine(r.line, domain.MissingFields(domain.ErrMissingColumns, missing...))
	}
	r.state = StateHeaderRead

	defs, ok, err := r.nextLine()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMissingDefinitions, r.name)
	}
	if n := len(split(defs)); n != len(r.columns) {
		return domain.AtLine(r.line, fmt.Errorf("%w: %d definitions for %d columns",
			domain.ErrDefinitionCountMismatch, n, len(r.columns)))
	}
	r.state = StateTypeLineRead
	return nil
}

// Next returns the next data row. It returns io.EOF after the last row.
func (r *Reader) Next() (domain.ControlFileRow, error) {
	switch r.state {
	case StateTypeLineRead:
		r.state = StateReading
	case StateReading:
	default:
		return domain.ControlFileRow{}, fmt.Errorf("%w: next in state %s", domain.ErrReaderState, r.state)
	}

	text, ok, err := r.nextLine()
	if err != nil {
		return domain.ControlFileRow{}, err
	}
	if !ok {
		return domain.ControlFileRow{}, io.EOF
	}
	tokens := split(text)
	if len(tokens) != len(r.columns) {
		return domain.ControlFileRow{}, domain.AtLine(r.line, fmt.Errorf("%w: %d columns, header has %d",
			domain.ErrRowColumnCountMismatch, len(tokens), len(r.columns)))
	}
	for i, tok := range tokens {
		tokens[i] = normalize(tok)
	}
	return domain.ControlFileRow{
		Line:     r.line,
		Datatype: tokens[r.index[ColDatatype]],
		Agency:   tokens[r.index[ColAgency]],
		Station:  tokens[r.index[ColStation]],
		DDID:     tokens[r.index[ColDDID]],
		Subtype:  tokens[r.index[ColSubtype]],
		BegDate:  tokens[r.index[ColBegDate]],
		EndDate:  tokens[r.index[ColEndDate]],
	}, nil
}

// Close releases the underlying file. Closing twice is a no-op.
func (r *Reader) Close() error {
	if r.state == StateClosed {
		return nil
	}
	r.state = StateClosed
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// nextLine returns the next line that is neither a comment nor blank.
func (r *Reader) nextLine() (string, bool, error) {
	for r.scanner.Scan() {
		r.line++
		text := strings.TrimRight(r.scanner.Text(), "\r")
		if strings.HasPrefix(text, "#") || strings.TrimSpace(text) == "" {
			continue
		}
		return text, true, nil
	}
	if err := r.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return "", false, domain.AtLine(r.line+1, fmt.Errorf("%w: line too long", domain.ErrControlFileFormat))
		}
		return "", false, fmt.Errorf("%w: read %s: %v", domain.ErrResource, r.name, err)
	}
	return "", false, nil
}

func split(line string) []string {
	return strings.Split(line, "\t")
}

func normalize(tok string) string {
	tok = strings.ToUpper(strings.TrimLeft(tok, " "))
	if tok == "" {
		return Blank
	}
	return tok
}
