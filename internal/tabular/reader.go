package tabular

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Sentinel errors reported by the reader. All are fatal for the load; there
// is no partial-row recovery.
var (
	ErrFieldCount  = errors.New("field count mismatch")
	ErrBadCast     = errors.New("cannot cast value")
	ErrEmptyHeader = errors.New("missing header row")
)

// Schema declares the expected kind per column. Columns not present in the
// schema are cast with KindAuto inference. A nil Schema infers everything.
type Schema map[string]Kind

// Record is one row: an ordered mapping of column name to typed value.
// Records are built once at load time and never mutated afterwards.
type Record struct {
	columns []string
	values  map[string]Value
}

// Columns returns the column names in header order. The returned slice must
// not be modified.
func (r Record) Columns() []string { return r.columns }

// Get returns the value for the named column.
func (r Record) Get(col string) (Value, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Len returns the number of fields in the record.
func (r Record) Len() int { return len(r.values) }

// ReadFile loads a tab-separated file with a header row into records,
// preserving file order. The file is read to completion and closed before
// returning.
func ReadFile(path string, schema Schema) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table file: %w", err)
	}
	defer f.Close()

	recs, err := Read(f, schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Read parses tab-separated content with a header row from r.
func Read(r io.Reader, schema Schema) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, ErrEmptyHeader
	}
	header := splitRow(sc.Text())
	if len(header) == 1 && header[0] == "" {
		return nil, ErrEmptyHeader
	}

	var recs []Record
	line := 1
	for sc.Scan() {
		line++
		text := sc.Text()
		if text == "" {
			continue // tolerate a trailing blank line
		}
		fields := splitRow(text)
		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: %w: row has %d fields, header has %d",
				line, ErrFieldCount, len(fields), len(header))
		}

		rec := Record{columns: header, values: make(map[string]Value, len(header))}
		for i, col := range header {
			kind := KindAuto
			if schema != nil {
				kind = schema[col]
			}
			v, err := CastValue(fields[i], kind)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %q: %w", line, col, err)
			}
			rec.values[col] = v
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return recs, nil
}

func splitRow(line string) []string {
	return strings.Split(strings.TrimSuffix(line, "\r"), "\t")
}
