// Package source loads customer records from a CSV file.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"go.uber.org/zap"
)

const (
	ColumnID   = "id"
	ColumnName = "name"
)

// Record is one customer row. ID and Name are the required columns; every other
// column is carried unchanged in Extra, keyed by header name.
type Record struct {
	ID    string
	Name  string
	Extra map[string]string
}

// Value returns the cell for column, whether required or pass-through.
func (r Record) Value(column string) (string, bool) {
	switch column {
	case ColumnID:
		return r.ID, true
	case ColumnName:
		return r.Name, true
	}
	v, ok := r.Extra[column]
	return v, ok
}

// Dataset is the ordered, loaded input. Columns keeps the header order.
type Dataset struct {
	Columns []string
	Records []Record
}

// Load reads the CSV at path. It fails with *NotFoundError, *SchemaError or *ParseError;
// no partial dataset is ever returned.
func Load(path string, logger *zap.Logger) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Dataset{}, &NotFoundError{Path: path, Err: err}
		}
		return Dataset{}, &ParseError{Path: path, Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	ds, err := Read(f)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return Dataset{}, err
	}
	logger.Info("records loaded", zap.String("path", path), zap.Int("records", len(ds.Records)))
	return ds, nil
}

// Read parses CSV from r. Errors carry no path; Load fills it in.
func Read(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Dataset{}, &ParseError{Path: "<input>", Err: errors.New("empty input: no header row")}
	}
	if err != nil {
		return Dataset{}, &ParseError{Path: "<input>", Line: lineOf(err), Err: fmt.Errorf("read header: %w", err)}
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := index[name]; dup {
			return Dataset{}, &ParseError{Path: "<input>", Line: 1, Err: fmt.Errorf("duplicate column %q", name)}
		}
		columns[i] = name
		index[name] = i
	}

	var missing []string
	for _, name := range []string{ColumnID, ColumnName} {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return Dataset{}, &SchemaError{Missing: missing}
	}

	ds := Dataset{Columns: columns}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return ds, nil
		}
		if err != nil {
			return Dataset{}, &ParseError{Path: "<input>", Line: lineOf(err), Err: fmt.Errorf("read row: %w", err)}
		}
		if len(rec) > len(columns) {
			line, _ := cr.FieldPos(0)
			return Dataset{}, &ParseError{
				Path: "<input>",
				Line: line,
				Err:  fmt.Errorf("row has %d fields, header has %d", len(rec), len(columns)),
			}
		}

		row := Record{Extra: make(map[string]string, len(columns)-2)}
		for i, col := range columns {
			// Short rows read as empty cells.
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			switch col {
			case ColumnID:
				row.ID = cell
			case ColumnName:
				row.Name = cell
			default:
				row.Extra[col] = cell
			}
		}
		ds.Records = append(ds.Records, row)
	}
}

func lineOf(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}
