package source

import (
	"fmt"
	"strings"
)

// NotFoundError reports that the input file does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("input file not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// SchemaError reports required columns missing from the input header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	quoted := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		quoted[i] = fmt.Sprintf("%q", m)
	}
	return fmt.Sprintf("input must contain columns %q and %q: missing %s", ColumnID, ColumnName, strings.Join(quoted, ", "))
}

// ParseError covers every other malformed-input condition.
type ParseError struct {
	Path string
	// Line is the 1-based CSV line, 0 when the failure is not tied to a line.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
