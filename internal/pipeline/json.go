package pipeline

import (
	"bytes"
	"encoding/json"
	"io"
)

// WriteJSON writes the enriched rows of ds as a JSON array, skipping rows without
// news. Keys follow the input column order, then "news".
func WriteJSON(w io.Writer, ds EnrichedDataset) error {
	present := ds.Present()
	objs := make([]orderedRow, 0, len(present))
	for _, r := range present {
		objs = append(objs, orderedRow{columns: ds.Columns, row: r})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	return enc.Encode(objs)
}

type orderedRow struct {
	columns []string
	row     Row
}

func (o orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range o.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		cell, _ := o.row.Record.Value(col)
		if err := writeKV(&buf, col, cellValue(cell)); err != nil {
			return nil, err
		}
	}
	if len(o.columns) > 0 {
		buf.WriteByte(',')
	}
	if err := writeKV(&buf, NewsField, o.row.News); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeKV(buf *bytes.Buffer, key string, value any) error {
	k, err := marshalNoEscape(key)
	if err != nil {
		return err
	}
	v, err := marshalNoEscape(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// cellValue keeps a CSV cell as written; only empty cells become null.
func cellValue(s string) any {
	if s == "" {
		return nil
	}
	return s
}
