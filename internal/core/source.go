package core

import (
	"encoding/csv"
	"io"
)

// Row is one data record addressed by header name.
type Row struct {
	// Line is the 1-based line number of the record in the source.
	Line int

	values []string
	index  HeaderIndex
}

// NewRow builds a row over values using index.
func NewRow(index HeaderIndex, values []string) Row {
	return Row{values: values, index: index}
}

// Get returns the cell under column. The second result is false when the
// header has no such column or the record is too short to reach it.
func (r Row) Get(column string) (string, bool) {
	pos, ok := r.index[column]
	if !ok || pos >= len(r.values) {
		return "", false
	}
	return r.values[pos], true
}

// MakeHeaderIndex maps each header to its position. When a header repeats,
// the first occurrence wins and the repeats are returned.
func MakeHeaderIndex(header []string) (HeaderIndex, []string) {
	idx := make(HeaderIndex, len(header))
	var dups []string
	for i, h := range header {
		if _, seen := idx[h]; seen {
			dups = append(dups, h)
			continue
		}
		idx[h] = i
	}
	return idx, dups
}

// RowSource reads a header row followed by data rows from comma-separated
// text. Records may have fewer or more fields than the header, and stray
// quotes inside unquoted fields are kept as data.
type RowSource struct {
	r      *csv.Reader
	header []string
	index  HeaderIndex
	dups   []string
}

// NewRowSource creates a source over UTF-8 text.
func NewRowSource(r io.Reader) *RowSource {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return &RowSource{r: cr}
}

// Header reads the header row. It returns io.EOF for empty input.
func (s *RowSource) Header() ([]string, error) {
	if s.header != nil {
		return s.header, nil
	}
	rec, err := s.r.Read()
	if err != nil {
		return nil, err
	}
	s.header = rec
	s.index, s.dups = MakeHeaderIndex(rec)
	return rec, nil
}

// DuplicateHeaders lists repeated header names seen by Header.
func (s *RowSource) DuplicateHeaders() []string {
	return s.dups
}

// Next returns the next data row, or io.EOF when the input is exhausted.
// Blank lines are skipped.
func (s *RowSource) Next() (Row, error) {
	if s.header == nil {
		if _, err := s.Header(); err != nil {
			return Row{}, err
		}
	}
	rec, err := s.r.Read()
	if err != nil {
		return Row{}, err
	}
	line, _ := s.r.FieldPos(0)
	return Row{Line: line, values: rec, index: s.index}, nil
}
