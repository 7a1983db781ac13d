// Package tablereader provides uniform row-oriented access to the tabular
// term files an ontology is compiled from. CSV, TSV, and Excel workbooks are
// all exposed through the same Reader/Table/Row interfaces, so the term
// compiler never cares which format a file was authored in.
package tablereader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/stuckyb/ontobuilder/internal/logging"
)

// trueStrings are the cell values recognized as affirmative in boolean
// columns such as "Ignore", "Exclude", and "Seed descendants".
var trueStrings = map[string]bool{
	"t": true, "true": true, "y": true, "yes": true, "1": true,
}

// IsTrueString reports whether a table cell holds an affirmative value.
func IsTrueString(s string) bool {
	return trueStrings[strings.ToLower(strings.TrimSpace(s))]
}

// RowContext identifies where a row came from, for error reporting.
type RowContext struct {
	File   string
	Table  string
	Number int // 1-based data row number, excluding the header
}

// Errorf builds an error that carries the row's provenance.
func (c RowContext) Errorf(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("error in row %d of table %q in %s: %s", c.Number, c.Table, c.File, msg)
}

// Row is a single table row. Column lookups are case insensitive and values
// come back with surrounding whitespace trimmed.
type Row struct {
	Context RowContext

	values   map[string]string
	required map[string]bool
	optional map[string]bool
	defaults map[string]string
}

// Get returns the value of a column. Missing required columns are an error;
// missing optional columns yield their default value (or the empty string);
// any other missing column yields the empty string with a logged warning.
func (r Row) Get(column string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(column))
	if v, ok := r.values[key]; ok {
		return v, nil
	}
	if r.required[key] {
		return "", r.Context.Errorf("the required column %q is missing", column)
	}
	if r.optional[key] {
		return r.defaults[key], nil
	}
	logging.TableReaderWarn("row %d of table %q in %s: column %q does not exist",
		r.Context.Number, r.Context.Table, r.Context.File, column)
	return "", nil
}

// Contains reports whether the row has a value for the column.
func (r Row) Contains(column string) bool {
	_, ok := r.values[strings.ToLower(strings.TrimSpace(column))]
	return ok
}

// Table is a sequential reader for one table (a file, or one sheet of a
// workbook). Next returns io.EOF after the last row.
type Table interface {
	Name() string
	Next() (Row, error)
	SetRequiredColumns(columns ...string)
	SetOptionalColumns(columns ...string)
	SetDefaultValue(column, value string)
}

// Reader provides access to the tables of one source file.
type Reader interface {
	FileName() string
	TableNames() []string
	GetTable(name string) (Table, error)
	Close() error
}

// Open opens a tabular source file, choosing the reader from the file
// extension.
func Open(path string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return openCSV(path, ',')
	case ".tsv", ".tab":
		return openCSV(path, '\t')
	case ".xlsx", ".xlsm":
		return openExcel(path)
	}
	return nil, fmt.Errorf("unrecognized table file type: %s", path)
}

// tableBase carries the column configuration shared by all table
// implementations.
type tableBase struct {
	name     string
	file     string
	colnames []string
	required map[string]bool
	optional map[string]bool
	defaults map[string]string
	rowNum   int
}

func newTableBase(name, file string) tableBase {
	return tableBase{
		name:     name,
		file:     file,
		required: make(map[string]bool),
		optional: make(map[string]bool),
		defaults: make(map[string]string),
	}
}

func (t *tableBase) Name() string { return t.name }

func (t *tableBase) SetRequiredColumns(columns ...string) {
	for _, c := range columns {
		t.required[strings.ToLower(strings.TrimSpace(c))] = true
	}
}

func (t *tableBase) SetOptionalColumns(columns ...string) {
	for _, c := range columns {
		t.optional[strings.ToLower(strings.TrimSpace(c))] = true
	}
}

func (t *tableBase) SetDefaultValue(column, value string) {
	t.defaults[strings.ToLower(strings.TrimSpace(column))] = value
}

// setHeader records the (lowercased) column names, rejecting duplicates.
func (t *tableBase) setHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	t.colnames = make([]string, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if name != "" && seen[name] {
			return fmt.Errorf("the column name %q is used more than once in table %q of %s",
				strings.TrimSpace(col), t.name, t.file)
		}
		seen[name] = true
		t.colnames[i] = name
	}
	return nil
}

// makeRow builds a Row from a raw record, which may be shorter than the
// header (ragged rows are padded with empty values).
func (t *tableBase) makeRow(record []string) Row {
	t.rowNum++
	values := make(map[string]string, len(t.colnames))
	for i, col := range t.colnames {
		if col == "" {
			continue
		}
		v := ""
		if i < len(record) {
			v = strings.TrimSpace(record[i])
		}
		values[col] = v
	}
	return Row{
		Context:  RowContext{File: t.file, Table: t.name, Number: t.rowNum},
		values:   values,
		required: t.required,
		optional: t.optional,
		defaults: t.defaults,
	}
}

// isEmptyRecord reports whether every cell of a record is blank.
func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
