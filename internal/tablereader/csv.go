package tablereader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// csvReader exposes a CSV or TSV file as a single table named after the
// file.
type csvReader struct {
	file  *os.File
	table *csvTable
}

type csvTable struct {
	tableBase
	r *csv.Reader
}

func openCSV(path string, delimiter rune) (Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open table file %s: %w", path, err)
	}

	r := csv.NewReader(f)
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t := &csvTable{tableBase: newTableBase(name, path), r: r}

	header, err := r.Read()
	if err == io.EOF {
		f.Close()
		return nil, fmt.Errorf("table file %s is empty", path)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cannot read table file %s: %w", path, err)
	}
	if err := t.setHeader(header); err != nil {
		f.Close()
		return nil, err
	}

	return &csvReader{file: f, table: t}, nil
}

func (c *csvReader) FileName() string { return c.table.file }

func (c *csvReader) TableNames() []string { return []string{c.table.name} }

func (c *csvReader) GetTable(name string) (Table, error) {
	if name != c.table.name {
		return nil, fmt.Errorf("no table named %q in %s", name, c.table.file)
	}
	return c.table, nil
}

func (c *csvReader) Close() error { return c.file.Close() }

func (t *csvTable) Next() (Row, error) {
	for {
		record, err := t.r.Read()
		if err == io.EOF {
			return Row{}, io.EOF
		}
		if err != nil {
			return Row{}, fmt.Errorf("cannot read row from %s: %w", t.file, err)
		}
		if isEmptyRecord(record) {
			t.rowNum++
			continue
		}
		return t.makeRow(record), nil
	}
}
