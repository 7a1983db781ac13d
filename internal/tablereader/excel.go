package tablereader

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// excelReader exposes the sheets of an Excel workbook as tables.
type excelReader struct {
	path string
	book *excelize.File
}

type excelTable struct {
	tableBase
	rows *excelize.Rows
}

func openExcel(path string) (Reader, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open workbook %s: %w", path, err)
	}
	return &excelReader{path: path, book: book}, nil
}

func (e *excelReader) FileName() string { return e.path }

func (e *excelReader) TableNames() []string { return e.book.GetSheetList() }

func (e *excelReader) GetTable(name string) (Table, error) {
	rows, err := e.book.Rows(name)
	if err != nil {
		return nil, fmt.Errorf("no sheet named %q in %s: %w", name, e.path, err)
	}

	t := &excelTable{tableBase: newTableBase(name, e.path), rows: rows}
	if !rows.Next() {
		rows.Close()
		return nil, fmt.Errorf("sheet %q of %s is empty", name, e.path)
	}
	header, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("cannot read header of sheet %q in %s: %w", name, e.path, err)
	}
	if err := t.setHeader(header); err != nil {
		rows.Close()
		return nil, err
	}
	return t, nil
}

func (e *excelReader) Close() error { return e.book.Close() }

func (t *excelTable) Next() (Row, error) {
	for t.rows.Next() {
		record, err := t.rows.Columns()
		if err != nil {
			return Row{}, fmt.Errorf("cannot read row from sheet %q in %s: %w", t.name, t.file, err)
		}
		if isEmptyRecord(record) {
			t.rowNum++
			continue
		}
		return t.makeRow(record), nil
	}
	t.rows.Close()
	return Row{}, io.EOF
}
