package tablereader

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCSVReader(t *testing.T) {
	path := writeTempFile(t, "terms.csv",
		"Type,ID,Label\n"+
			"class, PO:0000003 ,whole plant\n"+
			",,\n"+
			"class,PO:0025034,leaf\n")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	if names := r.TableNames(); len(names) != 1 || names[0] != "terms" {
		t.Errorf("TableNames() = %v", names)
	}

	table, err := r.GetTable("terms")
	if err != nil {
		t.Fatalf("GetTable() error = %v", err)
	}
	table.SetRequiredColumns("Type", "ID")
	table.SetOptionalColumns("Parent")
	table.SetDefaultValue("Parent", "owl:Thing")

	row, err := table.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	// Case-insensitive lookup, trimmed value.
	if id, err := row.Get("id"); err != nil || id != "PO:0000003" {
		t.Errorf("Get(id) = (%q, %v)", id, err)
	}
	// Optional column falls back to its default.
	if parent, err := row.Get("Parent"); err != nil || parent != "owl:Thing" {
		t.Errorf("Get(Parent) = (%q, %v)", parent, err)
	}
	if row.Contains("Parent") {
		t.Error("Contains(Parent) = true for a missing column")
	}

	// The blank row is skipped.
	row, err = table.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if label, err := row.Get("Label"); err != nil || label != "leaf" {
		t.Errorf("Get(Label) = (%q, %v)", label, err)
	}
	if row.Context.Number != 3 {
		t.Errorf("row number = %d, want 3 (blank rows still count)", row.Context.Number)
	}

	if _, err := table.Next(); err != io.EOF {
		t.Errorf("Next() after last row = %v, want io.EOF", err)
	}
}

func TestTSVReader(t *testing.T) {
	path := writeTempFile(t, "terms.tsv", "ID\tLabel\nPO:0000003\twhole plant\n")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	table, err := r.GetTable("terms")
	if err != nil {
		t.Fatalf("GetTable() error = %v", err)
	}
	row, err := table.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if label, err := row.Get("label"); err != nil || label != "whole plant" {
		t.Errorf("Get(label) = (%q, %v)", label, err)
	}
}

func TestRequiredColumnMissing(t *testing.T) {
	path := writeTempFile(t, "terms.csv", "Label\nwhole plant\n")

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	table, err := r.GetTable("terms")
	if err != nil {
		t.Fatalf("GetTable() error = %v", err)
	}
	table.SetRequiredColumns("ID")

	row, err := table.Next()
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if _, err := row.Get("ID"); err == nil {
		t.Fatal("Get() on missing required column: expected error, got nil")
	} else if !strings.Contains(err.Error(), "row 1") {
		t.Errorf("error %q does not carry row context", err)
	}
}

func TestDuplicateColumnName(t *testing.T) {
	path := writeTempFile(t, "terms.csv", "ID,Label,id\nPO:0000003,whole plant,x\n")
	if _, err := Open(path); err == nil {
		t.Fatal("Open() with duplicate column: expected error, got nil")
	}
}

func TestUnrecognizedExtension(t *testing.T) {
	path := writeTempFile(t, "terms.unknown", "ID\n")
	if _, err := Open(path); err == nil {
		t.Fatal("Open() on unknown extension: expected error, got nil")
	}
}

func TestExcelReader(t *testing.T) {
	book := excelize.NewFile()
	sheet := "Classes"
	if err := book.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatal(err)
	}
	rows := [][]interface{}{
		{"ID", "Label"},
		{"PO:0000003", "whole plant"},
		{"", ""},
		{"PO:0025034", "leaf"},
	}
	for i, cells := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := book.SetSheetRow(sheet, cell, &cells); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "terms.xlsx")
	if err := book.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	book.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	if names := r.TableNames(); len(names) != 1 || names[0] != sheet {
		t.Errorf("TableNames() = %v", names)
	}
	table, err := r.GetTable(sheet)
	if err != nil {
		t.Fatalf("GetTable() error = %v", err)
	}

	var labels []string
	for {
		row, err := table.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		label, err := row.Get("Label")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		labels = append(labels, label)
	}
	if len(labels) != 2 || labels[0] != "whole plant" || labels[1] != "leaf" {
		t.Errorf("labels = %v", labels)
	}
}
