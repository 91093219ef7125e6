package parser

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func newScanWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()

	sheetName := "Sheet1"
	f.SetCellValue(sheetName, "A1", "Header1")
	f.SetCellValue(sheetName, "B1", "Header2")
	f.SetCellValue(sheetName, "A2", 100)
	f.SetCellValue(sheetName, "B2", 200.5)
	f.SetCellValue(sheetName, "A3", "=today()")
	f.SetCellFormula(sheetName, "B3", "SUM(A2:B2)")
	f.SetCellFormula(sheetName, "C3", "_xlfn.RANDARRAY(2)+OFFSET(A1,1,1)")
	f.SetCellFormula(sheetName, "C4", `"NOW()"&A1`)
	// Formula cells carry no cached value here; C5 pins the used range.
	f.SetCellValue(sheetName, "C5", "tail")

	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	italic, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Italic: true}})
	f.SetCellStyle(sheetName, "A1", "B1", bold)
	f.SetCellStyle(sheetName, "A2", "A2", italic)

	// Round-trip through a file so the scan sees what a reader would.
	tmpFile := filepath.Join(t.TempDir(), "scan.xlsx")
	if err := f.SaveAs(tmpFile); err != nil {
		t.Fatalf("Failed to save test file: %v", err)
	}
	f.Close()

	f2, err := excelize.OpenFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to open test file: %v", err)
	}
	t.Cleanup(func() { f2.Close() })
	return f2
}

func TestScanCells(t *testing.T) {
	f := newScanWorkbook(t)

	res, err := ScanCells(f, "Sheet1", ScanOptions{
		Matcher:         NewVolatileMatcher([]string{"NOW", "TODAY", "OFFSET"}),
		Styles:          NewStyleCatalog(f),
		CollectVolatile: 10,
	})
	if err != nil {
		t.Fatalf("ScanCells failed: %v", err)
	}

	if res.MaxRow != 5 || res.MaxColumn != 3 {
		t.Errorf("Expected bounds 5x3, got %dx%d", res.MaxRow, res.MaxColumn)
	}
	if res.Cells != 15 {
		t.Errorf("Expected 15 cells scanned, got %d", res.Cells)
	}
	// A3 (text formula), B3, C3, C4
	if res.Formulas != 4 {
		t.Errorf("Expected 4 formulas, got %d", res.Formulas)
	}
	// A3 TODAY, C3 OFFSET; the NOW inside a string literal does not count
	if res.Volatile != 2 {
		t.Errorf("Expected 2 volatile formulas, got %d", res.Volatile)
	}
	if res.UniqueStyles != 2 {
		t.Errorf("Expected 2 unique styles, got %d", res.UniqueStyles)
	}
	if res.Truncated {
		t.Error("Expected scan not to be truncated")
	}

	if len(res.VolatileCells) != 2 {
		t.Fatalf("Expected 2 volatile cells, got %d", len(res.VolatileCells))
	}
	if res.VolatileCells[0].Cell != "A3" || res.VolatileCells[0].Formula != "=today()" {
		t.Errorf("Unexpected first volatile cell: %+v", res.VolatileCells[0])
	}
	if res.VolatileCells[1].Cell != "C3" {
		t.Errorf("Expected second volatile cell C3, got %s", res.VolatileCells[1].Cell)
	}
}

func TestScanCellsMaxCells(t *testing.T) {
	f := newScanWorkbook(t)

	res, err := ScanCells(f, "Sheet1", ScanOptions{MaxCells: 5})
	if err != nil {
		t.Fatalf("ScanCells failed: %v", err)
	}
	if res.Cells != 5 {
		t.Errorf("Expected 5 cells scanned, got %d", res.Cells)
	}
	if !res.Truncated {
		t.Error("Expected scan to be truncated")
	}
	if res.UniqueStyles != 0 {
		t.Errorf("Expected no style tracking without a catalog, got %d", res.UniqueStyles)
	}
}

func TestScanCellsMergedFormula(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetCellFormula("Sheet1", "A1", "NOW()"); err != nil {
		t.Fatalf("SetCellFormula failed: %v", err)
	}
	if err := f.MergeCell("Sheet1", "A1", "C3"); err != nil {
		t.Fatalf("MergeCell failed: %v", err)
	}
	f.SetCellValue("Sheet1", "D4", "tail")

	res, err := ScanCells(f, "Sheet1", ScanOptions{
		Matcher:         NewVolatileMatcher([]string{"NOW"}),
		CollectVolatile: 10,
	})
	if err != nil {
		t.Fatalf("ScanCells failed: %v", err)
	}

	if res.Cells != 16 {
		t.Errorf("Expected 16 cells scanned, got %d", res.Cells)
	}
	if res.Formulas != 1 || res.Volatile != 1 {
		t.Errorf("Expected the merged formula counted once, got %d formulas, %d volatile", res.Formulas, res.Volatile)
	}
	if len(res.VolatileCells) != 1 || res.VolatileCells[0].Cell != "A1" {
		t.Errorf("Expected only A1 listed, got %+v", res.VolatileCells)
	}
}

func TestScanCellsMissingSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := ScanCells(f, "Nope", ScanOptions{}); err == nil {
		t.Error("Expected error for missing sheet")
	}
}

func TestSheetBounds(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetCellValue("Sheet1", "B2", "x")
	f.MergeCell("Sheet1", "C5", "F9")

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	maxRow, maxCol, err := SheetBounds(f, "Sheet1", rows)
	if err != nil {
		t.Fatalf("SheetBounds failed: %v", err)
	}
	if maxRow != 9 || maxCol != 6 {
		t.Errorf("Expected bounds 9x6 from the merged range, got %dx%d", maxRow, maxCol)
	}
}

func TestFindDataBounds(t *testing.T) {
	tests := []struct {
		name                           string
		rows                           [][]string
		minRow, maxRow, minCol, maxCol int
	}{
		{"empty", nil, -1, -1, -1, -1},
		{"single", [][]string{{"a"}}, 0, 0, 0, 0},
		{"offset", [][]string{{}, {"", "", "x"}, {"", "y"}}, 1, 2, 1, 2},
	}

	for _, tt := range tests {
		minRow, maxRow, minCol, maxCol := findDataBounds(tt.rows)
		if minRow != tt.minRow || maxRow != tt.maxRow || minCol != tt.minCol || maxCol != tt.maxCol {
			t.Errorf("%s: findDataBounds = (%d,%d,%d,%d), expected (%d,%d,%d,%d)", tt.name,
				minRow, maxRow, minCol, maxCol, tt.minRow, tt.maxRow, tt.minCol, tt.maxCol)
		}
	}
}

func TestParseRangeRef(t *testing.T) {
	tests := []struct {
		ref            string
		r1, c1, r2, c2 int
		ok             bool
	}{
		{"A1:D10", 1, 1, 10, 4, true},
		{"$B$2:$C$3", 2, 2, 3, 3, true},
		{"E7", 7, 5, 7, 5, true},
		{"A1:B2:C3", 0, 0, 0, 0, false},
		{"bogus", 0, 0, 0, 0, false},
	}

	for _, tt := range tests {
		r1, c1, r2, c2, ok := parseRangeRef(tt.ref)
		if ok != tt.ok || r1 != tt.r1 || c1 != tt.c1 || r2 != tt.r2 || c2 != tt.c2 {
			t.Errorf("parseRangeRef(%q) = (%d,%d,%d,%d,%v), expected (%d,%d,%d,%d,%v)", tt.ref,
				r1, c1, r2, c2, ok, tt.r1, tt.c1, tt.r2, tt.c2, tt.ok)
		}
	}
}
