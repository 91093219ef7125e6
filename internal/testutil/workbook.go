// Package testutil builds workbook fixtures for tests.
package testutil

import (
	"bytes"
	"encoding/base64"
	_ "image/png" // register the PNG decoder for AddPictureFromBytes
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the inspection fixture, in workbook order.
const (
	SheetData   = "Data"
	SheetSales  = "Sales"
	SheetReport = "Report"
	SheetHidden = "Hidden"
)

// onePixelPNG is a 1x1 transparent PNG.
var onePixelPNG, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// NewInspectionWorkbook saves a workbook exercising every analysis counter
// and returns its path. Expected values:
//
//	Data:   4 formulas (B2 SUM, B3 NOW, B4 INDIRECT, text "=RAND()" in C1),
//	        3 volatile, 1 merged range (D1:E2), 1 hidden row (4),
//	        1 hidden column (G), 2 unique styles, 1 comment, max A1:E5
//	Sales:  1 table, 1 pivot table built from A1:B5
//	Report: 1 chart and 1 picture
//	Hidden: hidden sheet
//	Names:  Total (local), ExtRef ([1]Sheet1!$A$1, external)
func NewInspectionWorkbook(t testing.TB) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("build fixture: %v", err)
		}
	}

	must(f.SetSheetName("Sheet1", SheetData))
	for _, name := range []string{SheetSales, SheetReport, SheetHidden} {
		_, err := f.NewSheet(name)
		must(err)
	}

	// Data
	must(f.SetSheetRow(SheetData, "A1", &[]any{"Name", "Value"}))
	must(f.SetCellValue(SheetData, "C1", "=RAND()"))
	for i, v := range []int{10, 20, 30, 40} {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		must(f.SetCellValue(SheetData, cell, v))
	}
	must(f.SetCellFormula(SheetData, "B2", "SUM(A2:A5)"))
	must(f.SetCellFormula(SheetData, "B3", "NOW()"))
	must(f.SetCellFormula(SheetData, "B4", `INDIRECT("A1")`))
	must(f.MergeCell(SheetData, "D1", "E2"))
	must(f.SetRowVisible(SheetData, 4, false))
	must(f.SetColVisible(SheetData, "G", false))
	must(f.SetCellValue(SheetData, "E5", "end"))

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	must(err)
	filled, err := f.NewStyle(&excelize.Style{Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFFF00"}}})
	must(err)
	must(f.SetCellStyle(SheetData, "A1", "A2", bold))
	must(f.SetCellStyle(SheetData, "B1", "B1", filled))

	must(f.AddComment(SheetData, excelize.Comment{Cell: "A1", Author: "qa", Text: "header"}))

	// Sales
	must(f.SetSheetRow(SheetSales, "A1", &[]any{"Region", "Amount"}))
	for i, row := range [][]any{{"East", 100}, {"West", 200}, {"East", 150}, {"North", 50}} {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		must(f.SetSheetRow(SheetSales, cell, &row))
	}
	must(f.AddTable(SheetSales, &excelize.Table{Range: "A1:B5", Name: "SalesTable"}))
	must(f.AddPivotTable(&excelize.PivotTableOptions{
		DataRange:       SheetSales + "!A1:B5",
		PivotTableRange: SheetSales + "!D2:F10",
		Rows:            []excelize.PivotTableField{{Data: "Region"}},
		Data:            []excelize.PivotTableField{{Data: "Amount", Subtotal: "Sum"}},
	}))

	// Report
	must(f.AddChart(SheetReport, "B2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       SheetSales + "!$B$1",
			Categories: SheetSales + "!$A$2:$A$5",
			Values:     SheetSales + "!$B$2:$B$5",
		}},
	}))
	must(f.AddPictureFromBytes(SheetReport, "J2", &excelize.Picture{Extension: ".png", File: onePixelPNG}))

	// Hidden
	must(f.SetCellValue(SheetHidden, "A1", "secret"))
	must(f.SetSheetVisible(SheetHidden, false))

	must(f.SetDefinedName(&excelize.DefinedName{Name: "Total", RefersTo: SheetData + "!$B$2", Scope: SheetData}))
	must(f.SetDefinedName(&excelize.DefinedName{Name: "ExtRef", RefersTo: "[1]Sheet1!$A$1"}))

	path := filepath.Join(t.TempDir(), "inspection.xlsx")
	must(f.SaveAs(path))
	return path
}

// NewSimpleWorkbook saves a one-sheet workbook with plain values.
func NewSimpleWorkbook(t testing.TB, name string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"a", 1, 2.5}); err != nil {
		t.Fatalf("build fixture: %v", err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return path
}

// WorkbookBytes serializes an excelize file in memory.
func WorkbookBytes(t testing.TB, f *excelize.File) []byte {
	t.Helper()
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return buf.Bytes()
}
