package parser

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetBounds returns the last used row and column (1-based) of a sheet.
// It takes the larger of the stored dimension, the data bounds and the
// merged ranges, since writers do not always keep the dimension current.
func SheetBounds(f *excelize.File, sheetName string, rows [][]string) (maxRow, maxCol int, err error) {
	if dim, derr := f.GetSheetDimension(sheetName); derr == nil && dim != "" {
		if _, _, r2, c2, ok := parseRangeRef(dim); ok {
			maxRow, maxCol = r2, c2
		}
	}

	_, dataMaxRow, _, dataMaxCol := findDataBounds(rows)
	if dataMaxRow >= 0 {
		maxRow = max(maxRow, dataMaxRow+1)
		maxCol = max(maxCol, dataMaxCol+1)
	}

	merges, err := f.GetMergeCells(sheetName)
	if err != nil {
		return maxRow, maxCol, err
	}
	for _, m := range merges {
		if col, row, cerr := excelize.CellNameToCoordinates(m.GetEndAxis()); cerr == nil {
			maxRow = max(maxRow, row)
			maxCol = max(maxCol, col)
		}
	}

	return maxRow, maxCol, nil
}

// findDataBounds finds the bounding box of non-empty cells (0-based).
// All values are -1 when the sheet holds no data.
func findDataBounds(rows [][]string) (minRow, maxRow, minCol, maxCol int) {
	minRow, maxRow = -1, -1
	minCol, maxCol = -1, -1

	for rowIdx, row := range rows {
		for colIdx, cell := range row {
			if cell != "" {
				if minRow < 0 || rowIdx < minRow {
					minRow = rowIdx
				}
				if maxRow < 0 || rowIdx > maxRow {
					maxRow = rowIdx
				}
				if minCol < 0 || colIdx < minCol {
					minCol = colIdx
				}
				if maxCol < 0 || colIdx > maxCol {
					maxCol = colIdx
				}
			}
		}
	}

	return minRow, maxRow, minCol, maxCol
}

// parseRangeRef parses "A1:D10" or a single cell "A1" into 1-based bounds.
func parseRangeRef(ref string) (r1, c1, r2, c2 int, ok bool) {
	ref = strings.ReplaceAll(ref, "$", "")
	parts := strings.Split(ref, ":")
	if len(parts) == 1 {
		parts = append(parts, parts[0])
	}
	if len(parts) != 2 {
		return 0, 0, 0, 0, false
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return 0, 0, 0, 0, false
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return 0, 0, 0, 0, false
	}

	return startRow, startCol, endRow, endCol, true
}
