package parser

import (
	"fmt"

	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
	"github.com/xuri/excelize/v2"
)

// ScanOptions configures a sheet cell scan.
type ScanOptions struct {
	// MaxCells stops the scan after this many cells. Zero means unlimited.
	MaxCells int
	// Matcher classifies volatile formulas.
	Matcher *VolatileMatcher
	// Styles resolves style ids; shared across the sheets of a workbook.
	Styles *StyleCatalog
	// CollectVolatile lists up to this many volatile formula cells.
	CollectVolatile int
}

// ScanResult holds the counters collected from one sheet.
type ScanResult struct {
	MaxRow        int
	MaxColumn     int
	Cells         int
	Formulas      int
	Volatile      int
	UniqueStyles  int
	Truncated     bool
	VolatileCells []models.FormulaCell
}

// ScanCells walks every cell of the sheet's used range, counting formulas,
// volatile formulas and distinct cell styles.
func ScanCells(f *excelize.File, sheetName string, opts ScanOptions) (ScanResult, error) {
	var res ScanResult

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return res, err
	}

	res.MaxRow, res.MaxColumn, err = SheetBounds(f, sheetName, rows)
	if err != nil {
		return res, err
	}

	covered, err := mergedCovered(f, sheetName, res.MaxRow, res.MaxColumn)
	if err != nil {
		return res, err
	}

	styles := make(map[string]struct{})

scan:
	for r := 1; r <= res.MaxRow; r++ {
		for c := 1; c <= res.MaxColumn; c++ {
			if opts.MaxCells > 0 && res.Cells >= opts.MaxCells {
				res.Truncated = true
				break scan
			}
			res.Cells++

			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return res, err
			}

			var formula string
			if _, ok := covered[[2]int{c, r}]; !ok {
				formula, err = f.GetCellFormula(sheetName, cell)
				if err != nil {
					return res, fmt.Errorf("formula %s: %w", cell, err)
				}
				if formula == "" {
					if value := cellText(rows, r, c); IsFormulaText(value) {
						formula = value
					}
				}
			}
			if formula != "" {
				res.Formulas++
				if opts.Matcher != nil && opts.Matcher.IsVolatile(formula) {
					res.Volatile++
					if len(res.VolatileCells) < opts.CollectVolatile {
						res.VolatileCells = append(res.VolatileCells, models.FormulaCell{Cell: cell, Formula: formula})
					}
				}
			}

			if opts.Styles == nil {
				continue
			}
			styleID, err := f.GetCellStyle(sheetName, cell)
			if err != nil {
				return res, fmt.Errorf("style %s: %w", cell, err)
			}
			if styleID == 0 {
				continue
			}
			key, err := opts.Styles.Key(styleID)
			if err != nil {
				return res, fmt.Errorf("style %d: %w", styleID, err)
			}
			styles[key] = struct{}{}
		}
	}

	res.UniqueStyles = len(styles)
	return res, nil
}

// mergedCovered returns the cells of each merged range except its top-left
// cell, clipped to the scanned bounds. GetCellFormula resolves those cells to
// the top-left formula.
func mergedCovered(f *excelize.File, sheetName string, maxRow, maxCol int) (map[[2]int]struct{}, error) {
	merges, err := f.GetMergeCells(sheetName)
	if err != nil {
		return nil, err
	}
	covered := make(map[[2]int]struct{})
	for _, m := range merges {
		c1, r1, err := excelize.CellNameToCoordinates(m.GetStartAxis())
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", m.GetStartAxis(), err)
		}
		c2, r2, err := excelize.CellNameToCoordinates(m.GetEndAxis())
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", m.GetEndAxis(), err)
		}
		for r := r1; r <= min(r2, maxRow); r++ {
			for c := c1; c <= min(c2, maxCol); c++ {
				if r != r1 || c != c1 {
					covered[[2]int{c, r}] = struct{}{}
				}
			}
		}
	}
	return covered, nil
}

func cellText(rows [][]string, r, c int) string {
	if r-1 >= len(rows) || c-1 >= len(rows[r-1]) {
		return ""
	}
	return rows[r-1][c-1]
}
