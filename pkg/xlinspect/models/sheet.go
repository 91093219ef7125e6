package models

// SheetReport represents analysis counters for a single sheet.
type SheetReport struct {
	// Name is the sheet name.
	Name string `json:"name"`
	// Hidden is true for hidden and very hidden sheets.
	Hidden bool `json:"hidden,omitempty"`
	// MaxRow is the last used row (1-based).
	MaxRow int `json:"max_row"`
	// MaxColumn is the last used column (1-based).
	MaxColumn int `json:"max_column"`
	// Formulas is the number of cells carrying a formula.
	Formulas int `json:"formulas"`
	// VolatileFormulas is the number of formulas calling a volatile function.
	VolatileFormulas int `json:"volatile_formulas"`
	// MergedCells is the number of merged ranges.
	MergedCells int `json:"merged_cells"`
	// HiddenRows is the number of hidden rows within the used range.
	HiddenRows int `json:"hidden_rows"`
	// HiddenColumns is the number of hidden columns within the used range.
	HiddenColumns int `json:"hidden_columns"`
	// UniqueStyles is the number of distinct styles applied to cells.
	UniqueStyles int `json:"unique_styles"`
	// Comments is the number of cell comments.
	Comments int `json:"comments"`
	// Tables is the number of table objects.
	Tables int `json:"tables"`
	// Drawing counts drawing objects anchored on the sheet.
	Drawing DrawingCounts `json:"drawing"`
	// CellsScanned is the number of cells visited by the scan.
	CellsScanned int `json:"cells_scanned"`
	// Truncated is true when the scan stopped at the configured cell limit.
	Truncated bool `json:"truncated,omitempty"`
	// VolatileCells lists volatile formula locations (verbose mode only).
	VolatileCells []FormulaCell `json:"volatile_cells,omitempty"`
}

// FormulaCell is a formula and its cell reference.
type FormulaCell struct {
	Cell    string `json:"cell"`
	Formula string `json:"formula"`
}

// DrawingCounts counts objects in a sheet drawing part.
type DrawingCounts struct {
	Shapes     int `json:"shapes"`
	Connectors int `json:"connectors"`
	Pictures   int `json:"pictures"`
	Charts     int `json:"charts"`
	Groups     int `json:"groups"`
}

// Total returns the number of drawing objects.
func (d DrawingCounts) Total() int {
	return d.Shapes + d.Connectors + d.Pictures + d.Charts + d.Groups
}
