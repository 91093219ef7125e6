// Package models defines data structures for workbook inspection results.
package models

// Report is the result of analyzing one workbook.
type Report struct {
	// Path is the analyzed file path as given by the caller.
	Path string `json:"path"`
	// Format is the detected container format (xlsx, xlsm, xls, ...).
	Format string `json:"format"`
	// Mode is the analysis mode that produced the report.
	Mode string `json:"mode"`
	// ZipEntryCount is the number of entries in the ZIP package.
	ZipEntryCount int `json:"zip_entry_count"`
	// MediaCount is the number of parts under xl/media/.
	MediaCount int `json:"media_count"`
	// ExternalLinksCount is the number of parts whose name contains "externalLinks".
	ExternalLinksCount int `json:"external_links_count"`
	// SheetCount is the number of sheets in the workbook.
	SheetCount int `json:"sheet_count"`
	// HiddenSheets is the number of hidden or very hidden sheets.
	HiddenSheets int `json:"hidden_sheets"`

	TotalCellsScanned     int `json:"total_cells_scanned_estimate"`
	TotalFormulas         int `json:"total_formulas"`
	TotalVolatileFormulas int `json:"total_volatile_formulas"`
	TotalMergedCells      int `json:"total_merged_cells"`

	// Sheets holds per-sheet results in workbook order.
	Sheets []SheetReport `json:"sheets"`
	// Package is the ZIP-level part inventory.
	Package *PackageInventory `json:"package,omitempty"`
	// DefinedNames lists workbook defined names.
	DefinedNames []DefinedName `json:"defined_names,omitempty"`
	// NumberFormats lists the distinct custom number formats in use.
	NumberFormats []NumberFormat `json:"number_formats,omitempty"`
	// ExternalLinks lists external workbook targets (verbose mode).
	ExternalLinks []string `json:"external_links,omitempty"`
	// Properties holds document summary properties (legacy .xls only).
	Properties map[string]string `json:"properties,omitempty"`
	// Warnings collects non-fatal per-sheet failures.
	Warnings []string `json:"warnings,omitempty"`
	// Error is set when the file could not be analyzed at all (batch runs).
	Error string `json:"error,omitempty"`
}

// Sheet returns the report of the named sheet.
func (r *Report) Sheet(name string) (SheetReport, bool) {
	for _, s := range r.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return SheetReport{}, false
}

// ExternalDefinedNames returns the defined names that point at another workbook.
func (r *Report) ExternalDefinedNames() []DefinedName {
	var out []DefinedName
	for _, dn := range r.DefinedNames {
		if dn.External {
			out = append(out, dn)
		}
	}
	return out
}

// DefinedName is a workbook or sheet scoped name.
type DefinedName struct {
	Name     string `json:"name"`
	Scope    string `json:"scope"`
	RefersTo string `json:"refers_to"`
	// External is true when RefersTo references another workbook ([n]Sheet!A1).
	External bool `json:"external,omitempty"`
}

// NumberFormat is a custom number format code and its classification.
type NumberFormat struct {
	Code     string `json:"code"`
	Sections int    `json:"sections"`
	DateTime bool   `json:"date_time,omitempty"`
}
