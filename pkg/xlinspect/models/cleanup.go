package models

// CleanupResult summarizes what a cleanup run removed.
type CleanupResult struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	// Operations names the operations that ran, in execution order.
	Operations []string `json:"operations"`

	ExternalLinks       int `json:"external_links"`
	ExternalNames       int `json:"external_defined_names"`
	StyledCellsReset    int `json:"styled_cells_reset"`
	DrawingsRemoved     int `json:"drawings_removed"`
	CommentsRemoved     int `json:"comments_removed"`
	PivotCachesRemoved  int `json:"pivot_caches_removed"`
	PivotTablesRemoved  int `json:"pivot_tables_removed"`
	OLEObjectsRemoved   int `json:"ole_objects_removed"`
	ControlsRemoved     int `json:"controls_removed"`
	RelationshipsPruned int `json:"relationships_pruned"`

	// RemovedParts lists package parts deleted from the output.
	RemovedParts []string `json:"removed_parts,omitempty"`
	// Sheets holds per-sheet removal notes in workbook order.
	Sheets []SheetCleanup `json:"sheets,omitempty"`
}

// SheetCleanup records removals on one sheet.
type SheetCleanup struct {
	Name              string `json:"name"`
	DrawingsRemoved   int    `json:"drawings_removed"`
	OLEObjectsRemoved int    `json:"ole_objects_removed"`
	ControlsRemoved   int    `json:"controls_removed"`
	CellsReset        int    `json:"cells_reset"`
}
