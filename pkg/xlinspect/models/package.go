package models

// PackageInventory counts notable parts of an OOXML package.
type PackageInventory struct {
	Drawings     int  `json:"drawings"`
	Charts       int  `json:"charts"`
	PivotCaches  int  `json:"pivot_caches"`
	PivotTables  int  `json:"pivot_tables"`
	Embeddings   int  `json:"embeddings"`
	ActiveX      int  `json:"activex"`
	Comments     int  `json:"comments"`
	HasVBA       bool `json:"has_vba"`
	HasCalcChain bool `json:"has_calc_chain"`
	// UncompressedBytes is the sum of uncompressed part sizes.
	UncompressedBytes uint64 `json:"uncompressed_bytes"`
	// EmbeddedObjects describes OLE objects found under xl/embeddings (verbose mode).
	EmbeddedObjects []EmbeddedObject `json:"embedded_objects,omitempty"`
}

// EmbeddedObject describes an embedded compound file.
type EmbeddedObject struct {
	Part    string   `json:"part"`
	Size    int64    `json:"size"`
	Streams []string `json:"streams,omitempty"`
	Error   string   `json:"error,omitempty"`
}
