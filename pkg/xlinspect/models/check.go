package models

import "fmt"

// CheckStatus is the outcome class of a structure check.
type CheckStatus string

const (
	StatusOK      CheckStatus = "OK"
	StatusWarning CheckStatus = "WARNING"
	StatusCorrupt CheckStatus = "CORRUPT"
	StatusError   CheckStatus = "ERROR"
)

// CheckResult is the result of a structural corruption check.
type CheckResult struct {
	Path    string      `json:"path"`
	Format  string      `json:"format"`
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	// BadEntry is the first ZIP entry that failed to decompress.
	BadEntry string `json:"bad_entry,omitempty"`
	// MissingParts lists core parts absent from the package.
	MissingParts []string `json:"missing_parts,omitempty"`
	// Notes carries informational findings that do not change the status.
	Notes []string `json:"notes,omitempty"`
}

// OK reports whether the workbook passed every check.
func (c CheckResult) OK() bool {
	return c.Status == StatusOK
}

// String formats the result the way the CLI prints it.
func (c CheckResult) String() string {
	return fmt.Sprintf("[%s] %s", c.Status, c.Message)
}
