package output

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/renameio/v2"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
)

// WriteFileAtomic writes path through a pending file that replaces the
// target only after write succeeds. A failed write leaves the target untouched.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer pendingFile.Cleanup() //nolint:errcheck

	if err := write(pendingFile); err != nil {
		return err
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

// WriteReport writes the HTML report to path and the JSON data it was
// rendered from to path + ".json".
func WriteReport(path string, report *models.Report, check *models.CheckResult) error {
	var html bytes.Buffer
	if err := RenderHTML(&html, report, check); err != nil {
		return err
	}

	data, err := ToJSON(reportDocument{Report: report, Check: check}, true)
	if err != nil {
		return fmt.Errorf("serialize report: %w", err)
	}

	if err := WriteFileAtomic(path+".json", func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return err
	}
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := html.WriteTo(w)
		return err
	})
}

// reportDocument is the JSON companion of an HTML report.
type reportDocument struct {
	*models.Report
	Check *models.CheckResult `json:"check,omitempty"`
}
