package output

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
)

var printer = message.NewPrinter(language.English)

// WriteText writes the plain text summary of a report. Counts are digit
// grouped (12,345).
func WriteText(w io.Writer, report *models.Report) error {
	ew := &errWriter{w: w}

	ew.printf("File: %s (%s, %s mode)\n", report.Path, report.Format, report.Mode)
	ew.printf("Sheets: %d", report.SheetCount)
	if report.HiddenSheets > 0 {
		ew.printf(" (%d hidden)", report.HiddenSheets)
	}
	ew.printf("\n")
	if report.ZipEntryCount > 0 {
		ew.printf("ZIP entries: %d  Media: %d  External links: %d\n",
			report.ZipEntryCount, report.MediaCount, report.ExternalLinksCount)
	}
	ew.printf("Cells scanned: %d\n", report.TotalCellsScanned)
	ew.printf("Formulas: %d  Volatile: %d  Merged ranges: %d\n",
		report.TotalFormulas, report.TotalVolatileFormulas, report.TotalMergedCells)

	for _, s := range report.Sheets {
		ew.printf("  %s: %d x %d, formulas %d, volatile %d, merged %d, hidden rows %d, hidden cols %d, styles %d",
			s.Name, s.MaxRow, s.MaxColumn, s.Formulas, s.VolatileFormulas, s.MergedCells,
			s.HiddenRows, s.HiddenColumns, s.UniqueStyles)
		if n := s.Drawing.Total(); n > 0 {
			ew.printf(", drawing objects %d", n)
		}
		if s.Hidden {
			ew.printf(" [hidden]")
		}
		if s.Truncated {
			ew.printf(" [truncated]")
		}
		ew.printf("\n")
		for _, c := range s.VolatileCells {
			ew.printf("    %s  %s\n", c.Cell, c.Formula)
		}
	}

	if p := report.Package; p != nil {
		ew.printf("Package: drawings %d, charts %d, pivot caches %d, pivot tables %d, embeddings %d, activeX %d, comments %d",
			p.Drawings, p.Charts, p.PivotCaches, p.PivotTables, p.Embeddings, p.ActiveX, p.Comments)
		if p.HasVBA {
			ew.printf(", VBA project")
		}
		ew.printf("\n")
	}
	for _, link := range report.ExternalLinks {
		ew.printf("External link: %s\n", link)
	}
	for _, dn := range report.ExternalDefinedNames() {
		ew.printf("External name: %s = %s\n", dn.Name, dn.RefersTo)
	}
	for _, warning := range report.Warnings {
		ew.printf("Warning: %s\n", warning)
	}
	return ew.err
}

// WriteCleanupText writes the per-sheet progress lines and counters of a
// cleanup run.
func WriteCleanupText(w io.Writer, res *models.CleanupResult) error {
	ew := &errWriter{w: w}

	for _, s := range res.Sheets {
		ew.printf("Cleaning sheet: %s\n", s.Name)
	}
	ew.printf("Operations: %s\n", strings.Join(res.Operations, ", "))
	ew.printf("External links removed: %d (defined names: %d)\n", res.ExternalLinks, res.ExternalNames)
	ew.printf("Styled cells reset: %d\n", res.StyledCellsReset)
	ew.printf("Drawings removed: %d  Comments: %d  OLE objects: %d  Controls: %d\n",
		res.DrawingsRemoved, res.CommentsRemoved, res.OLEObjectsRemoved, res.ControlsRemoved)
	ew.printf("Pivot caches removed: %d  Pivot tables: %d\n", res.PivotCachesRemoved, res.PivotTablesRemoved)
	ew.printf("Parts removed: %d\n", len(res.RemovedParts))
	ew.printf("Saved: %s\n", res.Output)
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = printer.Fprintf(e.w, format, args...)
}
