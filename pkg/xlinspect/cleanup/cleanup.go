package cleanup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/output"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/parser"
	"github.com/xuri/excelize/v2"
)

// DefaultSuffix is appended to the input file stem when no output path is given.
const DefaultSuffix = "_CLEANED"

// DefaultOutputPath derives the output path: report.xlsx -> report_CLEANED.xlsx.
func DefaultOutputPath(input, suffix string) string {
	if suffix == "" {
		suffix = DefaultSuffix
	}
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}

// Cleanup applies ops to the workbook at input and writes the result to
// output atomically. An empty output selects DefaultOutputPath.
func Cleanup(ctx context.Context, input, out string, ops Op) (*models.CleanupResult, error) {
	if ops == 0 {
		return nil, fmt.Errorf("no cleanup operation selected")
	}
	if out == "" {
		out = DefaultOutputPath(input, "")
	}
	if same, err := samePath(input, out); err != nil {
		return nil, err
	} else if same {
		return nil, xlinspect.ErrSameOutput
	}

	format, err := xlinspect.DetectFormat(input)
	if err != nil {
		return nil, err
	}
	if !format.IsOOXML() {
		return nil, fmt.Errorf("%w: %s", xlinspect.ErrUnsupportedFormat, xlinspect.FormatDescriptions[format])
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}

	res, cleaned, err := Apply(ctx, data, ops)
	if err != nil {
		return nil, err
	}
	res.Input = input
	res.Output = out

	if err := output.WriteFileAtomic(out, func(w io.Writer) error {
		_, err := w.Write(cleaned)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	return res, nil
}

// Apply runs ops against an in-memory package and returns the cleaned bytes.
func Apply(ctx context.Context, data []byte, ops Op) (*models.CleanupResult, []byte, error) {
	res := &models.CleanupResult{Operations: ops.Names()}

	src, err := parser.NewPackage(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", xlinspect.ErrInvalidFormat, err)
	}
	sheets, err := src.SheetParts()
	if err != nil {
		return nil, nil, err
	}
	for _, sp := range sheets {
		res.Sheets = append(res.Sheets, models.SheetCleanup{Name: sp.Name})
	}

	e, err := newEditor(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", xlinspect.ErrInvalidFormat, err)
	}

	// Package-level passes
	if ops.Has(ExternalLinks) {
		if err := removeExternalLinks(e, res); err != nil {
			return nil, nil, err
		}
	}
	if ops.Has(Drawings) || ops.Has(Objects) {
		for i, sp := range sheets {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			if err := removeDrawings(e, sp, ops.Has(Objects), res, &res.Sheets[i]); err != nil {
				return nil, nil, err
			}
		}
		// The person list only serves threaded comments.
		rels, err := e.removeRelationships(parser.WorkbookPart, parser.RelPerson)
		if err != nil {
			return nil, nil, err
		}
		res.RelationshipsPruned += len(rels)
	}
	if ops.Has(PivotCaches) {
		if err := removePivotCaches(e, sheets, res); err != nil {
			return nil, nil, err
		}
	}

	e.sweep()
	if err := e.pruneContentTypes(); err != nil {
		return nil, nil, err
	}
	res.RemovedParts = e.removedParts()

	cleaned, err := e.bytes()
	if err != nil {
		return nil, nil, err
	}
	if !ops.Has(ExternalLinks) && !ops.Has(Styles) {
		return res, cleaned, nil
	}

	// Object model passes
	f, err := excelize.OpenReader(bytes.NewReader(cleaned))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if ops.Has(ExternalLinks) {
		n, err := removeExternalNames(f)
		if err != nil {
			return nil, nil, err
		}
		res.ExternalNames = n
	}
	if ops.Has(Styles) {
		for i := range res.Sheets {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			n, err := resetStyles(f, res.Sheets[i].Name)
			if err != nil {
				return nil, nil, err
			}
			res.Sheets[i].CellsReset = n
			res.StyledCellsReset += n
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, nil, fmt.Errorf("failed to save workbook: %w", err)
	}
	return res, buf.Bytes(), nil
}

func removeExternalLinks(e *editor, res *models.CleanupResult) error {
	rels, err := e.removeRelationships(parser.WorkbookPart, parser.RelExternalLink)
	if err != nil {
		return err
	}
	res.ExternalLinks = len(rels)
	res.RelationshipsPruned += len(rels)

	return e.patch(parser.WorkbookPart, func(doc *etree.Document) bool {
		return removeElements(doc, "externalReferences") > 0
	})
}

// removeExternalNames deletes defined names that reference other workbooks.
func removeExternalNames(f *excelize.File) (int, error) {
	removed := 0
	for _, dn := range f.GetDefinedName() {
		if !parser.IsExternalReference(dn.RefersTo) {
			continue
		}
		if err := f.DeleteDefinedName(&excelize.DefinedName{Name: dn.Name, Scope: dn.Scope}); err != nil {
			return removed, fmt.Errorf("delete defined name %s: %w", dn.Name, err)
		}
		removed++
	}
	return removed, nil
}

func removeDrawings(e *editor, sheet parser.SheetPart, objects bool, res *models.CleanupResult, sc *models.SheetCleanup) error {
	if sheet.Path == "" {
		return nil
	}

	tags := []string{"drawing", "legacyDrawing", "legacyDrawingHF", "picture"}
	kinds := []string{
		parser.RelDrawing, parser.RelVMLDrawing, parser.RelComments,
		parser.RelThreadedComment, parser.RelImage,
	}
	if objects {
		tags = append(tags, "oleObjects", "controls")
		kinds = append(kinds, parser.RelOLEObject, parser.RelPackage, parser.RelControl, parser.RelCtrlProp)
	}

	if err := e.patch(sheet.Path, func(doc *etree.Document) bool {
		return removeElements(doc, tags...) > 0
	}); err != nil {
		return err
	}

	rels, err := e.removeRelationships(sheet.Path, kinds...)
	if err != nil {
		return err
	}
	res.RelationshipsPruned += len(rels)
	for _, rel := range rels {
		switch {
		case rel.IsType(parser.RelDrawing):
			sc.DrawingsRemoved++
		case rel.IsType(parser.RelComments):
			res.CommentsRemoved++
		case rel.IsType(parser.RelOLEObject), rel.IsType(parser.RelPackage):
			sc.OLEObjectsRemoved++
		case rel.IsType(parser.RelControl):
			sc.ControlsRemoved++
		}
	}
	res.DrawingsRemoved += sc.DrawingsRemoved
	res.OLEObjectsRemoved += sc.OLEObjectsRemoved
	res.ControlsRemoved += sc.ControlsRemoved
	return nil
}

func removePivotCaches(e *editor, sheets []parser.SheetPart, res *models.CleanupResult) error {
	rels, err := e.removeRelationships(parser.WorkbookPart, parser.RelPivotCacheDef)
	if err != nil {
		return err
	}
	res.PivotCachesRemoved = len(rels)
	res.RelationshipsPruned += len(rels)

	if err := e.patch(parser.WorkbookPart, func(doc *etree.Document) bool {
		return removeElements(doc, "pivotCaches") > 0
	}); err != nil {
		return err
	}

	// Pivot tables cannot outlive their cache.
	for _, sp := range sheets {
		if sp.Path == "" {
			continue
		}
		rels, err := e.removeRelationships(sp.Path, parser.RelPivotTable)
		if err != nil {
			return err
		}
		res.PivotTablesRemoved += len(rels)
		res.RelationshipsPruned += len(rels)
	}
	return nil
}

// resetStyles sets every cell in the used range to style 0 and returns how
// many cells carried another style.
func resetStyles(f *excelize.File, sheetName string) (int, error) {
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return 0, err
	}
	maxRow, maxCol, err := parser.SheetBounds(f, sheetName, rows)
	if err != nil {
		return 0, err
	}
	if maxRow == 0 || maxCol == 0 {
		return 0, nil
	}

	styled := 0
	for r := 1; r <= maxRow; r++ {
		for c := 1; c <= maxCol; c++ {
			cell, err := excelize.CoordinatesToCellName(c, r)
			if err != nil {
				return styled, err
			}
			id, err := f.GetCellStyle(sheetName, cell)
			if err != nil {
				return styled, err
			}
			if id != 0 {
				styled++
			}
		}
	}
	if styled == 0 {
		return 0, nil
	}

	bottomRight, err := excelize.CoordinatesToCellName(maxCol, maxRow)
	if err != nil {
		return styled, err
	}
	if err := f.SetCellStyle(sheetName, "A1", bottomRight, 0); err != nil {
		return styled, fmt.Errorf("reset styles on %s: %w", sheetName, err)
	}
	return styled, nil
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	if absA == absB {
		return true, nil
	}
	infoA, errA := os.Stat(absA)
	infoB, errB := os.Stat(absB)
	if errA != nil || errB != nil {
		return false, nil
	}
	return os.SameFile(infoA, infoB), nil
}
