package xlinspect

import (
	"context"
	"fmt"

	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/parser"
	"github.com/xuri/excelize/v2"
)

// Analyze inspects a workbook and returns its report. Per-sheet failures are
// recorded as report warnings; an error is returned only when the workbook
// cannot be opened at all.
func Analyze(ctx context.Context, path string, opts Options) (*models.Report, error) {
	if opts.Mode == "" {
		opts.Mode = ModeStandard
	}

	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	switch {
	case format == FormatXLS:
		return analyzeLegacy(path, opts)
	case !format.IsOOXML():
		return nil, fmt.Errorf("%w: %s", ErrInvalidFormat, FormatDescriptions[format])
	}

	report := &models.Report{
		Path:   path,
		Format: string(format),
		Mode:   string(opts.Mode),
	}

	// Package-level inventory straight from the ZIP container
	pkg, err := parser.OpenPackage(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	defer pkg.Close()

	report.ZipEntryCount = len(pkg.Names())
	report.MediaCount = pkg.MediaCount()
	report.ExternalLinksCount = pkg.ExternalLinkPartCount()
	inventory := pkg.Inventory()
	report.Package = &inventory

	sheetParts, err := pkg.SheetParts()
	if err != nil {
		report.Warnings = append(report.Warnings, err.Error())
	}
	partsByName := make(map[string]parser.SheetPart, len(sheetParts))
	for _, sp := range sheetParts {
		partsByName[sp.Name] = sp
	}

	drawings, err := pkg.SheetDrawingCounts(sheetParts)
	if err != nil {
		report.Warnings = append(report.Warnings, NewAnalysisError("", "drawing", err).Error())
	}

	if opts.Verbose() {
		if report.ExternalLinks, err = pkg.ExternalLinkTargets(); err != nil {
			report.Warnings = append(report.Warnings, err.Error())
		}
		if report.Package.EmbeddedObjects, err = pkg.EmbeddedObjects(); err != nil {
			report.Warnings = append(report.Warnings, err.Error())
		}
	}

	// Workbook-level analysis through the object model
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	report.SheetCount = len(sheetList)
	report.DefinedNames = parser.ExtractDefinedNames(f)

	sa := sheetAnalyzer{
		f:        f,
		pkg:      pkg,
		opts:     opts,
		matcher:  parser.NewVolatileMatcher(opts.volatileFunctions()),
		styles:   parser.NewStyleCatalog(f),
		drawings: drawings,
	}

	for _, sheetName := range sheetList {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sr, warnings := sa.analyze(sheetName, partsByName[sheetName])
		for _, w := range warnings {
			report.Warnings = append(report.Warnings, w.Error())
		}

		if sr.Hidden {
			report.HiddenSheets++
		}
		report.TotalCellsScanned += sr.CellsScanned
		report.TotalFormulas += sr.Formulas
		report.TotalVolatileFormulas += sr.VolatileFormulas
		report.TotalMergedCells += sr.MergedCells
		report.Sheets = append(report.Sheets, sr)
	}

	report.NumberFormats = sa.styles.NumberFormats()
	return report, nil
}

type sheetAnalyzer struct {
	f        *excelize.File
	pkg      *parser.Package
	opts     Options
	matcher  *parser.VolatileMatcher
	styles   *parser.StyleCatalog
	drawings map[string]models.DrawingCounts
}

func (a *sheetAnalyzer) analyze(sheetName string, part parser.SheetPart) (models.SheetReport, []*AnalysisError) {
	sr := models.SheetReport{Name: sheetName}
	var warnings []*AnalysisError
	warn := func(component string, err error) {
		warnings = append(warnings, NewAnalysisError(sheetName, component, err))
	}

	if visible, err := a.f.GetSheetVisible(sheetName); err != nil {
		warn("visibility", err)
	} else {
		sr.Hidden = !visible
	}

	if merges, err := a.f.GetMergeCells(sheetName); err != nil {
		warn("merges", err)
	} else {
		sr.MergedCells = len(merges)
	}

	if part.Path != "" {
		data, err := a.pkg.Read(part.Path)
		if err != nil {
			warn("visibility", err)
		} else {
			layout := parser.ParseSheetLayout(data)
			sr.HiddenRows = layout.HiddenRows
			sr.HiddenColumns = layout.HiddenColumns
		}
	}

	if comments, err := a.f.GetComments(sheetName); err != nil {
		warn("comments", err)
	} else {
		sr.Comments = len(comments)
	}

	if tables, err := a.f.GetTables(sheetName); err != nil {
		warn("tables", err)
	} else {
		sr.Tables = len(tables)
	}

	sr.Drawing = a.drawings[sheetName]

	if !a.opts.ScanCells() {
		maxRow, maxCol, err := parser.SheetBounds(a.f, sheetName, nil)
		if err != nil {
			warn("dimension", err)
		}
		sr.MaxRow, sr.MaxColumn = maxRow, maxCol
		return sr, warnings
	}

	scanOpts := parser.ScanOptions{
		MaxCells: a.opts.MaxCells,
		Matcher:  a.matcher,
		Styles:   a.styles,
	}
	if a.opts.Verbose() {
		scanOpts.CollectVolatile = a.opts.volatileListLimit()
	}
	res, err := parser.ScanCells(a.f, sheetName, scanOpts)
	if err != nil {
		warn("cells", err)
	}
	sr.MaxRow = res.MaxRow
	sr.MaxColumn = res.MaxColumn
	sr.CellsScanned = res.Cells
	sr.Formulas = res.Formulas
	sr.VolatileFormulas = res.Volatile
	sr.UniqueStyles = res.UniqueStyles
	sr.Truncated = res.Truncated
	sr.VolatileCells = res.VolatileCells

	return sr, warnings
}

// analyzeLegacy reports what the BIFF reader exposes for .xls workbooks:
// sheet names, used extents and the document summary properties.
func analyzeLegacy(path string, opts Options) (*models.Report, error) {
	report := &models.Report{
		Path:   path,
		Format: string(FormatXLS),
		Mode:   string(opts.Mode),
	}

	sheets, err := parser.ReadLegacySheets(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	report.Sheets = sheets
	report.SheetCount = len(sheets)

	props, err := parser.ReadSummaryProperties(path)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("summary properties: %v", err))
	}
	report.Properties = props
	report.Warnings = append(report.Warnings, "formula and style scan is not available for legacy .xls workbooks")

	return report, nil
}
