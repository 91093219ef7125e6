package xlinspect

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/parser"
)

// CoreParts must exist in every SpreadsheetML package.
var CoreParts = []string{
	parser.ContentTypesPart,
	parser.WorkbookPart,
	parser.WorkbookRelsPart,
	parser.StylesPart,
}

// maxDangling bounds the relationship targets listed in a warning.
const maxDangling = 5

// Check runs the structural corruption check on a workbook file. Problems
// with the file are reported through the result status; the result always
// carries a printable message.
func Check(ctx context.Context, filePath string) models.CheckResult {
	res := models.CheckResult{Path: filePath, Format: string(FormatUnknown)}

	format, err := DetectFormat(filePath)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return result(res, models.StatusError, "File not found: %s", filePath)
		}
		return result(res, models.StatusError, "Exception occurred: %v", err)
	}
	res.Format = string(format)

	switch format {
	case FormatEncrypted:
		return result(res, models.StatusError, "Password-protected workbook; it must be decrypted before it can be checked.")
	case FormatXLS:
		return result(res, models.StatusError, "Legacy .xls (OLE2) workbook; Excel XLSX required.")
	case FormatXLSX, FormatXLSM, FormatXLSB, FormatODS, FormatZIP:
	default:
		return result(res, models.StatusError, "Not a valid ZIP file (Excel XLSX required).")
	}

	pkg, err := parser.OpenPackage(filePath)
	if err != nil {
		return result(res, models.StatusError, "Not a valid ZIP file (Excel XLSX required).")
	}
	defer pkg.Close()

	var malformed string
	var malformedErr error
	for _, f := range pkg.Files() {
		if err := ctx.Err(); err != nil {
			return result(res, models.StatusError, "Exception occurred: %v", err)
		}
		data, err := readEntry(f.Open)
		if err != nil {
			res.BadEntry = f.Name
			return result(res, models.StatusCorrupt, "Bad file entry detected: %s", f.Name)
		}
		if malformed == "" && isXMLPart(f.Name) {
			if err := wellFormed(data); err != nil {
				malformed, malformedErr = f.Name, err
			}
		}
	}

	for _, part := range CoreParts {
		if !pkg.Has(part) {
			res.MissingParts = append(res.MissingParts, part)
		}
	}
	if !pkg.Has(parser.SharedStrings) {
		res.Notes = append(res.Notes, "no shared strings part ("+parser.SharedStrings+")")
	}
	if len(res.MissingParts) > 0 {
		return result(res, models.StatusWarning, "Missing core components: [%s]", strings.Join(res.MissingParts, ", "))
	}

	if malformed != "" {
		return result(res, models.StatusCorrupt, "Malformed XML in %s: %v", malformed, malformedErr)
	}

	if dangling := danglingTargets(pkg); len(dangling) > 0 {
		shown := dangling
		if len(shown) > maxDangling {
			shown = shown[:maxDangling]
		}
		return result(res, models.StatusWarning, "Dangling relationship targets (%d): %s", len(dangling), strings.Join(shown, ", "))
	}

	return result(res, models.StatusOK, "Excel structure looks valid.")
}

// Analyzable reports whether Analyze should run on a file with this check
// result. Legacy .xls workbooks fail the structural check but still get the
// reduced BIFF analysis.
func Analyzable(check models.CheckResult) bool {
	switch check.Status {
	case models.StatusOK, models.StatusWarning:
		return true
	}
	return check.Format == string(FormatXLS)
}

func result(res models.CheckResult, status models.CheckStatus, format string, args ...any) models.CheckResult {
	res.Status = status
	res.Message = fmt.Sprintf(format, args...)
	return res
}

func readEntry(open func() (io.ReadCloser, error)) ([]byte, error) {
	rc, err := open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isXMLPart(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".xml", ".rels":
		return true
	}
	return false
}

// wellFormed walks the token stream of an XML part.
func wellFormed(data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		_, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// danglingTargets lists internal relationship targets that resolve to
// parts missing from the package.
func danglingTargets(pkg *parser.Package) []string {
	var dangling []string
	for _, name := range pkg.Names() {
		if !strings.HasSuffix(name, ".rels") {
			continue
		}
		data, err := pkg.Read(name)
		if err != nil {
			continue
		}
		source := parser.SourceOfRels(name)
		for _, rel := range parser.ParseRelationships(data) {
			if rel.External() || rel.Target == "" {
				continue
			}
			if target := parser.ResolveTarget(source, rel.Target); !pkg.Has(target) {
				dangling = append(dangling, name+" -> "+target)
			}
		}
	}
	sort.Strings(dangling)
	return dangling
}
