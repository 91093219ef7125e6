package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
)

// Well-known package parts.
const (
	ContentTypesPart = "[Content_Types].xml"
	WorkbookPart     = "xl/workbook.xml"
	WorkbookRelsPart = "xl/_rels/workbook.xml.rels"
	StylesPart       = "xl/styles.xml"
	SharedStrings    = "xl/sharedStrings.xml"
)

// SheetPart links a sheet name to its worksheet part.
type SheetPart struct {
	Name string
	RID  string
	Path string
	// State is "", "hidden" or "veryHidden".
	State string
}

// Package gives read access to the parts of an OOXML ZIP package.
type Package struct {
	reader *zip.Reader
	closer io.Closer
	files  map[string]*zip.File
}

// OpenPackage opens the ZIP package at path.
func OpenPackage(path string) (*Package, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	return newPackage(&rc.Reader, rc), nil
}

// NewPackage reads a package held in memory.
func NewPackage(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return newPackage(zr, nil), nil
}

func newPackage(zr *zip.Reader, closer io.Closer) *Package {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	return &Package{reader: zr, closer: closer, files: files}
}

// Close releases the underlying file, if any.
func (p *Package) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// Files returns the ZIP entries in archive order.
func (p *Package) Files() []*zip.File {
	return p.reader.File
}

// Names returns the part names in archive order.
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.reader.File))
	for _, f := range p.reader.File {
		names = append(names, f.Name)
	}
	return names
}

// Has reports whether the package contains the named part.
func (p *Package) Has(name string) bool {
	_, ok := p.files[name]
	return ok
}

// Read returns the content of a part. A missing part yields (nil, nil).
func (p *Package) Read(name string) ([]byte, error) {
	f, ok := p.files[name]
	if !ok {
		return nil, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Relationships returns the relationships of a source part.
func (p *Package) Relationships(sourcePart string) ([]Relationship, error) {
	data, err := p.Read(RelsPathFor(sourcePart))
	if err != nil {
		return nil, err
	}
	return ParseRelationships(data), nil
}

// SheetParts returns worksheets in workbook order with their part paths.
func (p *Package) SheetParts() ([]SheetPart, error) {
	workbookXML, err := p.Read(WorkbookPart)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", WorkbookPart, err)
	}
	if workbookXML == nil {
		return nil, nil
	}
	sheets := parseWorkbookSheets(workbookXML)

	rels, err := p.Relationships(WorkbookPart)
	if err != nil {
		return nil, fmt.Errorf("read workbook relationships: %w", err)
	}
	targets := make(map[string]string, len(rels))
	for _, rel := range rels {
		targets[rel.ID] = ResolveTarget(WorkbookPart, rel.Target)
	}
	for i := range sheets {
		sheets[i].Path = targets[sheets[i].RID]
	}
	return sheets, nil
}

func parseWorkbookSheets(data []byte) []SheetPart {
	var result []SheetPart
	decoder := xml.NewDecoder(bytes.NewReader(data))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		if se, ok := token.(xml.StartElement); ok && se.Name.Local == "sheet" {
			var sp SheetPart
			for _, attr := range se.Attr {
				switch {
				case attr.Name.Local == "name":
					sp.Name = attr.Value
				case attr.Name.Local == "id" && attr.Name.Space == nsR:
					sp.RID = attr.Value
				case attr.Name.Local == "id" && sp.RID == "":
					sp.RID = attr.Value
				case attr.Name.Local == "state":
					sp.State = attr.Value
				}
			}
			if sp.Name != "" && sp.RID != "" {
				result = append(result, sp)
			}
		}
	}

	return result
}

// Inventory counts notable parts of the package.
func (p *Package) Inventory() models.PackageInventory {
	var inv models.PackageInventory
	for _, f := range p.reader.File {
		name := f.Name
		inv.UncompressedBytes += f.UncompressedSize64
		switch {
		case strings.HasPrefix(name, "xl/drawings/drawing") && strings.HasSuffix(name, ".xml"):
			inv.Drawings++
		case strings.HasPrefix(name, "xl/charts/chart") && strings.HasSuffix(name, ".xml"):
			inv.Charts++
		case strings.HasPrefix(name, "xl/pivotCache/pivotCacheDefinition") && strings.HasSuffix(name, ".xml"):
			inv.PivotCaches++
		case strings.HasPrefix(name, "xl/pivotTables/pivotTable") && strings.HasSuffix(name, ".xml"):
			inv.PivotTables++
		case strings.HasPrefix(name, "xl/embeddings/"):
			inv.Embeddings++
		case strings.HasPrefix(name, "xl/activeX/") && strings.HasSuffix(name, ".xml"):
			inv.ActiveX++
		case strings.HasPrefix(name, "xl/comments") && strings.HasSuffix(name, ".xml"):
			inv.Comments++
		case name == "xl/vbaProject.bin":
			inv.HasVBA = true
		case name == "xl/calcChain.xml":
			inv.HasCalcChain = true
		}
	}
	return inv
}

// MediaCount counts parts under xl/media/.
func (p *Package) MediaCount() int {
	n := 0
	for _, f := range p.reader.File {
		if strings.HasPrefix(f.Name, "xl/media/") {
			n++
		}
	}
	return n
}

// ExternalLinkPartCount counts parts whose name contains "externalLinks",
// relationship parts included.
func (p *Package) ExternalLinkPartCount() int {
	n := 0
	for _, f := range p.reader.File {
		if strings.Contains(f.Name, "externalLinks") {
			n++
		}
	}
	return n
}

// ExternalLinkTargets returns the external workbook paths referenced by
// xl/externalLinks parts, sorted and de-duplicated.
func (p *Package) ExternalLinkTargets() ([]string, error) {
	seen := make(map[string]struct{})
	for _, f := range p.reader.File {
		if !strings.HasPrefix(f.Name, "xl/externalLinks/_rels/") {
			continue
		}
		data, err := p.Read(f.Name)
		if err != nil {
			return nil, err
		}
		for _, rel := range ParseRelationships(data) {
			if rel.IsType(RelExternalPath) || rel.External() {
				seen[rel.Target] = struct{}{}
			}
		}
	}
	targets := make([]string, 0, len(seen))
	for t := range seen {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets, nil
}
