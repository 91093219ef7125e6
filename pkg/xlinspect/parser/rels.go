package parser

import (
	"bytes"
	"encoding/xml"
	"path"
	"strings"
)

// XML namespaces used in SpreadsheetML packages
const (
	nsXDR   = "http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing"
	nsChart = "http://schemas.openxmlformats.org/drawingml/2006/chart"
	nsR     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Relationship type suffixes (the part after ".../relationships/").
const (
	RelWorksheet       = "worksheet"
	RelDrawing         = "drawing"
	RelVMLDrawing      = "vmlDrawing"
	RelComments        = "comments"
	RelThreadedComment = "threadedComment"
	RelPerson          = "person"
	RelImage           = "image"
	RelChart           = "chart"
	RelExternalLink    = "externalLink"
	RelExternalPath    = "externalLinkPath"
	RelPivotCacheDef   = "pivotCacheDefinition"
	RelPivotCacheRec   = "pivotCacheRecords"
	RelPivotTable      = "pivotTable"
	RelOLEObject       = "oleObject"
	RelPackage         = "package"
	RelControl         = "control"
	RelCtrlProp        = "ctrlProp"
	RelActiveXBinary   = "activeXControlBinary"
)

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// IsType reports whether the relationship type ends with the given kind,
// matching both transitional and strict namespace URIs.
func (r Relationship) IsType(kind string) bool {
	return strings.HasSuffix(r.Type, "/"+kind)
}

// External reports whether the target lives outside the package.
func (r Relationship) External() bool {
	return strings.EqualFold(r.TargetMode, "External")
}

// ParseRelationships reads the entries of a .rels part.
func ParseRelationships(data []byte) []Relationship {
	var rels []Relationship
	decoder := xml.NewDecoder(bytes.NewReader(data))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var rel Relationship
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "Id":
				rel.ID = attr.Value
			case "Type":
				rel.Type = attr.Value
			case "Target":
				rel.Target = attr.Value
			case "TargetMode":
				rel.TargetMode = attr.Value
			}
		}
		rels = append(rels, rel)
	}

	return rels
}

// RelsPathFor returns the relationship part of a source part:
// xl/worksheets/sheet1.xml -> xl/worksheets/_rels/sheet1.xml.rels.
func RelsPathFor(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// SourceOfRels is the inverse of RelsPathFor. It returns "" for the package
// level relationships (_rels/.rels).
func SourceOfRels(relsPath string) string {
	dir, file := path.Split(relsPath)
	dir = strings.TrimSuffix(dir, "/")
	if path.Base(dir) != "_rels" || !strings.HasSuffix(file, ".rels") {
		return ""
	}
	parent := path.Dir(dir)
	name := strings.TrimSuffix(file, ".rels")
	if parent == "." {
		return name
	}
	return parent + "/" + name
}

// ResolveTarget resolves a relationship target against its source part.
// Absolute targets ("/xl/...") are package-rooted.
func ResolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Join(path.Dir(sourcePart), target)
}
