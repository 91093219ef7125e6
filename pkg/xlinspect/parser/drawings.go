package parser

import (
	"bytes"
	"encoding/xml"
	"io"

	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
)

// SheetDrawingCounts returns drawing object counts keyed by sheet name.
// Sheets without a drawing part are omitted.
func (p *Package) SheetDrawingCounts(sheets []SheetPart) (map[string]models.DrawingCounts, error) {
	result := make(map[string]models.DrawingCounts)

	for _, sheet := range sheets {
		if sheet.Path == "" {
			continue
		}
		rels, err := p.Relationships(sheet.Path)
		if err != nil {
			return nil, err
		}

		var counts models.DrawingCounts
		found := false
		for _, rel := range rels {
			if !rel.IsType(RelDrawing) {
				continue
			}
			drawingXML, err := p.Read(ResolveTarget(sheet.Path, rel.Target))
			if err != nil {
				return nil, err
			}
			if drawingXML == nil {
				continue
			}
			c := CountDrawingObjects(drawingXML)
			counts.Shapes += c.Shapes
			counts.Connectors += c.Connectors
			counts.Pictures += c.Pictures
			counts.Charts += c.Charts
			counts.Groups += c.Groups
			found = true
		}
		if found {
			result[sheet.Name] = counts
		}
	}

	return result, nil
}

// CountDrawingObjects counts shapes, connectors, pictures, charts and groups
// in a SpreadsheetML drawing part. Objects nested in groups are counted too.
func CountDrawingObjects(data []byte) models.DrawingCounts {
	var counts models.DrawingCounts

	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Space {
		case nsXDR:
			switch se.Name.Local {
			case "sp":
				counts.Shapes++
			case "cxnSp":
				counts.Connectors++
			case "pic":
				counts.Pictures++
			case "grpSp":
				counts.Groups++
			}
		case nsChart:
			if se.Name.Local == "chart" {
				counts.Charts++
			}
		}
	}

	return counts
}
