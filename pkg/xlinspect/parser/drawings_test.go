package parser

import (
	"testing"

	"github.com/ukaji3/xlinspect-go/internal/testutil"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
)

const drawingXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<xdr:wsDr xmlns:xdr="http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing"
  xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
  xmlns:c="http://schemas.openxmlformats.org/drawingml/2006/chart"
  xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <xdr:twoCellAnchor>
    <xdr:sp><xdr:nvSpPr><xdr:cNvPr id="2" name="Rectangle 1"/></xdr:nvSpPr></xdr:sp>
    <xdr:clientData/>
  </xdr:twoCellAnchor>
  <xdr:twoCellAnchor>
    <xdr:grpSp>
      <xdr:sp><xdr:nvSpPr><xdr:cNvPr id="3" name="Oval 2"/></xdr:nvSpPr></xdr:sp>
      <xdr:cxnSp><xdr:nvCxnSpPr><xdr:cNvPr id="4" name="Connector 3"/></xdr:nvCxnSpPr></xdr:cxnSp>
    </xdr:grpSp>
    <xdr:clientData/>
  </xdr:twoCellAnchor>
  <xdr:oneCellAnchor>
    <xdr:pic><xdr:nvPicPr><xdr:cNvPr id="5" name="Picture 4"/></xdr:nvPicPr></xdr:pic>
    <xdr:clientData/>
  </xdr:oneCellAnchor>
  <xdr:twoCellAnchor>
    <xdr:graphicFrame>
      <a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/chart">
        <c:chart r:id="rId1"/>
      </a:graphicData></a:graphic>
    </xdr:graphicFrame>
    <xdr:clientData/>
  </xdr:twoCellAnchor>
</xdr:wsDr>`

func TestCountDrawingObjects(t *testing.T) {
	counts := CountDrawingObjects([]byte(drawingXML))

	expected := models.DrawingCounts{Shapes: 2, Connectors: 1, Pictures: 1, Charts: 1, Groups: 1}
	if counts != expected {
		t.Errorf("CountDrawingObjects = %+v, expected %+v", counts, expected)
	}
	if counts.Total() != 6 {
		t.Errorf("Expected 6 objects in total, got %d", counts.Total())
	}
}

func TestCountDrawingObjectsIgnoresOtherNamespaces(t *testing.T) {
	data := []byte(`<wsDr><sp/><pic/><chart/></wsDr>`)
	if counts := CountDrawingObjects(data); counts.Total() != 0 {
		t.Errorf("Expected no objects outside the drawing namespace, got %+v", counts)
	}
}

func TestSheetDrawingCounts(t *testing.T) {
	pkg, err := OpenPackage(testutil.NewInspectionWorkbook(t))
	if err != nil {
		t.Fatalf("OpenPackage failed: %v", err)
	}
	defer pkg.Close()

	sheets, err := pkg.SheetParts()
	if err != nil {
		t.Fatalf("SheetParts failed: %v", err)
	}
	counts, err := pkg.SheetDrawingCounts(sheets)
	if err != nil {
		t.Fatalf("SheetDrawingCounts failed: %v", err)
	}

	report, ok := counts[testutil.SheetReport]
	if !ok {
		t.Fatalf("Expected drawing counts for %s, got %v", testutil.SheetReport, counts)
	}
	if report.Charts != 1 || report.Pictures != 1 {
		t.Errorf("Expected 1 chart and 1 picture, got %+v", report)
	}
	if _, ok := counts[testutil.SheetData]; ok {
		t.Errorf("Expected no drawing part on %s (comments use a VML drawing)", testutil.SheetData)
	}
}
