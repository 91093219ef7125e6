package parser

import "testing"

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		source string
		target string
		want   string
	}{
		{"xl/drawings/drawing1.xml", "../charts/chart1.xml", "xl/charts/chart1.xml"},
		{"xl/drawings/drawing1.xml", "../media/image1.png", "xl/media/image1.png"},
		{"xl/worksheets/sheet1.xml", "../drawings/drawing1.xml", "xl/drawings/drawing1.xml"},
		{"xl/workbook.xml", "worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/workbook.xml", "/xl/worksheets/sheet2.xml", "xl/worksheets/sheet2.xml"},
		{"", "xl/workbook.xml", "xl/workbook.xml"},
	}

	for _, tt := range tests {
		result := ResolveTarget(tt.source, tt.target)
		if result != tt.want {
			t.Errorf("ResolveTarget(%q, %q) = %q, expected %q", tt.source, tt.target, result, tt.want)
		}
	}
}

func TestRelsPathFor(t *testing.T) {
	tests := []struct {
		part string
		want string
	}{
		{"xl/worksheets/sheet1.xml", "xl/worksheets/_rels/sheet1.xml.rels"},
		{"xl/workbook.xml", "xl/_rels/workbook.xml.rels"},
		{"", "_rels/.rels"},
	}

	for _, tt := range tests {
		if result := RelsPathFor(tt.part); result != tt.want {
			t.Errorf("RelsPathFor(%q) = %q, expected %q", tt.part, result, tt.want)
		}
	}
}

func TestSourceOfRels(t *testing.T) {
	tests := []struct {
		rels string
		want string
	}{
		{"xl/worksheets/_rels/sheet1.xml.rels", "xl/worksheets/sheet1.xml"},
		{"xl/_rels/workbook.xml.rels", "xl/workbook.xml"},
		{"_rels/.rels", ""},
		{"xl/worksheets/sheet1.xml", ""},
	}

	for _, tt := range tests {
		if result := SourceOfRels(tt.rels); result != tt.want {
			t.Errorf("SourceOfRels(%q) = %q, expected %q", tt.rels, result, tt.want)
		}
	}
}

func TestParseRelationships(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/drawing" Target="../drawings/drawing1.xml"/>
  <Relationship Id="rId2" Type="http://purl.oclc.org/ooxml/officeDocument/relationships/comments" Target="../comments1.xml"/>
  <Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/externalLinkPath" Target="file:///C:/book.xlsx" TargetMode="External"/>
</Relationships>`)

	rels := ParseRelationships(data)
	if len(rels) != 3 {
		t.Fatalf("Expected 3 relationships, got %d", len(rels))
	}

	if rels[0].ID != "rId1" || !rels[0].IsType(RelDrawing) || rels[0].Target != "../drawings/drawing1.xml" {
		t.Errorf("Unexpected first relationship: %+v", rels[0])
	}
	if !rels[1].IsType(RelComments) {
		t.Errorf("Expected strict namespace comments type to match, got %s", rels[1].Type)
	}
	if rels[1].IsType(RelDrawing) {
		t.Error("Expected comments relationship not to match drawing")
	}
	if !rels[2].External() || rels[0].External() {
		t.Error("Expected only the third relationship to be external")
	}
}

func TestParseRelationshipsInvalid(t *testing.T) {
	if rels := ParseRelationships([]byte("not xml <")); len(rels) != 0 {
		t.Errorf("Expected no relationships from invalid XML, got %d", len(rels))
	}
	if rels := ParseRelationships(nil); len(rels) != 0 {
		t.Errorf("Expected no relationships from empty input, got %d", len(rels))
	}
}
