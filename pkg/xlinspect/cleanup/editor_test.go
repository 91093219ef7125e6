package cleanup

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveElements(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<worksheet xmlns:mc="urn:mc">
<sheetData/>
<drawing id="1"/>
<mc:AlternateContent><mc:Choice Requires="x14"><controls/></mc:Choice><mc:Fallback><controls/></mc:Fallback></mc:AlternateContent>
<legacyDrawing id="2"/>
</worksheet>`))

	n := removeElements(doc, "drawing", "legacyDrawing", "controls", "picture")
	assert.Equal(t, 3, n)

	out, err := doc.WriteToString()
	require.NoError(t, err)
	assert.NotContains(t, out, "drawing")
	assert.NotContains(t, out, "legacyDrawing")
	assert.NotContains(t, out, "AlternateContent")
	assert.Contains(t, out, "<sheetData/>")
}

func TestEditorSweep(t *testing.T) {
	e := &editor{
		order: []string{
			"xl/worksheets/sheet1.xml",
			"xl/worksheets/_rels/sheet1.xml.rels",
			"xl/drawings/drawing1.xml",
			"xl/drawings/_rels/drawing1.xml.rels",
			"xl/charts/chart1.xml",
			"xl/media/image1.png",
			"xl/media/image2.png",
		},
		parts: map[string][]byte{
			"xl/worksheets/sheet1.xml":            []byte(`<worksheet/>`),
			"xl/worksheets/_rels/sheet1.xml.rels": []byte(`<Relationships><Relationship Id="rId1" Type="x/image" Target="../media/image2.png"/></Relationships>`),
			"xl/drawings/drawing1.xml":            []byte(`<wsDr/>`),
			"xl/drawings/_rels/drawing1.xml.rels": []byte(`<Relationships><Relationship Id="rId1" Type="x/chart" Target="../charts/chart1.xml"/><Relationship Id="rId2" Type="x/image" Target="../media/image1.png"/></Relationships>`),
			"xl/charts/chart1.xml":                []byte(`<chartSpace/>`),
			"xl/media/image1.png":                 []byte("png"),
			"xl/media/image2.png":                 []byte("png"),
		},
		methods: map[string]uint16{},
	}

	e.sweep()

	// drawing1 is unreferenced, so its rels and everything only it pointed at go too.
	assert.Equal(t, []string{
		"xl/charts/chart1.xml",
		"xl/drawings/_rels/drawing1.xml.rels",
		"xl/drawings/drawing1.xml",
		"xl/media/image1.png",
	}, e.removedParts())
	assert.True(t, e.has("xl/media/image2.png"))
	assert.True(t, e.has("xl/worksheets/sheet1.xml"))
}
