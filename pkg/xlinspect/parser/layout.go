package parser

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

// maxColumns is the SpreadsheetML column limit (XFD).
const maxColumns = 16384

// SheetLayout holds row and column visibility read from a worksheet part.
type SheetLayout struct {
	HiddenRows    int
	HiddenColumns int
}

// ParseSheetLayout counts hidden rows and hidden columns in a worksheet part.
// Column ranges (<col min="2" max="4" hidden="1"/>) count every column they span.
func ParseSheetLayout(data []byte) SheetLayout {
	var layout SheetLayout
	decoder := xml.NewDecoder(bytes.NewReader(data))

	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "col":
			var lo, hi int
			hidden := false
			for _, attr := range se.Attr {
				switch attr.Name.Local {
				case "min":
					lo, _ = strconv.Atoi(attr.Value)
				case "max":
					hi, _ = strconv.Atoi(attr.Value)
				case "hidden":
					hidden = xmlBool(attr.Value)
				}
			}
			if !hidden || lo < 1 {
				continue
			}
			hi = min(max(hi, lo), maxColumns)
			layout.HiddenColumns += hi - lo + 1
		case "row":
			for _, attr := range se.Attr {
				if attr.Name.Local == "hidden" && xmlBool(attr.Value) {
					layout.HiddenRows++
				}
			}
		case "c":
			if err := decoder.Skip(); err != nil {
				return layout
			}
		}
	}

	return layout
}

func xmlBool(v string) bool {
	return v == "1" || v == "true"
}
