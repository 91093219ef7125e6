package parser

import (
	"encoding/json"
	"sort"

	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
	"github.com/xuri/excelize/v2"
	"github.com/xuri/nfp"
)

// styleTuple is the part of a cell style that makes two styles distinct:
// font, fill, border, number format and alignment.
type styleTuple struct {
	Font         *excelize.Font      `json:"font,omitempty"`
	Fill         excelize.Fill       `json:"fill"`
	Border       []excelize.Border   `json:"border,omitempty"`
	NumFmt       int                 `json:"num_fmt"`
	CustomNumFmt *string             `json:"custom_num_fmt,omitempty"`
	Alignment    *excelize.Alignment `json:"alignment,omitempty"`
}

// StyleCatalog resolves cell style ids to comparable keys, caching lookups
// across sheets of one workbook.
type StyleCatalog struct {
	f       *excelize.File
	keys    map[int]string
	numFmts map[string]models.NumberFormat
}

// NewStyleCatalog creates a catalog for a workbook.
func NewStyleCatalog(f *excelize.File) *StyleCatalog {
	return &StyleCatalog{
		f:       f,
		keys:    make(map[int]string),
		numFmts: make(map[string]models.NumberFormat),
	}
}

// Key returns the comparable key of a style id.
func (c *StyleCatalog) Key(styleID int) (string, error) {
	if key, ok := c.keys[styleID]; ok {
		return key, nil
	}
	style, err := c.f.GetStyle(styleID)
	if err != nil {
		return "", err
	}
	tuple := styleTuple{
		Font:         style.Font,
		Fill:         style.Fill,
		Border:       style.Border,
		NumFmt:       style.NumFmt,
		CustomNumFmt: style.CustomNumFmt,
		Alignment:    style.Alignment,
	}
	data, err := json.Marshal(tuple)
	if err != nil {
		return "", err
	}
	key := string(data)
	c.keys[styleID] = key

	if style.CustomNumFmt != nil && *style.CustomNumFmt != "" {
		code := *style.CustomNumFmt
		if _, ok := c.numFmts[code]; !ok {
			c.numFmts[code] = ClassifyNumberFormat(code)
		}
	}
	return key, nil
}

// NumberFormats returns the custom number formats seen so far, sorted by code.
func (c *StyleCatalog) NumberFormats() []models.NumberFormat {
	out := make([]models.NumberFormat, 0, len(c.numFmts))
	for _, nf := range c.numFmts {
		out = append(out, nf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ClassifyNumberFormat parses a number format code into sections and
// reports whether it renders dates or times.
func ClassifyNumberFormat(code string) models.NumberFormat {
	nf := models.NumberFormat{Code: code}
	p := nfp.NumberFormatParser()
	sections := p.Parse(code)
	nf.Sections = len(sections)
	for _, section := range sections {
		for _, item := range section.Items {
			if item.TType == nfp.TokenTypeDateTimes || item.TType == nfp.TokenTypeElapsedDateTimes {
				nf.DateTime = true
			}
		}
	}
	return nf
}
