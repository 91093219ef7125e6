package parser

import (
	"strings"

	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
	"github.com/xuri/excelize/v2"
)

// Reference is one area of a defined name formula.
type Reference struct {
	// Workbook is the external workbook token inside brackets ("1" for [1]Sheet1!A1).
	Workbook string
	Sheet    string
	Range    string
}

// ExtractDefinedNames lists the defined names of a workbook.
func ExtractDefinedNames(f *excelize.File) []models.DefinedName {
	var names []models.DefinedName
	for _, dn := range f.GetDefinedName() {
		names = append(names, models.DefinedName{
			Name:     dn.Name,
			Scope:    dn.Scope,
			RefersTo: dn.RefersTo,
			External: IsExternalReference(dn.RefersTo),
		})
	}
	return names
}

// IsExternalReference reports whether a defined name formula points at
// another workbook ([1]Sheet1!$A$1, '[Book.xlsx]Sheet1'!A1, [1]!Name): it
// holds both a workbook bracket and a sheet separator.
func IsExternalReference(refersTo string) bool {
	return strings.Contains(refersTo, "[") && strings.Contains(refersTo, "!")
}

// ParseReferences parses a reference list.
// Format: 'Sheet Name'!$A$1:$D$10,[1]Sheet1!$A$1 or Sheet1!$A$1.
func ParseReferences(refersTo string) []Reference {
	var refs []Reference

	for _, part := range strings.Split(refersTo, ",") {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "="))
		if part == "" {
			continue
		}

		idx := strings.LastIndex(part, "!")
		if idx < 0 {
			continue
		}
		sheet := strings.Trim(part[:idx], "'")
		ref := Reference{Range: strings.ReplaceAll(part[idx+1:], "$", "")}

		if open := strings.Index(sheet, "["); open >= 0 {
			if end := strings.Index(sheet[open:], "]"); end > 0 {
				ref.Workbook = sheet[open+1 : open+end]
				sheet = sheet[open+end+1:]
			}
		}
		ref.Sheet = sheet
		refs = append(refs, ref)
	}

	return refs
}
