package parser

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/extrame/xls"
	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
)

// ReadLegacySheets reads the sheet list and used extents of a BIFF (.xls)
// workbook. The BIFF reader panics on some malformed records; those panics
// are returned as errors.
func ReadLegacySheets(path string) (sheets []models.SheetReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read xls: %v", r)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil {
		return nil, errors.New("no Workbook stream")
	}

	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		sr := models.SheetReport{Name: sheet.Name}
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := legacyRow(sheet, r)
			if row == nil {
				continue
			}
			used := false
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				if row.Col(c) != "" {
					used = true
					sr.MaxColumn = max(sr.MaxColumn, c+1)
				}
			}
			if used {
				sr.MaxRow = r + 1
			}
		}
		sheets = append(sheets, sr)
	}

	return sheets, nil
}

// legacyRow returns row r of the sheet, or nil when the sheet has no record
// for it; the BIFF reader dereferences missing rows.
func legacyRow(sheet *xls.WorkSheet, r int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(r)
}

// ReadSummaryProperties reads the OLE property set streams
// (SummaryInformation, DocumentSummaryInformation) of a compound file.
func ReadSummaryProperties(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return readSummaryProperties(file)
}

func readSummaryProperties(r io.ReaderAt) (map[string]string, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return nil, err
	}

	props := msoleps.New()
	result := make(map[string]string)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if !msoleps.IsMSOLEPS(entry.Initial) {
			continue
		}
		if err := props.Reset(doc); err != nil {
			continue
		}
		for _, prop := range props.Property {
			if prop.Name == "" {
				continue
			}
			if v := prop.String(); v != "" {
				result[prop.Name] = v
			}
		}
	}

	return result, nil
}
