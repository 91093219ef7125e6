package xlinspect

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
)

// Format is the container format of a workbook file.
type Format string

const (
	FormatUnknown   Format = "unknown"
	FormatXLSX      Format = "xlsx"
	FormatXLSM      Format = "xlsm"
	FormatXLSB      Format = "xlsb"
	FormatODS       Format = "ods"
	FormatZIP       Format = "zip"
	FormatXLS       Format = "xls"
	FormatEncrypted Format = "encrypted"
	FormatOLE2      Format = "ole2"
)

// IsOOXML reports whether the format is an OOXML spreadsheet package.
func (f Format) IsOOXML() bool {
	return f == FormatXLSX || f == FormatXLSM
}

// FormatDescriptions maps formats to human-readable descriptions.
var FormatDescriptions = map[Format]string{
	FormatXLSX:      "Excel xlsx workbook",
	FormatXLSM:      "Excel macro-enabled xlsm workbook",
	FormatXLSB:      "Excel binary xlsb workbook",
	FormatODS:       "OpenDocument spreadsheet",
	FormatZIP:       "Unknown ZIP file",
	FormatXLS:       "Legacy Excel xls workbook (OLE2)",
	FormatEncrypted: "Password-protected OOXML workbook",
	FormatOLE2:      "Unknown OLE2 compound file",
	FormatUnknown:   "Unknown file type",
}

var (
	ole2Signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipSignature  = []byte("PK\x03\x04")
)

const peekSize = 8

// DetectFormat inspects the file signature and container contents.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FormatUnknown, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return FormatUnknown, err
	}
	defer f.Close()

	peek := make([]byte, peekSize)
	n, err := io.ReadFull(f, peek)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return FormatUnknown, err
	}
	peek = peek[:n]

	switch {
	case bytes.HasPrefix(peek, zipSignature):
		info, err := f.Stat()
		if err != nil {
			return FormatUnknown, err
		}
		zr, err := zip.NewReader(f, info.Size())
		if err != nil {
			// Signature matches but the central directory is unreadable.
			return FormatZIP, nil
		}
		return zipFormat(zr), nil
	case bytes.HasPrefix(peek, ole2Signature):
		return ole2Format(f), nil
	}
	return FormatUnknown, nil
}

// zipFormat classifies a ZIP package by its well-known parts. Some third
// party writers use backslashes and lower case names, so names are normalized.
func zipFormat(zr *zip.Reader) Format {
	names := make(map[string]struct{}, len(zr.File))
	for _, f := range zr.File {
		names[normalizePartName(f.Name)] = struct{}{}
	}
	has := func(name string) bool {
		_, ok := names[name]
		return ok
	}
	switch {
	case has("xl/workbook.xml"):
		if has("xl/vbaproject.bin") {
			return FormatXLSM
		}
		return FormatXLSX
	case has("xl/workbook.bin"):
		return FormatXLSB
	case has("content.xml"):
		return FormatODS
	}
	return FormatZIP
}

func ole2Format(r io.ReaderAt) Format {
	doc, err := mscfb.New(r)
	if err != nil {
		return FormatOLE2
	}
	streams := make(map[string]struct{})
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		streams[entry.Name] = struct{}{}
	}
	_, encInfo := streams["EncryptionInfo"]
	_, encPkg := streams["EncryptedPackage"]
	if encInfo && encPkg {
		return FormatEncrypted
	}
	for _, name := range []string{"Workbook", "Book", "WORKBOOK", "BOOK"} {
		if _, ok := streams[name]; ok {
			return FormatXLS
		}
	}
	return FormatOLE2
}

func normalizePartName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
}
