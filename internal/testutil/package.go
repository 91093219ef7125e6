package testutil

import (
	"archive/zip"
	"bytes"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Entry is one part of a hand-assembled ZIP package.
type Entry struct {
	Name string
	Data string
}

// MinimalParts is the smallest part set that passes the structure check.
var MinimalParts = []Entry{
	{Name: "[Content_Types].xml", Data: `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/><Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/></Types>`},
	{Name: "_rels/.rels", Data: `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="xl/workbook.xml"/></Relationships>`},
	{Name: "xl/workbook.xml", Data: `<?xml version="1.0" encoding="UTF-8"?><workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets><sheet name="Sheet1" sheetId="1" r:id="rId1"/></sheets></workbook>`},
	{Name: "xl/_rels/workbook.xml.rels", Data: `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="worksheets/sheet1.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/></Relationships>`},
	{Name: "xl/styles.xml", Data: `<?xml version="1.0" encoding="UTF-8"?><styleSheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"/>`},
	{Name: "xl/worksheets/sheet1.xml", Data: `<?xml version="1.0" encoding="UTF-8"?><worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData><row r="1"><c r="A1"><v>1</v></c></row></sheetData></worksheet>`},
}

// WithPart returns parts with name replaced (or appended) by data.
func WithPart(parts []Entry, name, data string) []Entry {
	out := make([]Entry, 0, len(parts)+1)
	replaced := false
	for _, e := range parts {
		if e.Name == name {
			e.Data = data
			replaced = true
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, Entry{Name: name, Data: data})
	}
	return out
}

// WithoutPart returns parts without the named entry.
func WithoutPart(parts []Entry, name string) []Entry {
	out := make([]Entry, 0, len(parts))
	for _, e := range parts {
		if e.Name != name {
			out = append(out, e)
		}
	}
	return out
}

// WriteZip writes entries, in order, to a new file in a temp dir.
func WriteZip(t testing.TB, name string, entries []Entry) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.Name, err)
		}
		if _, err := w.Write([]byte(e.Data)); err != nil {
			t.Fatalf("zip write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// RewritePackage copies the package at src to a new file, passing each part
// through edit and appending extra entries.
func RewritePackage(t testing.TB, src string, edit func(name string, data []byte) []byte, extra ...Entry) string {
	t.Helper()
	zr, err := zip.OpenReader(src)
	if err != nil {
		t.Fatalf("open %s: %v", src, err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		var data bytes.Buffer
		_, err = data.ReadFrom(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		out := data.Bytes()
		if edit != nil {
			out = edit(f.Name, out)
		}
		w, err := zw.Create(f.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", f.Name, err)
		}
		if _, err := w.Write(out); err != nil {
			t.Fatalf("zip write %s: %v", f.Name, err)
		}
	}
	for _, e := range extra {
		w, err := zw.Create(e.Name)
		if err != nil {
			t.Fatalf("zip create %s: %v", e.Name, err)
		}
		if _, err := w.Write([]byte(e.Data)); err != nil {
			t.Fatalf("zip write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	dst := filepath.Join(t.TempDir(), filepath.Base(src))
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", dst, err)
	}
	return dst
}

// ExternalLinkTarget is the workbook referenced by AddExternalLink.
const ExternalLinkTarget = "file:///C:/data/other.xlsx"

// AddExternalLink returns a copy of the workbook at src carrying one
// external link part that points at ExternalLinkTarget.
func AddExternalLink(t testing.TB, src string) string {
	t.Helper()
	const ns = `xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"`
	edit := func(name string, data []byte) []byte {
		s := string(data)
		switch name {
		case "xl/workbook.xml":
			s = strings.Replace(s, "</sheets>",
				`</sheets><externalReferences><externalReference `+ns+` r:id="rIdExt1"/></externalReferences>`, 1)
		case "xl/_rels/workbook.xml.rels":
			s = strings.Replace(s, "</Relationships>",
				`<Relationship Id="rIdExt1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/externalLink" Target="externalLinks/externalLink1.xml"/></Relationships>`, 1)
		case "[Content_Types].xml":
			s = strings.Replace(s, "</Types>",
				`<Override PartName="/xl/externalLinks/externalLink1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.externalLink+xml"/></Types>`, 1)
		}
		return []byte(s)
	}
	return RewritePackage(t, src, edit,
		Entry{
			Name: "xl/externalLinks/externalLink1.xml",
			Data: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><externalLink xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" ` + ns + `><externalBook r:id="rId1"><sheetNames><sheetName val="Sheet1"/></sheetNames></externalBook></externalLink>`,
		},
		Entry{
			Name: "xl/externalLinks/_rels/externalLink1.xml.rels",
			Data: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/externalLinkPath" Target="` + ExternalLinkTarget + `" TargetMode="External"/></Relationships>`,
		},
	)
}

// CorruptEntry returns a copy of the package at src whose named entry is
// stored with a wrong CRC, so reading it fails with zip.ErrChecksum.
func CorruptEntry(t testing.TB, src, entry string) string {
	t.Helper()
	zr, err := zip.OpenReader(src)
	if err != nil {
		t.Fatalf("open %s: %v", src, err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	found := false
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		var data bytes.Buffer
		_, err = data.ReadFrom(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}

		if f.Name != entry {
			w, err := zw.Create(f.Name)
			if err != nil {
				t.Fatalf("zip create: %v", err)
			}
			if _, err := w.Write(data.Bytes()); err != nil {
				t.Fatalf("zip write: %v", err)
			}
			continue
		}

		found = true
		size := uint64(data.Len())
		w, err := zw.CreateRaw(&zip.FileHeader{
			Name:               f.Name,
			Method:             zip.Store,
			CRC32:              crc32.ChecksumIEEE(data.Bytes()) ^ 0xFFFFFFFF,
			CompressedSize64:   size,
			UncompressedSize64: size,
		})
		if err != nil {
			t.Fatalf("zip create raw: %v", err)
		}
		if _, err := w.Write(data.Bytes()); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if !found {
		t.Fatalf("entry %s not in %s", entry, src)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "corrupt_"+filepath.Base(src))
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", dst, err)
	}
	return dst
}
