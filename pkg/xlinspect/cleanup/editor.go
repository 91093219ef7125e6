package cleanup

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/parser"
)

// sweepable holds the directories whose parts may be dropped once nothing
// references them.
var sweepable = []string{
	"xl/drawings/",
	"xl/charts/",
	"xl/media/",
	"xl/embeddings/",
	"xl/activeX/",
	"xl/ctrlProps/",
	"xl/comments",
	"xl/threadedComments/",
	"xl/persons/",
	"xl/pivotCache/",
	"xl/pivotTables/",
	"xl/externalLinks/",
}

// editor holds an OOXML package in memory while parts are patched and removed.
type editor struct {
	order   []string
	parts   map[string][]byte
	methods map[string]uint16
	removed []string
}

func newEditor(data []byte) (*editor, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	e := &editor{
		parts:   make(map[string][]byte, len(zr.File)),
		methods: make(map[string]uint16, len(zr.File)),
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, &xlinspect.PartError{Part: f.Name, Op: "open", Err: err}
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, &xlinspect.PartError{Part: f.Name, Op: "read", Err: err}
		}
		e.order = append(e.order, f.Name)
		e.parts[f.Name] = content
		e.methods[f.Name] = f.Method
	}
	return e, nil
}

func (e *editor) has(name string) bool {
	_, ok := e.parts[name]
	return ok
}

func (e *editor) remove(name string) {
	if !e.has(name) {
		return
	}
	delete(e.parts, name)
	e.removed = append(e.removed, name)
}

// patch parses a part, applies fn and stores the result when fn reports a change.
func (e *editor) patch(name string, fn func(doc *etree.Document) bool) error {
	data, ok := e.parts[name]
	if !ok {
		return nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return &xlinspect.PartError{Part: name, Op: "parse", Err: err}
	}
	if !fn(doc) {
		return nil
	}
	out, err := doc.WriteToBytes()
	if err != nil {
		return &xlinspect.PartError{Part: name, Op: "write", Err: err}
	}
	e.parts[name] = out
	return nil
}

// removeRelationships deletes the relationships of sourcePart whose type is
// one of kinds and returns them.
func (e *editor) removeRelationships(sourcePart string, kinds ...string) ([]parser.Relationship, error) {
	relsPath := parser.RelsPathFor(sourcePart)
	var removed []parser.Relationship
	err := e.patch(relsPath, func(doc *etree.Document) bool {
		root := doc.Root()
		if root == nil {
			return false
		}
		for _, el := range root.SelectElements("Relationship") {
			rel := parser.Relationship{
				ID:         el.SelectAttrValue("Id", ""),
				Type:       el.SelectAttrValue("Type", ""),
				Target:     el.SelectAttrValue("Target", ""),
				TargetMode: el.SelectAttrValue("TargetMode", ""),
			}
			for _, kind := range kinds {
				if rel.IsType(kind) {
					root.RemoveChild(el)
					removed = append(removed, rel)
					break
				}
			}
		}
		return len(removed) > 0
	})
	return removed, err
}

// removeElements deletes every element with one of the given local names.
// An element wrapped in mc:AlternateContent takes the whole wrapper with it,
// since the Choice and Fallback branches carry the same content.
func removeElements(doc *etree.Document, tags ...string) int {
	removed := 0
	for _, tag := range tags {
		for _, el := range doc.FindElements("//" + tag) {
			target := el
			if parent := el.Parent(); parent != nil && (parent.Tag == "Choice" || parent.Tag == "Fallback") {
				if ac := parent.Parent(); ac != nil && ac.Tag == "AlternateContent" {
					target = ac
				}
			}
			if p := target.Parent(); p != nil {
				p.RemoveChild(target)
				removed++
			}
		}
	}
	return removed
}

// sweep drops relationship parts whose source is gone and sweepable parts
// that no remaining relationship targets, until nothing changes.
func (e *editor) sweep() {
	for {
		changed := false

		for _, name := range e.order {
			if !e.has(name) || !strings.HasSuffix(name, ".rels") {
				continue
			}
			if src := parser.SourceOfRels(name); src != "" && !e.has(src) {
				e.remove(name)
				changed = true
			}
		}

		referenced := make(map[string]struct{})
		for _, name := range e.order {
			if !e.has(name) || !strings.HasSuffix(name, ".rels") {
				continue
			}
			source := parser.SourceOfRels(name)
			for _, rel := range parser.ParseRelationships(e.parts[name]) {
				if rel.External() {
					continue
				}
				referenced[parser.ResolveTarget(source, rel.Target)] = struct{}{}
			}
		}

		for _, name := range e.order {
			if !e.has(name) || strings.HasSuffix(name, ".rels") || !isSweepable(name) {
				continue
			}
			if _, ok := referenced[name]; !ok {
				e.remove(name)
				changed = true
			}
		}

		if !changed {
			return
		}
	}
}

func isSweepable(name string) bool {
	for _, prefix := range sweepable {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// pruneContentTypes drops Override entries for parts no longer present.
func (e *editor) pruneContentTypes() error {
	return e.patch(parser.ContentTypesPart, func(doc *etree.Document) bool {
		root := doc.Root()
		if root == nil {
			return false
		}
		changed := false
		for _, el := range root.SelectElements("Override") {
			part := strings.TrimPrefix(el.SelectAttrValue("PartName", ""), "/")
			if part != "" && !e.has(part) {
				root.RemoveChild(el)
				changed = true
			}
		}
		return changed
	})
}

// removedParts returns the removed part names, sorted.
func (e *editor) removedParts() []string {
	out := append([]string(nil), e.removed...)
	sort.Strings(out)
	return out
}

// bytes serializes the package, keeping the original entry order and
// compression methods.
func (e *editor) bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range e.order {
		data, ok := e.parts[name]
		if !ok {
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: e.methods[name]})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
