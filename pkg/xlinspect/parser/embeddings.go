package parser

import (
	"bytes"
	"path"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
)

// EmbeddedObjects opens every compound file under xl/embeddings/ and lists
// its streams. Embedded OOXML packages (.xlsx, .docx) are reported without streams.
func (p *Package) EmbeddedObjects() ([]models.EmbeddedObject, error) {
	var objects []models.EmbeddedObject
	for _, f := range p.reader.File {
		if !strings.HasPrefix(f.Name, "xl/embeddings/") {
			continue
		}
		data, err := p.Read(f.Name)
		if err != nil {
			return nil, err
		}
		objects = append(objects, InspectEmbedding(f.Name, data))
	}
	return objects, nil
}

// InspectEmbedding describes one embedded part.
func InspectEmbedding(name string, data []byte) models.EmbeddedObject {
	obj := models.EmbeddedObject{Part: name, Size: int64(len(data))}
	if !bytes.HasPrefix(data, []byte{0xD0, 0xCF, 0x11, 0xE0}) {
		return obj
	}

	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		obj.Error = err.Error()
		return obj
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		obj.Streams = append(obj.Streams, path.Join(append(entry.Path, entry.Name)...))
	}
	return obj
}
