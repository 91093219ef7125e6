package parser

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ukaji3/xlinspect-go/internal/testutil"
)

func TestInspectEmbedding(t *testing.T) {
	data := testutil.CompoundFile([]testutil.Entry{
		{Name: "\x01Ole10Native", Data: "payload"},
		{Name: "\x01CompObj", Data: "compobj"},
	})

	obj := InspectEmbedding("xl/embeddings/oleObject1.bin", data)
	if obj.Error != "" {
		t.Fatalf("InspectEmbedding returned error: %s", obj.Error)
	}
	if obj.Part != "xl/embeddings/oleObject1.bin" || obj.Size != int64(len(data)) {
		t.Errorf("Unexpected part or size: %+v", obj)
	}
	expected := []string{"\x01Ole10Native", "\x01CompObj"}
	if !reflect.DeepEqual(obj.Streams, expected) {
		t.Errorf("Streams = %q, expected %q", obj.Streams, expected)
	}
}

func TestInspectEmbeddingPackage(t *testing.T) {
	obj := InspectEmbedding("xl/embeddings/Microsoft_Word_Document.docx", []byte("PK\x03\x04rest"))
	if len(obj.Streams) != 0 || obj.Error != "" {
		t.Errorf("Expected a bare entry for an embedded package, got %+v", obj)
	}
}

func TestInspectEmbeddingTruncated(t *testing.T) {
	data := testutil.CompoundFile([]testutil.Entry{{Name: "Stream", Data: "x"}})
	obj := InspectEmbedding("xl/embeddings/oleObject2.bin", data[:100])
	if obj.Error == "" {
		t.Error("Expected an error for a truncated compound file")
	}
	if !strings.HasPrefix(obj.Part, "xl/embeddings/") {
		t.Errorf("Unexpected part %q", obj.Part)
	}
}

func TestReadSummaryPropertiesNoPropertySets(t *testing.T) {
	path := testutil.WriteCompoundFile(t, "plain.xls", []testutil.Entry{{Name: "Workbook", Data: "biff"}})

	props, err := ReadSummaryProperties(path)
	if err != nil {
		t.Fatalf("ReadSummaryProperties failed: %v", err)
	}
	if len(props) != 0 {
		t.Errorf("Expected no properties, got %v", props)
	}
}
