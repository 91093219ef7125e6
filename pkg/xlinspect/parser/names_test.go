package parser

import (
	"reflect"
	"testing"
)

func TestParseReferences(t *testing.T) {
	tests := []struct {
		refersTo string
		expected []Reference
	}{
		{"Sheet1!$A$1:$D$10", []Reference{{Sheet: "Sheet1", Range: "A1:D10"}}},
		{"='My Sheet'!$B$2", []Reference{{Sheet: "My Sheet", Range: "B2"}}},
		{"[1]Sheet1!$A$1", []Reference{{Workbook: "1", Sheet: "Sheet1", Range: "A1"}}},
		{"'[Book.xlsx]Data'!A1,Sheet2!C3", []Reference{
			{Workbook: "Book.xlsx", Sheet: "Data", Range: "A1"},
			{Sheet: "Sheet2", Range: "C3"},
		}},
		{"[1]!Total", []Reference{{Workbook: "1", Range: "Total"}}},
		{"42", nil},
	}

	for _, tt := range tests {
		result := ParseReferences(tt.refersTo)
		if !reflect.DeepEqual(result, tt.expected) {
			t.Errorf("ParseReferences(%q) = %+v, expected %+v", tt.refersTo, result, tt.expected)
		}
	}
}

func TestIsExternalReference(t *testing.T) {
	tests := []struct {
		refersTo string
		expected bool
	}{
		{"[1]Sheet1!$A$1", true},
		{"'[Book.xlsx]Sheet1'!A1", true},
		{"[1]!Name", true},
		{"Sheet1!$A$1", false},
		{"Table1[Amount]", false},
		{"Sheet1!$A$1:INDEX(Tbl[Col],2)", true},
		{"", false},
	}

	for _, tt := range tests {
		if result := IsExternalReference(tt.refersTo); result != tt.expected {
			t.Errorf("IsExternalReference(%q) = %v, expected %v", tt.refersTo, result, tt.expected)
		}
	}
}
