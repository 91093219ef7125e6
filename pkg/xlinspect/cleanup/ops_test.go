package cleanup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOps(t *testing.T) {
	tests := []struct {
		in      string
		want    Op
		wantErr bool
	}{
		{"full", Full, false},
		{"ALL", Full, false},
		{"styles", StylesOnly, false},
		{"objects", ObjectsOnly, false},
		{"external_links, pivot_caches", ExternalLinks | PivotCaches, false},
		{"drawings,,", Drawings, false},
		{"", 0, true},
		{" , ", 0, true},
		{"styles,shapes", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseOps(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestOpNames(t *testing.T) {
	assert.Equal(t, []string{"external_links", "drawings", "pivot_caches", "styles"}, Full.Names())
	assert.Equal(t, "objects", ObjectsOnly.String())
	assert.Equal(t, "none", Op(0).String())
	assert.True(t, Full.Has(Styles|Drawings))
	assert.False(t, Full.Has(Objects))
}
