package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceFor(t *testing.T) {
	tests := []struct {
		id   string
		want SourceKind
	}{
		{"DGS10", SourceFRED},
		{"CBBTCUSD", SourceFRED},
		{"blockchain:market-price", SourceBlockchain},
		{"breadth:ADLINE", SourceStore},
		{"", SourceFRED},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceFor(tt.id))
		})
	}
}

func TestUpstreamID(t *testing.T) {
	assert.Equal(t, "market-price", UpstreamID("blockchain:market-price"))
	assert.Equal(t, "breadth:NH_NL", UpstreamID("breadth:NH_NL"))
	assert.Equal(t, "VIXCLS", UpstreamID("VIXCLS"))
	assert.True(t, IsIngestible("breadth:NH_NL"))
	assert.False(t, IsIngestible("VIXCLS"))
}
