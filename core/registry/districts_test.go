package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistrictTable(t *testing.T) {
	table := NewDistrictTable()
	assert.Equal(t, 50, table.Len())

	all := table.All()
	assert.Equal(t, District{1001, "Phra Nakhon"}, all[0])
	assert.Equal(t, District{1050, "Bang Bon"}, all[49])
	for i, d := range all {
		assert.Equal(t, 1001+i, d.Code)
	}

	name, ok := table.Name(1030)
	assert.True(t, ok)
	assert.Equal(t, "Chatuchak", name)

	code, ok := table.Code("  pom prap sattru phai ")
	assert.True(t, ok)
	assert.Equal(t, 1008, code)

	_, ok = table.Name(9999)
	assert.False(t, ok)
}

func TestParseCode(t *testing.T) {
	table := NewDistrictTable()

	tests := []struct {
		raw      string
		code     int
		expected bool
	}{
		{"1001", 1001, true},
		{"1033.0", 1033, true},
		{"Bang Na", 1047, true},
		{"9999", 9999, true}, // unknown codes are kept for city-wide totals
		{"Atlantis", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			code, ok := table.ParseCode(tt.raw)
			assert.Equal(t, tt.expected, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}
