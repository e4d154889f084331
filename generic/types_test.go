package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHours(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "0"},
		{"  ", "0"},
		{"7.5", "7.5"},
		{" 37.5 ", "37.5"},
		{"-2", "-2"},
		{"1,000", "1000"},
		{"1,234,567.25", "1234567.25"},
		{"-1,250.5", "-1250.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHours(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseHours_RejectsAmbiguousCommas(t *testing.T) {
	for _, in := range []string{"7,5", "37,50", "1,00", "12,3456", ",5", "1,,000", "a lot"} {
		_, err := ParseHours(in)
		assert.Error(t, err, in)
	}
}
