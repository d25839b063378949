package organizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2024-07-01", true},
		{"2024-07-01T09:30:00Z", true},
		{"2024-07-01T09:30:00.123+02:00", true},
		{"2024-07-01T09:30:00", true},
		{"2024-07-01T09:30", true},
		{"2024-07-01 09:30:00", true},
		{"  2024-07-01  ", true},
		{"", false},
		{"yesterday", false},
		{"07/01/2024", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, ok := ParseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
