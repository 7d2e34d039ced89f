package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"bare ten digits", "9876543210", "919876543210", true},
		{"formatted", "+91 98765-43210", "919876543210", true},
		{"leading zero trunk prefix", "0919876543210", "919876543210", true},
		{"already normalized", "919876543210", "919876543210", true},
		{"empty", "", "", false},
		{"no digits", "not-a-number", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.raw, "91")
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalizePhoneIdempotent(t *testing.T) {
	once, ok := NormalizePhone("98765 43210", "91")
	assert.True(t, ok)
	twice, ok := NormalizePhone(once, "91")
	assert.True(t, ok)
	assert.Equal(t, once, twice)
}
