package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecimal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
	}{
		{"comma separator", "50,5", 50.5},
		{"dot separator", "33.3", 33.3},
		{"integer", "12", 12},
		{"leading whitespace", " 7,25 ", 7.25},
		{"negative", "-5", -5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decimal(tc.in))
		})
	}

	t.Run("unparseable input yields NaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(Decimal("abc")))
		assert.True(t, math.IsNaN(Decimal("")))
		assert.True(t, math.IsNaN(Decimal("12,34,56")))
	})
}

func TestInteger(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3", 3, true},
		{" 12 ", 12, true},
		{"3.0", 3, true},
		{"3,0", 3, true},
		{"3.5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := Integer(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("a@x.com"))
	assert.True(t, ValidEmail("  popescu.ion@bloc7.ro  "))
	assert.False(t, ValidEmail("bad-email"))
	assert.False(t, ValidEmail("a@x"))
	assert.False(t, ValidEmail("a b@x.com"))
	assert.False(t, ValidEmail(""))
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("+40721234567"))
	assert.True(t, ValidPhone("+40 (721) 234-567"))
	assert.True(t, ValidPhone("+4.07.21.23.45.67"))
	assert.False(t, ValidPhone("0721234567"))
	assert.False(t, ValidPhone("+123"))
	assert.False(t, ValidPhone("+401234567890123456789"))
	assert.False(t, ValidPhone(""))
}
