package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{true, "true"},
		{42, "42"},
		{float64(50), "50"},
		{0.5, "0.5"},
		{[]interface{}{"a", 1.0}, "a,1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, String(tt.in), "String(%v)", tt.in)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"50", 50, true},
		{" 12.5 ", 12.5, true},
		{"", 0, true},
		{"-3", -3, true},
		{"Unknown", 0, false},
		{"inf", 0, false},
		{"nan", 0, false},
		{"10%", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.wantOK, ok, "ParseNumber(%q) ok", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, "ParseNumber(%q)", tt.in)
		}
	}
}

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		a, b interface{}
		want bool
	}{
		{"on", "on", true},
		{"on", "off", false},
		{"50", 50, true},
		{50.0, 50, true},
		{true, "1", true},
		{true, "true", false},
		{nil, nil, true},
		{nil, "", false},
		{"abc", 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooseEqual(tt.a, tt.b), "LooseEqual(%v, %v)", tt.a, tt.b)
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(false))
	assert.True(t, Truthy("0"))
	assert.True(t, Truthy(12))
	assert.True(t, Truthy([]interface{}{}))
}
