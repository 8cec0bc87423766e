package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKinds(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"sensor.phone", Literal},
		{"sensor.*_battery", Wildcard},
		{"/^sensor\\./", Regex},
		{"/", Literal},
	}
	for _, tt := range tests {
		p, err := Parse(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.Kind(), "Parse(%q)", tt.in)
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		in      string
		want    bool
	}{
		{"sensor.*_battery", "sensor.phone_battery", true},
		{"sensor.*_battery", "sensor.phone_battery_level", false},
		{"*.phone*", "sensor.phone_battery", true},
		{"/phone/", "sensor.phone_battery", true},
		{"/^phone/", "sensor.phone_battery", false},
		{"on", "on", true},
		{"on", "online", false},
		{"a.b*", "axb", true},
		{"sensor.(a|b)_*", "sensor.b_battery", true},
		{"sensor.(a|b)_*", "sensor.c_battery", false},
	}
	for _, tt := range tests {
		p := MustParse(tt.pattern)
		assert.Equal(t, tt.want, p.Match(tt.in), "%q.Match(%q)", tt.pattern, tt.in)
	}
}

func TestParseInvalidRegex(t *testing.T) {
	_, err := Parse("/(unclosed/")
	assert.Error(t, err)

	_, err = Parse("(unclosed*")
	assert.Error(t, err)
}

func TestReplaceFirst(t *testing.T) {
	tests := []struct {
		from, to, in, want string
	}{
		{" Battery", "", "Phone Battery Battery", "Phone Battery"},
		{"/ battery level$/", "", "Kitchen sensor battery level", "Kitchen sensor"},
		{"/^(\\w+) sensor/", "$1", "Kitchen sensor battery", "Kitchen battery"},
		{"/nomatch/", "x", "Kitchen", "Kitchen"},
		{"sensor.*", "x", "sensor.*abc", "xabc"},
	}
	for _, tt := range tests {
		p, err := ParseReplace(tt.from)
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.ReplaceFirst(tt.in, tt.to), "replace %q in %q", tt.from, tt.in)
	}
}
