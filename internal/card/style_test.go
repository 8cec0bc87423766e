package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScopeStyle(t *testing.T) {
	tests := map[string]struct {
		in, want string
	}{
		"single":    {".name { color: red; }", "ha-card .name { color: red; }"},
		"list":      {".a, .b{x:y}", "ha-card .a,ha-card  .b{x:y}"},
		"multiline": {".a {x:y}\n.b\n{z:w}", "ha-card .a {x:y}\nha-card .b\n{z:w}"},
		"no rules":  {"color: red", "color: red"},
		"empty":     {"", ""},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScopeStyle("ha-card", tt.in))
		})
	}
}
