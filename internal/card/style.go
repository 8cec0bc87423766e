package card

import "strings"

// ScopeStyle prefixes every selector in css with scope. A selector is a run
// of text up to an opening brace, or up to a comma that is followed by an
// opening brace before any closing one.
func ScopeStyle(scope, css string) string {
	var b strings.Builder
	b.Grow(len(css) + len(scope)*4)

	i := 0
	for i < len(css) {
		j := i
		for j < len(css) && !strings.ContainsRune("\r\n,{}", rune(css[j])) {
			j++
		}
		if j == i {
			b.WriteByte(css[i])
			i++
			continue
		}
		if end, ok := selectorEnd(css, j); ok {
			b.WriteString(scope)
			b.WriteByte(' ')
			b.WriteString(css[i:end])
			i = end
			continue
		}
		b.WriteString(css[i:j])
		i = j
	}
	return b.String()
}

// selectorEnd reports where a selector ending at j is terminated.
func selectorEnd(css string, j int) (int, bool) {
	if j < len(css) && css[j] == ',' {
		for k := j + 1; k < len(css); k++ {
			switch css[k] {
			case '{':
				return j + 1, true
			case '}':
				return 0, false
			}
		}
		return 0, false
	}
	k := j
	for k < len(css) && strings.ContainsRune(" \t\r\n\f\v", rune(css[k])) {
		k++
	}
	if k < len(css) && css[k] == '{' {
		return k + 1, true
	}
	return 0, false
}
