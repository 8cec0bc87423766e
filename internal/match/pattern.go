// Package match implements the literal, wildcard and /regex/ string rules
// shared by rename rules and filters. Rules are parsed once when the card is
// configured and then evaluated on every tick.
package match

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies how a Pattern compares text.
type Kind int

const (
	Literal Kind = iota
	Wildcard
	Regex
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Wildcard:
		return "wildcard"
	case Regex:
		return "regex"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Pattern is a parsed string rule.
type Pattern struct {
	kind Kind
	raw  string
	re   *regexp.Regexp
}

// IsRegexLiteral reports whether s is delimited by slashes, e.g. "/^abc$/".
func IsRegexLiteral(s string) bool {
	return len(s) >= 2 && s[0] == '/' && s[len(s)-1] == '/'
}

// Parse reads s as a regex when it is slash delimited, as a wildcard when it
// contains "*", and as a literal otherwise.
func Parse(s string) (Pattern, error) {
	if IsRegexLiteral(s) {
		return compile(s)
	}
	if strings.Contains(s, "*") {
		// Only "*" is rewritten; other regex syntax in the value stays active.
		re, err := regexp.Compile("^" + strings.ReplaceAll(s, "*", ".*") + "$")
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid wildcard %q: %w", s, err)
		}
		return Pattern{kind: Wildcard, raw: s, re: re}, nil
	}
	return Pattern{kind: Literal, raw: s}, nil
}

// ParseReplace reads s for use as a rename rule: slash delimited text is a
// regex, anything else is matched literally (a "*" has no special meaning).
func ParseReplace(s string) (Pattern, error) {
	if IsRegexLiteral(s) {
		return compile(s)
	}
	return Pattern{kind: Literal, raw: s}, nil
}

func compile(s string) (Pattern, error) {
	re, err := regexp.Compile(s[1 : len(s)-1])
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid regular expression %q: %w", s, err)
	}
	return Pattern{kind: Regex, raw: s, re: re}, nil
}

// MustParse is Parse for patterns known to be valid.
func MustParse(s string) Pattern {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) Kind() Kind     { return p.kind }
func (p Pattern) String() string { return p.raw }

// Match reports whether s satisfies the pattern. Literals require equal
// text, wildcards match the whole string and regexes match anywhere.
func (p Pattern) Match(s string) bool {
	if p.kind == Literal {
		return s == p.raw
	}
	return p.re.MatchString(s)
}

// ReplaceFirst replaces the first occurrence of the pattern in s. For regex
// patterns repl may reference groups as $1 or ${name}.
func (p Pattern) ReplaceFirst(s, repl string) string {
	if p.kind == Literal {
		return strings.Replace(s, p.raw, repl, 1)
	}
	loc := p.re.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	var out []byte
	out = append(out, s[:loc[0]]...)
	out = p.re.ExpandString(out, repl, s, loc)
	out = append(out, s[loc[1]:]...)
	return string(out)
}
