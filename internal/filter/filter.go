// Package filter evaluates include/exclude rules against entity states.
package filter

import (
	"fmt"
	"strings"

	"github.com/jkaberg/battery-state/internal/domain"
	"github.com/jkaberg/battery-state/internal/match"
	"github.com/jkaberg/battery-state/internal/value"
	"github.com/sirupsen/logrus"
)

// Operator is a comparison a rule applies to the resolved value.
type Operator int

const (
	OpUnknown Operator = iota
	OpExists
	OpContains
	OpEqual
	OpGreater
	OpLess
	OpGreaterOrEqual
	OpLessOrEqual
	OpMatches
)

var operatorNames = map[string]Operator{
	"exists":   OpExists,
	"contains": OpContains,
	"=":        OpEqual,
	">":        OpGreater,
	"<":        OpLess,
	">=":       OpGreaterOrEqual,
	"<=":       OpLessOrEqual,
	"matches":  OpMatches,
}

// SupportedOperators lists the operator names in documentation order.
const SupportedOperators = "exists, contains, =, >, <, >=, <=, matches"

func (o Operator) String() string {
	for name, op := range operatorNames {
		if op == o {
			return name
		}
	}
	return "unknown"
}

// Spec is a rule as written in the card configuration.
type Spec struct {
	Name     string      `yaml:"name" json:"name"`
	Operator string      `yaml:"operator,omitempty" json:"operator,omitempty"`
	Value    interface{} `yaml:"value,omitempty" json:"value,omitempty"`
}

// Rule is a parsed Spec ready for evaluation.
type Rule struct {
	spec    Spec
	op      Operator
	pattern match.Pattern
	logger  *logrus.Logger
}

// New parses spec. When no operator is given it is inferred from the value:
// no value means exists, a wildcard or /regex/ value means matches and any
// other value means =. An unsupported operator is not an error; the rule
// logs a warning and never matches.
func New(spec Spec, logger *logrus.Logger) (*Rule, error) {
	r := &Rule{spec: spec, logger: logger}

	if spec.Operator == "" {
		switch {
		case spec.Value == nil:
			r.op = OpExists
		default:
			v := value.String(spec.Value)
			if strings.Contains(v, "*") || match.IsRegexLiteral(v) {
				r.op = OpMatches
			} else {
				r.op = OpEqual
			}
		}
	} else if op, ok := operatorNames[spec.Operator]; ok {
		r.op = op
	} else {
		r.op = OpUnknown
	}

	if r.op == OpMatches && spec.Value != nil {
		p, err := match.Parse(value.String(spec.Value))
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", spec.Name, err)
		}
		r.pattern = p
	}
	return r, nil
}

// Name returns the configured value path.
func (r *Rule) Name() string { return r.spec.Name }

// Operator returns the effective operator.
func (r *Rule) Operator() Operator { return r.op }

// IsPermanent reports whether a match removes the entity from tracking for
// good. Only rules on the raw "state" field are reversible.
func (r *Rule) IsPermanent() bool { return r.spec.Name != "state" }

// IsValid reports whether entity satisfies the rule. When fallback is
// non-nil a "state" rule compares against it instead of the raw state; the
// card passes the computed level here.
func (r *Rule) IsValid(entity *domain.EntityState, fallback *string) bool {
	v, ok := r.resolve(entity, fallback)
	return r.meets(v, ok)
}

func (r *Rule) resolve(entity *domain.EntityState, fallback *string) (interface{}, bool) {
	name := r.spec.Name
	switch {
	case name == "":
		r.logger.Warn("Missing filter 'name' property")
		return nil, false
	case strings.HasPrefix(name, "attributes."):
		return entity.Attribute(strings.TrimPrefix(name, "attributes."))
	case name == "state" && fallback != nil:
		return *fallback, true
	}
	return entity.Field(name)
}

func (r *Rule) meets(v interface{}, defined bool) bool {
	want := r.spec.Value
	switch r.op {
	case OpExists:
		return defined
	case OpContains:
		if !defined || want == nil {
			return false
		}
		needle := value.String(want)
		if list, ok := v.([]interface{}); ok {
			for _, item := range list {
				if value.String(item) == needle {
					return true
				}
			}
		}
		return strings.Contains(value.String(v), needle)
	case OpEqual:
		if !defined {
			return want == nil
		}
		return value.LooseEqual(v, want)
	case OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual:
		return compare(r.op, v, defined, want)
	case OpMatches:
		if !defined {
			return false
		}
		if want == nil {
			return false
		}
		if r.pattern.Kind() == match.Literal {
			s, isString := v.(string)
			return isString && s == value.String(want)
		}
		return r.pattern.Match(value.String(v))
	}
	r.logger.WithFields(logrus.Fields{
		"operator":  r.spec.Operator,
		"supported": SupportedOperators,
	}).Warn("Filter operator not supported")
	return false
}

func compare(op Operator, v interface{}, defined bool, want interface{}) bool {
	if !defined {
		return false
	}
	left, ok := value.Number(v)
	if !ok {
		return false
	}
	right, ok := value.Number(want)
	if !ok {
		return false
	}
	switch op {
	case OpGreater:
		return left > right
	case OpLess:
		return left < right
	case OpGreaterOrEqual:
		return left >= right
	case OpLessOrEqual:
		return left <= right
	}
	return false
}
