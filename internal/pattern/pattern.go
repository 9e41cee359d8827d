// Package pattern holds the ordered library of date and shelf-life text
// patterns. The library is built once at startup and never mutated, so it is
// safe for unlimited concurrent readers.
package pattern

import (
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/freshtrack/expiry-cli/internal/model"
)

// Field names one capture group's meaning. Field order is data carried by
// the pattern, never re-derived from the regex text.
type Field int

const (
	FieldYear Field = iota
	FieldMonth
	FieldDay
	FieldCount // shelf-life month or day count
)

// Pattern is one textual date or shelf-life convention. BaseConfidence
// encodes the rule that labelled context beats bare numbers, and bare
// numbers beat partial information.
type Pattern struct {
	ID             string
	Role           model.Role
	Expr           string
	FieldOrder     []Field
	BaseConfidence float64

	re *regexp.Regexp
}

// Regexp returns the compiled matcher.
func (p *Pattern) Regexp() *regexp.Regexp {
	return p.re
}

// Library is an immutable, priority-ordered set of patterns.
type Library struct {
	patterns []Pattern
}

// NewLibrary compiles and validates patterns, preserving their order.
func NewLibrary(patterns []Pattern) (*Library, error) {
	compiled := make([]Pattern, len(patterns))
	for i, p := range patterns {
		if p.ID == "" {
			return nil, eris.Errorf("pattern: entry %d has no id", i)
		}
		if p.BaseConfidence <= 0 || p.BaseConfidence > 1 {
			return nil, eris.Errorf("pattern %s: base confidence %v outside (0,1]", p.ID, p.BaseConfidence)
		}
		if err := checkFieldOrder(p); err != nil {
			return nil, err
		}
		re, err := regexp.Compile(p.Expr)
		if err != nil {
			return nil, eris.Wrapf(err, "pattern %s: compile", p.ID)
		}
		if re.NumSubexp() != len(p.FieldOrder) {
			return nil, eris.Errorf("pattern %s: %d capture groups but %d fields",
				p.ID, re.NumSubexp(), len(p.FieldOrder))
		}
		p.re = re
		compiled[i] = p
	}
	return &Library{patterns: compiled}, nil
}

// checkFieldOrder enforces role/field consistency: shelf-life roles carry a
// single count group, date roles carry year+month with an optional day.
func checkFieldOrder(p Pattern) error {
	if p.Role == model.RoleShelfLifeMonths || p.Role == model.RoleShelfLifeDays {
		if len(p.FieldOrder) != 1 || p.FieldOrder[0] != FieldCount {
			return eris.Errorf("pattern %s: shelf-life role needs exactly one count field", p.ID)
		}
		return nil
	}

	var year, month, day, count int
	for _, f := range p.FieldOrder {
		switch f {
		case FieldYear:
			year++
		case FieldMonth:
			month++
		case FieldDay:
			day++
		case FieldCount:
			count++
		}
	}
	if year != 1 || month != 1 || day > 1 || count > 0 {
		return eris.Errorf("pattern %s: date role needs year and month fields with at most one day", p.ID)
	}
	return nil
}

// Patterns returns the library's patterns in priority order. Callers must
// not mutate the returned slice.
func (l *Library) Patterns() []Pattern {
	return l.patterns
}

// Len returns the number of patterns.
func (l *Library) Len() int {
	return len(l.patterns)
}
