// Package recognize turns raw OCR text fragments into a single resolved
// production/expiry date or shelf-life duration. It is pure and synchronous:
// each pass owns its candidate list and touches nothing shared beyond the
// immutable pattern library, so passes may run concurrently without
// coordination.
package recognize

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/freshtrack/expiry-cli/internal/model"
	"github.com/freshtrack/expiry-cli/internal/pattern"
)

// Extract applies the library to every fragment in priority order and
// returns all calendar-valid candidates. Malformed numeric groups and
// impossible dates (Feb 30, Apr 31) are dropped silently; extraction never
// fails, it just produces fewer candidates.
func Extract(lib *pattern.Library, fragments []model.Fragment) []model.Candidate {
	var out []model.Candidate
	for _, frag := range fragments {
		text := Normalize(frag.Text)
		if text == "" {
			continue
		}
		for idx, p := range lib.Patterns() {
			for _, match := range p.Regexp().FindAllStringSubmatch(text, -1) {
				c, ok := buildCandidate(p, idx, match)
				if !ok {
					continue
				}
				c.Confidence = clamp01(p.BaseConfidence * frag.Confidence)
				c.Engine = frag.Engine
				out = append(out, c)
			}
		}
	}
	return out
}

// buildCandidate maps capture groups onto the pattern's field order and
// validates the result. ok is false for unparseable ints, out-of-range
// months, and days that do not exist in the matched month/year.
func buildCandidate(p pattern.Pattern, idx int, match []string) (model.Candidate, bool) {
	c := model.Candidate{
		Role:         p.Role,
		SourceText:   match[0],
		PatternID:    p.ID,
		PatternIndex: idx,
	}

	var year, month, day, count int
	for i, f := range p.FieldOrder {
		n, err := strconv.Atoi(match[i+1])
		if err != nil {
			return model.Candidate{}, false
		}
		switch f {
		case pattern.FieldYear:
			year = n
		case pattern.FieldMonth:
			month = n
		case pattern.FieldDay:
			day = n
		case pattern.FieldCount:
			count = n
		}
	}

	switch p.Role {
	case model.RoleShelfLifeMonths:
		if count < 1 {
			return model.Candidate{}, false
		}
		c.ShelfLifeMonths = count
	case model.RoleShelfLifeDays:
		if count < 1 {
			return model.Candidate{}, false
		}
		c.ShelfLifeDays = count
	default:
		if day == 0 {
			day = 1 // year-month pattern: day implicitly the 1st
		}
		d, ok := model.NewDate(year, month, day)
		if !ok {
			return model.Candidate{}, false
		}
		c.Date = d
	}
	return c, true
}

// Normalize folds full-width digits and punctuation from CJK OCR output to
// their ASCII forms and trims surrounding space, so one pattern set matches
// both widths.
func Normalize(text string) string {
	return strings.TrimSpace(width.Narrow.String(text))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
