// Package dateparse parses manually typed date strings. It is the strict
// counterpart to the OCR pipeline: a fixed list of exact formats is tried
// first, each of which must consume the whole input, then a last-resort
// digit-group heuristic. Invalid calendar dates are always rejected, never
// clamped.
package dateparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/freshtrack/expiry-cli/internal/model"
)

// formats is the exact-format list, tried in order. Year-first variants
// come before day-first, day-first before month-first, mirroring how dates
// are printed on packaging in the supported locales.
// Non-padded layout verbs accept both "1" and "01", padded ones insist on
// two digits, so the non-padded forms cover both spellings.
var formats = []string{
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2006年1月2日",
	"2-1-2006",
	"2/1/2006",
	"2.1.2006",
	"1-2-2006",
	"1/2/2006",
	"1.2.2006",
}

var digitGroups = regexp.MustCompile(`\d+`)

// UnparseableError reports text that neither the strict formats nor the
// digit-group fallback could turn into a calendar date. The offending text
// is carried verbatim for display.
type UnparseableError struct {
	Text string
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("dateparse: cannot parse %q as a date", e.Text)
}

// ParseTyped parses one manually typed date string. The first format that
// fully consumes the text and yields a calendar-valid date wins; otherwise
// the digit groups are reassembled with the 4-digit group as the year and
// the remaining two kept in their original left-to-right order.
func ParseTyped(text string) (model.Date, error) {
	s := strings.TrimSpace(width.Narrow.String(text))
	if s == "" {
		return model.Date{}, &UnparseableError{Text: text}
	}

	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return model.DateOf(t), nil
		}
	}

	if d, ok := fromDigitGroups(s); ok {
		return d, nil
	}

	return model.Date{}, &UnparseableError{Text: text}
}

// fromDigitGroups extracts all digit runs and attempts a date from the
// first three: the 4-digit run is the year, the other two stay in their
// original order (day first when the year came last).
func fromDigitGroups(s string) (model.Date, bool) {
	groups := digitGroups.FindAllString(s, -1)
	if len(groups) < 3 {
		return model.Date{}, false
	}

	nums := make([]int, 3)
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(groups[i])
		if err != nil {
			return model.Date{}, false
		}
		nums[i] = n
	}

	var year, month, day int
	if len(groups[0]) == 4 {
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		day, month, year = nums[0], nums[1], nums[2]
	}

	d, ok := model.NewDate(year, month, day)
	if !ok {
		return model.Date{}, false
	}
	return d, true
}
