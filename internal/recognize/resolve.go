package recognize

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/freshtrack/expiry-cli/internal/model"
)

// Resolution holds the per-role winners of one recognition pass. A nil
// entry means no candidate existed for that role; the engine never guesses
// a missing role.
type Resolution struct {
	Production      *model.Candidate
	Expiry          *model.Candidate
	ShelfLifeMonths *model.Candidate
	ShelfLifeDays   *model.Candidate
}

// Resolve picks one winner per role. Tie-breaks, highest priority first:
// strictly higher confidence, then longer matched text (more context), then
// the earlier pattern in library order. The result is deterministic for any
// input ordering.
func Resolve(candidates []model.Candidate) Resolution {
	var res Resolution
	counts := make(map[model.Role]int, 4)

	for i := range candidates {
		c := &candidates[i]
		counts[c.Role]++
		slot := res.slot(c.Role)
		if *slot == nil || better(c, *slot) {
			*slot = c
		}
	}

	for role, n := range counts {
		if n > 1 {
			// Ambiguous but resolved: observability only, not an error.
			zap.L().Debug("multiple candidates resolved deterministically",
				zap.String("role", string(role)),
				zap.Int("candidates", n),
				zap.String("winner_pattern", (*res.slot(role)).PatternID),
				zap.String("winner_text", (*res.slot(role)).SourceText),
			)
		}
	}

	return res
}

func (r *Resolution) slot(role model.Role) **model.Candidate {
	switch role {
	case model.RoleExpiryDate:
		return &r.Expiry
	case model.RoleShelfLifeMonths:
		return &r.ShelfLifeMonths
	case model.RoleShelfLifeDays:
		return &r.ShelfLifeDays
	default:
		return &r.Production
	}
}

// better reports whether a should displace the current winner b.
func better(a, b *model.Candidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	la, lb := utf8.RuneCountInString(a.SourceText), utf8.RuneCountInString(b.SourceText)
	if la != lb {
		return la > lb
	}
	return a.PatternIndex < b.PatternIndex
}
