package search

import (
	"sort"
	"time"
)

// Ranker orders merged matches in place before the global cap is applied.
// It is a swappable policy so a kind-weighted ordering can replace the
// default without touching the merge path.
type Ranker func([]Match)

// ByRecency sorts most-recent first by filing date, falling back to the
// effective date when filing is absent. Records with no usable date sort
// last; ties break on document number for a stable order.
func ByRecency(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		di, dj := relevantDate(matches[i]), relevantDate(matches[j])
		switch {
		case di == nil && dj == nil:
			return matches[i].DocumentNumber < matches[j].DocumentNumber
		case di == nil:
			return false
		case dj == nil:
			return true
		case !di.Equal(*dj):
			return di.After(*dj)
		default:
			return matches[i].DocumentNumber < matches[j].DocumentNumber
		}
	})
}

func relevantDate(m Match) *time.Time {
	if m.FiledDate != nil {
		return m.FiledDate
	}
	return m.EffectiveDate
}
