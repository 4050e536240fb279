package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/corpsearch-cli/internal/record"
)

func dt(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func docOrder(matches []Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.DocumentNumber
	}
	return out
}

func TestByRecency(t *testing.T) {
	matches := []Match{
		{Kind: record.KindEntity, DocumentNumber: "OLD", FiledDate: dt(2015, 3, 1)},
		{Kind: record.KindEntity, DocumentNumber: "NODATE"},
		{Kind: record.KindFictitious, DocumentNumber: "NEW", FiledDate: dt(2024, 6, 15)},
		{Kind: record.KindPartnership, DocumentNumber: "EFFECTIVE", EffectiveDate: dt(2020, 1, 1)},
	}

	ByRecency(matches)

	assert.Equal(t, []string{"NEW", "EFFECTIVE", "OLD", "NODATE"}, docOrder(matches))
}

func TestByRecency_FiledBeatsEffective(t *testing.T) {
	// The effective date only stands in when no filing date exists; once a
	// record has a filing date, its effective date is ignored.
	matches := []Match{
		{DocumentNumber: "B", EffectiveDate: dt(2024, 1, 1)},
		{DocumentNumber: "A", FiledDate: dt(2022, 1, 1), EffectiveDate: dt(2030, 1, 1)},
	}

	ByRecency(matches)

	assert.Equal(t, []string{"B", "A"}, docOrder(matches))
}

func TestByRecency_Ties(t *testing.T) {
	same := dt(2023, 5, 5)
	matches := []Match{
		{DocumentNumber: "C", FiledDate: same},
		{DocumentNumber: "A", FiledDate: same},
		{DocumentNumber: "B", FiledDate: same},
	}

	ByRecency(matches)

	assert.Equal(t, []string{"A", "B", "C"}, docOrder(matches))
}

func TestByRecency_AllNilDates(t *testing.T) {
	matches := []Match{
		{DocumentNumber: "Z"},
		{DocumentNumber: "M"},
		{DocumentNumber: "A"},
	}

	ByRecency(matches)

	assert.Equal(t, []string{"A", "M", "Z"}, docOrder(matches))
}

func TestByRecency_Empty(t *testing.T) {
	assert.NotPanics(t, func() {
		ByRecency(nil)
		ByRecency([]Match{})
	})
}
