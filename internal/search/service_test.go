package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/corpsearch-cli/internal/name"
	"github.com/sells-group/corpsearch-cli/internal/record"
	"github.com/sells-group/corpsearch-cli/internal/store"
)

func seedRecord(t *testing.T, st *store.MemoryStore, kind record.Kind, doc, rawName, status string, filed *time.Time) {
	t.Helper()
	rules := name.DefaultRules()
	_, err := st.UpsertRecords(context.Background(), kind, []store.StoredRecord{{
		Record: record.Record{
			Kind:           kind,
			DocumentNumber: doc,
			Name:           rawName,
			Status:         status,
			FiledDate:      filed,
		},
		NormalizedKey: name.Normalize(rules, rawName),
	}})
	require.NoError(t, err)
}

func seedEntity(t *testing.T, st *store.MemoryStore, doc, rawName, status string, filed *time.Time) {
	t.Helper()
	seedRecord(t, st, record.KindEntity, doc, rawName, status, filed)
}

func TestSearch_EmptyNormalizedKey(t *testing.T) {
	st := store.NewMemory()
	seedEntity(t, st, "L1", "SUNSHINE LLC", "A", nil)
	svc := New(st, name.DefaultRules(), DefaultOptions(), nil)

	for _, q := range []string{"", "   ", "LLC", "The Inc.", "A An The"} {
		res, err := svc.Search(context.Background(), q)
		require.NoError(t, err, "query %q", q)
		assert.True(t, res.Available, "query %q", q)
		assert.Empty(t, res.Matches, "query %q", q)
		assert.Empty(t, res.NormalizedKey, "query %q", q)
	}
}

func TestSearch_ConflictAcrossEquivalentForms(t *testing.T) {
	st := store.NewMemory()
	seedEntity(t, st, "L23000123456", "SUNSHINE CONSULTING LLC", "A", nil)
	svc := New(st, name.DefaultRules(), DefaultOptions(), nil)

	// Equivalent renderings of the stored name all collide.
	for _, q := range []string{
		"Sunshine Consulting LLC",
		"sunshine consulting, inc.",
		"The Sunshine Consulting Co.",
	} {
		res, err := svc.Search(context.Background(), q)
		require.NoError(t, err, "query %q", q)
		assert.False(t, res.Available, "query %q", q)
		require.Len(t, res.Matches, 1, "query %q", q)
		assert.Equal(t, "L23000123456", res.Matches[0].DocumentNumber)
		assert.Equal(t, record.KindEntity, res.Matches[0].Kind)
	}

	res, err := svc.Search(context.Background(), "Moonlight Consulting LLC")
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Empty(t, res.Matches)
	assert.ElementsMatch(t, record.Kinds(), res.CheckedKinds)
}

func TestSearch_MergesAcrossKinds(t *testing.T) {
	st := store.NewMemory()
	seedRecord(t, st, record.KindEntity, "L1", "Sunshine Consulting LLC", "A", dt(2020, 3, 1))
	seedRecord(t, st, record.KindFictitious, "G2", "SUNSHINE CONSULTING", "A", dt(2024, 6, 15))
	seedRecord(t, st, record.KindPartnership, "A3", "The Sunshine Consulting Co.", "A", dt(2016, 1, 9))

	svc := New(st, name.DefaultRules(), DefaultOptions(), nil)

	res, err := svc.Search(context.Background(), "sunshine consulting")
	require.NoError(t, err)

	// Conflicts from every kind land in one list, most recent filing first.
	assert.False(t, res.Available)
	assert.Equal(t, []string{"G2", "L1", "A3"}, docOrder(res.Matches))
	assert.Equal(t, record.KindFictitious, res.Matches[0].Kind)
	assert.Equal(t, record.KindEntity, res.Matches[1].Kind)
	assert.Equal(t, record.KindPartnership, res.Matches[2].Kind)
	assert.ElementsMatch(t, record.Kinds(), res.CheckedKinds)
}

func TestSearch_PrefixMatchesCollide(t *testing.T) {
	st := store.NewMemory()
	seedEntity(t, st, "L1", "SUNSHINE CONSULTING GROUP LLC", "A", nil)
	svc := New(st, name.DefaultRules(), DefaultOptions(), nil)

	res, err := svc.Search(context.Background(), "Sunshine Consulting")
	require.NoError(t, err)
	assert.False(t, res.Available)
	require.Len(t, res.Matches, 1)
}

type flakyStore struct {
	*store.MemoryStore
	failKind record.Kind
}

func (s *flakyStore) FindByNormalizedPrefix(ctx context.Context, kind record.Kind, key string, limit int) ([]store.StoredRecord, error) {
	if kind == s.failKind {
		return nil, errors.New("timeout")
	}
	return s.MemoryStore.FindByNormalizedPrefix(ctx, kind, key, limit)
}

func TestSearch_DegradesOnKindFailure(t *testing.T) {
	mem := store.NewMemory()
	seedEntity(t, mem, "L1", "SUNSHINE CONSULTING LLC", "A", nil)
	st := &flakyStore{MemoryStore: mem, failKind: record.KindFictitious}
	svc := New(st, name.DefaultRules(), DefaultOptions(), nil)

	res, err := svc.Search(context.Background(), "Sunshine Consulting")
	require.NoError(t, err, "one kind failing never fails the query")

	assert.False(t, res.Available)
	require.Len(t, res.Matches, 1)
	assert.NotContains(t, res.CheckedKinds, record.KindFictitious)
	assert.Contains(t, res.CheckedKinds, record.KindEntity)
	assert.Contains(t, res.CheckedKinds, record.KindPartnership)
}

func TestSearch_GlobalCap(t *testing.T) {
	st := store.NewMemory()
	for i := 0; i < 20; i++ {
		filed := time.Date(2020, 1, 1+i, 0, 0, 0, 0, time.UTC)
		seedEntity(t, st, fmt.Sprintf("L%04d", i), fmt.Sprintf("SUNSHINE VENTURES %d LLC", i), "A", &filed)
	}

	opts := DefaultOptions()
	opts.GlobalCap = 5
	svc := New(st, name.DefaultRules(), opts, nil)

	res, err := svc.Search(context.Background(), "Sunshine")
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Len(t, res.Matches, 5)

	// The cap keeps the most recent filings, not an arbitrary slice.
	for i := 1; i < len(res.Matches); i++ {
		prev, cur := res.Matches[i-1].FiledDate, res.Matches[i].FiledDate
		require.NotNil(t, prev)
		require.NotNil(t, cur)
		assert.False(t, prev.Before(*cur))
	}
}

func TestSearch_PerKindLimit(t *testing.T) {
	st := store.NewMemory()
	for i := 0; i < 8; i++ {
		seedEntity(t, st, fmt.Sprintf("L%04d", i), fmt.Sprintf("SUNSHINE VENTURES %d LLC", i), "A", nil)
	}

	opts := DefaultOptions()
	opts.PerKindLimits = map[record.Kind]int{
		record.KindEntity:      3,
		record.KindFictitious:  3,
		record.KindPartnership: 3,
	}
	svc := New(st, name.DefaultRules(), opts, nil)

	res, err := svc.Search(context.Background(), "Sunshine")
	require.NoError(t, err)
	assert.Len(t, res.Matches, 3)
}

func TestSearch_CancelledContext(t *testing.T) {
	st := store.NewMemory()
	svc := New(st, name.DefaultRules(), DefaultOptions(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, "Sunshine Consulting")
	assert.Error(t, err)
}

func TestSearch_CustomRanker(t *testing.T) {
	st := store.NewMemory()
	seedEntity(t, st, "L2", "SUNSHINE B LLC", "A", nil)
	seedEntity(t, st, "L1", "SUNSHINE A LLC", "A", nil)

	byDoc := func(ms []Match) {
		for i := 0; i < len(ms); i++ {
			for j := i + 1; j < len(ms); j++ {
				if ms[j].DocumentNumber < ms[i].DocumentNumber {
					ms[i], ms[j] = ms[j], ms[i]
				}
			}
		}
	}
	svc := New(st, name.DefaultRules(), DefaultOptions(), byDoc)

	res, err := svc.Search(context.Background(), "Sunshine")
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "L1", res.Matches[0].DocumentNumber)
	assert.Equal(t, "L2", res.Matches[1].DocumentNumber)
}
