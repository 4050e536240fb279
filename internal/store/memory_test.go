package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/corpsearch-cli/internal/record"
)

func storedRec(doc, name, key, status string) StoredRecord {
	return StoredRecord{
		Record: record.Record{
			Kind:           record.KindEntity,
			DocumentNumber: doc,
			Name:           name,
			Status:         status,
		},
		NormalizedKey: key,
	}
}

func TestMemoryUpsert_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	recs := []StoredRecord{
		storedRec("L23000123456", "SUNSHINE CONSULTING LLC", "SUNSHINE CONSULTING", "A"),
		storedRec("L23000123457", "GULF COAST BUILDERS INC", "GULF COAST BUILDER", "A"),
	}

	n, err := st.UpsertRecords(ctx, record.KindEntity, recs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, st.Count(record.KindEntity))

	n, err = st.UpsertRecords(ctx, record.KindEntity, recs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 2, st.Count(record.KindEntity))

	got, err := st.FindByNormalizedPrefix(ctx, record.KindEntity, "SUNSHINE CONSULTING", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SUNSHINE CONSULTING LLC", got[0].Name)
}

func TestMemoryUpsert_OverwritesAllFields(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	filed := time.Date(2023, 2, 14, 0, 0, 0, 0, time.UTC)
	first := storedRec("L23000123456", "SUNSHINE CONSULTING LLC", "SUNSHINE CONSULTING", "A")
	first.FiledDate = &filed

	_, err := st.UpsertRecords(ctx, record.KindEntity, []StoredRecord{first})
	require.NoError(t, err)

	second := storedRec("L23000123456", "SUNSHINE CONSULTING GROUP LLC", "SUNSHINE CONSULTING GROUP", "I")

	n, err := st.UpsertRecords(ctx, record.KindEntity, []StoredRecord{second})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, st.Count(record.KindEntity))

	got, err := st.FindByNormalizedPrefix(ctx, record.KindEntity, "SUNSHINE", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "SUNSHINE CONSULTING GROUP LLC", got[0].Name)
	assert.Equal(t, "I", got[0].Status)
	assert.Nil(t, got[0].FiledDate, "stale fields must not survive an overwrite")
	assert.False(t, got[0].LastUpdated.IsZero())
}

func TestMemoryUpsert_Validation(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	n, err := st.UpsertRecords(ctx, record.KindEntity, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = st.UpsertRecords(ctx, record.Kind("bogus"), []StoredRecord{storedRec("X", "X", "X", "A")})
	assert.Error(t, err)

	_, err = st.UpsertRecords(ctx, record.KindEntity, []StoredRecord{storedRec("", "NO DOC", "NO DOC", "A")})
	assert.Error(t, err)
}

func TestMemoryFind_PrefixAndLimit(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	recs := []StoredRecord{
		storedRec("P1", "PALM TREE CO", "PALM TREE", "A"),
		storedRec("P2", "PALM TREES LLC", "PALM TREE", "A"),
		storedRec("P3", "PALMETTO STATE INC", "PALMETTO STATE", "A"),
		storedRec("P4", "OAK GROVE LLC", "OAK GROVE", "A"),
	}
	_, err := st.UpsertRecords(ctx, record.KindEntity, recs)
	require.NoError(t, err)

	got, err := st.FindByNormalizedPrefix(ctx, record.KindEntity, "PALM", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = st.FindByNormalizedPrefix(ctx, record.KindEntity, "PALM", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = st.FindByNormalizedPrefix(ctx, record.KindEntity, "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemorySyncRun_Lifecycle(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()

	run, err := st.CreateSyncRun(ctx, record.KindEntity, RunFull)
	require.NoError(t, err)
	assert.Equal(t, RunRunning, run.Status)
	assert.False(t, run.StartedAt.IsZero())

	stats := RunStats{Processed: 10, Upserted: 9, Errors: 1}
	require.NoError(t, st.CompleteSyncRun(ctx, run.ID, stats))

	got, err := st.GetSyncRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, RunComplete, got.Status)
	assert.Equal(t, stats, got.RunStats)
	require.NotNil(t, got.CompletedAt)

	failed, err := st.CreateSyncRun(ctx, record.KindEntity, RunIncremental)
	require.NoError(t, err)
	require.NoError(t, st.FailSyncRun(ctx, failed.ID, RunStats{Processed: 3}, "read error"))

	last, err := st.LastSyncRun(ctx, record.KindEntity)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, failed.ID, last.ID)
	assert.Equal(t, "read error", last.Error)

	none, err := st.LastSyncRun(ctx, record.KindPartnership)
	require.NoError(t, err)
	assert.Nil(t, none)

	runs, err := st.ListSyncRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	runs, err = st.ListSyncRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, failed.ID, runs[0].ID)
}
