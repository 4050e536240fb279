package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/corpsearch-cli/internal/record"
)

// MemoryStore is an in-process Store for tests and throwaway runs. All
// mutation happens under one mutex, so reads see whole records only.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[record.Kind]map[string]StoredRecord
	runs    map[uuid.UUID]*SyncRun
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	records := make(map[record.Kind]map[string]StoredRecord, 3)
	for _, k := range record.Kinds() {
		records[k] = make(map[string]StoredRecord)
	}
	return &MemoryStore{
		records: records,
		runs:    make(map[uuid.UUID]*SyncRun),
	}
}

func (s *MemoryStore) UpsertRecords(ctx context.Context, kind record.Kind, recs []StoredRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	byKey, ok := s.records[kind]
	if !ok {
		return 0, eris.Errorf("memory: unknown kind %s", kind)
	}
	now := time.Now().UTC()
	for _, r := range recs {
		if r.DocumentNumber == "" {
			return 0, eris.New("memory: record missing document number")
		}
		r.LastUpdated = now
		byKey[r.DocumentNumber] = r
	}
	return int64(len(recs)), nil
}

func (s *MemoryStore) FindByNormalizedPrefix(ctx context.Context, kind record.Kind, key string, limit int) ([]StoredRecord, error) {
	if key == "" || limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	byKey, ok := s.records[kind]
	if !ok {
		return nil, eris.Errorf("memory: unknown kind %s", kind)
	}

	var out []StoredRecord
	for _, r := range byKey {
		if strings.HasPrefix(r.NormalizedKey, key) {
			out = append(out, r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateSyncRun(ctx context.Context, kind record.Kind, runType RunType) (*SyncRun, error) {
	run := &SyncRun{
		ID:        uuid.New(),
		Kind:      kind,
		RunType:   runType,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()
	cp := *run
	return &cp, nil
}

func (s *MemoryStore) CompleteSyncRun(ctx context.Context, id uuid.UUID, stats RunStats) error {
	return s.finishRun(id, RunComplete, stats, "")
}

func (s *MemoryStore) FailSyncRun(ctx context.Context, id uuid.UUID, stats RunStats, reason string) error {
	return s.finishRun(id, RunFailed, stats, reason)
}

func (s *MemoryStore) finishRun(id uuid.UUID, status RunStatus, stats RunStats, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return eris.Errorf("memory: no sync run %s", id)
	}
	now := time.Now().UTC()
	run.Status = status
	run.RunStats = stats
	run.CompletedAt = &now
	run.Error = reason
	return nil
}

func (s *MemoryStore) GetSyncRun(ctx context.Context, id uuid.UUID) (*SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, nil
	}
	cp := *run
	return &cp, nil
}

func (s *MemoryStore) LastSyncRun(ctx context.Context, kind record.Kind) (*SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var last *SyncRun
	for _, run := range s.runs {
		if run.Kind != kind {
			continue
		}
		if last == nil || run.StartedAt.After(last.StartedAt) {
			last = run
		}
	}
	if last == nil {
		return nil, nil
	}
	cp := *last
	return &cp, nil
}

func (s *MemoryStore) ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]SyncRun, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, *run)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Count returns the number of stored records for a kind (test helper).
func (s *MemoryStore) Count(kind record.Kind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[kind])
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }
func (s *MemoryStore) Ping(ctx context.Context) error    { return nil }
func (s *MemoryStore) Close() error                      { return nil }
