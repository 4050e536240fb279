// Package search answers "is this name available?" by merging normalized
// prefix lookups across the three record stores.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/corpsearch-cli/internal/name"
	"github.com/sells-group/corpsearch-cli/internal/record"
	"github.com/sells-group/corpsearch-cli/internal/store"
)

// Match is one conflicting record, trimmed to what a reviewer needs to
// assess the conflict.
type Match struct {
	Kind           record.Kind `json:"kind"`
	DocumentNumber string      `json:"document_number"`
	Name           string      `json:"name"`
	Status         string      `json:"status"`
	FiledDate      *time.Time  `json:"filed_date,omitempty"`
	EffectiveDate  *time.Time  `json:"effective_date,omitempty"`
}

// Result is an advisory answer, not a legal determination: Available only
// says no stored record reduced to a conflicting key. CheckedKinds lists
// the kinds whose lookup actually answered; a kind missing from it timed
// out or failed and its matches are simply absent.
type Result struct {
	Query         string        `json:"query"`
	NormalizedKey string        `json:"normalized_key"`
	Available     bool          `json:"available"`
	Matches       []Match       `json:"matches"`
	CheckedKinds  []record.Kind `json:"checked_kinds"`
}

// Options bounds the fan-out. Per-kind limits reflect relative corpus
// sizes; the entity extract dwarfs the other two.
type Options struct {
	PerKindLimits map[record.Kind]int
	GlobalCap     int
	LookupTimeout time.Duration
}

// DefaultOptions returns the production limits.
func DefaultOptions() Options {
	return Options{
		PerKindLimits: map[record.Kind]int{
			record.KindEntity:      30,
			record.KindFictitious:  10,
			record.KindPartnership: 10,
		},
		GlobalCap:     50,
		LookupTimeout: 500 * time.Millisecond,
	}
}

// Service performs availability searches. Safe for concurrent use and safe
// to call while an ingestion run is upserting; lookups see whole records
// either before or after any given upsert.
type Service struct {
	store store.Store
	rules name.Rules
	opts  Options
	rank  Ranker
}

// New creates a Service. A nil ranker gets ByRecency.
func New(st store.Store, rules name.Rules, opts Options, rank Ranker) *Service {
	if opts.PerKindLimits == nil {
		opts = DefaultOptions()
	}
	if opts.GlobalCap <= 0 {
		opts.GlobalCap = 50
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 500 * time.Millisecond
	}
	if rank == nil {
		rank = ByRecency
	}
	return &Service{store: st, rules: rules, opts: opts, rank: rank}
}

// Search normalizes the query and fans out to all three stores. A query
// that normalizes to empty cannot be evaluated and is never reported as a
// conflict. Per-kind lookup failures degrade the result rather than
// failing it.
func (s *Service) Search(ctx context.Context, rawQuery string) (*Result, error) {
	res := &Result{
		Query:         rawQuery,
		NormalizedKey: name.Normalize(s.rules, rawQuery),
		Available:     true,
		Matches:       []Match{},
		CheckedKinds:  []record.Kind{},
	}
	if res.NormalizedKey == "" {
		return res, nil
	}

	log := zap.L().With(zap.String("component", "search.service"))
	kinds := record.Kinds()

	found := make([][]store.StoredRecord, len(kinds))
	checked := make([]bool, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			limit := s.opts.PerKindLimits[kind]
			if limit <= 0 {
				checked[i] = true
				return nil
			}
			lookupCtx, cancel := context.WithTimeout(gctx, s.opts.LookupTimeout)
			defer cancel()

			recs, err := s.store.FindByNormalizedPrefix(lookupCtx, kind, res.NormalizedKey, limit)
			if err != nil {
				// Degrade: this kind drops out of CheckedKinds and the
				// query still answers from the rest.
				log.Warn("lookup failed", zap.String("kind", kind.String()), zap.Error(err))
				return nil
			}
			found[i] = recs
			checked[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, kind := range kinds {
		if checked[i] {
			res.CheckedKinds = append(res.CheckedKinds, kind)
		}
		for _, r := range found[i] {
			res.Matches = append(res.Matches, Match{
				Kind:           r.Kind,
				DocumentNumber: r.DocumentNumber,
				Name:           r.Name,
				Status:         r.Status,
				FiledDate:      r.FiledDate,
				EffectiveDate:  r.EffectiveDate,
			})
		}
	}

	s.rank(res.Matches)
	if len(res.Matches) > s.opts.GlobalCap {
		res.Matches = res.Matches[:s.opts.GlobalCap]
	}
	res.Available = len(res.Matches) == 0
	return res, nil
}
