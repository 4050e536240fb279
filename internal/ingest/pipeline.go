// Package ingest streams a fixed-width extract file into the record store:
// parse, normalize, batched upsert, with the run tracked in the sync ledger.
package ingest

import (
	"bufio"
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/corpsearch-cli/internal/name"
	"github.com/sells-group/corpsearch-cli/internal/record"
	"github.com/sells-group/corpsearch-cli/internal/store"
)

// Options tunes the pipeline. Zero values get defaults.
type Options struct {
	Workers        int   // concurrent upsert workers
	BatchSize      int   // records per upsert batch
	ErrorLogSample int   // verbose-log at most this many errors per run
	ProgressEvery  int64 // emit a progress line every N processed lines
}

func (o *Options) withDefaults() Options {
	out := *o
	if out.Workers <= 0 {
		out.Workers = 6
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 500
	}
	if out.ErrorLogSample <= 0 {
		out.ErrorLogSample = 20
	}
	if out.ProgressEvery <= 0 {
		out.ProgressEvery = 1000
	}
	return out
}

// Pipeline ingests one record kind. The same machinery serves all three
// kinds; only the layout and target tables differ.
type Pipeline struct {
	store  store.Store
	rules  name.Rules
	layout *record.Layout
	opts   Options
}

// New creates a Pipeline for the layout's record kind.
func New(st store.Store, rules name.Rules, layout *record.Layout, opts Options) *Pipeline {
	return &Pipeline{
		store:  st,
		rules:  rules,
		layout: layout,
		opts:   opts.withDefaults(),
	}
}

type sourceLine struct {
	num  int64
	text string
}

// Run streams src line by line through parse, normalize, and batched
// upserts, and records the outcome in the sync ledger.
//
// Malformed lines and per-batch store failures are counted and skipped; the
// only fatal failure classes are a source read error and cancellation, both
// of which mark the run failed. A failed run is re-run on the same or
// corrected file; upserts make repeats safe. The returned SyncRun carries
// the final counts even when err is non-nil.
func (p *Pipeline) Run(ctx context.Context, src io.Reader, runType store.RunType) (*store.SyncRun, error) {
	kind := p.layout.Kind
	log := zap.L().With(
		zap.String("component", "ingest.pipeline"),
		zap.String("kind", kind.String()),
		zap.String("run_type", string(runType)),
	)

	run, err := p.store.CreateSyncRun(ctx, kind, runType)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: create sync run for %s", kind)
	}
	log.Info("run started", zap.String("run_id", run.ID.String()), zap.String("layout_version", p.layout.Version))

	var processed, upserted, errCount, errLogged atomic.Int64

	// Workers share the parent context, not the group context: one batch's
	// store failure is counted, never propagated, so it must not cancel
	// the rest of the run.
	g := new(errgroup.Group)
	g.SetLimit(p.opts.Workers)

	flush := func(batch []sourceLine) {
		g.Go(func() error {
			p.processBatch(ctx, log, batch, &upserted, &errCount, &errLogged)
			return nil
		})
	}

	progress := rate.NewLimiter(rate.Every(2*time.Second), 1)

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var batch []sourceLine
	var lineNum int64
	cancelled := false

	for scanner.Scan() {
		// Cancellation is honored between batches, never mid-record.
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		lineNum++
		processed.Add(1)
		batch = append(batch, sourceLine{num: lineNum, text: scanner.Text()})

		if len(batch) >= p.opts.BatchSize {
			flush(batch)
			batch = nil
		}

		if lineNum%p.opts.ProgressEvery == 0 && progress.Allow() {
			log.Info("progress",
				zap.Int64("processed", processed.Load()),
				zap.Int64("upserted", upserted.Load()),
				zap.Int64("errors", errCount.Load()),
			)
		}
	}

	if len(batch) > 0 && !cancelled {
		flush(batch)
	}

	_ = g.Wait()

	stats := store.RunStats{
		Processed: processed.Load(),
		Upserted:  upserted.Load(),
		Errors:    errCount.Load(),
	}

	// Ledger updates below use Background: the run context may already be
	// cancelled and the outcome still has to be recorded.
	ledgerCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cancelled {
		if failErr := p.store.FailSyncRun(ledgerCtx, run.ID, stats, "cancelled"); failErr != nil {
			log.Error("failed to record cancelled run", zap.Error(failErr))
		}
		log.Warn("run cancelled", zap.Int64("processed", stats.Processed))
		p.applyFinal(run, store.RunFailed, stats, "cancelled")
		return run, eris.Wrap(ctx.Err(), "ingest: run cancelled")
	}

	if scanErr := scanner.Err(); scanErr != nil {
		// A source read failure means no further progress is possible;
		// this is the one class that fails the whole run.
		if failErr := p.store.FailSyncRun(ledgerCtx, run.ID, stats, scanErr.Error()); failErr != nil {
			log.Error("failed to record failed run", zap.Error(failErr))
		}
		log.Error("source read failed", zap.Error(scanErr), zap.Int64("processed", stats.Processed))
		p.applyFinal(run, store.RunFailed, stats, scanErr.Error())
		return run, eris.Wrap(scanErr, "ingest: read source")
	}

	if err := p.store.CompleteSyncRun(ledgerCtx, run.ID, stats); err != nil {
		return run, eris.Wrapf(err, "ingest: complete sync run %s", run.ID)
	}
	log.Info("run complete",
		zap.Int64("processed", stats.Processed),
		zap.Int64("upserted", stats.Upserted),
		zap.Int64("errors", stats.Errors),
	)
	p.applyFinal(run, store.RunComplete, stats, "")
	return run, nil
}

func (p *Pipeline) applyFinal(run *store.SyncRun, status store.RunStatus, stats store.RunStats, reason string) {
	now := time.Now().UTC()
	run.Status = status
	run.RunStats = stats
	run.CompletedAt = &now
	run.Error = reason
}

// processBatch parses and normalizes a batch of lines and upserts the
// survivors. Every failure is counted; verbose logging is capped so a
// corrupt file cannot flood the log.
func (p *Pipeline) processBatch(ctx context.Context, log *zap.Logger, batch []sourceLine, upserted, errCount, errLogged *atomic.Int64) {
	recs := make([]store.StoredRecord, 0, len(batch))
	for _, line := range batch {
		rec, perr := record.Parse(p.layout, line.num, line.text)
		if perr != nil {
			errCount.Add(1)
			if errLogged.Add(1) <= int64(p.opts.ErrorLogSample) {
				log.Warn("parse error",
					zap.Int64("line", perr.Line),
					zap.String("reason", string(perr.Reason)),
					zap.String("detail", perr.Detail),
				)
			}
			continue
		}
		recs = append(recs, store.StoredRecord{
			Record:        *rec,
			NormalizedKey: name.Normalize(p.rules, rec.Name),
		})
	}

	if len(recs) == 0 {
		return
	}

	if _, err := p.store.UpsertRecords(ctx, p.layout.Kind, recs); err != nil {
		errCount.Add(int64(len(recs)))
		if errLogged.Add(1) <= int64(p.opts.ErrorLogSample) {
			log.Warn("upsert batch failed", zap.Int("records", len(recs)), zap.Error(err))
		}
		return
	}
	upserted.Add(int64(len(recs)))
}
