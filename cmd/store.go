package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/corpsearch-cli/internal/search"
	"github.com/sells-group/corpsearch-cli/internal/store"
)

// initStore opens the configured store driver.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "corpsearch.db"
		}
		return store.NewSQLite(dsn)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// searchOptions maps config onto the search service's bounds.
func searchOptions() search.Options {
	opts := search.DefaultOptions()
	if cfg.Search.EntityLimit > 0 {
		opts.PerKindLimits["entity"] = cfg.Search.EntityLimit
	}
	if cfg.Search.FictitiousLimit > 0 {
		opts.PerKindLimits["fictitious"] = cfg.Search.FictitiousLimit
	}
	if cfg.Search.PartnershipLimit > 0 {
		opts.PerKindLimits["partnership"] = cfg.Search.PartnershipLimit
	}
	if cfg.Search.GlobalCap > 0 {
		opts.GlobalCap = cfg.Search.GlobalCap
	}
	if cfg.Search.LookupTimeoutMS > 0 {
		opts.LookupTimeout = time.Duration(cfg.Search.LookupTimeoutMS) * time.Millisecond
	}
	return opts
}
