package store

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/corpsearch-cli/internal/db"
	"github.com/sells-group/corpsearch-cli/internal/record"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// recordTables maps each kind to its corp_data table.
var recordTables = map[record.Kind]string{
	record.KindEntity:      "corp_data.entities",
	record.KindFictitious:  "corp_data.fictitious_names",
	record.KindPartnership: "corp_data.partnerships",
}

// recordColumns is the shared column set; all three kind tables are
// identical so one upsert and one scan path serve them all.
var recordColumns = []string{
	"doc_number", "name", "normalized_name", "status",
	"filed_date", "effective_date", "cancel_date", "expire_date",
	"prin_addr1", "prin_addr2", "prin_city", "prin_state", "prin_zip",
	"mail_addr1", "mail_addr2", "mail_city", "mail_state", "mail_zip",
	"registered_agent", "owner_name", "county", "partner_count",
	"last_updated",
}

// PostgresStore implements Store over pgx.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests with pgxmock).
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) UpsertRecords(ctx context.Context, kind record.Kind, recs []StoredRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	table, ok := recordTables[kind]
	if !ok {
		return 0, eris.Errorf("postgres: no table for kind %s", kind)
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{
			r.DocumentNumber, r.Name, r.NormalizedKey, r.Status,
			r.FiledDate, r.EffectiveDate, r.CancelDate, r.ExpireDate,
			r.Principal.Line1, r.Principal.Line2, r.Principal.City, r.Principal.State, r.Principal.Zip,
			r.Mailing.Line1, r.Mailing.Line2, r.Mailing.City, r.Mailing.State, r.Mailing.Zip,
			r.RegisteredAgent, r.OwnerName, r.County, r.PartnerCount,
			now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        table,
		Columns:      recordColumns,
		ConflictKeys: []string{"doc_number"},
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: upsert %d records into %s", len(recs), table)
	}
	return n, nil
}

func (s *PostgresStore) FindByNormalizedPrefix(ctx context.Context, kind record.Kind, key string, limit int) ([]StoredRecord, error) {
	table, ok := recordTables[kind]
	if !ok {
		return nil, eris.Errorf("postgres: no table for kind %s", kind)
	}
	if key == "" || limit <= 0 {
		return nil, nil
	}

	// Normalized keys contain only [A-Z0-9 ], so the key needs no LIKE
	// escaping. The text_pattern_ops index keeps this a range scan.
	sql := `SELECT doc_number, name, normalized_name, status,
	        filed_date, effective_date, cancel_date, expire_date,
	        prin_addr1, prin_addr2, prin_city, prin_state, prin_zip,
	        mail_addr1, mail_addr2, mail_city, mail_state, mail_zip,
	        registered_agent, owner_name, county, partner_count, last_updated
	        FROM ` + tableSQL(table) + ` WHERE normalized_name LIKE $1 || '%' LIMIT $2`

	rows, err := s.pool.Query(ctx, sql, key, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: prefix search %s", table)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		r := StoredRecord{}
		r.Kind = kind
		if err := rows.Scan(
			&r.DocumentNumber, &r.Name, &r.NormalizedKey, &r.Status,
			&r.FiledDate, &r.EffectiveDate, &r.CancelDate, &r.ExpireDate,
			&r.Principal.Line1, &r.Principal.Line2, &r.Principal.City, &r.Principal.State, &r.Principal.Zip,
			&r.Mailing.Line1, &r.Mailing.Line2, &r.Mailing.City, &r.Mailing.State, &r.Mailing.Zip,
			&r.RegisteredAgent, &r.OwnerName, &r.County, &r.PartnerCount, &r.LastUpdated,
		); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan record from %s", table)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateSyncRun(ctx context.Context, kind record.Kind, runType RunType) (*SyncRun, error) {
	run := &SyncRun{
		ID:        uuid.New(),
		Kind:      kind,
		RunType:   runType,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO corp_data.sync_runs (id, kind, run_type, status, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, string(run.Kind), string(run.RunType), string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: create sync run for %s", kind)
	}
	return run, nil
}

func (s *PostgresStore) CompleteSyncRun(ctx context.Context, id uuid.UUID, stats RunStats) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE corp_data.sync_runs
		 SET status = 'complete', completed_at = now(),
		     processed = $1, upserted = $2, errors = $3
		 WHERE id = $4`,
		stats.Processed, stats.Upserted, stats.Errors, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete sync run %s", id)
	}
	return nil
}

func (s *PostgresStore) FailSyncRun(ctx context.Context, id uuid.UUID, stats RunStats, reason string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE corp_data.sync_runs
		 SET status = 'failed', completed_at = now(),
		     processed = $1, upserted = $2, errors = $3, error = $4
		 WHERE id = $5`,
		stats.Processed, stats.Upserted, stats.Errors, reason, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail sync run %s", id)
	}
	return nil
}

const syncRunSelect = `SELECT id, kind, run_type, status, processed, upserted, errors,
       started_at, completed_at, error FROM corp_data.sync_runs`

func (s *PostgresStore) GetSyncRun(ctx context.Context, id uuid.UUID) (*SyncRun, error) {
	row := s.pool.QueryRow(ctx, syncRunSelect+` WHERE id = $1`, id)
	run, err := scanSyncRun(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get sync run %s", id)
	}
	return run, nil
}

func (s *PostgresStore) LastSyncRun(ctx context.Context, kind record.Kind) (*SyncRun, error) {
	row := s.pool.QueryRow(ctx,
		syncRunSelect+` WHERE kind = $1 ORDER BY started_at DESC LIMIT 1`,
		string(kind),
	)
	run, err := scanSyncRun(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: last sync run for %s", kind)
	}
	return run, nil
}

func (s *PostgresStore) ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, syncRunSelect+` ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sync runs")
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan sync run")
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanSyncRun(row pgx.Row) (*SyncRun, error) {
	var run SyncRun
	var kind, runType, status string
	var errMsg *string
	if err := row.Scan(
		&run.ID, &kind, &runType, &status,
		&run.Processed, &run.Upserted, &run.Errors,
		&run.StartedAt, &run.CompletedAt, &errMsg,
	); err != nil {
		return nil, err
	}
	run.Kind = record.Kind(kind)
	run.RunType = RunType(runType)
	run.Status = RunStatus(status)
	if errMsg != nil {
		run.Error = *errMsg
	}
	return &run, nil
}

// Migrate runs all pending SQL migrations in lexicographic order under an
// advisory lock so overlapping deploys cannot race.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "store.migrate"))

	if _, err := s.pool.Exec(ctx, "SELECT pg_advisory_lock(7421100)"); err != nil {
		return eris.Wrap(err, "postgres: acquire migration advisory lock")
	}
	defer func() {
		if _, err := s.pool.Exec(ctx, "SELECT pg_advisory_unlock(7421100)"); err != nil {
			log.Warn("failed to release migration advisory lock", zap.Error(err))
		}
	}()

	if err := s.ensureMigrationTable(ctx); err != nil {
		return err
	}

	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return eris.Wrap(err, "postgres: read migration dir")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		fileName := entry.Name()
		if applied[fileName] {
			continue
		}

		data, err := migrationFS.ReadFile("migrations/" + fileName)
		if err != nil {
			return eris.Wrapf(err, "postgres: read migration %s", fileName)
		}

		log.Info("applying migration", zap.String("file", fileName))

		if _, err := s.pool.Exec(ctx, string(data)); err != nil {
			return eris.Wrapf(err, "postgres: apply migration %s", fileName)
		}
		if _, err := s.pool.Exec(ctx,
			"INSERT INTO corp_data.schema_migrations (filename, applied_at) VALUES ($1, now())",
			fileName,
		); err != nil {
			return eris.Wrapf(err, "postgres: record migration %s", fileName)
		}
	}
	return nil
}

func (s *PostgresStore) ensureMigrationTable(ctx context.Context) error {
	sql := `
		CREATE SCHEMA IF NOT EXISTS corp_data;
		CREATE TABLE IF NOT EXISTS corp_data.schema_migrations (
			id         SERIAL PRIMARY KEY,
			filename   TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`
	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return eris.Wrap(err, "postgres: ensure migration table")
	}
	return nil
}

func (s *PostgresStore) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, "SELECT filename FROM corp_data.schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var fileName string
		if err := rows.Scan(&fileName); err != nil {
			return nil, eris.Wrap(err, "postgres: scan migration row")
		}
		applied[fileName] = true
	}
	return applied, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// tableSQL quotes a schema-qualified table name.
func tableSQL(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}
