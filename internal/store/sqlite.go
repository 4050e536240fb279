package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/corpsearch-cli/internal/record"
)

// SQLiteStore implements Store using modernc.org/sqlite, for
// single-machine runs where standing up Postgres is not worth it. Same
// contract as PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// sqliteTimeLayout is fixed-width so lexical ORDER BY on timestamp
// columns matches chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// sqliteTables maps each kind to its table.
var sqliteTables = map[record.Kind]string{
	record.KindEntity:      "entities",
	record.KindFictitious:  "fictitious_names",
	record.KindPartnership: "partnerships",
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sdb.Exec(pragma); err != nil {
			sdb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sdb}, nil
}

const sqliteRecordTable = `(
	doc_number       TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	normalized_name  TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT '',
	filed_date       TEXT,
	effective_date   TEXT,
	cancel_date      TEXT,
	expire_date      TEXT,
	prin_addr1       TEXT NOT NULL DEFAULT '',
	prin_addr2       TEXT NOT NULL DEFAULT '',
	prin_city        TEXT NOT NULL DEFAULT '',
	prin_state       TEXT NOT NULL DEFAULT '',
	prin_zip         TEXT NOT NULL DEFAULT '',
	mail_addr1       TEXT NOT NULL DEFAULT '',
	mail_addr2       TEXT NOT NULL DEFAULT '',
	mail_city        TEXT NOT NULL DEFAULT '',
	mail_state       TEXT NOT NULL DEFAULT '',
	mail_zip         TEXT NOT NULL DEFAULT '',
	registered_agent TEXT NOT NULL DEFAULT '',
	owner_name       TEXT NOT NULL DEFAULT '',
	county           TEXT NOT NULL DEFAULT '',
	partner_count    INTEGER NOT NULL DEFAULT 0,
	last_updated     TEXT NOT NULL DEFAULT ''
)`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entities ` + sqliteRecordTable,
		`CREATE TABLE IF NOT EXISTS fictitious_names ` + sqliteRecordTable,
		`CREATE TABLE IF NOT EXISTS partnerships ` + sqliteRecordTable,
		`CREATE INDEX IF NOT EXISTS idx_entities_normalized ON entities(normalized_name)`,
		`CREATE INDEX IF NOT EXISTS idx_fictitious_normalized ON fictitious_names(normalized_name)`,
		`CREATE INDEX IF NOT EXISTS idx_partnerships_normalized ON partnerships(normalized_name)`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id           TEXT PRIMARY KEY,
			kind         TEXT NOT NULL,
			run_type     TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'running',
			processed    INTEGER NOT NULL DEFAULT 0,
			upserted     INTEGER NOT NULL DEFAULT 0,
			errors       INTEGER NOT NULL DEFAULT 0,
			started_at   TEXT NOT NULL,
			completed_at TEXT,
			error        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_kind_started ON sync_runs(kind, started_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrap(err, "sqlite: migrate")
		}
	}
	return nil
}

const sqliteUpsert = ` (doc_number, name, normalized_name, status,
	filed_date, effective_date, cancel_date, expire_date,
	prin_addr1, prin_addr2, prin_city, prin_state, prin_zip,
	mail_addr1, mail_addr2, mail_city, mail_state, mail_zip,
	registered_agent, owner_name, county, partner_count, last_updated)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(doc_number) DO UPDATE SET
	name=excluded.name, normalized_name=excluded.normalized_name,
	status=excluded.status, filed_date=excluded.filed_date,
	effective_date=excluded.effective_date, cancel_date=excluded.cancel_date,
	expire_date=excluded.expire_date,
	prin_addr1=excluded.prin_addr1, prin_addr2=excluded.prin_addr2,
	prin_city=excluded.prin_city, prin_state=excluded.prin_state,
	prin_zip=excluded.prin_zip,
	mail_addr1=excluded.mail_addr1, mail_addr2=excluded.mail_addr2,
	mail_city=excluded.mail_city, mail_state=excluded.mail_state,
	mail_zip=excluded.mail_zip,
	registered_agent=excluded.registered_agent, owner_name=excluded.owner_name,
	county=excluded.county, partner_count=excluded.partner_count,
	last_updated=excluded.last_updated`

func (s *SQLiteStore) UpsertRecords(ctx context.Context, kind record.Kind, recs []StoredRecord) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	table, ok := sqliteTables[kind]
	if !ok {
		return 0, eris.Errorf("sqlite: no table for kind %s", kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+table+sqliteUpsert)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(sqliteTimeLayout)
	for _, r := range recs {
		if _, err := stmt.ExecContext(ctx,
			r.DocumentNumber, r.Name, r.NormalizedKey, r.Status,
			dateText(r.FiledDate), dateText(r.EffectiveDate),
			dateText(r.CancelDate), dateText(r.ExpireDate),
			r.Principal.Line1, r.Principal.Line2, r.Principal.City, r.Principal.State, r.Principal.Zip,
			r.Mailing.Line1, r.Mailing.Line2, r.Mailing.City, r.Mailing.State, r.Mailing.Zip,
			r.RegisteredAgent, r.OwnerName, r.County, r.PartnerCount, now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert %s into %s", r.DocumentNumber, table)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return int64(len(recs)), nil
}

func (s *SQLiteStore) FindByNormalizedPrefix(ctx context.Context, kind record.Kind, key string, limit int) ([]StoredRecord, error) {
	table, ok := sqliteTables[kind]
	if !ok {
		return nil, eris.Errorf("sqlite: no table for kind %s", kind)
	}
	if key == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT doc_number, name, normalized_name, status,
		 filed_date, effective_date, cancel_date, expire_date,
		 prin_addr1, prin_addr2, prin_city, prin_state, prin_zip,
		 mail_addr1, mail_addr2, mail_city, mail_state, mail_zip,
		 registered_agent, owner_name, county, partner_count, last_updated
		 FROM `+table+` WHERE normalized_name LIKE ? || '%' LIMIT ?`,
		key, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: prefix search %s", table)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		r := StoredRecord{}
		r.Kind = kind
		var filed, effective, cancel, expire sql.NullString
		var updated string
		if err := rows.Scan(
			&r.DocumentNumber, &r.Name, &r.NormalizedKey, &r.Status,
			&filed, &effective, &cancel, &expire,
			&r.Principal.Line1, &r.Principal.Line2, &r.Principal.City, &r.Principal.State, &r.Principal.Zip,
			&r.Mailing.Line1, &r.Mailing.Line2, &r.Mailing.City, &r.Mailing.State, &r.Mailing.Zip,
			&r.RegisteredAgent, &r.OwnerName, &r.County, &r.PartnerCount, &updated,
		); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan record from %s", table)
		}
		r.FiledDate = parseDateText(filed)
		r.EffectiveDate = parseDateText(effective)
		r.CancelDate = parseDateText(cancel)
		r.ExpireDate = parseDateText(expire)
		if t, err := time.Parse(sqliteTimeLayout, updated); err == nil {
			r.LastUpdated = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateSyncRun(ctx context.Context, kind record.Kind, runType RunType) (*SyncRun, error) {
	run := &SyncRun{
		ID:        uuid.New(),
		Kind:      kind,
		RunType:   runType,
		Status:    RunRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, kind, run_type, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID.String(), string(run.Kind), string(run.RunType), string(run.Status),
		run.StartedAt.Format(sqliteTimeLayout),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: create sync run for %s", kind)
	}
	return run, nil
}

func (s *SQLiteStore) CompleteSyncRun(ctx context.Context, id uuid.UUID, stats RunStats) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET status='complete', completed_at=?, processed=?, upserted=?, errors=? WHERE id=?`,
		time.Now().UTC().Format(sqliteTimeLayout), stats.Processed, stats.Upserted, stats.Errors, id.String(),
	)
	return eris.Wrapf(err, "sqlite: complete sync run %s", id)
}

func (s *SQLiteStore) FailSyncRun(ctx context.Context, id uuid.UUID, stats RunStats, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_runs SET status='failed', completed_at=?, processed=?, upserted=?, errors=?, error=? WHERE id=?`,
		time.Now().UTC().Format(sqliteTimeLayout), stats.Processed, stats.Upserted, stats.Errors, reason, id.String(),
	)
	return eris.Wrapf(err, "sqlite: fail sync run %s", id)
}

const sqliteSyncRunSelect = `SELECT id, kind, run_type, status, processed, upserted, errors,
	started_at, completed_at, error FROM sync_runs`

func (s *SQLiteStore) GetSyncRun(ctx context.Context, id uuid.UUID) (*SyncRun, error) {
	row := s.db.QueryRowContext(ctx, sqliteSyncRunSelect+` WHERE id = ?`, id.String())
	run, err := scanSQLiteSyncRun(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get sync run %s", id)
	}
	return run, nil
}

func (s *SQLiteStore) LastSyncRun(ctx context.Context, kind record.Kind) (*SyncRun, error) {
	row := s.db.QueryRowContext(ctx,
		sqliteSyncRunSelect+` WHERE kind = ? ORDER BY started_at DESC LIMIT 1`,
		string(kind),
	)
	run, err := scanSQLiteSyncRun(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: last sync run for %s", kind)
	}
	return run, nil
}

func (s *SQLiteStore) ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, sqliteSyncRunSelect+` ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sync runs")
	}
	defer rows.Close()

	var runs []SyncRun
	for rows.Next() {
		run, err := scanSQLiteSyncRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sync run")
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSyncRun(row rowScanner) (*SyncRun, error) {
	var run SyncRun
	var id, kind, runType, status, started string
	var completed, errMsg sql.NullString
	if err := row.Scan(
		&id, &kind, &runType, &status,
		&run.Processed, &run.Upserted, &run.Errors,
		&started, &completed, &errMsg,
	); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: bad sync run id %q", id)
	}
	run.ID = parsed
	run.Kind = record.Kind(kind)
	run.RunType = RunType(runType)
	run.Status = RunStatus(status)
	if t, err := time.Parse(sqliteTimeLayout, started); err == nil {
		run.StartedAt = t
	}
	if completed.Valid {
		if t, err := time.Parse(sqliteTimeLayout, completed.String); err == nil {
			run.CompletedAt = &t
		}
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	return &run, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// dateText formats a nullable date as YYYY-MM-DD for storage.
func dateText(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

func parseDateText(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s.String)
	if err != nil {
		return nil
	}
	return &t
}
