package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cdr-analyzer/internal/cdr"
	"cdr-analyzer/pkg/utils"
)

// Postgres implements Store over database/sql with the pgx stdlib driver.
//
// The timestamp column is TEXT holding ISO-8601 strings; range filters are
// plain string comparisons, which order correctly for normalized values.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the call_records schema. Idempotent; runs at service start
// inside one transaction.
func (p *Postgres) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS call_records (
  unique_id     TEXT PRIMARY KEY,
  "timestamp"   TEXT NOT NULL,
  caller_number TEXT,
  extension     TEXT,
  status        TEXT NOT NULL CHECK (status IN ('ANSWERED', 'MISSED')),
  duration      INTEGER NOT NULL DEFAULT 0,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`CREATE INDEX IF NOT EXISTS idx_call_records_timestamp ON call_records ("timestamp")`,
		`CREATE INDEX IF NOT EXISTS idx_call_records_status ON call_records (status)`,
		`CREATE INDEX IF NOT EXISTS idx_call_records_caller_number ON call_records (caller_number)`,
		`CREATE INDEX IF NOT EXISTS idx_call_records_extension ON call_records (extension)`,
	}
	return utils.WithTx(ctx, p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate call_records: %w", err)
			}
		}
		return nil
	})
}

func (p *Postgres) Insert(ctx context.Context, rec cdr.CallRecord) (bool, error) {
	const q = `
INSERT INTO call_records (unique_id, "timestamp", caller_number, extension, status, duration)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (unique_id) DO NOTHING
`
	res, err := p.db.ExecContext(ctx, q,
		rec.UniqueID,
		rec.Timestamp,
		nullIfEmpty(rec.CallerNumber),
		nullIfEmpty(rec.Extension),
		string(rec.Status),
		rec.Duration,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *Postgres) List(ctx context.Context, f Filter) ([]cdr.CallRecord, int, error) {
	f = f.normalized()

	where := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.From != "" {
		where = append(where, `"timestamp" >= `+arg(f.From))
	}
	if f.To != "" {
		where = append(where, `"timestamp" <= `+arg(f.To))
	}
	if f.Search != "" {
		where = append(where, `caller_number LIKE `+arg("%"+f.Search+"%"))
	}

	whereSQL := "TRUE"
	if len(where) > 0 {
		whereSQL = strings.Join(where, " AND ")
	}

	var total int
	countQ := `SELECT COUNT(*) FROM call_records WHERE ` + whereSQL
	if err := p.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pageQ := `
SELECT unique_id, "timestamp", caller_number, extension, status, duration
FROM call_records
WHERE ` + whereSQL + `
ORDER BY "timestamp" DESC
LIMIT ` + arg(f.Limit) + ` OFFSET ` + arg((f.Page-1)*f.Limit)

	rows, err := p.db.QueryContext(ctx, pageQ, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (p *Postgres) ClearAll(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM call_records`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (p *Postgres) ListRange(ctx context.Context, from, to string) ([]cdr.CallRecord, error) {
	const q = `
SELECT unique_id, "timestamp", caller_number, extension, status, duration
FROM call_records
WHERE "timestamp" >= $1 AND "timestamp" <= $2
ORDER BY "timestamp" ASC
`
	return p.query(ctx, q, from, to)
}

func (p *Postgres) ListAnswered(ctx context.Context, from, to string) ([]cdr.CallRecord, error) {
	const q = `
SELECT unique_id, "timestamp", caller_number, extension, status, duration
FROM call_records
WHERE status = 'ANSWERED'
  AND extension IS NOT NULL
  AND "timestamp" >= $1 AND "timestamp" <= $2
ORDER BY "timestamp" ASC
`
	return p.query(ctx, q, from, to)
}

func (p *Postgres) ListWithCaller(ctx context.Context, from, to string) ([]cdr.CallRecord, error) {
	// Bounds compare calendar dates, not full timestamps, so a "to" bound of
	// today includes calls made later today.
	const q = `
SELECT unique_id, "timestamp", caller_number, extension, status, duration
FROM call_records
WHERE caller_number IS NOT NULL
  AND caller_number <> ''
  AND substr("timestamp", 1, 10) >= substr($1, 1, 10)
  AND substr("timestamp", 1, 10) <= substr($2, 1, 10)
ORDER BY "timestamp" ASC
`
	return p.query(ctx, q, from, to)
}

func (p *Postgres) query(ctx context.Context, q string, args ...any) ([]cdr.CallRecord, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]cdr.CallRecord, error) {
	out := make([]cdr.CallRecord, 0)
	for rows.Next() {
		var (
			rec       cdr.CallRecord
			caller    sql.NullString
			extension sql.NullString
			status    string
		)
		if err := rows.Scan(&rec.UniqueID, &rec.Timestamp, &caller, &extension, &status, &rec.Duration); err != nil {
			return nil, err
		}
		rec.CallerNumber = caller.String
		rec.Extension = extension.String
		rec.Status = cdr.Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
