package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/kwan3217/globetrotter/internal/schema"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres stores records in a PostgreSQL database via lib/pq.
type Postgres struct {
	db *sql.DB
	q  querier
}

// OpenPostgres connects with a lib/pq DSN and pings the server.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	return &Postgres{db: db, q: db}, nil
}

var pgDDL = []string{
	`CREATE TABLE IF NOT EXISTS files (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		started TIMESTAMPTZ NOT NULL,
		finished TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS epochs (
		id BIGSERIAL PRIMARY KEY,
		week BIGINT NOT NULL,
		itow DOUBLE PRECISION NOT NULL,
		utc TIMESTAMPTZ NOT NULL,
		UNIQUE (week, itow)
	)`,
	`CREATE TABLE IF NOT EXISTS records (
		id BIGSERIAL PRIMARY KEY,
		file_id BIGINT NOT NULL REFERENCES files(id),
		epoch_id BIGINT REFERENCES epochs(id),
		protocol TEXT NOT NULL,
		packet TEXT NOT NULL,
		file_offset BIGINT NOT NULL,
		fields JSONB NOT NULL,
		blocks JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS records_packet_idx ON records (packet)`,
	`CREATE INDEX IF NOT EXISTS records_epoch_idx ON records (epoch_id)`,
}

func (p *Postgres) EnsureTables(ctx context.Context) error {
	for _, ddl := range pgDDL {
		if _, err := p.q.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("store: ensure tables: %w", err)
		}
	}
	return nil
}

func (p *Postgres) RegisterFile(ctx context.Context, name string, started time.Time) (int64, bool, error) {
	if id, ok, err := p.SelectExistingID(ctx, "files", map[string]any{"name": name}); err != nil {
		return 0, false, err
	} else if ok {
		return id, true, nil
	}
	var id int64
	err := p.q.QueryRowContext(ctx,
		`INSERT INTO files (name, started) VALUES ($1, $2) RETURNING id`,
		name, started).Scan(&id)
	if err != nil {
		return 0, false, fmt.Errorf("store: register file %s: %w", name, err)
	}
	return id, false, nil
}

func (p *Postgres) FinishFile(ctx context.Context, id int64, finished time.Time) error {
	_, err := p.q.ExecContext(ctx,
		`UPDATE files SET finished = $1 WHERE id = $2`, finished, id)
	if err != nil {
		return fmt.Errorf("store: finish file %d: %w", id, err)
	}
	return nil
}

func (p *Postgres) EnsureEpoch(ctx context.Context, week int64, itow float64, utc time.Time) (int64, error) {
	var id int64
	err := p.q.QueryRowContext(ctx,
		`INSERT INTO epochs (week, itow, utc) VALUES ($1, $2, $3)
		 ON CONFLICT (week, itow) DO UPDATE SET utc = EXCLUDED.utc
		 RETURNING id`,
		week, itow, utc).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: ensure epoch %d/%v: %w", week, itow, err)
	}
	return id, nil
}

func (p *Postgres) SelectExistingID(ctx context.Context, table string, match map[string]any) (int64, bool, error) {
	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	conds := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		conds[i] = fmt.Sprintf("%s = $%d", k, i+1)
		args[i] = match[k]
	}
	query := fmt.Sprintf(`SELECT id FROM %s WHERE %s`, table, strings.Join(conds, " AND "))
	var id int64
	err := p.q.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: select from %s: %w", table, err)
	}
	return id, true, nil
}

func (p *Postgres) InsertRecord(ctx context.Context, rec *schema.Record, meta Meta) (int64, error) {
	fields, err := json.Marshal(sanitizeFields(rec.Fields))
	if err != nil {
		return 0, fmt.Errorf("store: marshal %s fields: %w", rec.Packet, err)
	}
	var blocks any
	if b := sanitizeBlocks(rec.Blocks); b != nil {
		raw, err := json.Marshal(b)
		if err != nil {
			return 0, fmt.Errorf("store: marshal %s blocks: %w", rec.Packet, err)
		}
		blocks = raw
	}
	var epoch any
	if meta.EpochID != 0 {
		epoch = meta.EpochID
	}
	var id int64
	err = p.q.QueryRowContext(ctx,
		`INSERT INTO records (file_id, epoch_id, protocol, packet, file_offset, fields, blocks)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		meta.FileID, epoch, rec.Protocol, rec.Packet, rec.Offset, fields, blocks).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store: insert %s: %w", rec.Packet, err)
	}
	return id, nil
}

func (p *Postgres) WithTransaction(ctx context.Context, fn func(Store) error) error {
	if p.db == nil {
		// Already inside a transaction; run in place.
		return fn(p)
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err := fn(&Postgres{q: tx}); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
