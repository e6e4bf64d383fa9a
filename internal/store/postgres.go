package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS packs (
	id         BIGSERIAL PRIMARY KEY,
	owner_id   BIGINT      NOT NULL,
	name       TEXT        NOT NULL UNIQUE,
	title      TEXT        NOT NULL,
	pack_type  TEXT        NOT NULL CHECK (pack_type IN ('regular', 'custom_emoji')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS packs_owner_idx ON packs (owner_id, id);
CREATE TABLE IF NOT EXISTS user_settings (
	user_id         BIGINT PRIMARY KEY,
	current_pack_id BIGINT REFERENCES packs (id) ON DELETE SET NULL
);
`

// PostgresConfig configures the connection pool.
type PostgresConfig struct {
	DSN      string
	MaxConns int
}

// Postgres is a Store backed by a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

// NewPostgres connects, pings and migrates the schema.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	poolConfig.HealthCheckPeriod = 30 * time.Second

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(connectCtx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) ListPacks(ctx context.Context, userID int64) ([]Pack, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, name, title, pack_type FROM packs WHERE owner_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list packs: %w", err)
	}
	packs, err := pgx.CollectRows(rows, scanPack)
	if err != nil {
		return nil, fmt.Errorf("list packs: %w", err)
	}
	return packs, nil
}

func (s *Postgres) CurrentPackID(ctx context.Context, userID int64) (int64, bool, error) {
	var id *int64
	err := s.pool.QueryRow(ctx,
		`SELECT current_pack_id FROM user_settings WHERE user_id = $1`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("current pack: %w", err)
	}
	if id == nil {
		return 0, false, nil
	}
	return *id, true, nil
}

func (s *Postgres) SetCurrentPackID(ctx context.Context, userID, packID int64) error {
	// The insert selects from packs so a foreign or missing pack writes nothing.
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO user_settings (user_id, current_pack_id)
		SELECT $1, id FROM packs WHERE id = $2 AND owner_id = $1
		ON CONFLICT (user_id) DO UPDATE SET current_pack_id = EXCLUDED.current_pack_id`,
		userID, packID)
	if err != nil {
		return fmt.Errorf("set current pack: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetPack(ctx, packID); err != nil {
			return err
		}
		return ErrNotOwner
	}
	return nil
}

func (s *Postgres) CreatePack(ctx context.Context, userID int64, name, title string, typ PackType) (int64, error) {
	if !typ.Valid() || name == "" {
		return 0, ErrInvalidPackRef
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO packs (owner_id, name, title, pack_type) VALUES ($1, $2, $3, $4) RETURNING id`,
		userID, name, title, string(typ)).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		return 0, fmt.Errorf("create pack: %w", err)
	}
	return id, nil
}

func (s *Postgres) GetPack(ctx context.Context, packID int64) (Pack, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, name, title, pack_type FROM packs WHERE id = $1`, packID)
	if err != nil {
		return Pack{}, fmt.Errorf("get pack: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPack)
	if errors.Is(err, pgx.ErrNoRows) {
		return Pack{}, ErrPackNotFound
	}
	if err != nil {
		return Pack{}, fmt.Errorf("get pack: %w", err)
	}
	return p, nil
}

// DeletePack clears the owner's pointer and removes the pack in one
// transaction.
func (s *Postgres) DeletePack(ctx context.Context, packID, userID int64) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM user_settings WHERE user_id = $1 AND current_pack_id = $2`, userID, packID)
		batch.Queue(`DELETE FROM packs WHERE id = $1 AND owner_id = $2`, packID, userID)

		results := tx.SendBatch(ctx, batch)
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("clear pointer: %w", err)
		}
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return fmt.Errorf("delete pack: %w", err)
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("delete pack: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrPackNotFound
		}
		return nil
	})
}

func (s *Postgres) CountPacks(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM packs WHERE owner_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count packs: %w", err)
	}
	return n, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Postgres) Close() {
	s.pool.Close()
}

func scanPack(row pgx.CollectableRow) (Pack, error) {
	var p Pack
	var typ string
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Title, &typ); err != nil {
		return Pack{}, err
	}
	p.Type = PackType(typ)
	return p, nil
}
