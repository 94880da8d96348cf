package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

const schema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key        TEXT PRIMARY KEY,
		value      BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS archived_posts (
		id         TEXT PRIMARY KEY,
		author_id  TEXT NOT NULL,
		body       JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS archived_posts_created_at_idx ON archived_posts (created_at DESC, id DESC);
`

// EnsureSchema crée les tables si besoin (idempotent).
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("db: ensure schema: %w", err)
	}
	return nil
}

type PostgresKV struct {
	db *pgxpool.Pool
}

func NewPostgresKV(db *pgxpool.Pool) *PostgresKV {
	return &PostgresKV{db: db}
}

func (r *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrKeyNotFound // Traduction technique -> port
		}
		return nil, fmt.Errorf("db: get %s: %w", key, err)
	}
	return value, nil
}

// Set fait un UPSERT : une écriture = une requête.
func (r *PostgresKV) Set(ctx context.Context, key string, value []byte) error {
	q := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (@key, @value, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{"key": key, "value": value})
	if err != nil {
		return handleError("set "+key, err)
	}
	return nil
}

func (r *PostgresKV) Delete(ctx context.Context, key string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return handleError("delete "+key, err)
	}
	return nil
}

type PostgresArchive struct {
	db *pgxpool.Pool
}

func NewPostgresArchive(db *pgxpool.Pool) *PostgresArchive {
	return &PostgresArchive{db: db}
}

func (r *PostgresArchive) Append(ctx context.Context, post domain.Post) error {
	body, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal post: %w", err)
	}

	q := `
		INSERT INTO archived_posts (id, author_id, body, created_at)
		VALUES (@id, @author_id, @body, @created_at)
		ON CONFLICT (id) DO NOTHING
	`
	args := pgx.NamedArgs{
		"id":         post.ID,
		"author_id":  post.UserID,
		"body":       body,
		"created_at": post.CreatedAt,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return handleError("archive post", err)
	}
	return nil
}

// Page pagine par clé (created_at, id) : stable quand des posts arrivent en tête.
// Un after absent de la table rend la sous-requête NULL, donc une page vide.
func (r *PostgresArchive) Page(ctx context.Context, after string, limit int) (ports.ArchivePage, error) {
	if limit <= 0 {
		return ports.ArchivePage{}, nil
	}

	q := `
		SELECT id, body FROM archived_posts
		WHERE @after = ''
		   OR (created_at, id) < (SELECT created_at, id FROM archived_posts WHERE id = @after)
		ORDER BY created_at DESC, id DESC
		LIMIT @limit
	`
	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"after": after, "limit": limit})
	if err != nil {
		return ports.ArchivePage{}, fmt.Errorf("db: page archive: %w", err)
	}

	var (
		id   string
		body []byte
		page ports.ArchivePage
	)
	_, err = pgx.ForEachRow(rows, []any{&id, &body}, func() error {
		var p domain.Post
		if err := json.Unmarshal(body, &p); err != nil {
			return fmt.Errorf("decode archived post %s: %w", id, err)
		}
		page.Posts = append(page.Posts, p)
		page.Next = id
		return nil
	})
	if err != nil {
		return ports.ArchivePage{}, fmt.Errorf("db: scan archive: %w", err)
	}
	return page, nil
}

// handleError ajoute le contexte Postgres (code SQLSTATE) aux erreurs d'écriture.
func handleError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("db: %s: %s (%s): %w", op, pgErr.Message, pgErr.Code, err)
	}
	return fmt.Errorf("db: %s: %w", op, err)
}
