package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"movietype-quiz/internal/models"
)

// Postgres wraps database access through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	if url == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema sets up tables.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS dimensions (
	id bigserial primary key,
	name text not null unique,
	high_label text not null check (high_label <> ''),
	low_label text not null check (low_label <> ''),
	description text not null default '',
	created_at timestamptz not null default now()
);

CREATE TABLE IF NOT EXISTS questions (
	id bigserial primary key,
	dimension_id bigint not null references dimensions(id) on delete cascade,
	prompt text not null,
	high_text text not null,
	low_text text not null,
	created_at timestamptz not null default now()
);

CREATE TABLE IF NOT EXISTS responses (
	id bigserial primary key,
	identity text not null,
	question_id bigint not null references questions(id) on delete cascade,
	raw_value integer not null check (raw_value between 1 and 5),
	created_at timestamptz not null default now()
);

CREATE INDEX IF NOT EXISTS responses_identity_idx ON responses(identity);
DELETE FROM responses r USING responses newer
WHERE r.identity = newer.identity AND r.question_id = newer.question_id AND r.id < newer.id;
CREATE UNIQUE INDEX IF NOT EXISTS responses_identity_question_idx ON responses(identity, question_id);
CREATE INDEX IF NOT EXISTS questions_dimension_idx ON questions(dimension_id);
`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

func (s *Postgres) SeedCatalog(ctx context.Context, catalog []models.DimensionSeed, replace bool) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if replace {
		if _, err := tx.Exec(ctx, `TRUNCATE TABLE responses, questions, dimensions RESTART IDENTITY`); err != nil {
			return false, fmt.Errorf("clear catalog: %w", err)
		}
	} else {
		var n int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM dimensions`).Scan(&n); err != nil {
			return false, fmt.Errorf("count dimensions: %w", err)
		}
		if n > 0 {
			return false, nil
		}
	}

	for _, d := range catalog {
		var dimID int64
		err := tx.QueryRow(ctx, `
INSERT INTO dimensions (name, high_label, low_label, description)
VALUES ($1,$2,$3,$4) RETURNING id`, d.Name, d.HighLabel, d.LowLabel, d.Description).Scan(&dimID)
		if err != nil {
			return false, fmt.Errorf("seed dimension %s: %w", d.Name, err)
		}
		for _, q := range d.Questions {
			_, err = tx.Exec(ctx, `
INSERT INTO questions (dimension_id, prompt, high_text, low_text)
VALUES ($1,$2,$3,$4)`, dimID, q.Prompt, q.HighText, q.LowText)
			if err != nil {
				return false, fmt.Errorf("seed question for %s: %w", d.Name, err)
			}
		}
	}
	return true, tx.Commit(ctx)
}

func (s *Postgres) Dimensions(ctx context.Context) ([]models.Dimension, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, high_label, low_label, description FROM dimensions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.Dimension
	for rows.Next() {
		var d models.Dimension
		if err := rows.Scan(&d.ID, &d.Name, &d.HighLabel, &d.LowLabel, &d.Description); err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

func (s *Postgres) Questions(ctx context.Context) ([]models.Question, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, dimension_id, prompt, high_text, low_text FROM questions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.DimensionID, &q.Prompt, &q.HighText, &q.LowText); err != nil {
			return nil, err
		}
		res = append(res, q)
	}
	return res, rows.Err()
}

func (s *Postgres) Question(ctx context.Context, id int64) (models.Question, error) {
	var q models.Question
	err := s.pool.QueryRow(ctx, `SELECT id, dimension_id, prompt, high_text, low_text FROM questions WHERE id=$1`, id).
		Scan(&q.ID, &q.DimensionID, &q.Prompt, &q.HighText, &q.LowText)
	if errors.Is(err, pgx.ErrNoRows) {
		return q, ErrNotFound
	}
	return q, err
}

// DeleteDimension removes a dimension; questions and responses follow by
// cascade.
func (s *Postgres) DeleteDimension(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM dimensions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) RecordResponse(ctx context.Context, r models.Response) (models.Response, error) {
	err := s.pool.QueryRow(ctx, `
INSERT INTO responses (identity, question_id, raw_value)
VALUES ($1,$2,$3)
ON CONFLICT (identity, question_id) DO UPDATE SET raw_value = EXCLUDED.raw_value, created_at = now()
RETURNING id, created_at`, r.Identity, r.QuestionID, r.Value).Scan(&r.ID, &r.CreatedAt)
	return r, err
}

func (s *Postgres) ResponsesFor(ctx context.Context, identity string) ([]models.Response, error) {
	return s.queryResponses(ctx, `
SELECT r.id, r.identity, r.question_id, q.dimension_id, r.raw_value, r.created_at
FROM responses r JOIN questions q ON q.id = r.question_id
WHERE r.identity=$1 ORDER BY r.id`, identity)
}

func (s *Postgres) AllResponses(ctx context.Context) ([]models.Response, error) {
	return s.queryResponses(ctx, `
SELECT r.id, r.identity, r.question_id, q.dimension_id, r.raw_value, r.created_at
FROM responses r JOIN questions q ON q.id = r.question_id
ORDER BY r.created_at desc, r.id desc`)
}

func (s *Postgres) queryResponses(ctx context.Context, sql string, args ...any) ([]models.Response, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.Response
	for rows.Next() {
		var r models.Response
		if err := rows.Scan(&r.ID, &r.Identity, &r.QuestionID, &r.DimensionID, &r.Value, &r.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *Postgres) ClearResponses(ctx context.Context, identity string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM responses WHERE identity=$1`, identity)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) ResetResponses(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE TABLE responses`)
	return err
}
