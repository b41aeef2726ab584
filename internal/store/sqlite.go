package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"movietype-quiz/internal/models"
)

// SQLite is the embedded backend used for local runs and tests.
type SQLite struct {
	db *sql.DB
}

var sqlitePragmas = []string{
	"_pragma=foreign_keys(1)",
	"_pragma=busy_timeout(5000)",
	"_pragma=journal_mode(WAL)",
}

// NewSQLite opens (or creates) the database file at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		path = "movietype.db"
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?" + strings.Join(sqlitePragmas, "&")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one writer; also keeps :memory: databases on a single connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() {
	_ = s.db.Close()
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS dimensions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			high_label TEXT NOT NULL CHECK (high_label <> ''),
			low_label TEXT NOT NULL CHECK (low_label <> ''),
			description TEXT NOT NULL DEFAULT '',
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dimension_id INTEGER NOT NULL REFERENCES dimensions(id) ON DELETE CASCADE,
			prompt TEXT NOT NULL,
			high_text TEXT NOT NULL,
			low_text TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS responses (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			identity TEXT NOT NULL,
			question_id INTEGER NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			raw_value INTEGER NOT NULL CHECK (raw_value BETWEEN 1 AND 5),
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_responses_identity ON responses(identity);`,
		`DELETE FROM responses WHERE id NOT IN (SELECT max(id) FROM responses GROUP BY identity, question_id);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_responses_identity_question ON responses(identity, question_id);`,
		`CREATE INDEX IF NOT EXISTS idx_questions_dimension ON questions(dimension_id);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

func (s *SQLite) SeedCatalog(ctx context.Context, catalog []models.DimensionSeed, replace bool) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if replace {
		for _, table := range []string{"responses", "questions", "dimensions"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return false, fmt.Errorf("clear %s: %w", table, err)
			}
		}
	} else {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM dimensions`).Scan(&n); err != nil {
			return false, fmt.Errorf("count dimensions: %w", err)
		}
		if n > 0 {
			return false, nil
		}
	}

	now := time.Now().UnixNano()
	for _, d := range catalog {
		res, err := tx.ExecContext(ctx, `
INSERT INTO dimensions (name, high_label, low_label, description, created_at_unix)
VALUES (?,?,?,?,?)`, d.Name, d.HighLabel, d.LowLabel, d.Description, now)
		if err != nil {
			return false, fmt.Errorf("seed dimension %s: %w", d.Name, err)
		}
		dimID, err := res.LastInsertId()
		if err != nil {
			return false, err
		}
		for _, q := range d.Questions {
			_, err = tx.ExecContext(ctx, `
INSERT INTO questions (dimension_id, prompt, high_text, low_text, created_at_unix)
VALUES (?,?,?,?,?)`, dimID, q.Prompt, q.HighText, q.LowText, now)
			if err != nil {
				return false, fmt.Errorf("seed question for %s: %w", d.Name, err)
			}
		}
	}
	return true, tx.Commit()
}

func (s *SQLite) Dimensions(ctx context.Context) ([]models.Dimension, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, high_label, low_label, description FROM dimensions ORDER BY id`)
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

func (s *SQLite) Questions(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, dimension_id, prompt, high_text, low_text FROM questions ORDER BY id`)
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

func (s *SQLite) Question(ctx context.Context, id int64) (models.Question, error) {
	var q models.Question
	err := s.db.QueryRowContext(ctx, `SELECT id, dimension_id, prompt, high_text, low_text FROM questions WHERE id=?`, id).
		Scan(&q.ID, &q.DimensionID, &q.Prompt, &q.HighText, &q.LowText)
	if errors.Is(err, sql.ErrNoRows) {
		return q, ErrNotFound
	}
	return q, err
}

// DeleteDimension removes the dimension with its questions and their
// responses in one transaction.
func (s *SQLite) DeleteDimension(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE question_id IN (SELECT id FROM questions WHERE dimension_id=?)`, id); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE dimension_id=?`, id); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM dimensions WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("delete dimension: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *SQLite) RecordResponse(ctx context.Context, r models.Response) (models.Response, error) {
	r.CreatedAt = time.Now().UTC()
	err := s.db.QueryRowContext(ctx, `
INSERT INTO responses (identity, question_id, raw_value, created_at_unix)
VALUES (?,?,?,?)
ON CONFLICT (identity, question_id) DO UPDATE SET raw_value = excluded.raw_value, created_at_unix = excluded.created_at_unix
RETURNING id`, r.Identity, r.QuestionID, r.Value, r.CreatedAt.UnixNano()).Scan(&r.ID)
	return r, err
}

func (s *SQLite) ResponsesFor(ctx context.Context, identity string) ([]models.Response, error) {
	return s.queryResponses(ctx, `
SELECT r.id, r.identity, r.question_id, q.dimension_id, r.raw_value, r.created_at_unix
FROM responses r JOIN questions q ON q.id = r.question_id
WHERE r.identity=? ORDER BY r.id`, identity)
}

func (s *SQLite) AllResponses(ctx context.Context) ([]models.Response, error) {
	return s.queryResponses(ctx, `
SELECT r.id, r.identity, r.question_id, q.dimension_id, r.raw_value, r.created_at_unix
FROM responses r JOIN questions q ON q.id = r.question_id
ORDER BY r.created_at_unix DESC, r.id DESC`)
}

func (s *SQLite) queryResponses(ctx context.Context, query string, args ...any) ([]models.Response, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []models.Response
	for rows.Next() {
		var r models.Response
		var created int64
		if err := rows.Scan(&r.ID, &r.Identity, &r.QuestionID, &r.DimensionID, &r.Value, &created); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(0, created).UTC()
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *SQLite) ClearResponses(ctx context.Context, identity string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM responses WHERE identity=?`, identity)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLite) ResetResponses(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM responses`)
	return err
}
