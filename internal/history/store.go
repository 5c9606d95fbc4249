package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"faceless/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; the history database is disposable, users delete and restart.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages turn persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s and restart)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// RecordTurn inserts a finished turn and returns its row id.
func (s *Store) RecordTurn(ctx context.Context, turn *Turn) (int64, error) {
	if turn.TurnID == "" {
		return 0, errors.New("record turn: turn id required")
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (
			turn_id, created_at, provider, user_text, reply_text,
			scene_append, mood, location, visual_anchor, change_scene,
			seed, positive_prompt, artifact_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.TurnID,
		turn.CreatedAt.Format(time.RFC3339Nano),
		turn.Provider,
		turn.UserText,
		turn.ReplyText,
		turn.SceneAppend,
		turn.Mood,
		turn.Location,
		turn.VisualAnchor,
		boolToInt(turn.ChangeScene),
		turn.Seed,
		turn.PositivePrompt,
		turn.ArtifactPath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert turn: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read turn id: %w", err)
	}
	turn.ID = id
	return id, nil
}

// Recent returns up to limit most recent turns, oldest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, turn_id, created_at, provider, user_text, reply_text,
		       scene_append, mood, location, visual_anchor, change_scene,
		       seed, positive_prompt, artifact_path
		FROM turns ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	// Reverse into chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// Count returns the total number of persisted turns.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM turns").Scan(&count); err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return count, nil
}

func scanTurn(rows *sql.Rows) (Turn, error) {
	var (
		turn        Turn
		createdAt   string
		changeScene int
	)
	if err := rows.Scan(
		&turn.ID,
		&turn.TurnID,
		&createdAt,
		&turn.Provider,
		&turn.UserText,
		&turn.ReplyText,
		&turn.SceneAppend,
		&turn.Mood,
		&turn.Location,
		&turn.VisualAnchor,
		&changeScene,
		&turn.Seed,
		&turn.PositivePrompt,
		&turn.ArtifactPath,
	); err != nil {
		return Turn{}, fmt.Errorf("scan turn: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		turn.CreatedAt = parsed
	}
	turn.ChangeScene = changeScene != 0
	return turn, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
