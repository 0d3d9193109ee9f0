package memory

import (
	"context"
	"database/sql"
	"time"

	"github.com/roundtable-ai/roundtable/internal/database"
	"github.com/roundtable-ai/roundtable/internal/types"
)

// SQLiteStore implements Store backed by the project_memory table.
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore creates a SQLite-backed memory store.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const recordColumns = `id, project_id, type, key, value, importance, created_at, updated_at, expires_at`

// Get returns the record for (projectID, key), expired or not.
func (s *SQLiteStore) Get(ctx context.Context, projectID types.ID, key string) (*Record, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM project_memory WHERE project_id = ? AND key = ?`,
		projectID, key)

	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, NewNotFoundError(key)
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load memory", err)
	}
	return r, nil
}

// List returns all non-expired records for a project.
func (s *SQLiteStore) List(ctx context.Context, projectID types.ID) ([]*Record, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT `+recordColumns+` FROM project_memory
		 WHERE project_id = ? AND (expires_at IS NULL OR expires_at > ?)`,
		projectID, time.Now().UTC())
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list memories", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// ListByType returns non-expired records of one type.
func (s *SQLiteStore) ListByType(ctx context.Context, projectID types.ID, t Type) ([]*Record, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT `+recordColumns+` FROM project_memory
		 WHERE project_id = ? AND type = ? AND (expires_at IS NULL OR expires_at > ?)`,
		projectID, t, time.Now().UTC())
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list memories by type", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Save upserts a record by (projectID, key).
func (s *SQLiteStore) Save(ctx context.Context, r *Record) error {
	if err := r.Validate(); err != nil {
		return err
	}

	var expires sql.NullTime
	if r.ExpiresAt != nil {
		expires = sql.NullTime{Time: r.ExpiresAt.UTC(), Valid: true}
	}

	_, err := s.db.Conn().ExecContext(ctx, `
		INSERT INTO project_memory (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, key) DO UPDATE SET
			type = excluded.type,
			value = excluded.value,
			importance = excluded.importance,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		r.ID, r.ProjectID, r.Type, r.Key, r.Value, r.Importance,
		r.CreatedAt.UTC(), time.Now().UTC(), expires,
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to save memory", err)
	}

	return nil
}

// Delete removes the record for (projectID, key). No-op for absent keys.
func (s *SQLiteStore) Delete(ctx context.Context, projectID types.ID, key string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`DELETE FROM project_memory WHERE project_id = ? AND key = ?`,
		projectID, key)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to delete memory", err)
	}
	return nil
}

func scanRecord(row interface{ Scan(...any) error }) (*Record, error) {
	var (
		r       Record
		expires sql.NullTime
	)
	err := row.Scan(
		&r.ID, &r.ProjectID, &r.Type, &r.Key, &r.Value, &r.Importance,
		&r.CreatedAt, &r.UpdatedAt, &expires,
	)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		t := expires.Time
		r.ExpiresAt = &t
	}
	return &r, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan memory", err)
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating memories", err)
	}

	return records, nil
}
