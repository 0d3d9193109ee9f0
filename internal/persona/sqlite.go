package persona

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/roundtable-ai/roundtable/internal/database"
	"github.com/roundtable-ai/roundtable/internal/types"
)

// SQLiteStore implements Store backed by the personas table.
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore creates a SQLite-backed persona store.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const personaColumns = `id, project_id, display_name, archetype, specialization,
	voice, intervention_style, focus_area, domain_knowledge, domain_metrics,
	custom_instructions, preferences, collaborators, primary_focus, defer_to,
	active, created_at, updated_at`

// Get returns the persona by id.
func (s *SQLiteStore) Get(ctx context.Context, id types.ID) (*Persona, error) {
	row := s.db.Conn().QueryRowContext(ctx,
		`SELECT `+personaColumns+` FROM personas WHERE id = ?`, id)

	p, err := scanPersona(row)
	if err == sql.ErrNoRows {
		return nil, NewNotFoundError(id)
	}
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load persona", err)
	}
	return p, nil
}

// ListActive returns all active personas for a project, in creation order.
func (s *SQLiteStore) ListActive(ctx context.Context, projectID types.ID) ([]*Persona, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT `+personaColumns+` FROM personas
		 WHERE project_id = ? AND active = 1
		 ORDER BY created_at, id`, projectID)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to list personas", err)
	}
	defer rows.Close()

	var personas []*Persona
	for rows.Next() {
		p, err := scanPersona(rows)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to scan persona", err)
		}
		personas = append(personas, p)
	}

	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "error iterating personas", err)
	}

	return personas, nil
}

// Save upserts a persona by id.
func (s *SQLiteStore) Save(ctx context.Context, p *Persona) error {
	if err := p.Validate(); err != nil {
		return err
	}

	knowledge, err := json.Marshal(p.DomainKnowledge)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal domain knowledge", err)
	}
	metrics, err := json.Marshal(p.DomainMetrics)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal domain metrics", err)
	}
	collaborators, err := json.Marshal(p.Collaborators)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal collaborators", err)
	}
	deferTo, err := json.Marshal(p.DeferTo)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal defer map", err)
	}

	var prefs sql.NullString
	if p.Preferences != nil {
		raw, err := json.Marshal(p.Preferences)
		if err != nil {
			return types.WrapError(types.DB_QUERY_FAILED, "failed to marshal preferences", err)
		}
		prefs = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO personas (`+personaColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display_name = excluded.display_name,
			archetype = excluded.archetype,
			specialization = excluded.specialization,
			voice = excluded.voice,
			intervention_style = excluded.intervention_style,
			focus_area = excluded.focus_area,
			domain_knowledge = excluded.domain_knowledge,
			domain_metrics = excluded.domain_metrics,
			custom_instructions = excluded.custom_instructions,
			preferences = excluded.preferences,
			collaborators = excluded.collaborators,
			primary_focus = excluded.primary_focus,
			defer_to = excluded.defer_to,
			active = excluded.active,
			updated_at = excluded.updated_at
	`,
		p.ID, p.ProjectID, p.DisplayName, p.Archetype, p.Specialization,
		p.Behavior.Voice, p.Behavior.InterventionStyle, p.Behavior.FocusArea,
		string(knowledge), string(metrics),
		p.CustomInstructions, prefs, string(collaborators), p.PrimaryFocus, string(deferTo),
		p.Active, p.CreatedAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to save persona", err)
	}

	return nil
}

// Deactivate clears the active flag.
func (s *SQLiteStore) Deactivate(ctx context.Context, id types.ID) error {
	result, err := s.db.Conn().ExecContext(ctx,
		`UPDATE personas SET active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to deactivate persona", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return types.WrapError(types.DB_QUERY_FAILED, "failed to get rows affected", err)
	}
	if affected == 0 {
		return NewNotFoundError(id)
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanPersona
type scanner interface {
	Scan(dest ...any) error
}

func scanPersona(row scanner) (*Persona, error) {
	var (
		p             Persona
		knowledge     string
		metrics       string
		collaborators string
		deferTo       string
		prefs         sql.NullString
	)

	err := row.Scan(
		&p.ID, &p.ProjectID, &p.DisplayName, &p.Archetype, &p.Specialization,
		&p.Behavior.Voice, &p.Behavior.InterventionStyle, &p.Behavior.FocusArea,
		&knowledge, &metrics,
		&p.CustomInstructions, &prefs, &collaborators, &p.PrimaryFocus, &deferTo,
		&p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(knowledge), &p.DomainKnowledge); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metrics), &p.DomainMetrics); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(collaborators), &p.Collaborators); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(deferTo), &p.DeferTo); err != nil {
		return nil, err
	}

	if prefs.Valid && prefs.String != "" {
		p.Preferences = &CommunicationPreferences{}
		if err := json.Unmarshal([]byte(prefs.String), p.Preferences); err != nil {
			return nil, err
		}
	}

	return &p, nil
}
