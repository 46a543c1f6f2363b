package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type IncidentFilter struct {
	KitchenID string
	Status    string
}

type IncidentsStore interface {
	Insert(ctx context.Context, inc *Incident) error
	Get(ctx context.Context, id string) (*Incident, error)
	List(ctx context.Context, filter IncidentFilter) ([]Incident, error)
	// Update rewrites the full row. There is no version column: concurrent
	// writers resolve last-write-wins, which is the contract the sheet-era
	// backend offered.
	Update(ctx context.Context, inc *Incident) error
}

type incidentsStore struct {
	db     *sql.DB
	driver string
}

func NewIncidentsStore(db *sql.DB, driver string) IncidentsStore {
	return &incidentsStore{db: db, driver: driver}
}

const incidentColumns = `id, kitchen_id, description, observation, history, status, assigned_to_seller, assigned_to_installer, cause, created_at, updated_at`

func (s *incidentsStore) Insert(ctx context.Context, inc *Incident) error {
	_, err := s.db.ExecContext(ctx, rebind(s.driver, `
		INSERT INTO incidents(`+incidentColumns+`)
		VALUES(?,?,?,?,?,?,?,?,?,?,?)`),
		inc.ID, inc.KitchenID, inc.Description, inc.Observation, HistoryToJSON(inc.History),
		inc.Status, nullableString(inc.AssignedToSeller), nullableString(inc.AssignedToInstaller),
		inc.Cause, inc.CreatedAt, inc.UpdatedAt)
	return err
}

func (s *incidentsStore) Update(ctx context.Context, inc *Incident) error {
	res, err := s.db.ExecContext(ctx, rebind(s.driver, `
		UPDATE incidents SET kitchen_id = ?, description = ?, observation = ?, history = ?,
			status = ?, assigned_to_seller = ?, assigned_to_installer = ?, cause = ?, updated_at = ?
		WHERE id = ?`),
		inc.KitchenID, inc.Description, inc.Observation, HistoryToJSON(inc.History),
		inc.Status, nullableString(inc.AssignedToSeller), nullableString(inc.AssignedToInstaller),
		inc.Cause, inc.UpdatedAt, inc.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *incidentsStore) Get(ctx context.Context, id string) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.driver, `SELECT `+incidentColumns+` FROM incidents WHERE id = ?`), id)
	inc, err := scanIncident(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return inc, nil
}

func (s *incidentsStore) List(ctx context.Context, filter IncidentFilter) ([]Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents`
	var conds []string
	var args []any
	if filter.KitchenID != "" {
		conds = append(conds, "kitchen_id = ?")
		args = append(args, filter.KitchenID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, id"
	rows, err := s.db.QueryContext(ctx, rebind(s.driver, query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Incident
	for rows.Next() {
		inc, err := scanIncident(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *inc)
	}
	return out, rows.Err()
}

func scanIncident(scan func(dest ...any) error) (*Incident, error) {
	var inc Incident
	var historyRaw string
	var seller, installer sql.NullString
	if err := scan(&inc.ID, &inc.KitchenID, &inc.Description, &inc.Observation, &historyRaw,
		&inc.Status, &seller, &installer, &inc.Cause, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
		return nil, err
	}
	inc.History = ParseHistory(historyRaw)
	if seller.Valid && seller.String != "" {
		inc.AssignedToSeller = &seller.String
	}
	if installer.Valid && installer.String != "" {
		inc.AssignedToInstaller = &installer.String
	}
	inc.Normalize()
	return &inc, nil
}

func nullableString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
