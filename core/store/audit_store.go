package store

import (
	"context"
	"database/sql"
	"time"
)

type AuditEntry struct {
	ID        int64     `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuditStore interface {
	Append(ctx context.Context, actor, action, details string) error
	List(ctx context.Context, limit int) ([]AuditEntry, error)
}

type auditStore struct {
	db     *sql.DB
	driver string
}

func NewAuditStore(db *sql.DB, driver string) AuditStore {
	return &auditStore{db: db, driver: driver}
}

func (s *auditStore) Append(ctx context.Context, actor, action, details string) error {
	_, err := s.db.ExecContext(ctx, rebind(s.driver, `
		INSERT INTO audit_log(actor, action, details, created_at) VALUES(?,?,?,?)`),
		actor, action, details, time.Now().UTC())
	return err
}

func (s *auditStore) List(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, rebind(s.driver, `
		SELECT id, actor, action, details, created_at FROM audit_log
		ORDER BY id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
