package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type KitchensStore interface {
	Insert(ctx context.Context, k *Kitchen) error
	Get(ctx context.Context, id string) (*Kitchen, error)
	List(ctx context.Context) ([]Kitchen, error)
}

type kitchensStore struct {
	db     *sql.DB
	driver string
}

func NewKitchensStore(db *sql.DB, driver string) KitchensStore {
	return &kitchensStore{db: db, driver: driver}
}

func (s *kitchensStore) Insert(ctx context.Context, k *Kitchen) error {
	if k.CreatedAt.IsZero() {
		k.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, rebind(s.driver, `
		INSERT INTO kitchens(id, ldap, order_number, client_name, seller, installer, installation_date, created_at)
		VALUES(?,?,?,?,?,?,?,?)`),
		k.ID, k.LDAP, k.OrderNumber, k.ClientName, k.Seller, k.Installer, k.InstallationDate, k.CreatedAt)
	return err
}

func (s *kitchensStore) Get(ctx context.Context, id string) (*Kitchen, error) {
	row := s.db.QueryRowContext(ctx, rebind(s.driver, `
		SELECT id, ldap, order_number, client_name, seller, installer, installation_date, created_at
		FROM kitchens WHERE id = ?`), id)
	var k Kitchen
	if err := row.Scan(&k.ID, &k.LDAP, &k.OrderNumber, &k.ClientName, &k.Seller, &k.Installer, &k.InstallationDate, &k.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

func (s *kitchensStore) List(ctx context.Context) ([]Kitchen, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ldap, order_number, client_name, seller, installer, installation_date, created_at
		FROM kitchens ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Kitchen
	for rows.Next() {
		var k Kitchen
		if err := rows.Scan(&k.ID, &k.LDAP, &k.OrderNumber, &k.ClientName, &k.Seller, &k.Installer, &k.InstallationDate, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
