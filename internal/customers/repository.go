// Package customers is the customer collaborator: a Postgres table of
// contacts and vehicles, fronted by a Directory that falls back to its last
// known list when the database is unavailable.
package customers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrSnakeDoc/detailcal/internal/domain"
)

// Customer is a stored customer record.
type Customer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	Address      string    `json:"address,omitempty"`
	Vehicle      string    `json:"vehicle,omitempty"`
	VehicleYear  string    `json:"vehicleYear,omitempty"`
	VehicleMake  string    `json:"vehicleMake,omitempty"`
	VehicleModel string    `json:"vehicleModel,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Querier is the subset of *pgxpool.Pool the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and writes the customers table.
type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS customers (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	phone         TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	address       TEXT NOT NULL DEFAULT '',
	vehicle       TEXT NOT NULL DEFAULT '',
	vehicle_year  TEXT NOT NULL DEFAULT '',
	vehicle_make  TEXT NOT NULL DEFAULT '',
	vehicle_model TEXT NOT NULL DEFAULT '',
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const columns = `id, name, phone, email, address, vehicle, vehicle_year, vehicle_make, vehicle_model, updated_at`

// Blank incoming fields never overwrite stored ones.
const upsertSQL = `INSERT INTO customers (` + columns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (name) DO UPDATE SET
	phone         = COALESCE(NULLIF(EXCLUDED.phone, ''), customers.phone),
	email         = COALESCE(NULLIF(EXCLUDED.email, ''), customers.email),
	address       = COALESCE(NULLIF(EXCLUDED.address, ''), customers.address),
	vehicle       = COALESCE(NULLIF(EXCLUDED.vehicle, ''), customers.vehicle),
	vehicle_year  = COALESCE(NULLIF(EXCLUDED.vehicle_year, ''), customers.vehicle_year),
	vehicle_make  = COALESCE(NULLIF(EXCLUDED.vehicle_make, ''), customers.vehicle_make),
	vehicle_model = COALESCE(NULLIF(EXCLUDED.vehicle_model, ''), customers.vehicle_model),
	updated_at    = EXCLUDED.updated_at
RETURNING ` + columns

// EnsureSchema creates the customers table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create customers table: %w", err)
	}
	return nil
}

// List returns every customer ordered by name.
func (r *Repository) List(ctx context.Context) ([]Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT `+columns+` FROM customers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return out, nil
}

// Upsert inserts or merges a contact keyed by name.
func (r *Repository) Upsert(ctx context.Context, contact domain.CustomerContact) (Customer, error) {
	name := strings.TrimSpace(contact.Name)
	if name == "" {
		return Customer{}, &domain.ValidationError{Field: "name", Message: "customer name is required"}
	}
	id := contact.ID
	if id == "" {
		id = uuid.NewString()
	}

	row := r.db.QueryRow(ctx, upsertSQL,
		id, name,
		strings.TrimSpace(contact.Phone),
		strings.TrimSpace(contact.Email),
		strings.TrimSpace(contact.Address),
		strings.TrimSpace(contact.Vehicle),
		strings.TrimSpace(contact.VehicleYear),
		strings.TrimSpace(contact.VehicleMake),
		strings.TrimSpace(contact.VehicleModel),
		time.Now().UTC(),
	)
	c, err := scanCustomer(row)
	if err != nil {
		return Customer{}, fmt.Errorf("upsert customer %q: %w", name, err)
	}
	return c, nil
}

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.Address,
		&c.Vehicle, &c.VehicleYear, &c.VehicleMake, &c.VehicleModel, &c.UpdatedAt)
	return c, err
}
