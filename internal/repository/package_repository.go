package repository

import (
	"context"
	"database/sql"

	"github.com/idturva/subscription-portal/internal/model"
)

// PackageRepo provides read access to the subscription package catalog.
// The catalog is seeded by migrations and edited directly by operations;
// the API only reads it.
type PackageRepo struct{ DB *sql.DB }

func NewPackageRepo(db *sql.DB) *PackageRepo { return &PackageRepo{DB: db} }

const packageColumns = "id,slug,title,description,price,billing_period,is_active,created_at,updated_at"

// ListActive returns all active packages in catalog order (cheapest first).
func (r *PackageRepo) ListActive(ctx context.Context) ([]model.Package, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+packageColumns+" FROM packages WHERE is_active=1 ORDER BY price ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pkgs []model.Package
	for rows.Next() {
		var p model.Package
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.Price, &p.BillingPeriod, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, rows.Err()
}

// GetBySlug fetches a single package by its URL slug. Inactive packages are
// not returned; a retired package behaves like a missing one.
func (r *PackageRepo) GetBySlug(ctx context.Context, slug string) (model.Package, error) {
	var p model.Package
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+packageColumns+" FROM packages WHERE slug=? AND is_active=1 LIMIT 1",
		slug).Scan(&p.ID, &p.Slug, &p.Title, &p.Description, &p.Price, &p.BillingPeriod, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}
