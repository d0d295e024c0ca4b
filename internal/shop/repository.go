package shop

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Upsert stores the permanent access token granted at install time.
func (r *Repository) Upsert(ctx context.Context, domain, accessToken, scopes string) (*Shop, error) {
	const q = `
INSERT INTO shops (permanent_domain, access_token, scopes)
VALUES ($1, $2, $3)
ON CONFLICT (permanent_domain) DO UPDATE SET
  access_token = EXCLUDED.access_token,
  scopes = CASE WHEN EXCLUDED.scopes = '' THEN shops.scopes ELSE EXCLUDED.scopes END,
  updated_at = NOW()
RETURNING id, permanent_domain, access_token, scopes, created_at, updated_at
`
	s := &Shop{}
	if err := r.db.QueryRow(ctx, q, domain, accessToken, scopes).Scan(
		&s.ID, &s.Domain, &s.AccessToken, &s.Scopes, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Repository) FindByDomain(ctx context.Context, domain string) (*Shop, error) {
	const q = `
SELECT id, permanent_domain, access_token, scopes, created_at, updated_at
FROM shops
WHERE permanent_domain = $1
`
	s := &Shop{}
	if err := r.db.QueryRow(ctx, q, domain).Scan(
		&s.ID, &s.Domain, &s.AccessToken, &s.Scopes, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return s, nil
}
