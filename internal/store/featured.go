package store

import (
	"context"
	"fmt"

	"jobboard-backend/internal/cache"
)

const featuredNS = "featured"

// AddFeaturedCompany curates a company into the featured list. A duplicate
// add is idempotent (created=false). The featured cache is invalidated
// before the write is acknowledged.
func (s *Store) AddFeaturedCompany(ctx context.Context, companyID int64) (bool, error) {
	if _, err := s.GetCompany(ctx, companyID); err != nil {
		return false, err
	}
	res, err := s.exec(ctx, "featured add",
		`INSERT INTO featured_companies (company_id, created_at) VALUES (?, ?)
		 ON CONFLICT(company_id) DO NOTHING`, companyID, nowRFC3339())
	if err != nil {
		return false, err
	}
	cache.Invalidate(featuredNS)
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// RemoveFeaturedCompany drops a company from the featured list.
func (s *Store) RemoveFeaturedCompany(ctx context.Context, companyID int64) (bool, error) {
	res, err := s.exec(ctx, "featured remove",
		`DELETE FROM featured_companies WHERE company_id = ?`, companyID)
	if err != nil {
		return false, err
	}
	cache.Invalidate(featuredNS)
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ListFeaturedCompanies returns the featured companies, newest first,
// hydrated with their company records. The payload is TTL-cached per limit.
func (s *Store) ListFeaturedCompanies(ctx context.Context, limit int) ([]Company, error) {
	if limit <= 0 {
		limit = 10
	}
	key := cache.Key(featuredNS, fmt.Sprintf("limit=%d", limit))
	if companies, ok := cache.Get[[]Company](ctx, key); ok {
		return companies, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.company_id, c.name, c.description, c.country, c.state, c.city,
			c.address, c.url, c.size_min, c.size_max, c.created_at, c.updated_at
		 FROM featured_companies f
		 JOIN companies c ON c.company_id = f.company_id
		 ORDER BY f.created_at DESC, f.company_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("featured list: %w", err)
	}
	defer rows.Close()

	companies := []Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("featured list scan: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	cache.Set(ctx, key, companies)
	return companies, nil
}
