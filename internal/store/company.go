package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/rank"
)

const companyCols = `company_id, name, description, country, state, city, address, url, size_min, size_max, created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }) (Company, error) {
	var c Company
	var created, updated string
	err := row.Scan(&c.CompanyID, &c.Name, &c.Description, &c.Country, &c.State, &c.City,
		&c.Address, &c.URL, &c.SizeMin, &c.SizeMax, &created, &updated)
	if err != nil {
		return Company{}, err
	}
	c.CreatedAt = parseRFC3339(created)
	c.UpdatedAt = parseRFC3339(updated)
	return c, nil
}

// CreateCompany inserts a company. When c.CompanyID is zero a new id is
// minted; a pre-set id (seed/import path) leaves the counter untouched.
func (s *Store) CreateCompany(ctx context.Context, c *Company) error {
	if c.SizeMin != nil && c.SizeMax != nil && *c.SizeMin > *c.SizeMax {
		return apperr.BadRequest("company_size_min must not exceed company_size_max")
	}
	if c.CompanyID == 0 {
		id, err := s.NextID(ctx, SeqCompany)
		if err != nil {
			return err
		}
		c.CompanyID = id
	}
	now := nowRFC3339()
	c.CreatedAt = parseRFC3339(now)
	c.UpdatedAt = c.CreatedAt
	_, err := s.exec(ctx, "company create",
		`INSERT INTO companies (company_id, name, description, country, state, city, address, url, size_min, size_max, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CompanyID, c.Name, c.Description, c.Country, c.State, c.City, c.Address, c.URL, c.SizeMin, c.SizeMax, now, now)
	if isUniqueViolation(err) {
		return apperr.Conflict(fmt.Sprintf("company %d already exists", c.CompanyID))
	}
	return err
}

// GetCompany looks up a company by its external id.
func (s *Store) GetCompany(ctx context.Context, companyID int64) (Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companyCols+` FROM companies WHERE company_id = ?`, companyID)
	c, err := scanCompany(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Company{}, apperr.NotFound(fmt.Sprintf("company %d not found", companyID))
	}
	if err != nil {
		return Company{}, fmt.Errorf("company get: %w", err)
	}
	return c, nil
}

// GetCompaniesByIDs batch-fetches companies with a single IN query, keyed by
// company_id. Missing ids are simply absent from the result.
func (s *Store) GetCompaniesByIDs(ctx context.Context, ids []int64) (map[int64]Company, error) {
	out := make(map[int64]Company, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+companyCols+` FROM companies WHERE company_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("company batch get: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("company batch scan: %w", err)
		}
		out[c.CompanyID] = c
	}
	return out, rows.Err()
}

// UpdateCompany applies non-nil fields of upd to the stored company.
type CompanyUpdate struct {
	Name        *string
	Description *string
	Country     *string
	State       *string
	City        *string
	Address     *string
	URL         *string
	SizeMin     *int64
	SizeMax     *int64
}

// UpdateCompany patches a company and bumps updated_at.
func (s *Store) UpdateCompany(ctx context.Context, companyID int64, upd CompanyUpdate) (Company, error) {
	cur, err := s.GetCompany(ctx, companyID)
	if err != nil {
		return Company{}, err
	}
	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&cur.Name, upd.Name)
	apply(&cur.Description, upd.Description)
	apply(&cur.Country, upd.Country)
	apply(&cur.State, upd.State)
	apply(&cur.City, upd.City)
	apply(&cur.Address, upd.Address)
	apply(&cur.URL, upd.URL)
	if upd.SizeMin != nil {
		cur.SizeMin = upd.SizeMin
	}
	if upd.SizeMax != nil {
		cur.SizeMax = upd.SizeMax
	}
	if cur.SizeMin != nil && cur.SizeMax != nil && *cur.SizeMin > *cur.SizeMax {
		return Company{}, apperr.BadRequest("company_size_min must not exceed company_size_max")
	}
	now := nowRFC3339()
	_, err = s.exec(ctx, "company update",
		`UPDATE companies SET name=?, description=?, country=?, state=?, city=?, address=?, url=?, size_min=?, size_max=?, updated_at=?
		 WHERE company_id=?`,
		cur.Name, cur.Description, cur.Country, cur.State, cur.City, cur.Address, cur.URL, cur.SizeMin, cur.SizeMax, now, companyID)
	if err != nil {
		return Company{}, err
	}
	cur.UpdatedAt = parseRFC3339(now)
	return cur, nil
}

// DeleteCompany removes a company.
func (s *Store) DeleteCompany(ctx context.Context, companyID int64) error {
	res, err := s.exec(ctx, "company delete", `DELETE FROM companies WHERE company_id = ?`, companyID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound(fmt.Sprintf("company %d not found", companyID))
	}
	return nil
}

// Allow-listed company sort fields mapped to columns.
var companySortCols = map[string]string{
	"name":       "name COLLATE NOCASE",
	"created_at": "created_at",
	"createdAt":  "created_at",
}

// companyWhere renders the non-q filter predicates.
func companyWhere(f CompanyFilter) (string, []any) {
	var conds []string
	var args []any
	eq := func(col, val string) {
		if val != "" {
			conds = append(conds, col+" = ? COLLATE NOCASE")
			args = append(args, val)
		}
	}
	eq("country", f.Country)
	eq("state", f.State)
	eq("city", f.City)
	if f.MinSize != nil {
		conds = append(conds, "size_max >= ?")
		args = append(args, *f.MinSize)
	}
	if f.MaxSize != nil {
		conds = append(conds, "size_min <= ?")
		args = append(args, *f.MaxSize)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListCompanies is the no-q path: filter, allow-listed sort, paginate.
func (s *Store) ListCompanies(ctx context.Context, f CompanyFilter, sort Sort, page Page) ([]Company, int64, error) {
	where, args := companyWhere(f)

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM companies`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("company count: %w", err)
	}

	col, ok := companySortCols[sort.Field]
	if !ok {
		col = "name COLLATE NOCASE"
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	query := `SELECT ` + companyCols + ` FROM companies` + where +
		` ORDER BY ` + col + ` ` + dir + `, company_id ASC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, page.Limit, page.Skip())...)
	if err != nil {
		return nil, 0, fmt.Errorf("company list: %w", err)
	}
	defer rows.Close()

	companies := []Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("company list scan: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, total, rows.Err()
}

// FetchCompanyDocs returns every company matching the non-q filters as
// ranking documents. The composite scorer runs over this set in memory.
func (s *Store) FetchCompanyDocs(ctx context.Context, f CompanyFilter) ([]rank.CompanyDoc, error) {
	where, args := companyWhere(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_id, name, description, country, state, city, created_at FROM companies`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("company docs: %w", err)
	}
	defer rows.Close()

	var docs []rank.CompanyDoc
	for rows.Next() {
		var d rank.CompanyDoc
		var created string
		if err := rows.Scan(&d.CompanyID, &d.Name, &d.Description, &d.Country, &d.State, &d.City, &created); err != nil {
			return nil, fmt.Errorf("company docs scan: %w", err)
		}
		d.CreatedAt = parseRFC3339(created)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// MaxCompanyID returns the highest assigned company id; used to sync the
// counter after bulk imports.
func (s *Store) MaxCompanyID(ctx context.Context) (int64, error) {
	var maxID sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(company_id) FROM companies`).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("company max id: %w", err)
	}
	return maxID.Int64, nil
}
