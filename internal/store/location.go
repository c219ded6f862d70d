package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"jobboard-backend/internal/apperr"
	"jobboard-backend/internal/rank"
)

// locationIndexState keeps the flattened search index warm in memory.
// Loading is lazy on first use; concurrent first requests converge on a
// single build under the mutex while the others wait. Rebuilds replace the
// snapshot by reference, so readers keep the previous snapshot until the
// swap.
type locationIndexState struct {
	mu  sync.Mutex
	idx atomic.Pointer[rank.LocationIndex]
}

// locationTree is the stored per-country document shape.
type locationTree struct {
	States []rank.StateDoc `json:"states"`
}

// locationFileDoc is one entry of the import JSON.
type locationFileDoc struct {
	Country string          `json:"country"`
	States  []rank.StateDoc `json:"states"`
}

// ImportLocations loads the country tree from a JSON file, one document per
// country, upserting by country name.
func (s *Store) ImportLocations(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("locations import: read %s: %w", path, err)
	}
	var docs []locationFileDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return 0, fmt.Errorf("locations import: decode: %w", err)
	}
	for _, doc := range docs {
		tree, err := json.Marshal(locationTree{States: doc.States})
		if err != nil {
			return 0, fmt.Errorf("locations import: encode %s: %w", doc.Country, err)
		}
		if _, err := s.exec(ctx, "locations import",
			`INSERT INTO locations (country, tree) VALUES (?, ?)
			 ON CONFLICT(country) DO UPDATE SET tree = excluded.tree`,
			doc.Country, string(tree)); err != nil {
			return 0, err
		}
	}
	slog.Info("locations imported", slog.Int("countries", len(docs)), slog.String("file", path))
	return len(docs), nil
}

// Countries lists country names in alphabetical order.
func (s *Store) Countries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT country FROM locations ORDER BY country`)
	if err != nil {
		return nil, fmt.Errorf("locations countries: %w", err)
	}
	defer rows.Close()
	countries := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

func (s *Store) countryTree(ctx context.Context, country string) (locationTree, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT tree FROM locations WHERE country = ? COLLATE NOCASE`, country).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return locationTree{}, apperr.NotFound(fmt.Sprintf("country %q not found", country))
	}
	if err != nil {
		return locationTree{}, fmt.Errorf("locations tree: %w", err)
	}
	var tree locationTree
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return locationTree{}, fmt.Errorf("locations tree decode: %w", err)
	}
	return tree, nil
}

// States lists the state names of a country.
func (s *Store) States(ctx context.Context, country string) ([]string, error) {
	tree, err := s.countryTree(ctx, country)
	if err != nil {
		return nil, err
	}
	states := make([]string, len(tree.States))
	for i, st := range tree.States {
		states[i] = st.State
	}
	return states, nil
}

// Cities lists the city names of a state within a country.
func (s *Store) Cities(ctx context.Context, country, state string) ([]string, error) {
	tree, err := s.countryTree(ctx, country)
	if err != nil {
		return nil, err
	}
	for _, st := range tree.States {
		if st.State == state {
			return st.Cities, nil
		}
	}
	return nil, apperr.NotFound(fmt.Sprintf("state %q not found in %q", state, country))
}

// LocationIndex returns the warm flattened index, building it on first use
// and rebuilding when the underlying country count changes.
func (s *Store) LocationIndex(ctx context.Context) (*rank.LocationIndex, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations`).Scan(&count); err != nil {
		return nil, fmt.Errorf("locations count: %w", err)
	}
	if idx := s.locations.idx.Load(); idx != nil && idx.Countries() == count {
		return idx, nil
	}

	s.locations.mu.Lock()
	defer s.locations.mu.Unlock()
	if idx := s.locations.idx.Load(); idx != nil && idx.Countries() == count {
		return idx, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT country, tree FROM locations ORDER BY country`)
	if err != nil {
		return nil, fmt.Errorf("locations load: %w", err)
	}
	defer rows.Close()

	var docs []rank.CountryDoc
	for rows.Next() {
		var country, raw string
		if err := rows.Scan(&country, &raw); err != nil {
			return nil, fmt.Errorf("locations load scan: %w", err)
		}
		var tree locationTree
		if err := json.Unmarshal([]byte(raw), &tree); err != nil {
			return nil, fmt.Errorf("locations load decode %s: %w", country, err)
		}
		docs = append(docs, rank.CountryDoc{Country: country, States: tree.States})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idx := rank.BuildLocationIndex(docs)
	s.locations.idx.Store(idx)
	slog.Info("location index built", slog.Int("countries", idx.Countries()), slog.Int("entries", idx.Len()))
	return idx, nil
}
