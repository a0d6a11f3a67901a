// Package cellsite looks up tower addresses and coordinates by cell id,
// either in a SQLite database with a cellids table or in a CSV table.
package cellsite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/go-faster/errors"
	_ "github.com/mattn/go-sqlite3"
)

type Site struct {
	ID        string
	Address   string
	City      string
	Latitude  string
	Longitude string
	Azimuth   string
}

func (s Site) LatLong() string {
	if s.Latitude == "" && s.Longitude == "" {
		return ""
	}
	return s.Latitude + "/" + s.Longitude
}

const lookupQuery = `
        SELECT address, latitude, longitude, azimuth
          FROM cellids
         WHERE cellid=? OR REPLACE(cellid,'-','')=?
         LIMIT 1`

// Store answers lookups from the database and remembers hits and misses.
type Store struct {
	db *sql.DB

	mu    sync.Mutex
	cache map[string]*Site
}

// Open opens the database at path read-only.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, errors.Wrapf(err, "open cell db %s", path)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open cell db %s", path)
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db, cache: map[string]*Site{}}
}

func (s *Store) Close() error { return s.db.Close() }

// Lookup returns the site for id; ok is false when the table has no row.
func (s *Store) Lookup(ctx context.Context, id string) (Site, bool, error) {
	if id == "" {
		return Site{}, false, nil
	}
	s.mu.Lock()
	hit, cached := s.cache[id]
	s.mu.Unlock()
	if cached {
		if hit == nil {
			return Site{}, false, nil
		}
		return *hit, true, nil
	}

	var addr, lat, lon, az sql.NullString
	err := s.db.QueryRowContext(ctx, lookupQuery, id, id).Scan(&addr, &lat, &lon, &az)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.remember(id, nil)
		return Site{}, false, nil
	case err != nil:
		return Site{}, false, errors.Wrapf(err, "lookup cell %s", id)
	}
	site := Site{ID: id, Address: addr.String, Latitude: lat.String, Longitude: lon.String, Azimuth: az.String}
	s.remember(id, &site)
	return site, true, nil
}

func (s *Store) remember(id string, site *Site) {
	s.mu.Lock()
	s.cache[id] = site
	s.mu.Unlock()
}
