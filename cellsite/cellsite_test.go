package cellsite

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := New(db)
	defer s.Close()

	q := regexp.QuoteMeta("SELECT address, latitude, longitude, azimuth")
	mock.ExpectQuery(q).WithArgs("4044512", "4044512").
		WillReturnRows(sqlmock.NewRows([]string{"address", "latitude", "longitude", "azimuth"}).
			AddRow("MG Road, Delhi", "28.61", "77.20", "120"))
	mock.ExpectQuery(q).WithArgs("999", "999").WillReturnError(sql.ErrNoRows)

	ctx := context.Background()
	site, ok, err := s.Lookup(ctx, "4044512")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "MG Road, Delhi", site.Address)
	assert.Equal(t, "28.61/77.20", site.LatLong())

	// Served from cache, no second query.
	_, ok, err = s.Lookup(ctx, "4044512")
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = s.Lookup(ctx, "999")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = s.Lookup(ctx, "999")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.Lookup(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := New(db)
	defer s.Close()

	mock.ExpectQuery("SELECT").WillReturnError(sql.ErrConnDone)
	_, _, err = s.Lookup(context.Background(), "1")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestSiteLatLong(t *testing.T) {
	assert.Empty(t, Site{}.LatLong())
}

func TestLoadTable(t *testing.T) {
	csvData := "Cell ID,Address,MainCity,Latitude,Longitude,Azimuth\n" +
		"404-45-1,\"MG Road, Delhi\",Delhi,28.61,77.20,120\n" +
		",nowhere,,,,\n"
	tab, err := LoadTable(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, tab, 1)

	site, ok, err := tab.Lookup(context.Background(), "404451")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "MG Road, Delhi", site.Address)
	assert.Equal(t, "Delhi", site.City)
	assert.Equal(t, "28.61/77.20", site.LatLong())

	_, ok, _ = tab.Lookup(context.Background(), "404-45-1")
	assert.True(t, ok)

	_, err = LoadTable(strings.NewReader("address\nx\n"))
	assert.Error(t, err)

	_, err = LoadTableFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	store := New(db)
	defer store.Close()
	mock.ExpectQuery("SELECT").WithArgs("777", "777").
		WillReturnRows(sqlmock.NewRows([]string{"address", "latitude", "longitude", "azimuth"}).
			AddRow("Fort", nil, nil, nil))

	c := Chain{Table{"111": {ID: "111", Address: "Depot"}}, store}
	site, ok, err := c.Lookup(context.Background(), "111")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Depot", site.Address)

	site, ok, err = c.Lookup(context.Background(), "777")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Fort", site.Address)
	assert.Empty(t, site.LatLong())
	assert.NoError(t, mock.ExpectationsWereMet())
}
