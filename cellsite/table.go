package cellsite

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"

	"github.com/jalad-shrimali/cdr-analyzer/alias"
)

// Table is an in-memory site list, keyed by cell id without separators.
type Table map[string]Site

// LoadTable reads a CSV export with a cell id column and any of address,
// city, latitude, longitude and azimuth.
func LoadTable(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read cell table header")
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[alias.Key(h)] = i
	}
	col := func(keys ...string) int {
		for _, k := range keys {
			if i, ok := idx[k]; ok {
				return i
			}
		}
		return -1
	}
	iID := col("cellid", "cgi", "cellglobalid")
	if iID < 0 {
		return nil, errors.Errorf("cell table needs a cell id column, got %v", header)
	}
	iAddr, iCity := col("address", "siteaddress"), col("maincity", "city", "subcity")
	iLat, iLon, iAz := col("latitude", "lat"), col("longitude", "long", "lon"), col("azimuth")

	get := func(row []string, i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	t := Table{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read cell table")
		}
		id := strings.ReplaceAll(get(row, iID), "-", "")
		if id == "" {
			continue
		}
		t[id] = Site{
			ID:        id,
			Address:   get(row, iAddr),
			City:      get(row, iCity),
			Latitude:  get(row, iLat),
			Longitude: get(row, iLon),
			Azimuth:   get(row, iAz),
		}
	}
	return t, nil
}

func LoadTableFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open cell table")
	}
	defer f.Close()
	return LoadTable(f)
}

func (t Table) Lookup(_ context.Context, id string) (Site, bool, error) {
	s, ok := t[strings.ReplaceAll(id, "-", "")]
	return s, ok, nil
}

// Chain tries each lookup in turn and returns the first hit.
type Chain []interface {
	Lookup(ctx context.Context, id string) (Site, bool, error)
}

func (c Chain) Lookup(ctx context.Context, id string) (Site, bool, error) {
	for _, l := range c {
		s, ok, err := l.Lookup(ctx, id)
		if err != nil || ok {
			return s, ok, err
		}
	}
	return Site{}, false, nil
}
