package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jalad-shrimali/cdr-analyzer/boundary"
	"github.com/jalad-shrimali/cdr-analyzer/engine"
	"github.com/jalad-shrimali/cdr-analyzer/temporal"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func noEnvFiles(t *testing.T) {
	t.Helper()
	old := EnvFiles
	EnvFiles = nil
	t.Cleanup(func() { EnvFiles = old })
}

func TestDefaultIsValid(t *testing.T) {
	noEnvFiles(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadLayers(t *testing.T) {
	old := EnvFiles
	EnvFiles = []string{write(t, ".env", "CDR_HOME_CIRCLE=Kerala\nCDR_WORKERS=3\n")}
	t.Cleanup(func() {
		EnvFiles = old
		os.Unsetenv("CDR_HOME_CIRCLE")
		os.Unsetenv("CDR_WORKERS")
	})
	path := write(t, "cdr.yaml", `
day_window: "07:00-19:00"
absence_gap: 6h
preset: compact
home_circle: Delhi
workers: 2
view_top_n:
  MaxCalls: 5
aliases:
  b_party: ["other msisdn"]
location_weights:
  overall: 1
  window: 3
log:
  level: debug
`)
	t.Setenv("CDR_TOP_N", "20")
	t.Setenv("CDR_LOG_FORMAT", "json")
	t.Setenv("CDR_WORKERS", "4")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "07:00-19:00", c.DayWindow)
	assert.Equal(t, 6*time.Hour, c.AbsenceGap)
	assert.Equal(t, "compact", c.Preset)
	assert.Equal(t, map[string]int{"MaxCalls": 5}, c.ViewTopN)
	assert.Equal(t, 3.0, c.Weights.Window)
	assert.Equal(t, "debug", c.Log.Level)
	// .env beats YAML; the process environment beats .env.
	assert.Equal(t, "Kerala", c.HomeCircle)
	assert.Equal(t, 4, c.Workers)
	assert.Equal(t, 20, c.TopN)
	assert.Equal(t, "json", c.Log.Format)
}

func TestLoadErrors(t *testing.T) {
	noEnvFiles(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(write(t, "bad.yaml", "workers: [1"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"day window":  func(c *Config) { c.DayWindow = "morning" },
		"work window": func(c *Config) { c.WorkWindow = "10:00" },
		"absence gap": func(c *Config) { c.AbsenceGap = 0 },
		"plan":        func(c *Config) { c.NationalLength = 0 },
		"workers":     func(c *Config) { c.Workers = -1 },
		"top n":       func(c *Config) { c.TopN = -1 },
		"weights":     func(c *Config) { c.Weights.Window = -2 },
		"preset":      func(c *Config) { c.Preset = "huge" },
		"alias field": func(c *Config) { c.Aliases = map[string][]string{"crime": {"crime no"}} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestEngineOptions(t *testing.T) {
	log, _ := test.NewNullLogger()
	c := Default()
	c.DayWindow = "05:30-17:30"
	c.Preset = "compact"
	c.HomeCircle = "Delhi"
	c.LRNTable = write(t, "lrn.csv", "LRN,TSP,Circle\n2105,BSNL,Kerala\n")
	c.SeriesTable = write(t, "series.csv", "Series,Circle\n98765,Delhi\n")
	c.Aliases = map[string][]string{"b_party": {"other msisdn"}}
	c.Case = "CR-3"

	opts, closeFn, err := c.EngineOptions(log)
	require.NoError(t, err)
	require.NoError(t, closeFn())

	assert.Equal(t, temporal.Window{Start: 5*3600 + 1800, End: 17*3600 + 1800}, opts.Day)
	assert.Equal(t, engine.Presets["compact"], opts.Views)
	assert.Equal(t, 1000, opts.DefaultTopN)
	assert.Equal(t, boundary.Carrier{Circle: "Kerala", Provider: "BSNL", Operator: "BSNL"}, opts.Boundary.LRN["2105"])
	assert.Equal(t, "Delhi", opts.Boundary.Series["98765"].Circle)
	assert.Equal(t, "Delhi", opts.Normalize.HomeCircle)
	assert.Equal(t, "CR-3", opts.Case)
	assert.Equal(t, 1, opts.Aliases.Matches([]string{"Other MSISDN"}))
	assert.Nil(t, opts.Cells)

	e, err := engine.New(opts)
	require.NoError(t, err)
	assert.Equal(t, engine.Presets["compact"], e.Views())

	c.Views = []string{"Mapping"}
	opts, _, err = c.EngineOptions(log)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mapping"}, opts.Views)
}

func TestEngineOptionsCellTable(t *testing.T) {
	log, _ := test.NewNullLogger()
	c := Default()
	c.CellTable = write(t, "cells.csv", "Cell ID,Address\n404-45-1,MG Road\n")

	opts, closeFn, err := c.EngineOptions(log)
	require.NoError(t, err)
	defer closeFn()
	require.NotNil(t, opts.Cells)
	site, ok, err := opts.Cells.Lookup(context.Background(), "404451")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "MG Road", site.Address)
}

func TestEngineOptionsErrors(t *testing.T) {
	log, _ := test.NewNullLogger()

	c := Default()
	c.LRNTable = filepath.Join(t.TempDir(), "missing.csv")
	_, _, err := c.EngineOptions(log)
	assert.ErrorContains(t, err, "lrn_table")

	c = Default()
	c.CellDB = filepath.Join(t.TempDir(), "missing.db")
	_, _, err = c.EngineOptions(log)
	assert.ErrorContains(t, err, "cell_db")
}
