// Package config loads analyzer settings. Values are layered: built-in
// defaults, then an optional YAML file, then .env files, then CDR_*
// environment variables.
package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/jalad-shrimali/cdr-analyzer/alias"
	"github.com/jalad-shrimali/cdr-analyzer/boundary"
	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/cellsite"
	"github.com/jalad-shrimali/cdr-analyzer/engine"
	"github.com/jalad-shrimali/cdr-analyzer/location"
	"github.com/jalad-shrimali/cdr-analyzer/normalize"
	"github.com/jalad-shrimali/cdr-analyzer/temporal"
)

const EnvPrefix = "CDR_"

// EnvFiles are read, when present, before the environment is parsed.
var EnvFiles = []string{".env", ".env.local"}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
	// MaxUpload bounds a multipart request, in bytes.
	MaxUpload int64  `yaml:"max_upload" env:"MAX_UPLOAD"`
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
}

type Config struct {
	DayWindow      string        `yaml:"day_window" env:"DAY_WINDOW"`
	WorkWindow     string        `yaml:"work_window" env:"WORK_WINDOW"`
	AbsenceGap     time.Duration `yaml:"absence_gap" env:"ABSENCE_GAP"`
	CountryCode    string        `yaml:"country_code" env:"COUNTRY_CODE"`
	NationalLength int           `yaml:"national_length" env:"NATIONAL_LENGTH"`
	HomeCircle     string        `yaml:"home_circle" env:"HOME_CIRCLE"`
	Workers        int           `yaml:"workers" env:"WORKERS"`

	// Case is the crime number stamped on the report.
	Case string `yaml:"case" env:"CASE"`

	// Preset picks a named view set; Views, when set, overrides it.
	Preset string   `yaml:"preset" env:"PRESET"`
	Views  []string `yaml:"views" env:"VIEWS" envSeparator:","`
	// TopN caps each ranked view as a whole, not per subscriber, so a
	// small value can drop quieter subscribers from a multi-subscriber run.
	TopN     int            `yaml:"top_n" env:"TOP_N"`
	ViewTopN map[string]int `yaml:"view_top_n"`

	// Aliases adds header variants per canonical field name.
	Aliases   map[string][]string `yaml:"aliases"`
	Weights   location.Weights    `yaml:"location_weights"`
	Countries map[string]string   `yaml:"countries"`

	LRNTable    string `yaml:"lrn_table" env:"LRN_TABLE"`
	SeriesTable string `yaml:"series_table" env:"SERIES_TABLE"`
	CellDB      string `yaml:"cell_db" env:"CELL_DB"`
	CellTable   string `yaml:"cell_table" env:"CELL_TABLE"`

	Log  LogConfig  `yaml:"log" envPrefix:"LOG_"`
	HTTP HTTPConfig `yaml:"http" envPrefix:"HTTP_"`
}

func Default() Config {
	return Config{
		DayWindow:      "06:00-18:00",
		WorkWindow:     "10:00-19:00",
		AbsenceGap:     12 * time.Hour,
		CountryCode:    normalize.DefaultPlan.CountryCode,
		NationalLength: normalize.DefaultPlan.NationalLength,
		Preset:         "full",
		TopN:           1000,
		Weights:        location.DefaultWeights,
		Log:            LogConfig{Level: "info", Format: "text"},
		HTTP: HTTPConfig{
			Addr:      ":8080",
			MaxUpload: 64 << 20,
			OutputDir: "filtered",
		},
	}
}

// Load applies the layers on top of Default. An empty path skips the YAML
// layer.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, errors.Wrapf(err, "parse %s", path)
		}
	}
	if err := loadEnvFiles(EnvFiles); err != nil {
		return c, err
	}
	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix}); err != nil {
		return c, errors.Wrap(err, "parse environment")
	}
	return c, c.Validate()
}

func loadEnvFiles(files []string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return errors.Wrap(godotenv.Load(existing...), "load env files")
}

func (c Config) Validate() error {
	if _, err := temporal.ParseWindow(c.DayWindow); err != nil {
		return errors.Wrap(err, "day_window")
	}
	if _, err := temporal.ParseWindow(c.WorkWindow); err != nil {
		return errors.Wrap(err, "work_window")
	}
	if c.AbsenceGap <= 0 {
		return errors.Errorf("absence_gap must be positive, got %s", c.AbsenceGap)
	}
	if c.NationalLength <= 0 {
		return errors.Errorf("national_length must be positive, got %d", c.NationalLength)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.TopN < 0 {
		return errors.Errorf("top_n must not be negative, got %d", c.TopN)
	}
	if c.Weights.Overall < 0 || c.Weights.Window < 0 {
		return errors.New("location_weights must not be negative")
	}
	if _, err := c.viewNames(); err != nil {
		return err
	}
	for name := range c.Aliases {
		if _, ok := cdr.ParseField(name); !ok {
			return errors.Errorf("aliases: unknown field %q", name)
		}
	}
	return nil
}

func (c Config) viewNames() ([]string, error) {
	if len(c.Views) > 0 {
		return c.Views, nil
	}
	if c.Preset == "" {
		return nil, nil
	}
	names, ok := engine.Presets[c.Preset]
	if !ok {
		return nil, errors.Errorf("unknown preset %q", c.Preset)
	}
	return names, nil
}

// EngineOptions turns the configuration into engine options. The returned
// close function releases the cell database, if one was opened.
func (c Config) EngineOptions(log logrus.FieldLogger) (engine.Options, func() error, error) {
	noop := func() error { return nil }
	if err := c.Validate(); err != nil {
		return engine.Options{}, noop, err
	}
	opts := engine.DefaultOptions()
	opts.Logger = log
	opts.Day, _ = temporal.ParseWindow(c.DayWindow)
	opts.Work, _ = temporal.ParseWindow(c.WorkWindow)
	opts.AbsenceGap = c.AbsenceGap
	opts.Workers = c.Workers
	opts.DefaultTopN = c.TopN
	opts.TopN = c.ViewTopN
	opts.Location = c.Weights
	opts.Case = c.Case
	opts.Views, _ = c.viewNames()

	plan := normalize.NumberPlan{CountryCode: c.CountryCode, NationalLength: c.NationalLength}
	opts.Normalize = normalize.Options{Plan: plan, HomeCircle: c.HomeCircle}

	if len(c.Aliases) > 0 {
		extra := make(map[cdr.Field][]string, len(c.Aliases))
		for name, variants := range c.Aliases {
			f, _ := cdr.ParseField(name)
			extra[f] = variants
		}
		opts.Aliases = alias.Default().Extend(extra)
	}

	opts.Boundary = boundary.Tables{
		CountryCode:    plan.CountryCode,
		NationalLength: plan.NationalLength,
		Countries:      boundary.DefaultCountries,
		HomeCircle:     c.HomeCircle,
	}
	if len(c.Countries) > 0 {
		opts.Boundary.Countries = c.Countries
	}
	var err error
	if c.LRNTable != "" {
		if opts.Boundary.LRN, err = boundary.LoadPrefixesFile(c.LRNTable); err != nil {
			return engine.Options{}, noop, errors.Wrap(err, "lrn_table")
		}
	}
	if c.SeriesTable != "" {
		if opts.Boundary.Series, err = boundary.LoadPrefixesFile(c.SeriesTable); err != nil {
			return engine.Options{}, noop, errors.Wrap(err, "series_table")
		}
	}

	var cells cellsite.Chain
	if c.CellTable != "" {
		tab, err := cellsite.LoadTableFile(c.CellTable)
		if err != nil {
			return engine.Options{}, noop, errors.Wrap(err, "cell_table")
		}
		log.WithFields(logrus.Fields{"path": c.CellTable, "cells": len(tab)}).Info("cell table loaded")
		cells = append(cells, tab)
	}
	closeFn := noop
	if c.CellDB != "" {
		store, err := cellsite.Open(c.CellDB)
		if err != nil {
			return engine.Options{}, noop, errors.Wrap(err, "cell_db")
		}
		log.WithField("path", c.CellDB).Info("cell database opened")
		cells = append(cells, store)
		closeFn = store.Close
	}
	if len(cells) > 0 {
		opts.Cells = cells
	}
	return opts, closeFn, nil
}
