// Package handlers exposes the analyzer over HTTP: upload CDR files, get
// back a workbook of views.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/jalad-shrimali/cdr-analyzer/cdr"
	"github.com/jalad-shrimali/cdr-analyzer/engine"
	"github.com/jalad-shrimali/cdr-analyzer/render"
	"github.com/jalad-shrimali/cdr-analyzer/source"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Config struct {
	// OutputDir holds generated workbooks served under /download.
	OutputDir string
	MaxUpload int64
}

type Server struct {
	opts    engine.Options
	cfg     Config
	reader  *source.Reader
	metrics *metrics
	log     logrus.FieldLogger
}

func New(opts engine.Options, cfg Config, log logrus.FieldLogger) *Server {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = 64 << 20
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "filtered"
	}
	opts.Logger = log
	return &Server{
		opts:    opts,
		cfg:     cfg,
		reader:  source.NewReader(opts.Aliases),
		metrics: newMetrics(),
		log:     log,
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.handler())
	r.Get("/views", s.listViews)
	r.Post("/upload", s.upload)
	r.Get("/download/{name}", s.download)
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}

type viewsResponse struct {
	Views   []string            `json:"views"`
	Presets map[string][]string `json:"presets"`
}

func (s *Server) listViews(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, viewsResponse{Views: engine.ViewNames(), Presets: engine.Presets})
}

type viewSummary struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

type uploadResponse struct {
	RunID       string          `json:"run_id"`
	Status      engine.Status   `json:"status"`
	Download    string          `json:"download,omitempty"`
	Views       []viewSummary   `json:"views,omitempty"`
	Diagnostics cdr.Diagnostics `json:"diagnostics"`
}

// upload runs one analysis over the multipart "file" parts. The optional
// "views" (comma separated) or "preset" fields pick the views; format=xlsx
// returns the workbook itself instead of a download link.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	parts := r.MultipartForm.File["file"]
	if len(parts) == 0 {
		respondError(w, http.StatusBadRequest, "no file parts in request")
		return
	}

	opts := s.opts
	views, err := selection(r.FormValue("views"), r.FormValue("preset"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if views != nil {
		opts.Views = views
	}
	if c := caseLabel(r); c != "" {
		opts.Case = c
	}
	e, err := engine.New(opts)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	inputs := make([]source.Input, 0, len(parts))
	for _, p := range parts {
		f, err := p.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		inputs = append(inputs, s.reader.Bytes(filepath.Base(p.Filename), data))
	}

	log := s.log.WithField("request_id", middleware.GetReqID(r.Context()))
	start := time.Now()
	res, err := e.Analyze(r.Context(), inputs, engine.Hooks{
		OnProgress: func(f float64, stage string) {
			log.WithFields(logrus.Fields{"stage": stage, "progress": f}).Debug("progress")
		},
	})
	if err != nil {
		log.WithError(err).Error("analysis failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.observe(res, time.Since(start).Seconds())

	out := uploadResponse{RunID: res.Diagnostics.RunID, Status: res.Status, Diagnostics: res.Diagnostics}
	switch res.Status {
	case engine.StatusCancelled:
		log.Warn("analysis cancelled by client")
		return
	case engine.StatusEmpty:
		respondJSON(w, http.StatusUnprocessableEntity, out)
		return
	}

	if r.FormValue("format") == "xlsx" {
		w.Header().Set("Content-Type", xlsxType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+res.Diagnostics.RunID+`.xlsx"`)
		if err := render.Workbook(w, res.Views, res.Diagnostics); err != nil {
			log.WithError(err).Error("write workbook")
		}
		return
	}

	name, err := s.save(res)
	if err != nil {
		log.WithError(err).Error("save workbook")
		respondError(w, http.StatusInternalServerError, "could not save workbook")
		return
	}
	out.Download = "/download/" + name
	for _, v := range res.Views {
		out.Views = append(out.Views, viewSummary{Name: v.Name, Rows: len(v.Rows)})
	}
	respondJSON(w, http.StatusOK, out)
}

// caseLabel accepts the filter service's crime_number field as well.
func caseLabel(r *http.Request) string {
	if c := strings.TrimSpace(r.FormValue("case")); c != "" {
		return c
	}
	return strings.TrimSpace(r.FormValue("crime_number"))
}

func selection(views, preset string) ([]string, error) {
	if views = strings.TrimSpace(views); views != "" {
		var out []string
		for _, v := range strings.Split(views, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
		return out, nil
	}
	if preset == "" {
		return nil, nil
	}
	names, ok := engine.Presets[preset]
	if !ok {
		return nil, errors.Errorf("unknown preset %q", preset)
	}
	return names, nil
}

func (s *Server) save(res *engine.Result) (string, error) {
	if err := os.MkdirAll(s.cfg.OutputDir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output dir")
	}
	name := res.Diagnostics.RunID + ".xlsx"
	f, err := os.Create(filepath.Join(s.cfg.OutputDir, name))
	if err != nil {
		return "", errors.Wrap(err, "create workbook")
	}
	if err := render.Workbook(f, res.Views, res.Diagnostics); err != nil {
		f.Close()
		return "", err
	}
	return name, errors.Wrap(f.Close(), "close workbook")
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name != filepath.Base(name) || filepath.Ext(name) != ".xlsx" {
		respondError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	path := filepath.Join(s.cfg.OutputDir, name)
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "no such workbook")
		return
	}
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
