// Package web serves a small read-only dashboard over the findings of a scan.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sevigo/diff-warden/internal/core"
	"github.com/sevigo/diff-warden/internal/findings"
)

// ContentsUnavailable replaces the file contents when they cannot be read.
const ContentsUnavailable = "ERR: Could not retrieve contents"

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"severity": findings.Severity,
}).ParseFS(templateFiles, "templates/*.html"))

// EnrichedFinding is a finding together with the content of its file.
type EnrichedFinding struct {
	core.Finding
	FileContents string `json:"file_contents"`
}

// Enrich reads the file of every finding. Files are read once each; a read
// failure yields ContentsUnavailable instead of an error.
func Enrich(ctx context.Context, read func(ctx context.Context, filename string) (string, error), list []core.Finding) []EnrichedFinding {
	cache := make(map[string]string)
	out := make([]EnrichedFinding, 0, len(list))
	for _, f := range list {
		contents, ok := cache[f.File]
		if !ok {
			var err error
			contents, err = read(ctx, f.File)
			if err != nil {
				contents = ContentsUnavailable
			}
			cache[f.File] = contents
		}
		out = append(out, EnrichedFinding{Finding: f, FileContents: contents})
	}
	return out
}

type detailView struct {
	Index      int
	Finding    EnrichedFinding
	Context    string
	ContextMin int
	ContextMax int
}

type handler struct {
	findings  []EnrichedFinding
	templates *template.Template
	logger    *slog.Logger
}

// NewRouter returns the dashboard routes.
func NewRouter(list []EnrichedFinding, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{findings: list, templates: templates, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Get("/findings/{index}", h.detail)
	r.Get("/api/findings", h.apiFindings)
	return r
}

func (h *handler) index(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "index.html", h.findings)
}

func (h *handler) detail(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || i < 0 || i >= len(h.findings) {
		http.NotFound(w, r)
		return
	}

	f := h.findings[i]
	view := detailView{Index: i, Finding: f}
	if f.FileContents != ContentsUnavailable {
		if excerpt, start, end, ok := findings.Context(f.FileContents, f.Line(), findings.DefaultContextLines); ok {
			view.Context, view.ContextMin, view.ContextMax = excerpt, start, end
		}
	}
	h.render(w, "finding.html", view)
}

func (h *handler) apiFindings(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	list := h.findings
	if list == nil {
		list = []EnrichedFinding{}
	}
	if err := json.NewEncoder(w).Encode(list); err != nil {
		h.logger.Error("failed to encode findings", "error", err)
	}
}

func (h *handler) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Error("failed to write response", "template", name, "error", err)
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving findings dashboard", "address", "http://"+addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("dashboard server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down dashboard: %w", err)
	}
	return nil
}
