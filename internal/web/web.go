// Package web serves the course catalog over HTTP: server-rendered pages and a JSON API.
//
// # Pages
//
//	GET  /                  catalog of published courses (?category=, ?q=)
//	GET  /course/{id}       course page with the embedded player or a placeholder
//	POST /course/{id}/like  toggles the viewer's like and redirects back
//	GET  /favorites         courses liked by ?user_id=
//
// # JSON API
//
//	GET  /api/courses             published courses (?category=, ?q=, ?limit=)
//	POST /api/courses             course submission
//	GET  /api/courses/{id}        one course with its resolved video
//	GET  /api/categories          catalog sections
//	POST /api/likes/toggle        {"courseId", "userId"} -> {"liked"}
//	GET  /api/video/normalize     ?ref= -> {"ok", "embed_url"}
//	GET  /healthz                 backend reachability
//
// Responses use the envelope {"ok": true, "data": ...} or {"ok": false, "error": "..."}.
//
// Authentication is handled upstream; handlers take the acting user from a user_id parameter.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/uus/internal/catalog"
	"github.com/desertthunder/uus/internal/server"
	"github.com/desertthunder/uus/internal/shared"
)

//go:embed templates/*.html
var templateFiles embed.FS

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// HealthChecker reports whether the data backend is reachable.
type HealthChecker interface {
	Name() string
	Health(ctx context.Context) error
}

// App holds the handlers' dependencies.
type App struct {
	catalog *catalog.Catalog
	health  HealthChecker
	logger  *log.Logger
	pages   map[string]*template.Template
}

// New parses the embedded templates and returns an [App]. health may be nil, in which case /healthz
// always reports OK.
func New(cat *catalog.Catalog, health HealthChecker, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	pages, err := parsePages(templateFiles)
	if err != nil {
		return nil, err
	}

	return &App{
		catalog: cat,
		health:  health,
		logger:  shared.WithLogger(logger, "component", "web"),
		pages:   pages,
	}, nil
}

// Register mounts every page and API route on r.
func (a *App) Register(r *server.BasicRouter) {
	r.HandleFunc(http.MethodGet, "/{$}", a.handleIndex)
	r.HandleFunc(http.MethodGet, "/course/{id}", a.handleCourse)
	r.HandleFunc(http.MethodPost, "/course/{id}/like", a.handleLikeForm)
	r.HandleFunc(http.MethodGet, "/favorites", a.handleFavorites)

	r.HandleFunc(http.MethodGet, "/api/courses", a.handleListCourses)
	r.HandleFunc(http.MethodPost, "/api/courses", a.handleCreateCourse)
	r.HandleFunc(http.MethodGet, "/api/courses/{id}", a.handleGetCourse)
	r.HandleFunc(http.MethodGet, "/api/categories", a.handleCategories)
	r.HandleFunc(http.MethodPost, "/api/likes/toggle", a.handleToggleLike)
	r.HandleFunc(http.MethodGet, "/api/video/normalize", a.handleNormalize)
	r.HandleFunc(http.MethodGet, "/healthz", a.handleHealth)
}

// Handler returns a router with the standard middleware stack and every route registered.
func (a *App) Handler(requestTimeout time.Duration) http.Handler {
	r := server.NewBasicRouter()
	r.Use(server.RequestID(), server.Logger(a.logger), server.Recover(a.logger), server.Timeout(requestTimeout))
	a.Register(r)
	return r
}

type envelope struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("failed to write response", "err", err)
	}
}

// writeError maps err to a status code and writes the error envelope. Server-side failures are logged
// and reported with a generic message.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", "path", r.URL.Path, "request_id", server.RequestIDFrom(r.Context()), "err", err)
		msg = http.StatusText(status)
	}
	a.writeJSON(w, status, envelope{OK: false, Error: msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUnrecognizedVideo), errors.Is(err, shared.ErrConstraint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

func subFS(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
