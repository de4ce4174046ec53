package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/uus/internal/catalog"
	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

const courseCreatedMessage = "Курс успешно создан"

// courseDetail is the JSON shape of GET /api/courses/{id}.
type courseDetail struct {
	models.Course
	Category *models.Category `json:"category"`
	EmbedURL string           `json:"embed_url"`
	HasVideo bool             `json:"has_video"`
	Liked    bool             `json:"liked"`
}

func (a *App) handleListCourses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.PublishedIn(q.Get("category"))
	filter.Search = q.Get("q")

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			a.writeError(w, r, fmt.Errorf("%w: limit must be a non-negative integer", shared.ErrInvalidInput))
			return
		}
		filter.Limit = limit
	}

	courses, err := a.catalog.Browse(r.Context(), filter)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if courses == nil {
		courses = []models.Course{}
	}

	a.writeJSON(w, http.StatusOK, envelope{OK: true, Data: courses})
}

func (a *App) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	var in catalog.CourseInput
	if err := decodeJSON(w, r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}

	course, err := a.catalog.Submit(r.Context(), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, envelope{OK: true, Data: course, Message: courseCreatedMessage})
}

func (a *App) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	view, err := a.catalog.Detail(r.Context(), r.PathValue("id"), r.URL.Query().Get("user_id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, envelope{OK: true, Data: courseDetail{
		Course:   view.Course,
		Category: view.Category,
		EmbedURL: view.Video.EmbedURL,
		HasVideo: view.Video.OK,
		Liked:    view.Liked,
	}})
}

func (a *App) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.catalog.Categories(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if categories == nil {
		categories = []models.Category{}
	}

	a.writeJSON(w, http.StatusOK, envelope{OK: true, Data: categories})
}

// toggleRequest accepts both the camelCase keys browsers send and snake_case.
type toggleRequest struct {
	CourseID      string `json:"courseId"`
	UserID        string `json:"userId"`
	SnakeCourseID string `json:"course_id"`
	SnakeUserID   string `json:"user_id"`
}

func (t toggleRequest) ids() (userID, courseID string) {
	userID, courseID = strings.TrimSpace(t.UserID), strings.TrimSpace(t.CourseID)
	if userID == "" {
		userID = strings.TrimSpace(t.SnakeUserID)
	}
	if courseID == "" {
		courseID = strings.TrimSpace(t.SnakeCourseID)
	}
	return userID, courseID
}

func (a *App) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing data"})
		return
	}

	userID, courseID := req.ids()
	if userID == "" || courseID == "" {
		a.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing data"})
		return
	}

	liked, err := a.catalog.ToggleLike(r.Context(), userID, courseID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
}

func (a *App) handleNormalize(w http.ResponseWriter, r *http.Request) {
	ref := a.catalog.ResolveVideo(r.URL.Query().Get("ref"))
	a.writeJSON(w, http.StatusOK, struct {
		OK       bool   `json:"ok"`
		EmbedURL string `json:"embed_url"`
	}{ref.OK, ref.EmbedURL})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health == nil {
		a.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if err := a.health.Health(r.Context()); err != nil {
		a.logger.Warn("health check failed", "backend", a.health.Name(), "err", err)
		a.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "backend": a.health.Name(), "error": err.Error()})
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "backend": a.health.Name()})
}
