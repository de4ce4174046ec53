package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/desertthunder/uus/internal/catalog"
	"github.com/desertthunder/uus/internal/formatter"
	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

var pageNames = []string{"index.html", "course.html", "favorites.html", "error.html"}

// pageData is the template context shared by all pages.
type pageData struct {
	Title      string
	UserID     string
	Categories []models.Category
	Labels     formatter.Labels
	Active     string // selected category slug
	Query      string
	Courses    []models.Course
	View       *catalog.CourseView
	Message    string
}

// parsePages builds one template set per page, each combined with the shared layout.
func parsePages(files fs.FS) (map[string]*template.Template, error) {
	dir := subFS(files, "templates")
	funcs := template.FuncMap{
		"price":   formatter.FormatPrice,
		"noVideo": func() string { return formatter.NoVideoLabel },
		"courseURL": func(id, userID string) string {
			u := "/course/" + url.PathEscape(id)
			if userID != "" {
				u += "?user_id=" + url.QueryEscape(userID)
			}
			return u
		},
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(dir, "layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func (a *App) render(w http.ResponseWriter, status int, page string, data pageData) {
	t, ok := a.pages[page]
	if !ok {
		http.Error(w, "unknown page "+page, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		a.logger.Error("failed to render page", "page", page, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (a *App) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	data := pageData{Title: "Ошибка", Message: "Что-то пошло не так. Попробуйте позже."}

	switch {
	case errors.Is(err, shared.ErrNotFound):
		data.Title, data.Message = "Курс не найден", "Курс не найден"
	case status < http.StatusInternalServerError:
		data.Message = err.Error()
	default:
		a.logger.Error("page failed", "path", r.URL.Path, "err", err)
	}

	a.render(w, status, "error.html", data)
}

// categories loads the category list for navigation. Failures degrade to an empty list.
func (a *App) categories(r *http.Request) []models.Category {
	categories, err := a.catalog.Categories(r.Context())
	if err != nil {
		a.logger.Warn("failed to load categories", "err", err)
		return nil
	}
	return categories
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.PublishedIn(q.Get("category"))
	filter.Search = q.Get("q")

	courses, err := a.catalog.Browse(r.Context(), filter)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	categories := a.categories(r)
	a.render(w, http.StatusOK, "index.html", pageData{
		Title:      "Каталог курсов",
		UserID:     q.Get("user_id"),
		Categories: categories,
		Labels:     formatter.NewLabels(categories),
		Active:     filter.CategorySlug,
		Query:      filter.Search,
		Courses:    courses,
	})
}

func (a *App) handleCourse(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	view, err := a.catalog.Detail(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	a.render(w, http.StatusOK, "course.html", pageData{
		Title:  view.Course.Title,
		UserID: userID,
		View:   view,
	})
}

func (a *App) handleLikeForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	userID := r.FormValue("user_id")

	if _, err := a.catalog.ToggleLike(r.Context(), userID, id); err != nil {
		a.renderError(w, r, err)
		return
	}

	target := "/course/" + url.PathEscape(id) + "?user_id=" + url.QueryEscape(userID)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (a *App) handleFavorites(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	data := pageData{Title: "Избранное", UserID: userID}

	if userID == "" {
		data.Message = "Укажите пользователя, чтобы увидеть избранные курсы."
		a.render(w, http.StatusOK, "favorites.html", data)
		return
	}

	courses, err := a.catalog.Favorites(r.Context(), userID)
	if err != nil {
		a.renderError(w, r, err)
		return
	}

	categories := a.categories(r)
	data.Courses = courses
	data.Labels = formatter.NewLabels(categories)
	a.render(w, http.StatusOK, "favorites.html", data)
}
