package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
	tu "github.com/desertthunder/uus/internal/testing"
)

type recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

// fakeREST records every request and replies with the handler's status and body.
func fakeREST(t *testing.T, reply func(r *http.Request) (int, string)) (*SupabaseService, *[]recorded) {
	t.Helper()

	var (
		mu   sync.Mutex
		reqs []recorded
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recorded{r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Clone(), string(body)})
		mu.Unlock()

		status, out := reply(r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, out)
	}))
	t.Cleanup(server.Close)

	srv, err := NewSupabaseService(server.URL, "service-key", SupabaseOptions{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv, &reqs
}

const courseJSON = `{"id": 7, "title": "Вязание спицами", "description": null, "price": 990,
	"category_slug": "vyazanie", "cover_url": null,
	"video_embed_code": "https://rutube.ru/play/embed/abc", "author_id": "a1b2",
	"status": "published", "created_at": "2025-03-01T10:00:00.123456+00:00",
	"updated_at": "2025-03-01 10:00:00"}`

func TestNewSupabaseService(t *testing.T) {
	t.Run("Appends REST Path", func(t *testing.T) {
		srv, err := NewSupabaseService("https://demo.supabase.co/", "key", SupabaseOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if srv.baseURL != "https://demo.supabase.co/rest/v1" {
			t.Errorf("unexpected base URL %s", srv.baseURL)
		}
		if srv.Name() != "Supabase" {
			t.Errorf("expected name Supabase, got %s", srv.Name())
		}
	})

	t.Run("Keeps Explicit REST Path", func(t *testing.T) {
		srv, err := NewSupabaseService("http://localhost:54321/rest/v1", "key", SupabaseOptions{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if srv.baseURL != "http://localhost:54321/rest/v1" {
			t.Errorf("unexpected base URL %s", srv.baseURL)
		}
	})

	t.Run("Missing Key", func(t *testing.T) {
		_, err := NewSupabaseService("https://demo.supabase.co", "", SupabaseOptions{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("Invalid URL", func(t *testing.T) {
		_, err := NewSupabaseService("not a url", "key", SupabaseOptions{})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSupabaseService(t *testing.T) {
	ctx := context.Background()

	t.Run("Sends Auth Headers", func(t *testing.T) {
		srv, reqs := fakeREST(t, func(*http.Request) (int, string) { return 200, "[]" })

		if _, err := srv.ListCategories(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		h := (*reqs)[0].Header
		if h.Get("apikey") != "service-key" {
			t.Errorf("expected apikey header, got %q", h.Get("apikey"))
		}
		if h.Get("Authorization") != "Bearer service-key" {
			t.Errorf("expected bearer token, got %q", h.Get("Authorization"))
		}
		if (*reqs)[0].Path != "/rest/v1/categories" {
			t.Errorf("unexpected path %s", (*reqs)[0].Path)
		}
		if !strings.Contains((*reqs)[0].Query, "order=title.asc") {
			t.Errorf("expected title ordering, got %s", (*reqs)[0].Query)
		}
	})

	t.Run("CreateCourse", func(t *testing.T) {
		srv, reqs := fakeREST(t, func(*http.Request) (int, string) { return 201, "[" + courseJSON + "]" })

		c := &models.Course{
			Title:          "Вязание спицами",
			Price:          990,
			CategorySlug:   "vyazanie",
			VideoEmbedCode: "https://rutube.ru/play/embed/abc",
			AuthorID:       "a1b2",
			Status:         models.StatusPublished,
		}
		if err := srv.CreateCourse(ctx, c); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		req := (*reqs)[0]
		if req.Method != http.MethodPost || req.Path != "/rest/v1/courses" {
			t.Errorf("unexpected request %s %s", req.Method, req.Path)
		}
		if req.Header.Get("Prefer") != "return=representation" {
			t.Errorf("expected representation preference, got %q", req.Header.Get("Prefer"))
		}

		var payload []map[string]any
		if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload[0]["cover_url"] != nil {
			t.Errorf("empty cover should be sent as null, got %v", payload[0]["cover_url"])
		}
		if payload[0]["video_embed_code"] != "https://rutube.ru/play/embed/abc" {
			t.Errorf("unexpected video in payload %v", payload[0]["video_embed_code"])
		}

		if c.ID != "7" {
			t.Errorf("expected numeric id decoded as \"7\", got %q", c.ID)
		}
		if c.CreatedAt.IsZero() || c.UpdatedAt.IsZero() {
			t.Errorf("expected timestamps from response, got %v %v", c.CreatedAt, c.UpdatedAt)
		}
	})

	t.Run("GetCourse", func(t *testing.T) {
		t.Run("Found", func(t *testing.T) {
			srv, reqs := fakeREST(t, func(*http.Request) (int, string) { return 200, "[" + courseJSON + "]" })

			c, err := srv.GetCourse(ctx, "7")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains((*reqs)[0].Query, "id=eq.7") {
				t.Errorf("expected id filter, got %s", (*reqs)[0].Query)
			}
			if c.Description != "" || c.CategorySlug != "vyazanie" || c.Price != 990 {
				t.Errorf("unexpected course %+v", c)
			}
		})

		t.Run("Missing", func(t *testing.T) {
			srv, _ := fakeREST(t, func(*http.Request) (int, string) { return 200, "[]" })

			if _, err := srv.GetCourse(ctx, "404"); !errors.Is(err, shared.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("ListCourses Query", func(t *testing.T) {
		srv, reqs := fakeREST(t, func(*http.Request) (int, string) { return 200, "[" + courseJSON + "]" })

		f := models.CourseFilter{
			Status:       models.StatusPublished,
			CategorySlug: "vyazanie",
			Search:       "спицы, (x)",
			IDs:          []string{"1", "2"},
			Limit:        5,
		}
		courses, err := srv.ListCourses(ctx, f)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(courses) != 1 {
			t.Fatalf("expected 1 course, got %d", len(courses))
		}

		q := courseQuery(f)
		if q.Get("status") != "eq.published" || q.Get("category_slug") != "eq.vyazanie" {
			t.Errorf("unexpected filters %v", q)
		}
		if q.Get("or") != "(title.ilike.*спицы x*,description.ilike.*спицы x*)" {
			t.Errorf("unexpected search tree %q", q.Get("or"))
		}
		if q.Get("id") != "in.(1,2)" || q.Get("order") != "created_at.desc" || q.Get("limit") != "5" {
			t.Errorf("unexpected query %v", q)
		}
		if (*reqs)[0].Query != q.Encode() {
			t.Errorf("request query %s does not match %s", (*reqs)[0].Query, q.Encode())
		}
	})

	t.Run("ListCourses Empty IDs", func(t *testing.T) {
		srv, reqs := fakeREST(t, func(*http.Request) (int, string) { return 200, "[]" })

		courses, err := srv.ListCourses(ctx, models.CourseFilter{IDs: []string{}})
		if err != nil || len(courses) != 0 {
			t.Errorf("expected empty result, got %d %v", len(courses), err)
		}
		if len(*reqs) != 0 {
			t.Errorf("expected no request for an empty id list, got %d", len(*reqs))
		}
	})

	t.Run("UpdateCourseVideo", func(t *testing.T) {
		srv, reqs := fakeREST(t, func(*http.Request) (int, string) { return 200, "[" + courseJSON + "]" })

		if err := srv.UpdateCourseVideo(ctx, "7", "https://rutube.ru/play/embed/abc"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		req := (*reqs)[0]
		if req.Method != http.MethodPatch || req.Query != "id=eq.7" {
			t.Errorf("unexpected request %s ?%s", req.Method, req.Query)
		}
		if !strings.Contains(req.Body, `"video_embed_code":"https://rutube.ru/play/embed/abc"`) {
			t.Errorf("unexpected body %s", req.Body)
		}
	})

	t.Run("ToggleLike", func(t *testing.T) {
		t.Run("Unlike Existing", func(t *testing.T) {
			srv, reqs := fakeREST(t, func(r *http.Request) (int, string) {
				if r.Method == http.MethodGet {
					return 200, `[{"id": 3}]`
				}
				return 204, ""
			})

			liked, err := srv.ToggleLike(ctx, "u1", "7")
			if err != nil || liked {
				t.Fatalf("expected unliked, got %v %v", liked, err)
			}
			if len(*reqs) != 2 || (*reqs)[1].Method != http.MethodDelete {
				t.Fatalf("expected lookup then delete, got %+v", *reqs)
			}
			if !strings.Contains((*reqs)[1].Query, "user_id=eq.u1") || !strings.Contains((*reqs)[1].Query, "course_id=eq.7") {
				t.Errorf("unexpected delete filter %s", (*reqs)[1].Query)
			}
		})

		t.Run("Like New", func(t *testing.T) {
			srv, reqs := fakeREST(t, func(r *http.Request) (int, string) {
				if r.Method == http.MethodGet {
					return 200, `[]`
				}
				return 201, ""
			})

			liked, err := srv.ToggleLike(ctx, "u1", "7")
			if err != nil || !liked {
				t.Fatalf("expected liked, got %v %v", liked, err)
			}
			if (*reqs)[1].Method != http.MethodPost || (*reqs)[1].Path != "/rest/v1/likes" {
				t.Errorf("expected insert into likes, got %s %s", (*reqs)[1].Method, (*reqs)[1].Path)
			}
		})

		t.Run("Duplicate Insert Counts As Liked", func(t *testing.T) {
			srv, _ := fakeREST(t, func(r *http.Request) (int, string) {
				if r.Method == http.MethodGet {
					return 200, `[]`
				}
				return 409, `{"code": "23505", "message": "duplicate key value violates unique constraint"}`
			})

			liked, err := srv.ToggleLike(ctx, "u1", "7")
			if err != nil || !liked {
				t.Fatalf("expected liked, got %v %v", liked, err)
			}
		})
	})

	t.Run("ListLikedCourseIDs", func(t *testing.T) {
		srv, reqs := fakeREST(t, func(*http.Request) (int, string) {
			return 200, `[{"course_id": 7}, {"course_id": "b2c3"}]`
		})

		ids, err := srv.ListLikedCourseIDs(ctx, "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(ids) != 2 || ids[0] != "7" || ids[1] != "b2c3" {
			t.Errorf("unexpected ids %v", ids)
		}
		if !strings.Contains((*reqs)[0].Query, "select=course_id") {
			t.Errorf("unexpected query %s", (*reqs)[0].Query)
		}
	})

	t.Run("GetCategory", func(t *testing.T) {
		srv, _ := fakeREST(t, func(*http.Request) (int, string) { return 200, `[{"slug": "lepka", "title": "Лепка"}]` })

		c, err := srv.GetCategory(ctx, "lepka")
		if err != nil || c.Title != "Лепка" {
			t.Errorf("unexpected category %+v %v", c, err)
		}
	})

	t.Run("Health", func(t *testing.T) {
		srv, reqs := fakeREST(t, func(*http.Request) (int, string) { return 200, `{"swagger": "2.0"}` })

		if err := srv.Health(ctx); err != nil {
			t.Fatalf("expected healthy, got %v", err)
		}
		if (*reqs)[0].Path != "/rest/v1/" {
			t.Errorf("expected REST root, got %s", (*reqs)[0].Path)
		}

		down, _ := fakeREST(t, func(*http.Request) (int, string) { return 503, "upstream down" })
		if err := down.Health(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestSupabaseServiceErrors(t *testing.T) {
	ctx := context.Background()

	tc := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"duplicate", 409, `{"code": "23505", "message": "dup"}`, shared.ErrDuplicate},
		{"foreign key", 409, `{"code": "23503", "message": "fk"}`, shared.ErrConstraint},
		{"single row", 406, `{"code": "PGRST116", "message": "no rows"}`, shared.ErrNotFound},
		{"unauthorized", 401, `{"message": "Invalid API key"}`, shared.ErrMissingCredentials},
		{"server error", 500, `oops`, shared.ErrServiceUnavailable},
		{"bad request", 400, `{"code": "PGRST100", "message": "parse"}`, shared.ErrAPIRequest},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeREST(t, func(*http.Request) (int, string) { return tt.status, tt.body })

			_, err := srv.ListCategories(ctx)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var pgErr *PostgrestError
			if !errors.As(err, &pgErr) || pgErr.Status != tt.status {
				t.Errorf("expected PostgrestError with status %d, got %v", tt.status, err)
			}
		})
	}

	t.Run("Transport Failure", func(t *testing.T) {
		srv, err := NewSupabaseService("https://demo.supabase.co", "key", SupabaseOptions{
			Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed")),
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if _, err := srv.GetCourse(ctx, "1"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		srv, err := NewSupabaseService("https://demo.supabase.co", "key", SupabaseOptions{
			Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     make(http.Header),
			}, nil),
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		_, err = srv.ListCategories(ctx)
		if err == nil || !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("expected read error, got %v", err)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		srv, _ := fakeREST(t, func(*http.Request) (int, string) { return 200, "[]" })

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := srv.ListCategories(cctx); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}

func TestRows(t *testing.T) {
	t.Run("pgTime Layouts", func(t *testing.T) {
		for _, in := range []string{
			`"2025-03-01T10:00:00+03:00"`,
			`"2025-03-01T07:00:00.5"`,
			`"2025-03-01 07:00:00+00"`,
		} {
			var p pgTime
			if err := json.Unmarshal([]byte(in), &p); err != nil {
				t.Errorf("failed to parse %s: %v", in, err)
				continue
			}
			if p.Year() != 2025 || p.UTC().Hour() != 7 {
				t.Errorf("unexpected time for %s: %v", in, p.Time)
			}
		}

		var p pgTime
		if err := json.Unmarshal([]byte(`"yesterday"`), &p); err == nil {
			t.Error("expected error for unparseable timestamp")
		}
	})

	t.Run("Missing Status Defaults To Draft", func(t *testing.T) {
		var r courseRow
		if err := json.Unmarshal([]byte(`{"id": "x", "title": "t", "category_slug": "null"}`), &r); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		c := r.toModel()
		if c.Status != models.StatusDraft || c.CategorySlug != "" {
			t.Errorf("unexpected course %+v", c)
		}
	})
}
