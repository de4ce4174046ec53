package server

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/uus/internal/shared"
)

type routesHandler struct {
	routes []string
}

func (h routesHandler) Routes() []string { return h.routes }

func (h routesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("custom:" + r.URL.Path))
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Routing", func(t *testing.T) {
		router := NewBasicRouter()
		router.HandleFunc("GET", "/api/courses", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("list"))
		})
		router.HandleFunc("post", "/api/courses", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})

		tt := []struct {
			method string
			status int
			body   string
		}{
			{http.MethodGet, http.StatusOK, "list"},
			{http.MethodPost, http.StatusCreated, ""},
			{http.MethodDelete, http.StatusMethodNotAllowed, ""},
		}

		for _, tc := range tt {
			t.Run(tc.method, func(t *testing.T) {
				rec := httptest.NewRecorder()
				router.ServeHTTP(rec, httptest.NewRequest(tc.method, "/api/courses", nil))

				if rec.Code != tc.status {
					t.Errorf("expected %d, got %d", tc.status, rec.Code)
				}
				if tc.body != "" && rec.Body.String() != tc.body {
					t.Errorf("expected body %q, got %q", tc.body, rec.Body.String())
				}
			})
		}
	})

	t.Run("Path Wildcards", func(t *testing.T) {
		router := NewBasicRouter()
		router.HandleFunc(http.MethodGet, "/course/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(r.PathValue("id")))
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/course/abc-123", nil))
		if rec.Body.String() != "abc-123" {
			t.Errorf("expected path value, got %q", rec.Body.String())
		}
	})

	t.Run("Custom Handler", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handler(routesHandler{routes: []string{"/a", "/b"}})

		for _, path := range []string{"/a", "/b"} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Body.String() != "custom:"+path {
				t.Errorf("unexpected body for %s: %q", path, rec.Body.String())
			}
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.HandleFunc(http.MethodGet, "/", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Middleware Sees Unmatched Routes", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(RequestID())
		router.HandleFunc(http.MethodGet, "/known", func(w http.ResponseWriter, r *http.Request) {})

		for _, req := range []*http.Request{
			httptest.NewRequest(http.MethodGet, "/unknown", nil),
			httptest.NewRequest(http.MethodDelete, "/known", nil),
		} {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, rec.Code)
			}
			if !shared.IsID(rec.Header().Get(RequestIDHeader)) {
				t.Errorf("%s %s: expected request id header", req.Method, req.URL.Path)
			}
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("RequestID", func(t *testing.T) {
		var seen string
		h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFrom(r.Context())
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if !shared.IsID(seen) {
			t.Errorf("expected generated id, got %q", seen)
		}
		if rec.Header().Get(RequestIDHeader) != seen {
			t.Errorf("response header %q does not match context %q", rec.Header().Get(RequestIDHeader), seen)
		}

		incoming := shared.GenerateID()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, incoming)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen != incoming {
			t.Errorf("expected incoming id to be reused, got %q", seen)
		}

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "not-an-id\nforged")
		h.ServeHTTP(httptest.NewRecorder(), req)
		if seen == "not-an-id\nforged" {
			t.Error("malformed incoming id should be replaced")
		}
	})

	t.Run("Logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := shared.NewLogger(&buf)

		h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			w.Write([]byte("short and stout"))
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pot", nil))

		out := buf.String()
		for _, want := range []string{"request", "/pot", "418", "15", "WARN"} {
			if !strings.Contains(out, want) {
				t.Errorf("log line missing %q: %s", want, out)
			}
		}
	})

	t.Run("Logger Implicit OK", func(t *testing.T) {
		var buf bytes.Buffer
		h := Logger(shared.NewLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if !strings.Contains(buf.String(), "200") {
			t.Errorf("expected implicit 200 in log: %s", buf.String())
		}
	})

	t.Run("Recover", func(t *testing.T) {
		var buf bytes.Buffer
		h := Recover(shared.NewLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if !strings.Contains(buf.String(), "boom") {
			t.Errorf("expected panic value in log: %s", buf.String())
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		var deadline time.Time
		var ok bool
		h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deadline, ok = r.Context().Deadline()
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		if !ok {
			t.Fatal("expected request context to carry a deadline")
		}
		if time.Until(deadline) > time.Second {
			t.Errorf("deadline too far away: %v", deadline)
		}

		Timeout(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok = r.Context().Deadline()
		})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if ok {
			t.Error("zero timeout should not set a deadline")
		}
	})
}

func TestServer(t *testing.T) {
	t.Run("Serve And Shutdown", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}

		router := NewBasicRouter()
		router.HandleFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})

		var buf bytes.Buffer
		srv := New(ln.Addr().String(), router, shared.NewLogger(&buf), time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.Serve(ctx, ln) }()

		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}

		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("expected clean shutdown, got %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}

		if !strings.Contains(buf.String(), "shutting down") {
			t.Errorf("expected shutdown log: %s", buf.String())
		}
	})

	t.Run("Listen Error", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("failed to listen: %v", err)
		}
		defer ln.Close()

		srv := New(ln.Addr().String(), http.NotFoundHandler(), shared.NewLogger(nil), 0)
		if err := srv.ListenAndServe(context.Background()); err == nil {
			t.Error("expected error binding an address in use")
		}
	})
}
