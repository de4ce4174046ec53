package formatter

import (
	"encoding/csv"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/uus/internal/embed"
	"github.com/desertthunder/uus/internal/models"
	th "github.com/desertthunder/uus/internal/testing"
)

func sampleCourses() []models.Course {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Course{
		{
			ID:             "course-1",
			Title:          "Go с нуля",
			Description:    "Основы языка",
			Price:          1500,
			CategorySlug:   "programming",
			VideoEmbedCode: `<iframe src="https://rutube.ru/play/embed/abc123"></iframe>`,
			Status:         models.StatusPublished,
			CreatedAt:      created,
		},
		{
			ID:             "course-2",
			Title:          "Free, \"quoted\" course",
			Price:          0,
			CategorySlug:   "unknown",
			VideoEmbedCode: "not a video",
			Status:         models.StatusDraft,
		},
	}
}

var labels = NewLabels([]models.Category{{Slug: "programming", Title: "Программирование"}})

func TestFormatPrice(t *testing.T) {
	tt := []struct {
		price float64
		want  string
	}{
		{0, FreeLabel},
		{-10, FreeLabel},
		{math.NaN(), FreeLabel},
		{math.Inf(1), FreeLabel},
		{5, "5 ₽"},
		{999, "999 ₽"},
		{1500, "1\u00a0500 ₽"},
		{25000, "25\u00a0000 ₽"},
		{1234567, "1\u00a0234\u00a0567 ₽"},
		{1499.5, "1\u00a0499,5 ₽"},
		{10.125, "10,125 ₽"},
		{0.0004, "0 ₽"},
	}

	for _, tc := range tt {
		t.Run(tc.want, func(t *testing.T) {
			if got := FormatPrice(tc.price); got != tc.want {
				t.Errorf("FormatPrice(%v) = %q, want %q", tc.price, got, tc.want)
			}
		})
	}
}

func TestLabels(t *testing.T) {
	if got := labels.Category("programming"); got != "Программирование" {
		t.Errorf("expected title, got %q", got)
	}
	if got := labels.Category("design"); got != "design" {
		t.Errorf("expected slug fallback, got %q", got)
	}
	if got := labels.Category(""); got != "" {
		t.Errorf("expected empty label, got %q", got)
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportCoursesCSV", func(t *testing.T) {
		data, err := ExportCoursesCSV(sampleCourses(), labels, nil)
		if err != nil {
			t.Fatalf("ExportCoursesCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}

		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}

		if strings.Join(records[0], ",") != "ID,Title,Category,Price,Status,Video,Created" {
			t.Errorf("unexpected headers %v", records[0])
		}

		first := records[1]
		if first[2] != "Программирование" {
			t.Errorf("expected category title, got %q", first[2])
		}
		if first[3] != "1500" {
			t.Errorf("expected raw price, got %q", first[3])
		}
		if first[5] != "https://rutube.ru/play/embed/abc123" {
			t.Errorf("expected resolved video, got %q", first[5])
		}
		if first[6] != "2025-03-01T12:00:00Z" {
			t.Errorf("unexpected created date %q", first[6])
		}

		second := records[2]
		if second[1] != `Free, "quoted" course` {
			t.Errorf("title not round-tripped: %q", second[1])
		}
		if second[5] != "" || second[6] != "" {
			t.Errorf("expected empty video and date, got %q %q", second[5], second[6])
		}
	})

	t.Run("ExportCoursesCSV With Provider", func(t *testing.T) {
		videos := embed.NewNormalizer(embed.Provider{Host: "provider.example"})
		courses := []models.Course{{ID: "c", Title: "T", VideoEmbedCode: "https://provider.example/video/XYZ"}}

		data, err := ExportCoursesCSV(courses, nil, videos)
		if err != nil {
			t.Fatalf("ExportCoursesCSV failed: %v", err)
		}
		if !strings.Contains(string(data), "https://provider.example/play/embed/XYZ") {
			t.Errorf("expected provider embed URL, got %s", data)
		}
	})

	t.Run("ExportCoursesMarkdown", func(t *testing.T) {
		covers := map[string]string{"course-1": "covers/course-1.jpg"}
		data, err := ExportCoursesMarkdown("Каталог", sampleCourses(), labels, nil, covers)
		if err != nil {
			t.Fatalf("ExportCoursesMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Каталог",
			"**Courses**: 2",
			"## 1. Go с нуля",
			"![Cover](covers/course-1.jpg)",
			"**Category**: Программирование",
			"**Price**: 1\u00a0500 ₽",
			"**Video**: <https://rutube.ru/play/embed/abc123>",
			"Основы языка",
			"**Price**: " + FreeLabel,
			"**Video**: " + NoVideoLabel,
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q", want)
			}
		}
	})

	t.Run("ExportCoursesText", func(t *testing.T) {
		data, err := ExportCoursesText(sampleCourses(), labels)
		if err != nil {
			t.Fatalf("ExportCoursesText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Courses: 2") {
			t.Errorf("text missing count: %s", output)
		}
		if !strings.Contains(output, "1. Go с нуля - 1\u00a0500 ₽ [Программирование]") {
			t.Errorf("text missing first course line: %s", output)
		}
		if !strings.Contains(output, "2. Free, \"quoted\" course - "+FreeLabel+" [unknown]") {
			t.Errorf("text missing second course line: %s", output)
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(sampleCourses())
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}
		if !strings.Contains(string(data), `"id": "course-1"`) {
			t.Errorf("JSON missing course id: %s", data)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		_, err := DownloadImage(nil, "")
		if err == nil {
			t.Error("DownloadImage with empty URL should return error")
		}
	})

	t.Run("OK", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer srv.Close()

		data, err := DownloadImage(srv.Client(), srv.URL+"/cover.jpg")
		if err != nil {
			t.Fatalf("DownloadImage failed: %v", err)
		}
		if string(data) != "jpeg-bytes" {
			t.Errorf("unexpected body %q", data)
		}
	})

	t.Run("Status Error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		if _, err := DownloadImage(srv.Client(), srv.URL); err == nil {
			t.Error("expected error for 404")
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(nil, errors.New("boom"))}
		if _, err := DownloadImage(client, "http://cover.example/x.jpg"); err == nil {
			t.Error("expected transport error")
		}
	})

	t.Run("Read Error", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &th.FCloser{}}
		client := &http.Client{Transport: th.NewMockRoundTripper(resp, nil)}
		if _, err := DownloadImage(client, "http://cover.example/x.jpg"); err == nil {
			t.Error("expected read error")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithCovers", func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasSuffix(r.URL.Path, "missing.jpg") {
					http.NotFound(w, r)
					return
				}
				w.Write([]byte("img"))
			}))
			defer srv.Close()

			courses := sampleCourses()
			courses[0].CoverURL = srv.URL + "/ok.jpg"
			courses[1].CoverURL = srv.URL + "/missing.jpg"

			dir := filepath.Join(t.TempDir(), "out")
			result, err := WriteMarkdownExport(courses, dir, MarkdownOptions{
				Title:          "Курсы",
				Labels:         labels,
				DownloadCovers: true,
				Client:         srv.Client(),
			})
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			th.AssertDirExists(t, result.Directory)
			th.AssertFileExists(t, filepath.Join(dir, "covers", "course-1.jpg"))

			if result.Covers != 1 {
				t.Errorf("expected 1 cover, got %d", result.Covers)
			}
			if len(result.Warnings) != 1 || !strings.HasPrefix(result.Warnings[0], "course-2:") {
				t.Errorf("expected one warning for course-2, got %v", result.Warnings)
			}
			if len(result.Files) != 2 {
				t.Errorf("expected cover and README, got %v", result.Files)
			}

			content := th.MustReadFile(t, filepath.Join(dir, "README.md"))
			if !strings.Contains(content, "# Курсы") {
				t.Error("README missing title")
			}
			if !strings.Contains(content, "![Cover](covers/course-1.jpg)") {
				t.Error("README missing cover reference")
			}
		})

		t.Run("WithDefaults", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(sampleCourses(), "", MarkdownOptions{})
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.Directory != "catalog" {
				t.Errorf("expected default directory, got %q", result.Directory)
			}
			th.AssertFileExists(t, "catalog/README.md")

			content := th.MustReadFile(t, "catalog/README.md")
			if !strings.Contains(content, "# Catalog") {
				t.Error("README missing default title")
			}
			if strings.Contains(content, "![Cover]") {
				t.Error("covers should not be referenced when not downloaded")
			}
		})
	})

	t.Run("WriteFile", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			path, err := WriteFile("", "courses.csv", []byte("a,b\n"))
			if err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			if path != "courses.csv" {
				t.Errorf("expected fallback path, got %q", path)
			}
			if th.MustReadFile(t, path) != "a,b\n" {
				t.Error("unexpected content")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "list.txt")
			got, err := WriteFile(path, "ignored.txt", []byte("x"))
			if err != nil {
				t.Fatalf("WriteFile failed: %v", err)
			}
			if got != path {
				t.Errorf("expected %q, got %q", path, got)
			}
			th.AssertFileExists(t, path)
		})

		t.Run("InvalidPath", func(t *testing.T) {
			if _, err := WriteFile(filepath.Join(t.TempDir(), "missing", "x.txt"), "", nil); err == nil {
				t.Error("expected error for missing directory")
			}
		})
	})
}
