// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

// MockStore is an in-memory test double for [models.Store].
//
// Courses are returned in insertion order reversed (newest first). Set Err to make every call fail.
type MockStore struct {
	mu         sync.Mutex
	seq        int
	Courses    []models.Course
	Categories []models.Category
	Likes      map[string]map[string]bool // user -> course -> liked
	Updates    map[string]string          // course -> video written by UpdateCourseVideo
	Err        error
}

var _ models.Store = (*MockStore)(nil)

// NewMockStore creates a [MockStore] seeded with the given categories.
func NewMockStore(categories ...models.Category) *MockStore {
	return &MockStore{
		Categories: categories,
		Likes:      map[string]map[string]bool{},
		Updates:    map[string]string{},
	}
}

func (m *MockStore) CreateCourse(ctx context.Context, c *models.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.seq++
	if c.ID == "" {
		c.ID = fmt.Sprintf("course-%d", m.seq)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Date(2025, 1, 1, 0, 0, m.seq, 0, time.UTC)
		c.UpdatedAt = c.CreatedAt
	}
	m.Courses = append(m.Courses, *c)
	return nil
}

func (m *MockStore) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, c := range m.Courses {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrCourseNotFound, id)
}

func (m *MockStore) ListCourses(ctx context.Context, f models.CourseFilter) ([]models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}

	out := []models.Course{}
	for i := len(m.Courses) - 1; i >= 0; i-- {
		c := m.Courses[i]
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if slug := models.NormalizeCategorySlug(f.CategorySlug); slug != "" && c.CategorySlug != slug {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(c.Title+" "+c.Description), strings.ToLower(f.Search)) {
			continue
		}
		if f.IDs != nil && !slices.Contains(f.IDs, c.ID) {
			continue
		}
		out = append(out, c)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *MockStore) UpdateCourseVideo(ctx context.Context, id, video string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Courses {
		if m.Courses[i].ID == id {
			m.Courses[i].VideoEmbedCode = video
			m.Updates[id] = video
			return nil
		}
	}
	return fmt.Errorf("%w: %s", shared.ErrCourseNotFound, id)
}

func (m *MockStore) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, c := range m.Categories {
		if c.Slug == slug {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: category %s", shared.ErrNotFound, slug)
}

func (m *MockStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return slices.Clone(m.Categories), nil
}

func (m *MockStore) ToggleLike(ctx context.Context, userID, courseID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	if m.Likes[userID] == nil {
		m.Likes[userID] = map[string]bool{}
	}
	liked := !m.Likes[userID][courseID]
	if liked {
		m.Likes[userID][courseID] = true
	} else {
		delete(m.Likes[userID], courseID)
	}
	return liked, nil
}

func (m *MockStore) ListLikedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	ids := []string{}
	for id := range m.Likes[userID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
