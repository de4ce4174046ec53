// Supabase [Backend] implementation
//
// Talks to the project's PostgREST endpoint (/rest/v1) with the service role key.
// See https://postgrest.org/en/stable/references/api/tables_views.html for the query syntax.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

const (
	restPath = "/rest/v1"

	preferRepresentation = "return=representation"
	preferMinimal        = "return=minimal"
)

// PostgrestError is the error body returned by PostgREST for failed requests.
//
// It unwraps to the matching shared sentinel so callers can use [errors.Is].
type PostgrestError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *PostgrestError) Error() string {
	msg := fmt.Sprintf("postgrest error: status %d", e.Status)
	if e.Code != "" {
		msg += " code " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *PostgrestError) Unwrap() error {
	switch e.Code {
	case "23505":
		return shared.ErrDuplicate
	case "23503", "23502", "23514":
		return shared.ErrConstraint
	case "PGRST116":
		return shared.ErrNotFound
	}

	switch {
	case e.Status == http.StatusNotFound:
		return shared.ErrNotFound
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return shared.ErrMissingCredentials
	case e.Status >= 500:
		return shared.ErrServiceUnavailable
	default:
		return shared.ErrAPIRequest
	}
}

// SupabaseOptions tunes the HTTP client used by [SupabaseService].
type SupabaseOptions struct {
	RateLimit float64           // requests per second; <= 0 disables limiting
	Burst     int               // limiter burst, at least 1
	Timeout   time.Duration     // per request; 0 means no client timeout
	Transport http.RoundTripper // base transport under the bearer token; nil uses http.DefaultTransport
}

// SupabaseService implements [Backend] over Supabase's REST API.
//
// The service role key is sent both as the apikey header and, through an [oauth2] static token
// source, as the bearer token. Outbound requests are throttled by a shared [rate.Limiter].
type SupabaseService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSupabaseService creates a client for the project at projectURL (e.g. https://xyz.supabase.co).
func NewSupabaseService(projectURL, serviceKey string, opts SupabaseOptions) (*SupabaseService, error) {
	if serviceKey == "" {
		return nil, fmt.Errorf("%w: supabase service role key", shared.ErrMissingCredentials)
	}

	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(projectURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: supabase url %q", shared.ErrInvalidConfig, projectURL)
	}
	if !strings.HasSuffix(u.Path, restPath) {
		u.Path += restPath
	}

	base := &http.Client{Transport: opts.Transport}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: serviceKey,
		TokenType:   "Bearer",
	}))
	client.Timeout = opts.Timeout

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	return &SupabaseService{
		baseURL:    u.String(),
		apiKey:     serviceKey,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, burst),
	}, nil
}

// Name returns the backend name.
func (s *SupabaseService) Name() string {
	return "Supabase"
}

// Health requests the REST root, which PostgREST answers with its schema description.
func (s *SupabaseService) Health(ctx context.Context) error {
	if err := s.do(ctx, http.MethodGet, "", nil, nil, "", nil); err != nil {
		if errors.Is(err, shared.ErrMissingCredentials) {
			return err
		}
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}

// do performs a rate-limited request against table (or the REST root when table is empty).
func (s *SupabaseService) do(ctx context.Context, method, table string, query url.Values, body any, prefer string, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTimeout, err)
	}

	endpoint := s.baseURL + "/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		pgErr := &PostgrestError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, pgErr); err != nil || pgErr.Message == "" {
			pgErr.Message = strings.TrimSpace(string(data))
		}
		return pgErr
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CreateCourse inserts c and copies back the stored row.
func (s *SupabaseService) CreateCourse(ctx context.Context, c *models.Course) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}

	var rows []courseRow
	err := s.do(ctx, http.MethodPost, "courses", nil, []courseInsert{newCourseInsert(c)}, preferRepresentation, &rows)
	if err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: insert returned no rows", shared.ErrAPIRequest)
	}

	*c = rows[0].toModel()
	return nil
}

// GetCourse fetches one course by ID.
func (s *SupabaseService) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var rows []courseRow
	if err := s.do(ctx, http.MethodGet, "courses", q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch course: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrCourseNotFound, id)
	}

	c := rows[0].toModel()
	return &c, nil
}

// ListCourses fetches courses matching f, newest first.
func (s *SupabaseService) ListCourses(ctx context.Context, f models.CourseFilter) ([]models.Course, error) {
	if f.Empty() {
		return []models.Course{}, nil
	}

	var rows []courseRow
	if err := s.do(ctx, http.MethodGet, "courses", courseQuery(f), nil, "", &rows); err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	courses := make([]models.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toModel())
	}
	return courses, nil
}

// courseQuery translates f into PostgREST query parameters.
func courseQuery(f models.CourseFilter) url.Values {
	q := url.Values{}
	q.Set("select", "*")

	if f.Status != "" {
		q.Set("status", "eq."+f.Status)
	}
	if slug := models.NormalizeCategorySlug(f.CategorySlug); slug != "" {
		q.Set("category_slug", "eq."+slug)
	}
	if term := searchTerm(f.Search); term != "" {
		q.Set("or", fmt.Sprintf("(title.ilike.*%s*,description.ilike.*%s*)", term, term))
	}
	if len(f.IDs) > 0 {
		q.Set("id", "in.("+strings.Join(f.IDs, ",")+")")
	}

	q.Set("order", "created_at.desc")
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// searchTerm drops characters that would break out of a PostgREST logic tree.
func searchTerm(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '"', '*', '%', '\\':
			return -1
		}
		return r
	}, s))
}

// UpdateCourseVideo patches the stored video reference.
func (s *SupabaseService) UpdateCourseVideo(ctx context.Context, id, video string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)

	body := map[string]any{
		"video_embed_code": nullString(video),
		"updated_at":       time.Now().UTC(),
	}

	var rows []courseRow
	if err := s.do(ctx, http.MethodPatch, "courses", q, body, preferRepresentation, &rows); err != nil {
		return fmt.Errorf("failed to update course video: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrCourseNotFound, id)
	}
	return nil
}

// GetCategory fetches a category by slug.
func (s *SupabaseService) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("slug", "eq."+slug)
	q.Set("limit", "1")

	var rows []models.Category
	if err := s.do(ctx, http.MethodGet, "categories", q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("failed to fetch category: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: category %s", shared.ErrNotFound, slug)
	}
	return &rows[0], nil
}

// ListCategories fetches all categories ordered by title.
func (s *SupabaseService) ListCategories(ctx context.Context) ([]models.Category, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "title.asc")

	rows := []models.Category{}
	if err := s.do(ctx, http.MethodGet, "categories", q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return rows, nil
}

func likeQuery(userID, courseID string) url.Values {
	q := url.Values{}
	q.Set("user_id", "eq."+userID)
	q.Set("course_id", "eq."+courseID)
	return q
}

// ToggleLike removes an existing like or inserts a new one. A duplicate insert (another request won
// the race) is reported as liked.
func (s *SupabaseService) ToggleLike(ctx context.Context, userID, courseID string) (bool, error) {
	q := likeQuery(userID, courseID)
	q.Set("select", "id")

	var existing []struct {
		ID json.RawMessage `json:"id"`
	}
	if err := s.do(ctx, http.MethodGet, "likes", q, nil, "", &existing); err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}

	if len(existing) > 0 {
		if err := s.do(ctx, http.MethodDelete, "likes", likeQuery(userID, courseID), nil, preferMinimal, nil); err != nil {
			return false, fmt.Errorf("failed to remove like: %w", err)
		}
		return false, nil
	}

	body := []map[string]any{{
		"user_id":    userID,
		"course_id":  courseID,
		"created_at": time.Now().UTC(),
	}}
	err := s.do(ctx, http.MethodPost, "likes", nil, body, preferMinimal, nil)
	if err != nil && !errors.Is(err, shared.ErrDuplicate) {
		return false, fmt.Errorf("failed to add like: %w", err)
	}
	return true, nil
}

// ListLikedCourseIDs returns the IDs of the courses a user has liked.
func (s *SupabaseService) ListLikedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	q := url.Values{}
	q.Set("select", "course_id")
	q.Set("user_id", "eq."+userID)

	var rows []struct {
		CourseID flexID `json:"course_id"`
	}
	if err := s.do(ctx, http.MethodGet, "likes", q, nil, "", &rows); err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, string(r.CourseID))
	}
	return ids, nil
}
