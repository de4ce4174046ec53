// package catalog implements the course submission and browsing use-cases on top of a [models.Store].
//
// Video references are normalized twice: once when a course is submitted, so stored values are
// canonical or empty, and again when a course is viewed, so rows written by older clients still play.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/uus/internal/embed"
	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

// previewLength bounds how much of a rejected reference is echoed back in errors and logs.
const previewLength = 80

// Catalog coordinates the store and the video normalizer.
type Catalog struct {
	store  models.Store
	videos *embed.Normalizer
	logger *log.Logger
}

// New creates a [Catalog]. A nil normalizer uses the default provider; a nil logger writes to stderr.
func New(store models.Store, videos *embed.Normalizer, logger *log.Logger) *Catalog {
	if videos == nil {
		videos = embed.NewNormalizer(embed.RuTube)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Catalog{store: store, videos: videos, logger: shared.WithLogger(logger, "component", "catalog")}
}

// Videos returns the normalizer used for submissions and rendering.
func (c *Catalog) Videos() *embed.Normalizer { return c.videos }

// Amount is a price that accepts JSON numbers, numeric strings, "" and null (zero).
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !finite(f) {
			return fmt.Errorf("%w: price %q is not a number", shared.ErrInvalidInput, s)
		}
		*a = Amount(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil || !finite(f) {
		return fmt.Errorf("%w: price is not a number", shared.ErrInvalidInput)
	}
	*a = Amount(f)
	return nil
}

// Rounded returns the amount rounded to three decimal places.
func (a Amount) Rounded() float64 {
	return math.Round(float64(a)*1000) / 1000
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// CourseInput is a course submission as received from an author.
type CourseInput struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Price          Amount `json:"price"`
	CategorySlug   string `json:"category_slug"`
	CoverURL       string `json:"cover_url"`
	VideoEmbedCode string `json:"video_embed_code"`
	AuthorID       string `json:"author_id"`
	Status         string `json:"status"`
}

// Submit validates and stores a new course.
//
// The video field may hold a player URL, a share link or a full iframe snippet; the canonical player
// URL is stored. An empty field stores no video. Anything else fails with [shared.ErrUnrecognizedVideo]
// and nothing is written.
// A category, when given, must already exist.
func (c *Catalog) Submit(ctx context.Context, in CourseInput) (*models.Course, error) {
	course := &models.Course{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Price:        in.Price.Rounded(),
		CategorySlug: models.NormalizeCategorySlug(in.CategorySlug),
		CoverURL:     strings.TrimSpace(in.CoverURL),
		AuthorID:     strings.TrimSpace(in.AuthorID),
		Status:       strings.TrimSpace(in.Status),
	}
	if course.Status == "" {
		course.Status = models.StatusDraft
	}

	if err := course.Validate(); err != nil {
		return nil, err
	}

	if raw := strings.TrimSpace(in.VideoEmbedCode); raw != "" {
		ref := c.videos.Resolve(raw)
		if !ref.OK {
			c.logger.Warn("rejected video reference", "author", course.AuthorID, "value", ref.Preview(previewLength))
			return nil, fmt.Errorf("%w: %q", shared.ErrUnrecognizedVideo, ref.Preview(previewLength))
		}
		course.VideoEmbedCode = ref.EmbedURL
	}

	if course.CategorySlug != "" {
		if _, err := c.store.GetCategory(ctx, course.CategorySlug); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown category %q", shared.ErrInvalidInput, course.CategorySlug)
			}
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
	}

	if err := c.store.CreateCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	c.logger.Info("course created", "id", course.ID, "status", course.Status, "video", course.VideoEmbedCode != "")
	return course, nil
}

// CourseView is everything the course page needs.
type CourseView struct {
	Course   models.Course
	Category *models.Category // nil when uncategorized or the category is gone
	Video    embed.Reference  // stored value resolved at render time
	Liked    bool             // whether the viewing user has liked the course
}

// Detail loads a course with its category, its resolved video, and the viewer's like state.
// userID may be empty for anonymous viewers.
func (c *Catalog) Detail(ctx context.Context, id, userID string) (*CourseView, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: course id is required", shared.ErrInvalidInput)
	}

	course, err := c.store.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &CourseView{Course: *course, Video: c.videos.Resolve(course.VideoEmbedCode)}

	if course.VideoEmbedCode != "" && !view.Video.OK {
		c.logger.Warn("stored video reference does not resolve", "id", course.ID, "value", view.Video.Preview(previewLength))
	}

	if course.CategorySlug != "" {
		category, err := c.store.GetCategory(ctx, course.CategorySlug)
		switch {
		case err == nil:
			view.Category = category
		case !errors.Is(err, shared.ErrNotFound):
			c.logger.Warn("failed to load category", "id", course.ID, "category", course.CategorySlug, "err", err)
		}
	}

	if userID != "" {
		ids, err := c.store.ListLikedCourseIDs(ctx, userID)
		if err != nil {
			c.logger.Warn("failed to load likes", "user", userID, "err", err)
		}
		view.Liked = slices.Contains(ids, course.ID)
	}

	return view, nil
}

// Browse lists published courses, newest first. Status in f is ignored.
func (c *Catalog) Browse(ctx context.Context, f models.CourseFilter) ([]models.Course, error) {
	f.Status = models.StatusPublished
	f.CategorySlug = models.NormalizeCategorySlug(f.CategorySlug)
	f.Search = strings.TrimSpace(f.Search)
	return c.store.ListCourses(ctx, f)
}

// Categories lists all catalog sections.
func (c *Catalog) Categories(ctx context.Context) ([]models.Category, error) {
	return c.store.ListCategories(ctx)
}

// ToggleLike flips the user's like on an existing course and returns the new state.
func (c *Catalog) ToggleLike(ctx context.Context, userID, courseID string) (bool, error) {
	userID, courseID = strings.TrimSpace(userID), strings.TrimSpace(courseID)
	if userID == "" || courseID == "" {
		return false, fmt.Errorf("%w: user_id and course_id are required", shared.ErrInvalidInput)
	}

	if _, err := c.store.GetCourse(ctx, courseID); err != nil {
		return false, err
	}

	liked, err := c.store.ToggleLike(ctx, userID, courseID)
	if err != nil {
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}

	c.logger.Debug("like toggled", "user", userID, "course", courseID, "liked", liked)
	return liked, nil
}

// Favorites lists the courses a user has liked.
func (c *Catalog) Favorites(ctx context.Context, userID string) ([]models.Course, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: user_id is required", shared.ErrInvalidInput)
	}

	ids, err := c.store.ListLikedCourseIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load likes: %w", err)
	}
	if len(ids) == 0 {
		return []models.Course{}, nil
	}

	return c.store.ListCourses(ctx, models.CourseFilter{IDs: ids})
}

// ResolveVideo normalizes a reference without storing anything.
func (c *Catalog) ResolveVideo(raw string) embed.Reference {
	return c.videos.Resolve(raw)
}
