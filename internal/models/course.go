package models

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/uus/internal/shared"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Course is a catalog listing as stored in the courses table.
//
// VideoEmbedCode holds a canonical player URL for rows written by this service, but older rows may
// contain raw share links or iframe markup and must be normalized again before rendering.
type Course struct {
	ID             string    `json:"id,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	CategorySlug   string    `json:"category_slug,omitempty"`
	CoverURL       string    `json:"cover_url,omitempty"`
	VideoEmbedCode string    `json:"video_embed_code"`
	AuthorID       string    `json:"author_id,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Sequence int `json:"-"` // local store ordering only
}

// PrimaryKey implements [Model].
func (c *Course) PrimaryKey() string { return c.ID }

// Validate checks the fields required before a course can be stored.
func (c *Course) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: title is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(c.AuthorID) == "" {
		return fmt.Errorf("%w: author_id is required", shared.ErrInvalidInput)
	}
	if math.IsNaN(c.Price) || math.IsInf(c.Price, 0) {
		return fmt.Errorf("%w: price must be a finite number", shared.ErrInvalidInput)
	}
	if c.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", shared.ErrInvalidInput)
	}
	switch c.Status {
	case StatusDraft, StatusPublished:
	default:
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, c.Status)
	}
	if c.CoverURL != "" && !IsAbsoluteURL(c.CoverURL) {
		return fmt.Errorf("%w: cover_url must be an absolute URL", shared.ErrInvalidInput)
	}
	return nil
}

// Published reports whether the course is visible in the public catalog.
func (c *Course) Published() bool { return c.Status == StatusPublished }

// IsAbsoluteURL reports whether s parses as a URL with a scheme and host.
func IsAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Category is a catalog section.
type Category struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// PrimaryKey implements [Model].
func (c *Category) PrimaryKey() string { return c.Slug }

// Validate implements [Model].
func (c *Category) Validate() error {
	if NormalizeCategorySlug(c.Slug) == "" {
		return fmt.Errorf("%w: category slug is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: category title is required", shared.ErrInvalidInput)
	}
	return nil
}

// Like records that a user bookmarked a course. A user likes a course at most once.
type Like struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PrimaryKey implements [Model].
func (l *Like) PrimaryKey() string { return l.ID }

// Validate implements [Model].
func (l *Like) Validate() error {
	if l.UserID == "" || l.CourseID == "" {
		return fmt.Errorf("%w: user_id and course_id are required", shared.ErrInvalidInput)
	}
	return nil
}

// CourseFilter narrows a course listing. Zero values mean "no constraint".
type CourseFilter struct {
	CategorySlug string
	Search       string   // case-insensitive substring of title or description
	Status       string   // "" means any status
	IDs          []string // restrict to these IDs; a non-nil empty slice matches nothing
	Limit        int
}

// PublishedIn returns the public catalog filter for a category (or all categories).
func PublishedIn(category string) CourseFilter {
	return CourseFilter{Status: StatusPublished, CategorySlug: NormalizeCategorySlug(category)}
}

// Empty reports whether the filter can match no rows without querying.
func (f CourseFilter) Empty() bool {
	return f.IDs != nil && len(f.IDs) == 0
}

// NormalizeCategorySlug maps the placeholder values browsers send for a missing category
// ("", "null", "undefined") to the empty string and trims everything else.
func NormalizeCategorySlug(slug string) string {
	slug = strings.TrimSpace(slug)
	switch slug {
	case "", "null", "undefined":
		return ""
	}
	return slug
}
