package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/uus/internal/models"
)

// courseRow is a courses row as PostgREST returns it. Nullable text columns decode to "".
type courseRow struct {
	ID             flexID  `json:"id"`
	Title          string  `json:"title"`
	Description    *string `json:"description"`
	Price          float64 `json:"price"`
	CategorySlug   *string `json:"category_slug"`
	CoverURL       *string `json:"cover_url"`
	VideoEmbedCode *string `json:"video_embed_code"`
	AuthorID       flexID  `json:"author_id"`
	Status         *string `json:"status"`
	CreatedAt      pgTime  `json:"created_at"`
	UpdatedAt      pgTime  `json:"updated_at"`
}

func (r courseRow) toModel() models.Course {
	status := deref(r.Status)
	if status == "" {
		status = models.StatusDraft
	}

	return models.Course{
		ID:             string(r.ID),
		Title:          r.Title,
		Description:    deref(r.Description),
		Price:          r.Price,
		CategorySlug:   models.NormalizeCategorySlug(deref(r.CategorySlug)),
		CoverURL:       deref(r.CoverURL),
		VideoEmbedCode: deref(r.VideoEmbedCode),
		AuthorID:       string(r.AuthorID),
		Status:         status,
		CreatedAt:      r.CreatedAt.Time,
		UpdatedAt:      r.UpdatedAt.Time,
	}
}

// courseInsert is the insert payload; empty optional columns are sent as null.
type courseInsert struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	CategorySlug   *string   `json:"category_slug"`
	CoverURL       *string   `json:"cover_url"`
	VideoEmbedCode *string   `json:"video_embed_code"`
	AuthorID       string    `json:"author_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func newCourseInsert(c *models.Course) courseInsert {
	return courseInsert{
		Title:          c.Title,
		Description:    c.Description,
		Price:          c.Price,
		CategorySlug:   nullString(models.NormalizeCategorySlug(c.CategorySlug)),
		CoverURL:       nullString(c.CoverURL),
		VideoEmbedCode: nullString(c.VideoEmbedCode),
		AuthorID:       c.AuthorID,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// flexID accepts identifiers encoded as JSON strings or numbers (uuid and bigint keys).
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid id %s: %w", data, err)
		}
		*f = flexID(n.String())
	}
	return nil
}

var pgTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

// pgTime decodes timestamps with or without a zone. Zone-less values are taken as UTC.
type pgTime struct {
	time.Time
}

func (p *pgTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		p.Time = time.Time{}
		return nil
	}

	s = strings.TrimSpace(s)
	for _, layout := range pgTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			p.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
