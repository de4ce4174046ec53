// package formatter renders catalog data for people: prices, and course exports in CSV, Markdown and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/uus/internal/embed"
	"github.com/desertthunder/uus/internal/models"
)

const (
	// FreeLabel is shown instead of a zero price.
	FreeLabel = "Бесплатно"
	// NoVideoLabel is shown when a course has no playable video.
	NoVideoLabel = "Видео не задано"

	groupSeparator = "\u00a0"
	currencySuffix = " ₽"
)

// FormatPrice renders a price in rubles with grouped thousands ("1 500 ₽"); zero, negative and
// non-finite prices render as [FreeLabel].
func FormatPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return FreeLabel
	}

	s := strconv.FormatFloat(math.Round(price*1000)/1000, 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(groupSeparator)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(",")
		b.WriteString(frac)
	}
	b.WriteString(currencySuffix)
	return b.String()
}

// Labels maps category slugs to titles for display.
type Labels map[string]string

// NewLabels builds [Labels] from a category list.
func NewLabels(categories []models.Category) Labels {
	l := make(Labels, len(categories))
	for _, c := range categories {
		l[c.Slug] = c.Title
	}
	return l
}

// Category returns the title for slug, or the slug itself when unknown.
func (l Labels) Category(slug string) string {
	if title, ok := l[slug]; ok {
		return title
	}
	return slug
}

// ExportCoursesCSV converts courses to CSV with columns: ID, Title, Category, Price, Status, Video, Created
//
// The Video column holds the resolved player URL, or is empty when the stored reference does not resolve.
func ExportCoursesCSV(courses []models.Course, labels Labels, videos *embed.Normalizer) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Category", "Price", "Status", "Video", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range courses {
		video, _ := playable(videos, c.VideoEmbedCode)
		record := []string{
			c.ID,
			c.Title,
			labels.Category(c.CategorySlug),
			strconv.FormatFloat(c.Price, 'f', -1, 64),
			c.Status,
			video,
			formatDate(c.CreatedAt),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportCoursesMarkdown renders courses as a Markdown document. covers maps course IDs to local
// cover image paths and may be nil.
func ExportCoursesMarkdown(title string, courses []models.Course, labels Labels, videos *embed.Normalizer, covers map[string]string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Courses**: %d\n\n", len(courses)))

	for i, c := range courses {
		buf.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, c.Title))

		if cover := covers[c.ID]; cover != "" {
			buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", cover))
		}

		if cat := labels.Category(c.CategorySlug); cat != "" {
			buf.WriteString(fmt.Sprintf("**Category**: %s\n", cat))
		}
		buf.WriteString(fmt.Sprintf("**Price**: %s\n", FormatPrice(c.Price)))
		buf.WriteString(fmt.Sprintf("**Status**: %s\n", c.Status))

		if video, ok := playable(videos, c.VideoEmbedCode); ok {
			buf.WriteString(fmt.Sprintf("**Video**: <%s>\n", video))
		} else {
			buf.WriteString(fmt.Sprintf("**Video**: %s\n", NoVideoLabel))
		}

		if c.Description != "" {
			buf.WriteString(fmt.Sprintf("\n%s\n", c.Description))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportCoursesText converts courses to a plain text listing.
func ExportCoursesText(courses []models.Course, labels Labels) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Courses: %d\n\n", len(courses)))

	for i, c := range courses {
		line := fmt.Sprintf("%d. %s - %s", i+1, c.Title, FormatPrice(c.Price))
		if cat := labels.Category(c.CategorySlug); cat != "" {
			line += fmt.Sprintf(" [%s]", cat)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ToJSON renders courses as indented JSON.
func ToJSON(courses []models.Course) ([]byte, error) {
	return json.MarshalIndent(courses, "", "  ")
}

// playable resolves raw with videos, or with the default provider when videos is nil.
func playable(videos *embed.Normalizer, raw string) (string, bool) {
	if videos == nil {
		return embed.Normalize(raw)
	}
	return videos.Normalize(raw)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Covers    int
	Warnings  []string
}

// MarkdownOptions controls [WriteMarkdownExport].
type MarkdownOptions struct {
	Title          string
	Labels         Labels
	Videos         *embed.Normalizer
	DownloadCovers bool
	Client         *http.Client // used for cover downloads; nil uses a 30s timeout client
}

// WriteMarkdownExport writes {dir}/README.md and, when requested, {dir}/covers/{id}.jpg for every
// course with a cover URL. Failed cover downloads are reported as warnings, not errors.
func WriteMarkdownExport(courses []models.Course, outputDir string, opts MarkdownOptions) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "catalog"
	}
	if opts.Title == "" {
		opts.Title = "Catalog"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	covers := map[string]string{}
	if opts.DownloadCovers {
		coverDir := filepath.Join(outputDir, "covers")
		if err := os.MkdirAll(coverDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cover directory: %w", err)
		}

		for _, c := range courses {
			if c.CoverURL == "" || c.ID == "" {
				continue
			}

			data, err := DownloadImage(opts.Client, c.CoverURL)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %v", c.ID, err))
				continue
			}

			name := filepath.Join("covers", c.ID+".jpg")
			if err := os.WriteFile(filepath.Join(outputDir, name), data, 0644); err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: failed to save cover: %v", c.ID, err))
				continue
			}

			covers[c.ID] = name
			result.Covers++
			result.Files = append(result.Files, filepath.Join(outputDir, name))
		}
	}

	mdData, err := ExportCoursesMarkdown(opts.Title, courses, opts.Labels, opts.Videos, covers)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteFile writes data to path, defaulting to fallback when path is empty, and returns the path used.
func WriteFile(path, fallback string, data []byte) (string, error) {
	if path == "" {
		path = fallback
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	return path, nil
}
