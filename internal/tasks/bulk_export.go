package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/uus/internal/formatter"
	"github.com/desertthunder/uus/internal/models"
)

// BulkExportOpts contains configuration for per-category catalog exports.
type BulkExportOpts struct {
	Format         string       // Export format: json, csv, markdown, txt
	OutputDir      string       // Base output directory (default: catalog_export_{epoch})
	NumWorkers     int          // Concurrent workers (default: 4)
	IncludeDrafts  bool         // Export drafts too; only published courses otherwise
	DownloadCovers bool         // Markdown only: fetch cover images next to the README
	Client         *http.Client // Used for cover downloads
}

// CategoryExportResult describes the export of one category.
type CategoryExportResult struct {
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Courses int      `json:"courses"`
	Files   []string `json:"files"`
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export and is written as export_manifest.json.
type BulkExportResult struct {
	Format            string                 `json:"format"`
	OutputDirectory   string                 `json:"output_directory"`
	TotalCategories   int                    `json:"total_categories"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	ExportedAt        time.Time              `json:"exported_at"`
	Results           []CategoryExportResult `json:"results"`
	ManifestPath      string                 `json:"-"`
}

type categoryJob struct {
	category models.Category
	courses  []models.Course
}

// BulkExport writes one export per category (plus "uncategorized" when needed) using a worker pool,
// then writes a manifest summarizing the results. Individual category failures do not stop the run.
func (e *Engine) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, opts BulkExportOpts) (*BulkExportResult, error) {
	if opts.Format == "" {
		opts.Format = "json"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("catalog_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}

	e.sendProgress(prog, fetchCategoriesUpdate())
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	e.sendProgress(prog, fetchCoursesUpdate())
	filter := models.CourseFilter{Status: models.StatusPublished}
	if opts.IncludeDrafts {
		filter.Status = ""
	}
	courses, err := e.store.ListCourses(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	e.sendProgress(prog, foundCoursesUpdate(len(courses)))

	jobsList := groupByCategory(categories, courses)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		TotalCategories: len(jobsList),
		ExportedAt:      time.Now().UTC(),
		Results:         make([]CategoryExportResult, 0, len(jobsList)),
	}

	labels := formatter.NewLabels(categories)
	jobs := make(chan categoryJob)
	results := make(chan CategoryExportResult, len(jobsList))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, labels, opts)
	}

	go func() {
		defer close(jobs)
		for _, j := range jobsList {
			select {
			case <-ctx.Done():
				return
			case jobs <- j:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(jobsList), res.Title, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(jobsList), res.Title, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	sort.Slice(result.Results, func(i, j int) bool { return result.Results[i].Slug < result.Results[j].Slug })

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return result, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// uncategorized collects courses whose category is empty or unknown.
var uncategorized = models.Category{Slug: "uncategorized", Title: "Без категории"}

func groupByCategory(categories []models.Category, courses []models.Course) []categoryJob {
	known := make(map[string]int, len(categories))
	jobs := make([]categoryJob, 0, len(categories)+1)
	for i, c := range categories {
		known[c.Slug] = i
		jobs = append(jobs, categoryJob{category: c})
	}

	var rest []models.Course
	for _, c := range courses {
		if i, ok := known[c.CategorySlug]; ok {
			jobs[i].courses = append(jobs[i].courses, c)
		} else {
			rest = append(rest, c)
		}
	}

	out := jobs[:0]
	for _, j := range jobs {
		if len(j.courses) > 0 {
			out = append(out, j)
		}
	}
	if len(rest) > 0 {
		out = append(out, categoryJob{category: uncategorized, courses: rest})
	}
	return out
}

func (e *Engine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan categoryJob,
	results chan<- CategoryExportResult,
	labels formatter.Labels,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportCategory(job, labels, opts)
	}
}

func (e *Engine) exportCategory(j categoryJob, labels formatter.Labels, opts BulkExportOpts) CategoryExportResult {
	result := CategoryExportResult{
		Slug:    j.category.Slug,
		Title:   j.category.Title,
		Courses: len(j.courses),
		Files:   []string{},
	}

	fail := func(err error) CategoryExportResult {
		result.Error = err.Error()
		return result
	}

	var (
		data []byte
		err  error
		ext  string
	)

	switch opts.Format {
	case "markdown":
		mdRes, err := formatter.WriteMarkdownExport(j.courses, filepath.Join(opts.OutputDir, j.category.Slug), formatter.MarkdownOptions{
			Title:          j.category.Title,
			Labels:         labels,
			Videos:         e.videos,
			DownloadCovers: opts.DownloadCovers,
			Client:         opts.Client,
		})
		if err != nil {
			return fail(fmt.Errorf("markdown export failed: %w", err))
		}
		for _, w := range mdRes.Warnings {
			e.logger.Warn("cover download failed", "category", j.category.Slug, "detail", w)
		}
		result.Files = mdRes.Files
		result.Success = true
		return result
	case "csv":
		data, err = formatter.ExportCoursesCSV(j.courses, labels, e.videos)
		ext = "csv"
	case "txt":
		data, err = formatter.ExportCoursesText(j.courses, labels)
		ext = "txt"
	default:
		data, err = formatter.ToJSON(j.courses)
		ext = "json"
	}
	if err != nil {
		return fail(fmt.Errorf("%s export failed: %w", ext, err))
	}

	path, err := formatter.WriteFile(filepath.Join(opts.OutputDir, j.category.Slug+"."+ext), "", data)
	if err != nil {
		return fail(err)
	}

	result.Files = []string{path}
	result.Success = true
	return result
}
