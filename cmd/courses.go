package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/uus/internal/catalog"
	"github.com/desertthunder/uus/internal/formatter"
	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
	"github.com/desertthunder/uus/internal/tasks"
	"github.com/desertthunder/uus/internal/ui"
	"github.com/urfave/cli/v3"
)

// listCourses applies the shared --category/--search/--all flags. Drafts are only included with --all.
func (r *Runner) listCourses(ctx context.Context, cmd *cli.Command, limit int) ([]models.Course, error) {
	f := models.CourseFilter{
		CategorySlug: models.NormalizeCategorySlug(cmd.String("category")),
		Search:       strings.TrimSpace(cmd.String("search")),
		Limit:        limit,
	}

	if cmd.Bool("all") {
		backend, err := r.store()
		if err != nil {
			return nil, err
		}
		return backend.ListCourses(ctx, f)
	}

	cat, err := r.catalog()
	if err != nil {
		return nil, err
	}
	return cat.Browse(ctx, f)
}

func (r *Runner) labels(ctx context.Context) formatter.Labels {
	backend, err := r.store()
	if err != nil {
		return formatter.Labels{}
	}

	categories, err := backend.ListCategories(ctx)
	if err != nil {
		r.logger.Warn("failed to load categories", "err", err)
		return formatter.Labels{}
	}
	return formatter.NewLabels(categories)
}

// CoursesList prints the catalog.
func (r *Runner) CoursesList(ctx context.Context, cmd *cli.Command) error {
	limit := int(cmd.Int("limit"))
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative", shared.ErrInvalidFlag)
	}

	courses, err := r.listCourses(ctx, cmd, limit)
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(courses, cmd.Bool("pretty"))
	}

	if len(courses) == 0 {
		return r.writePlain("%s\n", ui.Help("No courses found"))
	}

	labels := r.labels(ctx)
	r.writePlain("%s\n", ui.Title(fmt.Sprintf("Courses (%d)", len(courses))))
	for i, c := range courses {
		r.writePlain("%d. %s - %s\n", i+1, c.Title, formatter.FormatPrice(c.Price))
		r.writePlain("   ID: %s  Category: %s  Status: %s\n", c.ID, labels.Category(c.CategorySlug), c.Status)
	}
	return nil
}

// CoursesShow prints a single course with its resolved player URL.
func (r *Runner) CoursesShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: course id", shared.ErrMissingArgument)
	}

	cat, err := r.catalog()
	if err != nil {
		return err
	}

	view, err := cat.Detail(ctx, id, cmd.String("user"))
	if err != nil {
		return fmt.Errorf("failed to load course: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(courseOutput(view), cmd.Bool("pretty"))
	}

	r.writePlainHeader(view.Course.Title)
	r.writePlain("ID: %s\n", view.Course.ID)
	r.writePlain("Price: %s\n", formatter.FormatPrice(view.Course.Price))
	if view.Category != nil {
		r.writePlain("Category: %s\n", view.Category.Title)
	}
	r.writePlain("Status: %s\n", view.Course.Status)
	if view.Course.Description != "" {
		r.writePlain("\n%s\n", view.Course.Description)
	}

	r.writePlainln("Video:")
	switch {
	case view.Video.OK:
		r.writePlain("  %s\n", view.Video.EmbedURL)
	case view.Video.Raw != "":
		r.writePlain("  %s %s\n", ui.Err(formatter.NoVideoLabel), ui.Help("(stored value is not a player link)"))
	default:
		r.writePlain("  %s\n", ui.Help(formatter.NoVideoLabel))
	}

	if user := cmd.String("user"); user != "" {
		state := "not liked"
		if view.Liked {
			state = ui.OK("♥ liked")
		}
		r.writePlain("\nUser %s: %s\n", user, state)
	}
	return nil
}

type courseJSON struct {
	models.Course
	Category string `json:"category,omitempty"`
	EmbedURL string `json:"embed_url"`
	HasVideo bool   `json:"has_video"`
	Liked    bool   `json:"liked"`
}

func courseOutput(v *catalog.CourseView) courseJSON {
	out := courseJSON{Course: v.Course, EmbedURL: v.Video.EmbedURL, HasVideo: v.Video.OK, Liked: v.Liked}
	if v.Category != nil {
		out.Category = v.Category.Title
	}
	return out
}

// CoursesCreate submits a course. The --video value is normalized before it is stored.
func (r *Runner) CoursesCreate(ctx context.Context, cmd *cli.Command) error {
	cat, err := r.catalog()
	if err != nil {
		return err
	}

	course, err := cat.Submit(ctx, catalog.CourseInput{
		Title:          cmd.String("title"),
		Description:    cmd.String("description"),
		Price:          catalog.Amount(cmd.Float("price")),
		CategorySlug:   cmd.String("category"),
		CoverURL:       cmd.String("cover"),
		VideoEmbedCode: cmd.String("video"),
		AuthorID:       cmd.String("author"),
		Status:         cmd.String("status"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(course, true)
	}

	r.writePlain("%s Course created: %s\n", ui.OK("✓"), course.Title)
	r.writePlain("  ID: %s\n", course.ID)
	r.writePlain("  Price: %s\n", formatter.FormatPrice(course.Price))
	if course.VideoEmbedCode != "" {
		r.writePlain("  Video: %s\n", course.VideoEmbedCode)
	}
	return nil
}

// CoursesExport writes the catalog in the requested format, either as a single export or, with
// --bulk, one export per category.
func (r *Runner) CoursesExport(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	switch format {
	case "json", "csv", "markdown", "md", "txt":
	default:
		return fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}
	if format == "md" {
		format = "markdown"
	}

	if cmd.Bool("bulk") {
		return r.bulkExport(ctx, cmd, format)
	}

	courses, err := r.listCourses(ctx, cmd, 0)
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}
	labels := r.labels(ctx)
	output := cmd.String("output")

	r.logger.Info("exporting courses", "format", format, "count", len(courses))

	var data []byte
	var fallback string
	switch format {
	case "json":
		data, err = formatter.ToJSON(courses)
		fallback = "catalog.json"
	case "csv":
		data, err = formatter.ExportCoursesCSV(courses, labels, r.videos)
		fallback = "catalog.csv"
	case "txt":
		data, err = formatter.ExportCoursesText(courses, labels)
		fallback = "catalog.txt"
	case "markdown":
		title := "Каталог курсов"
		if slug := cmd.String("category"); slug != "" {
			title = labels.Category(models.NormalizeCategorySlug(slug))
		}
		result, err := formatter.WriteMarkdownExport(courses, output, formatter.MarkdownOptions{
			Title:          title,
			Labels:         labels,
			Videos:         r.videos,
			DownloadCovers: cmd.Bool("covers"),
			Client:         r.httpClient,
		})
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			r.logger.Warn("cover download failed", "detail", w)
		}
		r.writePlain("%s Exported %d courses to %s\n", ui.OK("✓"), len(courses), result.Directory)
		if result.Covers > 0 {
			r.writePlain("  Covers: %d\n", result.Covers)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to export courses: %w", err)
	}

	path, err := formatter.WriteFile(output, fallback, data)
	if err != nil {
		return err
	}

	r.writePlain("%s Exported %d courses to %s\n", ui.OK("✓"), len(courses), path)
	return nil
}

func (r *Runner) bulkExport(ctx context.Context, cmd *cli.Command, format string) error {
	engine, err := r.engine()
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchCourses, tasks.FetchCategories:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ExportCategory:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	result, err := engine.BulkExport(ctx, progressCh, tasks.BulkExportOpts{
		Format:         format,
		OutputDir:      cmd.String("output"),
		NumWorkers:     int(cmd.Int("workers")),
		IncludeDrafts:  cmd.Bool("all"),
		DownloadCovers: cmd.Bool("covers"),
		Client:         r.httpClient,
	})
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("bulk export failed: %w", err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Categories: %d/%d exported\n", result.SuccessfulExports, result.TotalCategories)
	if result.ManifestPath != "" {
		r.writePlain("Manifest: %s\n", result.ManifestPath)
	}

	if result.FailedExports > 0 {
		r.writePlain("\n%s\n", ui.Warn(fmt.Sprintf("Failed to export %d categories:", result.FailedExports)))
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  ✗ %s: %s\n", res.Title, res.Error)
			}
		}
		return errors.New("some categories failed to export")
	}
	return nil
}

// LikesToggle flips a user's like on a course.
func (r *Runner) LikesToggle(ctx context.Context, cmd *cli.Command) error {
	cat, err := r.catalog()
	if err != nil {
		return err
	}

	liked, err := cat.ToggleLike(ctx, cmd.String("user"), cmd.String("course"))
	if err != nil {
		return err
	}

	if liked {
		return r.writePlain("%s Added to favorites\n", ui.OK("♥"))
	}
	return r.writePlain("♡ Removed from favorites\n")
}

// LikesList prints a user's favorites.
func (r *Runner) LikesList(ctx context.Context, cmd *cli.Command) error {
	cat, err := r.catalog()
	if err != nil {
		return err
	}

	courses, err := cat.Favorites(ctx, cmd.String("user"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(courses, cmd.Bool("pretty"))
	}

	if len(courses) == 0 {
		return r.writePlain("%s\n", ui.Help("No favorites yet"))
	}

	r.writePlain("%s\n", ui.Title(fmt.Sprintf("Favorites (%d)", len(courses))))
	for i, c := range courses {
		r.writePlain("%d. %s - %s\n", i+1, c.Title, formatter.FormatPrice(c.Price))
	}
	return nil
}
