// package tasks implements long-running catalog jobs: re-normalizing stored video references and
// bulk exports.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/uus/internal/embed"
	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 16
	defaultRateLimit = 5.0
	previewLength    = 80
)

// Engine runs jobs against a [models.Store].
type Engine struct {
	store  models.Store
	videos *embed.Normalizer
	logger *log.Logger
}

// NewEngine creates an [Engine]. A nil normalizer uses the default provider.
func NewEngine(store models.Store, videos *embed.Normalizer, logger *log.Logger) *Engine {
	if videos == nil {
		videos = embed.NewNormalizer(embed.RuTube)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{store: store, videos: videos, logger: shared.WithLogger(logger, "component", "tasks")}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}

	select {
	case progress <- update:
	default:
	}
}

// Outcome classifies what happened to one stored reference.
type Outcome int

const (
	Unchanged   Outcome = iota // empty, or already canonical
	Rewritten                  // replaced by its canonical form (or would be, in a dry run)
	Unparseable                // no reference could be extracted; left as is
	Failed                     // the rewrite was attempted and the store rejected it
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "unchanged"
	case Rewritten:
		return "rewritten"
	case Unparseable:
		return "unparseable"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// RenormalizeOpts configures [Engine.Renormalize].
type RenormalizeOpts struct {
	DryRun    bool    // report without writing
	Workers   int     // concurrent workers (default 4, max 16)
	RateLimit float64 // store writes per second (default 5)
}

// RenormalizeItem is the result for a single course.
type RenormalizeItem struct {
	CourseID string
	Title    string
	Before   string // stored value, truncated for display
	After    string // canonical value; empty unless Outcome is Rewritten
	Outcome  Outcome
	Err      error
}

// RenormalizeResult summarizes a run.
type RenormalizeResult struct {
	Total       int
	Unchanged   int
	Rewritten   int
	Unparseable int
	Failed      int
	DryRun      bool
	Items       []RenormalizeItem
}

func (r *RenormalizeResult) add(item RenormalizeItem) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case Unchanged:
		r.Unchanged++
	case Rewritten:
		r.Rewritten++
	case Unparseable:
		r.Unparseable++
	case Failed:
		r.Failed++
	}
}

// Renormalize rewrites every stored video reference that is not already in canonical form.
//
// Rows written before submissions were normalized may hold share links or iframe snippets. Those are
// replaced with the canonical player URL; values that cannot be resolved are reported and left alone.
// The returned error is non-nil only when the course list cannot be loaded or ctx is cancelled;
// per-row failures are counted in the result.
func (e *Engine) Renormalize(ctx context.Context, progress chan<- ProgressUpdate, opts RenormalizeOpts) (*RenormalizeResult, error) {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Workers > maxWorkers {
		opts.Workers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	e.sendProgress(progress, fetchCoursesUpdate())

	courses, err := e.store.ListCourses(ctx, models.CourseFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	total := len(courses)
	e.sendProgress(progress, foundCoursesUpdate(total))

	result := &RenormalizeResult{Total: total, DryRun: opts.DryRun, Items: make([]RenormalizeItem, 0, total)}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan models.Course)
	results := make(chan RenormalizeItem, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go e.renormalizeWorker(ctx, &wg, jobs, results, limiter, opts.DryRun)
	}

	go func() {
		defer close(jobs)
		for _, c := range courses {
			select {
			case <-ctx.Done():
				return
			case jobs <- c:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for item := range results {
		completed++
		result.add(item)
		e.sendProgress(progress, normalizeUpdate(completed, total, item))

		if item.Outcome == Failed {
			e.logger.Warn("failed to rewrite video reference", "id", item.CourseID, "err", item.Err)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	e.logger.Info("renormalize finished",
		"total", result.Total,
		"rewritten", result.Rewritten,
		"unparseable", result.Unparseable,
		"failed", result.Failed,
		"dry_run", result.DryRun,
	)
	return result, nil
}

func (e *Engine) renormalizeWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan models.Course,
	results chan<- RenormalizeItem,
	limiter *rate.Limiter,
	dryRun bool,
) {
	defer wg.Done()

	for c := range jobs {
		results <- e.renormalizeOne(ctx, c, limiter, dryRun)
	}
}

func (e *Engine) renormalizeOne(ctx context.Context, c models.Course, limiter *rate.Limiter, dryRun bool) RenormalizeItem {
	ref := e.videos.Resolve(c.VideoEmbedCode)
	item := RenormalizeItem{CourseID: c.ID, Title: c.Title, Before: ref.Preview(previewLength)}

	switch {
	case c.VideoEmbedCode == "":
		item.Outcome = Unchanged
		return item
	case !ref.OK:
		item.Outcome = Unparseable
		return item
	case ref.EmbedURL == c.VideoEmbedCode:
		item.Outcome = Unchanged
		return item
	}

	item.After = ref.EmbedURL
	item.Outcome = Rewritten
	if dryRun {
		return item
	}

	if err := limiter.Wait(ctx); err != nil {
		item.Outcome, item.Err = Failed, err
		return item
	}

	if err := e.store.UpdateCourseVideo(ctx, c.ID, ref.EmbedURL); err != nil {
		item.Outcome, item.Err = Failed, err
	}
	return item
}
