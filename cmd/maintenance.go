package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/uus/internal/tasks"
	"github.com/desertthunder/uus/internal/ui"
	"github.com/urfave/cli/v3"
)

// Renormalize rewrites every stored video reference to its canonical player URL.
func (r *Runner) Renormalize(ctx context.Context, cmd *cli.Command) error {
	engine, err := r.engine()
	if err != nil {
		return err
	}

	opts := tasks.RenormalizeOpts{
		DryRun:    cmd.Bool("dry-run"),
		Workers:   int(cmd.Int("workers")),
		RateLimit: cmd.Float("rate"),
	}
	asJSON := cmd.Bool("json")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if asJSON {
				continue
			}
			switch update.Phase {
			case tasks.FetchCourses:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Normalize:
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		}
	}()

	result, err := engine.Renormalize(ctx, progressCh, opts)
	close(progressCh)
	<-done

	if err != nil {
		return fmt.Errorf("renormalize failed: %w", err)
	}

	if asJSON {
		return r.writeJSON(renormalizeOutput(result), true)
	}

	title := "Renormalize Complete!"
	if result.DryRun {
		title = "Renormalize Dry Run"
	}
	r.writePlain("\n")
	r.writePlainHeader(title)
	r.writePlain("Courses: %d\n", result.Total)
	r.writePlain("Unchanged: %d\n", result.Unchanged)
	r.writePlain("%s: %d\n", ui.OK("Rewritten"), result.Rewritten)
	r.writePlain("%s: %d\n", ui.Warn("Unparseable"), result.Unparseable)
	if result.Failed > 0 {
		r.writePlain("%s: %d\n", ui.Err("Failed"), result.Failed)
	}

	if result.Unparseable > 0 || result.Failed > 0 {
		r.writePlainln("Needs attention:")
		for _, item := range result.Items {
			switch item.Outcome {
			case tasks.Unparseable:
				r.writePlain("  ? %s (%s): %q\n", item.Title, item.CourseID, item.Before)
			case tasks.Failed:
				r.writePlain("  ✗ %s (%s): %v\n", item.Title, item.CourseID, item.Err)
			}
		}
	}

	if result.DryRun && result.Rewritten > 0 {
		r.writePlainln("%s", ui.Help("Run again without --dry-run to apply."))
	}
	return nil
}

type renormalizeItemJSON struct {
	CourseID string `json:"course_id"`
	Title    string `json:"title"`
	Outcome  string `json:"outcome"`
	Before   string `json:"before,omitempty"`
	After    string `json:"after,omitempty"`
	Error    string `json:"error,omitempty"`
}

type renormalizeJSON struct {
	DryRun      bool                  `json:"dry_run"`
	Total       int                   `json:"total"`
	Unchanged   int                   `json:"unchanged"`
	Rewritten   int                   `json:"rewritten"`
	Unparseable int                   `json:"unparseable"`
	Failed      int                   `json:"failed"`
	Items       []renormalizeItemJSON `json:"items"`
}

func renormalizeOutput(res *tasks.RenormalizeResult) renormalizeJSON {
	out := renormalizeJSON{
		DryRun:      res.DryRun,
		Total:       res.Total,
		Unchanged:   res.Unchanged,
		Rewritten:   res.Rewritten,
		Unparseable: res.Unparseable,
		Failed:      res.Failed,
		Items:       []renormalizeItemJSON{},
	}

	for _, item := range res.Items {
		if item.Outcome == tasks.Unchanged {
			continue
		}
		j := renormalizeItemJSON{
			CourseID: item.CourseID,
			Title:    item.Title,
			Outcome:  item.Outcome.String(),
			Before:   item.Before,
			After:    item.After,
		}
		if item.Err != nil {
			j.Error = item.Err.Error()
		}
		out.Items = append(out.Items, j)
	}
	return out
}
