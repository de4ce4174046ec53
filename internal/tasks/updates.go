package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchCourses Phase = iota
	FetchCategories
	Normalize
	ExportCategory
)

func (p Phase) String() string {
	switch p {
	case FetchCourses:
		return "fetch_courses"
	case FetchCategories:
		return "fetch_categories"
	case Normalize:
		return "normalize"
	case ExportCategory:
		return "export_category"
	default:
		return ""
	}
}

func fetchCoursesUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCourses,
		Step:    0,
		Total:   1,
		Message: "Fetching courses...",
	}
}

func foundCoursesUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCourses,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d courses", total),
	}
}

func normalizeUpdate(step, total int, item RenormalizeItem) ProgressUpdate {
	mark := map[Outcome]string{
		Unchanged:   "=",
		Rewritten:   "✓",
		Unparseable: "?",
		Failed:      "✗",
	}[item.Outcome]

	msg := fmt.Sprintf("[%d/%d] %s %s", step, total, mark, item.Title)
	if item.Err != nil {
		msg += fmt.Sprintf(": %v", item.Err)
	}

	return ProgressUpdate{
		Phase:   Normalize,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    item,
	}
}

func fetchCategoriesUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCategories,
		Step:    0,
		Total:   1,
		Message: "Fetching categories...",
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCategory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportCategory,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, name, reason),
	}
}
