// package models defines the data model for the course catalog
package models

import (
	"context"
)

// Model defines the base interface for all persistent models in the catalog.
type Model interface {
	PrimaryKey() string // PrimaryKey returns the unique identifier for this model
	Validate() error    // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Store is the catalog's view of its backing data service.
//
// Implementations must be safe for concurrent use. Lookups of missing rows return an error wrapping
// shared.ErrNotFound.
type Store interface {
	// CreateCourse inserts c and fills in the server-assigned fields (ID, timestamps).
	CreateCourse(ctx context.Context, c *Course) error

	// GetCourse fetches a single course by ID regardless of status.
	GetCourse(ctx context.Context, id string) (*Course, error)

	// ListCourses fetches courses matching f, newest first.
	ListCourses(ctx context.Context, f CourseFilter) ([]Course, error)

	// UpdateCourseVideo replaces the stored video reference of a course.
	UpdateCourseVideo(ctx context.Context, id, video string) error

	// GetCategory fetches a category by slug.
	GetCategory(ctx context.Context, slug string) (*Category, error)

	// ListCategories fetches all categories ordered by title.
	ListCategories(ctx context.Context) ([]Category, error)

	// ToggleLike removes the user's like if present, otherwise adds it, and reports the new state.
	ToggleLike(ctx context.Context, userID, courseID string) (bool, error)

	// ListLikedCourseIDs returns the IDs of courses the user has liked.
	ListLikedCourseIDs(ctx context.Context, userID string) ([]string, error)
}
