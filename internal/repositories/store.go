package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

// Store implements [models.Store] on the local SQLite repositories.
//
// It backs the "sqlite" driver: development, offline demos and tests.
type Store struct {
	courses    *CourseRepository
	categories *CategoryRepository
	likes      *LikeRepository
}

var _ models.Store = (*Store)(nil)

// NewStore creates a [Store] over db. Migrations must already be applied.
func NewStore(db *sql.DB) *Store {
	return &Store{
		courses:    NewCourseRepository(db),
		categories: NewCategoryRepository(db),
		likes:      NewLikeRepository(db),
	}
}

// Courses exposes the underlying course repository
func (s *Store) Courses() *CourseRepository { return s.courses }

// Categories exposes the underlying category repository
func (s *Store) Categories() *CategoryRepository { return s.categories }

func (s *Store) CreateCourse(ctx context.Context, c *models.Course) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.courses.Create(c)
}

func (s *Store) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.courses.Get(id)
}

func (s *Store) ListCourses(ctx context.Context, f models.CourseFilter) ([]models.Course, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	criteria := map[string]any{
		"status":        f.Status,
		"category_slug": models.NormalizeCategorySlug(f.CategorySlug),
		"search":        f.Search,
		"limit":         f.Limit,
	}
	if f.IDs != nil {
		criteria["ids"] = f.IDs
	}

	found, err := s.courses.List(criteria)
	if err != nil {
		return nil, err
	}

	courses := make([]models.Course, 0, len(found))
	for _, c := range found {
		courses = append(courses, *c)
	}
	return courses, nil
}

func (s *Store) UpdateCourseVideo(ctx context.Context, id, video string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.courses.UpdateVideo(id, video)
}

func (s *Store) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.categories.Get(slug)
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found, err := s.categories.List(nil)
	if err != nil {
		return nil, err
	}

	categories := make([]models.Category, 0, len(found))
	for _, c := range found {
		categories = append(categories, *c)
	}
	return categories, nil
}

// ToggleLike deletes an existing like or creates one. A concurrent duplicate insert counts as liked.
func (s *Store) ToggleLike(ctx context.Context, userID, courseID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	existing, err := s.likes.Find(userID, courseID)
	switch {
	case err == nil:
		if err := s.likes.Delete(existing.ID); err != nil && !errors.Is(err, shared.ErrNotFound) {
			return false, fmt.Errorf("failed to remove like: %w", err)
		}
		return false, nil
	case !errors.Is(err, shared.ErrNotFound):
		return false, err
	}

	err = s.likes.Create(&models.Like{UserID: userID, CourseID: courseID})
	if err != nil && !errors.Is(err, shared.ErrDuplicate) {
		return false, fmt.Errorf("failed to add like: %w", err)
	}
	return true, nil
}

func (s *Store) ListLikedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	likes, err := s.likes.List(map[string]any{"user_id": userID})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.CourseID)
	}
	return ids, nil
}
