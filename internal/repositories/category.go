package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

// CategoryRepository implements [models.Repository] for [models.Category], keyed by slug.
type CategoryRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Category] = (*CategoryRepository)(nil)

// NewCategoryRepository creates a new [CategoryRepository] with the given database connection
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category. The slug is normalized first.
func (r *CategoryRepository) Create(category *models.Category) error {
	category.Slug = models.NormalizeCategorySlug(category.Slug)
	if err := category.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := r.db.Exec("INSERT INTO categories (slug, title) VALUES (?, ?)", category.Slug, category.Title)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", constraintError(err))
	}
	return nil
}

// Get retrieves a category by slug
func (r *CategoryRepository) Get(slug string) (*models.Category, error) {
	var c models.Category
	err := r.db.QueryRow("SELECT slug, title FROM categories WHERE slug = ?", slug).Scan(&c.Slug, &c.Title)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: category %s", shared.ErrNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &c, nil
}

// Update renames a category
func (r *CategoryRepository) Update(category *models.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	result, err := r.db.Exec("UPDATE categories SET title = ? WHERE slug = ?", category.Title, category.Slug)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectAffected(result, category.Slug)
}

// Delete removes a category. Courses in it become uncategorized.
func (r *CategoryRepository) Delete(slug string) error {
	result, err := r.db.Exec("DELETE FROM categories WHERE slug = ?", slug)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return expectAffected(result, slug)
}

// List retrieves all categories ordered by title. No criteria are supported.
func (r *CategoryRepository) List(_ map[string]any) ([]*models.Category, error) {
	rows, err := r.db.Query("SELECT slug, title FROM categories ORDER BY title ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Slug, &c.Title); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return categories, nil
}
