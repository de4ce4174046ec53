package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

const courseColumns = `id, sequence, title, description, price, category_slug, cover_url,
	video_embed_code, author_id, status, created_at, updated_at`

// CourseRepository implements [models.Repository] for [models.Course] persistence.
type CourseRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Course] = (*CourseRepository)(nil)

// NewCourseRepository creates a new [CourseRepository] with the given database connection
func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a new course with generated ID and sequence. Missing timestamps are set to now.
func (r *CourseRepository) Create(course *models.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "courses")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	if course.UpdatedAt.IsZero() {
		course.UpdatedAt = course.CreatedAt
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO courses (` + courseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, course.Title, course.Description, course.Price,
		nullable(course.CategorySlug), course.CoverURL, course.VideoEmbedCode, course.AuthorID,
		course.Status, course.CreatedAt, course.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert course: %w", constraintError(err))
	}

	course.ID = id
	course.Sequence = sequence
	return nil
}

// Get retrieves a course by ID, excluding soft-deleted courses
func (r *CourseRepository) Get(id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = ? AND deleted_at IS NULL`

	course, err := scanCourse(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrCourseNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query course: %w", err)
	}

	return course, nil
}

// Update modifies an existing course and bumps its updated_at
func (r *CourseRepository) Update(course *models.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()

	query := `
		UPDATE courses
		SET title = ?, description = ?, price = ?, category_slug = ?, cover_url = ?,
			video_embed_code = ?, author_id = ?, status = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, course.Title, course.Description, course.Price,
		nullable(course.CategorySlug), course.CoverURL, course.VideoEmbedCode, course.AuthorID,
		course.Status, now, course.ID)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", constraintError(err))
	}

	if err := expectAffected(result, course.ID); err != nil {
		return err
	}

	course.UpdatedAt = now
	return nil
}

// UpdateVideo replaces only the stored video reference of a course.
func (r *CourseRepository) UpdateVideo(id, video string) error {
	query := `
		UPDATE courses SET video_embed_code = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, video, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update course video: %w", err)
	}

	return expectAffected(result, id)
}

// Delete soft-deletes a course by ID
func (r *CourseRepository) Delete(id string) error {
	query := `UPDATE courses SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	return expectAffected(result, id)
}

// List retrieves courses matching the given criteria, newest first, excluding soft-deleted courses.
//
// Supported criteria: "status", "category_slug", "author_id", "search" (strings), "ids" ([]string)
// and "limit" (int).
func (r *CourseRepository) List(criteria map[string]any) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE deleted_at IS NULL`
	args := []any{}

	for _, col := range []string{"status", "category_slug", "author_id"} {
		if v, ok := criteria[col].(string); ok && v != "" {
			query += " AND " + col + " = ?"
			args = append(args, v)
		}
	}

	if search, ok := criteria["search"].(string); ok && search != "" {
		term := "%" + search + "%"
		query += " AND (title LIKE ? OR description LIKE ?)"
		args = append(args, term, term)
	}

	if ids, ok := criteria["ids"].([]string); ok {
		if len(ids) == 0 {
			return []*models.Course{}, nil
		}
		query += " AND id IN (?" + strings.Repeat(", ?", len(ids)-1) + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}

	query += " ORDER BY created_at DESC, sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return courses, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(s scanner) (*models.Course, error) {
	var (
		c        models.Course
		category sql.NullString
	)

	err := s.Scan(&c.ID, &c.Sequence, &c.Title, &c.Description, &c.Price, &category, &c.CoverURL,
		&c.VideoEmbedCode, &c.AuthorID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.CategorySlug = category.String
	return &c, nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}
	return nil
}
