package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/uus/internal/models"
	"github.com/desertthunder/uus/internal/shared"
)

// LikeRepository implements [models.Repository] for [models.Like] persistence.
//
// Likes are immutable: they are created and deleted, never updated.
type LikeRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Like] = (*LikeRepository)(nil)

// NewLikeRepository creates a new [LikeRepository] with the given database connection
func NewLikeRepository(db *sql.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// Create inserts a like. A second like of the same course by the same user fails with [shared.ErrDuplicate].
func (r *LikeRepository) Create(like *models.Like) error {
	if err := like.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now().UTC()
	}
	id := shared.GenerateID()

	_, err := r.db.Exec("INSERT INTO likes (id, user_id, course_id, created_at) VALUES (?, ?, ?, ?)",
		id, like.UserID, like.CourseID, like.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert like: %w", constraintError(err))
	}

	like.ID = id
	return nil
}

// Get retrieves a like by ID
func (r *LikeRepository) Get(id string) (*models.Like, error) {
	return r.one("SELECT id, user_id, course_id, created_at FROM likes WHERE id = ?", id)
}

// Find retrieves the like a user left on a course
func (r *LikeRepository) Find(userID, courseID string) (*models.Like, error) {
	return r.one("SELECT id, user_id, course_id, created_at FROM likes WHERE user_id = ? AND course_id = ?", userID, courseID)
}

func (r *LikeRepository) one(query string, args ...any) (*models.Like, error) {
	var l models.Like
	err := r.db.QueryRow(query, args...).Scan(&l.ID, &l.UserID, &l.CourseID, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: like", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query like: %w", err)
	}
	return &l, nil
}

// Update always fails
func (r *LikeRepository) Update(like *models.Like) error {
	return fmt.Errorf("%w: likes cannot be updated", shared.ErrNotImplemented)
}

// Delete removes a like by ID
func (r *LikeRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM likes WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return expectAffected(result, id)
}

// List retrieves likes, newest first. Supported criteria: "user_id", "course_id".
func (r *LikeRepository) List(criteria map[string]any) ([]*models.Like, error) {
	query := "SELECT id, user_id, course_id, created_at FROM likes WHERE 1 = 1"
	args := []any{}

	for _, col := range []string{"user_id", "course_id"} {
		if v, ok := criteria[col].(string); ok && v != "" {
			query += " AND " + col + " = ?"
			args = append(args, v)
		}
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}
	defer rows.Close()

	likes := []*models.Like{}
	for rows.Next() {
		var l models.Like
		if err := rows.Scan(&l.ID, &l.UserID, &l.CourseID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		likes = append(likes, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return likes, nil
}
