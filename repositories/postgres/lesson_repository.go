package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/repositories"
	"go.uber.org/zap"
)

// Lessons are always read joined with their site and the site's category.
const lessonSelect = `
	SELECT l.id, l.title, l.content, l.video_url, l.sort_order, l.site_id, l.created_at, l.updated_at,
	       s.id, s.name, s.url, s.description, s.sort_order, s.category_id, s.created_at, s.updated_at,
	       c.id, c.name, c.description, c.sort_order, c.created_at, c.updated_at
	FROM lessons l
	JOIN sites s ON s.id = l.site_id
	JOIN categories c ON c.id = s.category_id
`

const lessonOrder = ` ORDER BY l.sort_order ASC, l.seq ASC`

// LessonRepository implements the repositories.LessonRepository interface
type LessonRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewLessonRepository creates a new lesson repository
func NewLessonRepository(db *DB, logger *zap.Logger) repositories.LessonRepository {
	return &LessonRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new lesson
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	query := `
		INSERT INTO lessons (id, title, content, video_url, sort_order, site_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		lesson.ID,
		lesson.Title,
		lesson.Content,
		lesson.VideoURL,
		lesson.SortOrder,
		lesson.SiteID,
		lesson.CreatedAt,
		lesson.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lesson: %w", mapError(err))
	}

	r.logger.Debug("lesson created",
		zap.String("id", lesson.ID.String()),
		zap.String("site_id", lesson.SiteID.String()))
	return nil
}

// GetByID retrieves a lesson with its site and category
func (r *LessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	executor := GetExecutor(ctx, r.db)
	lesson, err := scanLesson(executor.QueryRowContext(ctx, lessonSelect+` WHERE l.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson %s: %w", id, mapError(err))
	}
	return lesson, nil
}

// List retrieves lessons in display order, optionally restricted to one site
func (r *LessonRepository) List(ctx context.Context, filter repositories.LessonFilter) ([]*models.Lesson, error) {
	query := lessonSelect
	args := []interface{}{}
	if filter.SiteID != nil {
		query += ` WHERE l.site_id = $1`
		args = append(args, *filter.SiteID)
	}
	query += lessonOrder

	return r.query(ctx, query, args...)
}

// ListBySiteIDs retrieves the lessons of several sites in display order
func (r *LessonRepository) ListBySiteIDs(ctx context.Context, siteIDs []uuid.UUID) ([]*models.Lesson, error) {
	if len(siteIDs) == 0 {
		return []*models.Lesson{}, nil
	}
	query := lessonSelect + ` WHERE l.site_id = ANY($1::uuid[])` + lessonOrder
	return r.query(ctx, query, pq.Array(uuidStrings(siteIDs)))
}

// Update updates a lesson
func (r *LessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	query := `
		UPDATE lessons
		SET title = $2, content = $3, video_url = $4, sort_order = $5, site_id = $6, updated_at = $7
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		lesson.ID,
		lesson.Title,
		lesson.Content,
		lesson.VideoURL,
		lesson.SortOrder,
		lesson.SiteID,
		lesson.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update lesson %s: %w", lesson.ID, mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to update lesson %s: %w", lesson.ID, err)
	}

	r.logger.Debug("lesson updated", zap.String("id", lesson.ID.String()))
	return nil
}

// Delete removes a lesson
func (r *LessonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lesson %s: %w", id, mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete lesson %s: %w", id, err)
	}

	r.logger.Debug("lesson deleted", zap.String("id", id.String()))
	return nil
}

// DeleteBySiteID removes every lesson of a site
func (r *LessonRepository) DeleteBySiteID(ctx context.Context, siteID uuid.UUID) (int64, error) {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM lessons WHERE site_id = $1`, siteID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete lessons of site %s: %w", siteID, err)
	}
	return result.RowsAffected()
}

// DeleteByCategoryID removes every lesson under any site of a category
func (r *LessonRepository) DeleteByCategoryID(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	query := `DELETE FROM lessons WHERE site_id IN (SELECT id FROM sites WHERE category_id = $1)`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete lessons of category %s: %w", categoryID, err)
	}
	return result.RowsAffected()
}

func (r *LessonRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Lesson, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]*models.Lesson, 0)
	for rows.Next() {
		lesson, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson: %w", err)
		}
		lessons = append(lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lessons: %w", err)
	}

	return lessons, nil
}

func scanLesson(row rowScanner) (*models.Lesson, error) {
	lesson := &models.Lesson{}
	site := &models.Site{}
	category := &models.Category{}
	if err := row.Scan(
		&lesson.ID,
		&lesson.Title,
		&lesson.Content,
		&lesson.VideoURL,
		&lesson.SortOrder,
		&lesson.SiteID,
		&lesson.CreatedAt,
		&lesson.UpdatedAt,
		&site.ID,
		&site.Name,
		&site.URL,
		&site.Description,
		&site.SortOrder,
		&site.CategoryID,
		&site.CreatedAt,
		&site.UpdatedAt,
		&category.ID,
		&category.Name,
		&category.Description,
		&category.SortOrder,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	site.Category = category
	lesson.Site = site
	return lesson, nil
}
