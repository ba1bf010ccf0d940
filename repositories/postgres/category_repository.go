package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/repositories"
	"go.uber.org/zap"
)

const categoryColumns = `id, name, description, sort_order, created_at, updated_at`

// CategoryRepository implements the repositories.CategoryRepository interface
type CategoryRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *DB, logger *zap.Logger) repositories.CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new category
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (id, name, description, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.SortOrder,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", mapError(err))
	}

	r.logger.Debug("category created", zap.String("id", category.ID.String()))
	return nil
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	category := &models.Category{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.SortOrder,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get category %s: %w", id, mapError(err))
	}

	return category, nil
}

// Exists reports whether a category with the given ID exists
func (r *CategoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category %s: %w", id, err)
	}
	return exists, nil
}

// Lock takes a row lock on the category. Inserts of sites referencing it
// block on the lock until the transaction finishes.
func (r *CategoryRepository) Lock(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		return fmt.Errorf("failed to lock category %s: %w", id, mapError(err))
	}
	return nil
}

// List retrieves all categories in display order
func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY sort_order ASC, name ASC, seq ASC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.SortOrder,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// Update updates a category
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories
		SET name = $2, description = $3, sort_order = $4, updated_at = $5
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.SortOrder,
		category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update category %s: %w", category.ID, mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to update category %s: %w", category.ID, err)
	}

	r.logger.Debug("category updated", zap.String("id", category.ID.String()))
	return nil
}

// Delete removes a single category row. Its sites must already be gone.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}

	r.logger.Debug("category deleted", zap.String("id", id.String()))
	return nil
}
