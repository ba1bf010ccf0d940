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

// Sites are always read joined with their category.
const siteSelect = `
	SELECT s.id, s.name, s.url, s.description, s.sort_order, s.category_id, s.created_at, s.updated_at,
	       c.id, c.name, c.description, c.sort_order, c.created_at, c.updated_at
	FROM sites s
	JOIN categories c ON c.id = s.category_id
`

const siteOrder = ` ORDER BY s.sort_order ASC, s.name ASC, s.seq ASC`

// SiteRepository implements the repositories.SiteRepository interface
type SiteRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(db *DB, logger *zap.Logger) repositories.SiteRepository {
	return &SiteRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new site
func (r *SiteRepository) Create(ctx context.Context, site *models.Site) error {
	query := `
		INSERT INTO sites (id, name, url, description, sort_order, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		site.ID,
		site.Name,
		site.URL,
		site.Description,
		site.SortOrder,
		site.CategoryID,
		site.CreatedAt,
		site.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create site: %w", mapError(err))
	}

	r.logger.Debug("site created",
		zap.String("id", site.ID.String()),
		zap.String("category_id", site.CategoryID.String()))
	return nil
}

// GetByID retrieves a site with its category
func (r *SiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	executor := GetExecutor(ctx, r.db)
	site, err := scanSite(executor.QueryRowContext(ctx, siteSelect+` WHERE s.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get site %s: %w", id, mapError(err))
	}
	return site, nil
}

// Exists reports whether a site with the given ID exists
func (r *SiteRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sites WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check site %s: %w", id, err)
	}
	return exists, nil
}

// List retrieves sites in display order, optionally restricted to one category
func (r *SiteRepository) List(ctx context.Context, filter repositories.SiteFilter) ([]*models.Site, error) {
	query := siteSelect
	args := []interface{}{}
	if filter.CategoryID != nil {
		query += ` WHERE s.category_id = $1`
		args = append(args, *filter.CategoryID)
	}
	query += siteOrder

	return r.query(ctx, query, args...)
}

// ListByCategoryIDs retrieves the sites of several categories in display order
func (r *SiteRepository) ListByCategoryIDs(ctx context.Context, categoryIDs []uuid.UUID) ([]*models.Site, error) {
	if len(categoryIDs) == 0 {
		return []*models.Site{}, nil
	}
	query := siteSelect + ` WHERE s.category_id = ANY($1::uuid[])` + siteOrder
	return r.query(ctx, query, pq.Array(uuidStrings(categoryIDs)))
}

// Update updates a site
func (r *SiteRepository) Update(ctx context.Context, site *models.Site) error {
	query := `
		UPDATE sites
		SET name = $2, url = $3, description = $4, sort_order = $5, category_id = $6, updated_at = $7
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		site.ID,
		site.Name,
		site.URL,
		site.Description,
		site.SortOrder,
		site.CategoryID,
		site.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update site %s: %w", site.ID, mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to update site %s: %w", site.ID, err)
	}

	r.logger.Debug("site updated", zap.String("id", site.ID.String()))
	return nil
}

// Delete removes a single site row. Its lessons must already be gone.
func (r *SiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete site %s: %w", id, mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete site %s: %w", id, err)
	}

	r.logger.Debug("site deleted", zap.String("id", id.String()))
	return nil
}

// Lock takes a row lock on the site
func (r *SiteRepository) Lock(ctx context.Context, id uuid.UUID) error {
	var locked uuid.UUID
	executor := GetExecutor(ctx, r.db)
	err := executor.QueryRowContext(ctx, `SELECT id FROM sites WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		return fmt.Errorf("failed to lock site %s: %w", id, mapError(err))
	}
	return nil
}

// LockByCategoryID takes row locks on every site of a category
func (r *SiteRepository) LockByCategoryID(ctx context.Context, categoryID uuid.UUID) error {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, `SELECT id FROM sites WHERE category_id = $1 FOR UPDATE`, categoryID)
	if err != nil {
		return fmt.Errorf("failed to lock sites of category %s: %w", categoryID, mapError(err))
	}
	defer rows.Close()

	var id uuid.UUID
	for rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to lock sites of category %s: %w", categoryID, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to lock sites of category %s: %w", categoryID, err)
	}
	return nil
}

// DeleteByCategoryID removes every site of a category
func (r *SiteRepository) DeleteByCategoryID(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, `DELETE FROM sites WHERE category_id = $1`, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sites of category %s: %w", categoryID, mapError(err))
	}
	return result.RowsAffected()
}

func (r *SiteRepository) query(ctx context.Context, query string, args ...interface{}) ([]*models.Site, error) {
	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	sites := make([]*models.Site, 0)
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sites: %w", err)
	}

	return sites, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSite(row rowScanner) (*models.Site, error) {
	site := &models.Site{}
	category := &models.Category{}
	if err := row.Scan(
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
	return site, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
