package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/repositories"
	"go.uber.org/zap"
)

const operatorColumns = `id, username, password_hash, role, created_at, updated_at`

// OperatorRepository implements the repositories.OperatorRepository interface
type OperatorRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewOperatorRepository creates a new operator repository
func NewOperatorRepository(db *DB, logger *zap.Logger) repositories.OperatorRepository {
	return &OperatorRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new operator
func (r *OperatorRepository) Create(ctx context.Context, operator *models.Operator) error {
	query := `
		INSERT INTO operators (id, username, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		operator.ID,
		operator.Username,
		operator.PasswordHash,
		operator.Role,
		operator.CreatedAt,
		operator.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", mapError(err))
	}

	r.logger.Debug("operator created",
		zap.String("id", operator.ID.String()),
		zap.String("username", operator.Username))
	return nil
}

// GetByID retrieves an operator by ID
func (r *OperatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE id = $1`

	operator, err := r.scanOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get operator %s: %w", id, err)
	}
	return operator, nil
}

// GetByUsername retrieves an operator by username
func (r *OperatorRepository) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators WHERE username = $1`

	operator, err := r.scanOne(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get operator by username: %w", err)
	}
	return operator, nil
}

// GetRole reads the current role of an operator
func (r *OperatorRepository) GetRole(ctx context.Context, id uuid.UUID) (models.Role, error) {
	query := `SELECT role FROM operators WHERE id = $1`

	var role models.Role
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, id).Scan(&role); err != nil {
		return "", fmt.Errorf("failed to get operator role %s: %w", id, mapError(err))
	}
	return role, nil
}

// UsernameExists reports whether the username is held by an operator other than excludeID
func (r *OperatorRepository) UsernameExists(ctx context.Context, username string, excludeID *uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM operators WHERE username = $1 AND ($2::uuid IS NULL OR id <> $2::uuid))`

	var exists bool
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, query, username, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// List retrieves all operators, newest first
func (r *OperatorRepository) List(ctx context.Context) ([]*models.Operator, error) {
	query := `SELECT ` + operatorColumns + ` FROM operators ORDER BY created_at DESC, seq DESC`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}
	defer rows.Close()

	operators := make([]*models.Operator, 0)
	for rows.Next() {
		operator := &models.Operator{}
		if err := rows.Scan(
			&operator.ID,
			&operator.Username,
			&operator.PasswordHash,
			&operator.Role,
			&operator.CreatedAt,
			&operator.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		operators = append(operators, operator)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operators: %w", err)
	}

	return operators, nil
}

// Update writes the mutable operator fields
func (r *OperatorRepository) Update(ctx context.Context, operator *models.Operator) error {
	query := `
		UPDATE operators
		SET username = $2, password_hash = $3, role = $4, updated_at = $5
		WHERE id = $1
	`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query,
		operator.ID,
		operator.Username,
		operator.PasswordHash,
		operator.Role,
		operator.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update operator %s: %w", operator.ID, mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to update operator %s: %w", operator.ID, err)
	}

	r.logger.Debug("operator updated", zap.String("id", operator.ID.String()))
	return nil
}

// Delete hard-deletes an operator
func (r *OperatorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM operators WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete operator %s: %w", id, mapError(err))
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("failed to delete operator %s: %w", id, err)
	}

	r.logger.Debug("operator deleted", zap.String("id", id.String()))
	return nil
}

func (r *OperatorRepository) scanOne(ctx context.Context, query string, arg interface{}) (*models.Operator, error) {
	executor := GetExecutor(ctx, r.db)
	operator := &models.Operator{}

	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&operator.ID,
		&operator.Username,
		&operator.PasswordHash,
		&operator.Role,
		&operator.CreatedAt,
		&operator.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return operator, nil
}
