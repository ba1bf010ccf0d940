package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/learnhub/auth"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/repositories"
	"go.uber.org/zap"
)

// PasswordHasher hashes and checks operator passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
	CompareDummy(password string)
}

// CreateOperatorInput holds the fields for a new operator. An empty Role means OPERATOR.
type CreateOperatorInput struct {
	Username string
	Password string
	Role     models.Role
}

// UpdateOperatorInput holds a partial operator update; nil fields are left unchanged.
type UpdateOperatorInput struct {
	Username *string
	Password *string
	Role     *models.Role
}

// CredentialService owns operator identities, password hashes and roles
type CredentialService struct {
	operators repositories.OperatorRepository
	txMgr     repositories.TransactionManager
	hasher    PasswordHasher
	logger    *zap.Logger
}

// NewCredentialService creates a new CredentialService instance
func NewCredentialService(
	operators repositories.OperatorRepository,
	txMgr repositories.TransactionManager,
	hasher PasswordHasher,
	logger *zap.Logger,
) *CredentialService {
	return &CredentialService{
		operators: operators,
		txMgr:     txMgr,
		hasher:    hasher,
		logger:    logger,
	}
}

// Create registers a new operator. A taken username yields ErrUsernameTaken.
func (s *CredentialService) Create(ctx context.Context, in CreateOperatorInput) (*models.Operator, error) {
	if isBlank(in.Username) {
		return nil, ErrUsernameRequired
	}
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}
	if in.Role == "" {
		in.Role = models.RoleOperator
	}
	if !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	operator := models.NewOperator(in.Username, hash, in.Role)
	err = s.txMgr.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		taken, err := s.operators.UsernameExists(ctx, in.Username, nil)
		if err != nil {
			return WrapInternal("failed to check username", err)
		}
		if taken {
			return ErrUsernameTaken
		}
		return s.operators.Create(ctx, operator)
	})
	if err != nil {
		return nil, s.mapRepoError(err, "failed to create operator")
	}

	s.logger.Info("operator created",
		zap.String("operator_id", operator.ID.String()),
		zap.String("username", operator.Username),
		zap.String("role", string(operator.Role)))
	return operator, nil
}

// VerifyLogin checks a username/password pair. Unknown usernames and wrong
// passwords fail identically with ErrInvalidCredentials.
func (s *CredentialService) VerifyLogin(ctx context.Context, username, password string) (*models.Operator, error) {
	if isBlank(username) {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	operator, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.hasher.CompareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, WrapInternal("failed to load operator", err)
	}

	if !s.hasher.Compare(operator.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return operator, nil
}

// Get retrieves an operator by ID
func (s *CredentialService) Get(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	operator, err := s.operators.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, "failed to get operator")
	}
	return operator, nil
}

// GetByUsername retrieves an operator by exact username
func (s *CredentialService) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	operator, err := s.operators.GetByUsername(ctx, username)
	if err != nil {
		return nil, s.mapRepoError(err, "failed to get operator")
	}
	return operator, nil
}

// List retrieves all operators, newest first
func (s *CredentialService) List(ctx context.Context) ([]*models.Operator, error) {
	operators, err := s.operators.List(ctx)
	if err != nil {
		return nil, WrapInternal("failed to list operators", err)
	}
	return operators, nil
}

// RoleOf returns the operator's current role as stored
func (s *CredentialService) RoleOf(ctx context.Context, id uuid.UUID) (models.Role, error) {
	role, err := s.operators.GetRole(ctx, id)
	if err != nil {
		return "", s.mapRepoError(err, "failed to read operator role")
	}
	return role, nil
}

// Update applies the supplied fields to an operator
func (s *CredentialService) Update(ctx context.Context, id uuid.UUID, in UpdateOperatorInput) (*models.Operator, error) {
	if in.Username != nil && isBlank(*in.Username) {
		return nil, ErrUsernameRequired
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	var newHash string
	if in.Password != nil {
		if *in.Password == "" {
			return nil, ErrPasswordRequired
		}
		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		newHash = hash
	}

	operator, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Operator, error) {
		operator, err := s.operators.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if in.Username != nil && *in.Username != operator.Username {
			taken, err := s.operators.UsernameExists(ctx, *in.Username, &id)
			if err != nil {
				return nil, WrapInternal("failed to check username", err)
			}
			if taken {
				return nil, ErrUsernameTaken
			}
			operator.Username = *in.Username
		}
		if newHash != "" {
			operator.PasswordHash = newHash
		}
		if in.Role != nil {
			operator.Role = *in.Role
		}
		operator.UpdatedAt = time.Now().UTC()

		if err := s.operators.Update(ctx, operator); err != nil {
			return nil, err
		}
		return operator, nil
	})
	if err != nil {
		return nil, s.mapRepoError(err, "failed to update operator")
	}

	s.logger.Info("operator updated",
		zap.String("operator_id", id.String()),
		zap.Bool("username_changed", in.Username != nil),
		zap.Bool("password_changed", in.Password != nil),
		zap.Bool("role_changed", in.Role != nil))
	return operator, nil
}

// ChangePassword replaces the operator's own password after checking the current one
func (s *CredentialService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return ErrPasswordRequired
	}

	operator, err := s.operators.GetByID(ctx, id)
	if err != nil {
		return s.mapRepoError(err, "failed to get operator")
	}
	if !s.hasher.Compare(operator.PasswordHash, current) {
		return ErrCurrentPassword
	}

	hash, err := s.hashPassword(next)
	if err != nil {
		return err
	}
	operator.PasswordHash = hash
	operator.UpdatedAt = time.Now().UTC()

	if err := s.operators.Update(ctx, operator); err != nil {
		return s.mapRepoError(err, "failed to update password")
	}

	s.logger.Info("operator password changed", zap.String("operator_id", id.String()))
	return nil
}

// Delete hard-deletes an operator. Credentials already issued to it stay
// signed but fail the per-request role lookup.
func (s *CredentialService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.operators.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, "failed to delete operator")
	}

	s.logger.Info("operator deleted", zap.String("operator_id", id.String()))
	return nil
}

func (s *CredentialService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", NewDomainError(ErrorTypeValidation, "password must be at most 72 bytes", nil)
		}
		return "", WrapInternal("failed to hash password", err)
	}
	return hash, nil
}

// mapRepoError converts repository sentinels into domain errors, passing
// domain errors through unchanged.
func (s *CredentialService) mapRepoError(err error, message string) error {
	var domainErr *DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repositories.ErrNotFound):
		return ErrOperatorNotFound
	case errors.Is(err, repositories.ErrDuplicate):
		return ErrUsernameTaken
	default:
		return WrapInternal(message, err)
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
