package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/learnhub/models"
)

// Sentinel errors returned by repository implementations. Callers match them
// with errors.Is; implementations wrap them with operation context.
var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when a unique constraint rejects the write
	ErrDuplicate = errors.New("duplicate record")

	// ErrForeignKey is returned when a referenced parent row does not exist
	ErrForeignKey = errors.New("referenced record does not exist")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Repositories called with the ctx passed to fn run inside it.
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// OperatorRepository handles operator credential data
type OperatorRepository interface {
	// Create inserts a new operator. Returns ErrDuplicate when the username is taken.
	Create(ctx context.Context, operator *models.Operator) error

	// GetByID retrieves an operator by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error)

	// GetByUsername retrieves an operator by exact (case-sensitive) username
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)

	// GetRole reads only the current role of an operator
	GetRole(ctx context.Context, id uuid.UUID) (models.Role, error)

	// UsernameExists reports whether another operator holds the username.
	// excludeID, when non-nil, is ignored in the check.
	UsernameExists(ctx context.Context, username string, excludeID *uuid.UUID) (bool, error)

	// List retrieves all operators, newest first
	List(ctx context.Context) ([]*models.Operator, error)

	// Update writes username, password hash, role and updated_at
	Update(ctx context.Context, operator *models.Operator) error

	// Delete hard-deletes an operator
	Delete(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository handles category data
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// List returns categories ordered by sort order, name, insertion
	List(ctx context.Context) ([]*models.Category, error)

	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Lock holds the category row until the surrounding transaction ends.
	// Returns ErrNotFound when the category does not exist.
	Lock(ctx context.Context, id uuid.UUID) error
}

// SiteFilter narrows a site listing
type SiteFilter struct {
	CategoryID *uuid.UUID
}

// SiteRepository handles site data. Returned sites carry their parent category.
type SiteRepository interface {
	Create(ctx context.Context, site *models.Site) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// List returns sites ordered by sort order, name, insertion
	List(ctx context.Context, filter SiteFilter) ([]*models.Site, error)

	// ListByCategoryIDs returns the sites of every given category in list order
	ListByCategoryIDs(ctx context.Context, categoryIDs []uuid.UUID) ([]*models.Site, error)

	Update(ctx context.Context, site *models.Site) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByCategoryID removes every site of a category and returns how many went
	DeleteByCategoryID(ctx context.Context, categoryID uuid.UUID) (int64, error)

	// Lock holds the site row until the surrounding transaction ends.
	// Returns ErrNotFound when the site does not exist.
	Lock(ctx context.Context, id uuid.UUID) error

	// LockByCategoryID holds every site row of a category until the
	// surrounding transaction ends
	LockByCategoryID(ctx context.Context, categoryID uuid.UUID) error
}

// LessonFilter narrows a lesson listing
type LessonFilter struct {
	SiteID *uuid.UUID
}

// LessonRepository handles lesson data. Returned lessons carry their site and its category.
type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error)

	// List returns lessons ordered by sort order, insertion
	List(ctx context.Context, filter LessonFilter) ([]*models.Lesson, error)

	// ListBySiteIDs returns the lessons of every given site in list order
	ListBySiteIDs(ctx context.Context, siteIDs []uuid.UUID) ([]*models.Lesson, error)

	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteBySiteID removes every lesson of a site
	DeleteBySiteID(ctx context.Context, siteID uuid.UUID) (int64, error)

	// DeleteByCategoryID removes every lesson of every site in a category
	DeleteByCategoryID(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Operators  OperatorRepository
	Categories CategoryRepository
	Sites      SiteRepository
	Lessons    LessonRepository
}
