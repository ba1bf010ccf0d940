package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/repositories"
)

// MockTransactionManager runs the callback inline unless InTransaction is
// configured to fail before it starts.
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	args := m.Called(ctx)
	if tx := args.Get(0); tx != nil {
		return tx.(repositories.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransactionManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, &MockTransaction{})
}

// MockTransaction is a mock implementation of Transaction
type MockTransaction struct {
	mock.Mock
}

func (m *MockTransaction) Commit() error {
	return nil
}

func (m *MockTransaction) Rollback() error {
	return nil
}

func (m *MockTransaction) Context() context.Context {
	return context.Background()
}

// MockPasswordHasher is a mock implementation of PasswordHasher
type MockPasswordHasher struct {
	mock.Mock
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockPasswordHasher) Compare(hash, password string) bool {
	args := m.Called(hash, password)
	return args.Bool(0)
}

func (m *MockPasswordHasher) CompareDummy(password string) {
	m.Called(password)
}

// MockOperatorRepository is a mock implementation of OperatorRepository
type MockOperatorRepository struct {
	mock.Mock
}

func (m *MockOperatorRepository) Create(ctx context.Context, operator *models.Operator) error {
	return m.Called(ctx, operator).Error(0)
}

func (m *MockOperatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	args := m.Called(ctx, id)
	if op := args.Get(0); op != nil {
		return op.(*models.Operator), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOperatorRepository) GetByUsername(ctx context.Context, username string) (*models.Operator, error) {
	args := m.Called(ctx, username)
	if op := args.Get(0); op != nil {
		return op.(*models.Operator), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOperatorRepository) GetRole(ctx context.Context, id uuid.UUID) (models.Role, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Role), args.Error(1)
}

func (m *MockOperatorRepository) UsernameExists(ctx context.Context, username string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperatorRepository) List(ctx context.Context) ([]*models.Operator, error) {
	args := m.Called(ctx)
	if ops := args.Get(0); ops != nil {
		return ops.([]*models.Operator), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOperatorRepository) Update(ctx context.Context, operator *models.Operator) error {
	return m.Called(ctx, operator).Error(0)
}

func (m *MockOperatorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockCategoryRepository is a mock implementation of CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCategoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	args := m.Called(ctx)
	if c := args.Get(0); c != nil {
		return c.([]*models.Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCategoryRepository) Lock(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockSiteRepository is a mock implementation of SiteRepository
type MockSiteRepository struct {
	mock.Mock
}

func (m *MockSiteRepository) Create(ctx context.Context, site *models.Site) error {
	return m.Called(ctx, site).Error(0)
}

func (m *MockSiteRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*models.Site), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSiteRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSiteRepository) List(ctx context.Context, filter repositories.SiteFilter) ([]*models.Site, error) {
	args := m.Called(ctx, filter)
	if s := args.Get(0); s != nil {
		return s.([]*models.Site), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSiteRepository) ListByCategoryIDs(ctx context.Context, categoryIDs []uuid.UUID) ([]*models.Site, error) {
	args := m.Called(ctx, categoryIDs)
	if s := args.Get(0); s != nil {
		return s.([]*models.Site), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSiteRepository) Update(ctx context.Context, site *models.Site) error {
	return m.Called(ctx, site).Error(0)
}

func (m *MockSiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSiteRepository) DeleteByCategoryID(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSiteRepository) Lock(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSiteRepository) LockByCategoryID(ctx context.Context, categoryID uuid.UUID) error {
	return m.Called(ctx, categoryID).Error(0)
}

// MockLessonRepository is a mock implementation of LessonRepository
type MockLessonRepository struct {
	mock.Mock
}

func (m *MockLessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	return m.Called(ctx, lesson).Error(0)
}

func (m *MockLessonRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	args := m.Called(ctx, id)
	if l := args.Get(0); l != nil {
		return l.(*models.Lesson), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLessonRepository) List(ctx context.Context, filter repositories.LessonFilter) ([]*models.Lesson, error) {
	args := m.Called(ctx, filter)
	if l := args.Get(0); l != nil {
		return l.([]*models.Lesson), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLessonRepository) ListBySiteIDs(ctx context.Context, siteIDs []uuid.UUID) ([]*models.Lesson, error) {
	args := m.Called(ctx, siteIDs)
	if l := args.Get(0); l != nil {
		return l.([]*models.Lesson), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLessonRepository) Update(ctx context.Context, lesson *models.Lesson) error {
	return m.Called(ctx, lesson).Error(0)
}

func (m *MockLessonRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockLessonRepository) DeleteBySiteID(ctx context.Context, siteID uuid.UUID) (int64, error) {
	args := m.Called(ctx, siteID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLessonRepository) DeleteByCategoryID(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int64), args.Error(1)
}
