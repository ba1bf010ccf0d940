package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/repositories"
	"go.uber.org/zap"
)

func setupMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return Wrap(sqlDB, zap.NewNop()), mock
}

var operatorRowColumns = []string{"id", "username", "password_hash", "role", "created_at", "updated_at"}

func TestOperatorRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts operator", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewOperatorRepository(db, zap.NewNop())
		op := models.NewOperator("alice", "hash", models.RoleOperator)

		mock.ExpectExec("INSERT INTO operators").
			WithArgs(op.ID, "alice", "hash", models.RoleOperator, op.CreatedAt, op.UpdatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, op))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrDuplicate", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewOperatorRepository(db, zap.NewNop())
		op := models.NewOperator("alice", "hash", models.RoleOperator)

		mock.ExpectExec("INSERT INTO operators").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "operators_username_key"})

		err := repo.Create(ctx, op)
		require.Error(t, err)
		assert.True(t, errors.Is(err, repositories.ErrDuplicate))
		assert.Contains(t, err.Error(), "operators_username_key")
	})
}

func TestOperatorRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewOperatorRepository(db, zap.NewNop())

		mock.ExpectQuery("SELECT (.+) FROM operators WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(operatorRowColumns).
				AddRow(id.String(), "alice", "hash", "ADMINISTRATOR", now, now))

		op, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, op.ID)
		assert.Equal(t, "alice", op.Username)
		assert.Equal(t, models.RoleAdministrator, op.Role)
	})

	t.Run("missing maps to ErrNotFound", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewOperatorRepository(db, zap.NewNop())

		mock.ExpectQuery("SELECT (.+) FROM operators WHERE id = \\$1").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(operatorRowColumns))

		_, err := repo.GetByID(ctx, id)
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
	})
}

func TestOperatorRepository_GetRole(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOperatorRepository(db, zap.NewNop())
	id := uuid.New()

	mock.ExpectQuery("SELECT role FROM operators").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("OPERATOR"))

	role, err := repo.GetRole(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOperator, role)
}

func TestOperatorRepository_UsernameExists(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOperatorRepository(db, zap.NewNop())
	self := uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.UsernameExists(context.Background(), "alice", &self)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOperatorRepository_ListNewestFirst(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOperatorRepository(db, zap.NewNop())
	now := time.Now().UTC()

	mock.ExpectQuery("ORDER BY created_at DESC, seq DESC").
		WillReturnRows(sqlmock.NewRows(operatorRowColumns).
			AddRow(uuid.NewString(), "bob", "h2", "OPERATOR", now, now).
			AddRow(uuid.NewString(), "alice", "h1", "ADMINISTRATOR", now.Add(-time.Hour), now))

	ops, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "bob", ops[0].Username)
	assert.Equal(t, "alice", ops[1].Username)
}

func TestOperatorRepository_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("update missing row", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewOperatorRepository(db, zap.NewNop())
		op := models.NewOperator("alice", "hash", models.RoleOperator)

		mock.ExpectExec("UPDATE operators").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, op)
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
	})

	t.Run("update username collision", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewOperatorRepository(db, zap.NewNop())
		op := models.NewOperator("alice", "hash", models.RoleOperator)

		mock.ExpectExec("UPDATE operators").WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Update(ctx, op)
		assert.True(t, errors.Is(err, repositories.ErrDuplicate))
	})

	t.Run("delete", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewOperatorRepository(db, zap.NewNop())
		id := uuid.New()

		mock.ExpectExec("DELETE FROM operators").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.Delete(ctx, id))

		mock.ExpectExec("DELETE FROM operators").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
		assert.True(t, errors.Is(repo.Delete(ctx, id), repositories.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
