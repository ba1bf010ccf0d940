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

var (
	categoryRowColumns = []string{"id", "name", "description", "sort_order", "created_at", "updated_at"}
	siteRowColumns     = []string{
		"id", "name", "url", "description", "sort_order", "category_id", "created_at", "updated_at",
		"c_id", "c_name", "c_description", "c_sort_order", "c_created_at", "c_updated_at",
	}
	lessonRowColumns = []string{
		"id", "title", "content", "video_url", "sort_order", "site_id", "created_at", "updated_at",
		"s_id", "s_name", "s_url", "s_description", "s_sort_order", "s_category_id", "s_created_at", "s_updated_at",
		"c_id", "c_name", "c_description", "c_sort_order", "c_created_at", "c_updated_at",
	}
)

func TestCategoryRepository_ListOrdering(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCategoryRepository(db, zap.NewNop())
	now := time.Now().UTC()

	mock.ExpectQuery("FROM categories ORDER BY sort_order ASC, name ASC, seq ASC").
		WillReturnRows(sqlmock.NewRows(categoryRowColumns).
			AddRow(uuid.NewString(), "Algebra", nil, 0, now, now).
			AddRow(uuid.NewString(), "Biology", "life", 1, now, now))

	categories, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Algebra", categories[0].Name)
	assert.Nil(t, categories[0].Description)
	require.NotNil(t, categories[1].Description)
	assert.Equal(t, "life", *categories[1].Description)
}

func TestCategoryRepository_GetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCategoryRepository(db, zap.NewNop())
	id := uuid.New()

	mock.ExpectQuery("FROM categories WHERE id").WithArgs(id).WillReturnRows(sqlmock.NewRows(categoryRowColumns))

	_, err := repo.GetByID(context.Background(), id)
	assert.True(t, errors.Is(err, repositories.ErrNotFound))
}

func TestCategoryRepository_UpdateClearsDescription(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCategoryRepository(db, zap.NewNop())
	category := models.NewCategory("Math", nil, 2)

	mock.ExpectExec("UPDATE categories").
		WithArgs(category.ID, "Math", nil, 2, category.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), category))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteRepository_CreateWithMissingCategory(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSiteRepository(db, zap.NewNop())
	site := models.NewSite(uuid.New(), "Khan", "", nil, 0)

	mock.ExpectExec("INSERT INTO sites").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "sites_category_id_fkey"})

	err := repo.Create(context.Background(), site)
	assert.True(t, errors.Is(err, repositories.ErrForeignKey))
}

func TestSiteRepository_ListByCategoryNestsParent(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSiteRepository(db, zap.NewNop())
	categoryID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("WHERE s.category_id = \\$1 ORDER BY s.sort_order ASC, s.name ASC, s.seq ASC").
		WithArgs(categoryID).
		WillReturnRows(sqlmock.NewRows(siteRowColumns).
			AddRow(uuid.NewString(), "Khan", "", nil, 0, categoryID.String(), now, now,
				categoryID.String(), "Math", nil, 0, now, now))

	sites, err := repo.List(context.Background(), repositories.SiteFilter{CategoryID: &categoryID})
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, "", sites[0].URL)
	require.NotNil(t, sites[0].Category)
	assert.Equal(t, "Math", sites[0].Category.Name)
}

func TestSiteRepository_ListByCategoryIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSiteRepository(db, zap.NewNop())

	sites, err := repo.ListByCategoryIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, sites)

	mock.ExpectQuery("ANY\\(\\$1::uuid\\[\\]\\)").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(siteRowColumns))

	sites, err = repo.ListByCategoryIDs(context.Background(), []uuid.UUID{uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, sites)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonRepository_GetByIDNestsSiteAndCategory(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLessonRepository(db, zap.NewNop())
	lessonID, siteID, categoryID := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("FROM lessons l").
		WithArgs(lessonID).
		WillReturnRows(sqlmock.NewRows(lessonRowColumns).
			AddRow(lessonID.String(), "Intro", "<p>hi</p>", nil, 0, siteID.String(), now, now,
				siteID.String(), "Khan", "https://khan.org", nil, 0, categoryID.String(), now, now,
				categoryID.String(), "Math", nil, 0, now, now))

	lesson, err := repo.GetByID(context.Background(), lessonID)
	require.NoError(t, err)
	assert.Equal(t, "Intro", lesson.Title)
	assert.Nil(t, lesson.VideoURL)
	require.NotNil(t, lesson.Site)
	assert.Equal(t, siteID, lesson.Site.ID)
	require.NotNil(t, lesson.Site.Category)
	assert.Equal(t, categoryID, lesson.Site.Category.ID)
}

func TestLessonRepository_ListOrdering(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLessonRepository(db, zap.NewNop())

	mock.ExpectQuery("ORDER BY l.sort_order ASC, l.seq ASC").
		WillReturnRows(sqlmock.NewRows(lessonRowColumns))

	lessons, err := repo.List(context.Background(), repositories.LessonFilter{})
	require.NoError(t, err)
	assert.NotNil(t, lessons)
	assert.Empty(t, lessons)
}

func TestLessonRepository_CascadeHelpers(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLessonRepository(db, zap.NewNop())
	categoryID, siteID := uuid.New(), uuid.New()

	mock.ExpectExec("DELETE FROM lessons WHERE site_id IN \\(SELECT id FROM sites WHERE category_id = \\$1\\)").
		WithArgs(categoryID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM lessons WHERE site_id = \\$1").
		WithArgs(siteID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteByCategoryID(context.Background(), categoryID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = repo.DeleteBySiteID(context.Background(), siteID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Lock(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCategoryRepository(db, zap.NewNop())
	id := uuid.New()
	missing := uuid.New()

	mock.ExpectQuery(`SELECT id FROM categories WHERE id = \$1 FOR UPDATE`).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))
	mock.ExpectQuery(`SELECT id FROM categories WHERE id = \$1 FOR UPDATE`).WithArgs(missing).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	require.NoError(t, repo.Lock(context.Background(), id))
	assert.True(t, errors.Is(repo.Lock(context.Background(), missing), repositories.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSiteRepository_Locks(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSiteRepository(db, zap.NewNop())
	siteID := uuid.New()
	categoryID := uuid.New()

	mock.ExpectQuery(`SELECT id FROM sites WHERE id = \$1 FOR UPDATE`).WithArgs(siteID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT id FROM sites WHERE category_id = \$1 FOR UPDATE`).WithArgs(categoryID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).
			AddRow(uuid.NewString()).
			AddRow(uuid.NewString()))

	assert.True(t, errors.Is(repo.Lock(context.Background(), siteID), repositories.ErrNotFound))
	require.NoError(t, repo.LockByCategoryID(context.Background(), categoryID))
	require.NoError(t, mock.ExpectationsWereMet())
}
