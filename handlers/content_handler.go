package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/learnhub/internal/observability"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/services"
	"github.com/upb/learnhub/utils"
	"go.uber.org/zap"
)

// ContentStore defines the content hierarchy operations served over HTTP
type ContentStore interface {
	CreateCategory(ctx context.Context, in services.CategoryInput) (*models.Category, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, patch services.CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	CreateSite(ctx context.Context, in services.SiteInput) (*models.Site, error)
	GetSite(ctx context.Context, id uuid.UUID) (*models.Site, error)
	ListSites(ctx context.Context, categoryID *uuid.UUID) ([]*models.Site, error)
	UpdateSite(ctx context.Context, id uuid.UUID, patch services.SitePatch) (*models.Site, error)
	DeleteSite(ctx context.Context, id uuid.UUID) error

	CreateLesson(ctx context.Context, in services.LessonInput) (*models.Lesson, error)
	GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error)
	ListLessons(ctx context.Context, siteID *uuid.UUID) ([]*models.Lesson, error)
	UpdateLesson(ctx context.Context, id uuid.UUID, patch services.LessonPatch) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, id uuid.UUID) error
}

// ContentHandler handles category, site and lesson requests. Reads are
// mounted for any authenticated operator, writes under the admin routes.
type ContentHandler struct {
	content ContentStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewContentHandler creates a new ContentHandler. metrics may be nil.
func NewContentHandler(content ContentStore, metrics *observability.Metrics, logger *zap.Logger) *ContentHandler {
	return &ContentHandler{
		content: content,
		metrics: metrics,
		logger:  logger,
	}
}

// optionalFilter reads a parent filter from the named path parameter or,
// failing that, the query string
func optionalFilter(w http.ResponseWriter, r *http.Request, param, query string, logger *zap.Logger) (*uuid.UUID, bool) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		raw = r.URL.Query().Get(query)
	}
	if raw == "" {
		return nil, true
	}

	id, err := utils.ParseUUID(raw)
	if err != nil {
		HandleServiceError(w, services.ErrInvalidIdentifier.WithDetail(query, raw), logger)
		return nil, false
	}
	return &id, true
}
