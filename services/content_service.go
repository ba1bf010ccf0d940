package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/repositories"
	"go.uber.org/zap"
)

// HTMLSanitizer cleans user-supplied rich text
type HTMLSanitizer interface {
	Sanitize(s string) string
}

// NewLessonSanitizer returns the policy applied to lesson bodies
func NewLessonSanitizer() HTMLSanitizer {
	return bluemonday.UGCPolicy()
}

// CategoryInput holds the fields for a new category
type CategoryInput struct {
	Name        string
	Description *string
	SortOrder   int
}

// CategoryPatch holds a partial category update. A non-nil empty
// Description clears it.
type CategoryPatch struct {
	Name        *string
	Description *string
	SortOrder   *int
}

// SiteInput holds the fields for a new site
type SiteInput struct {
	Name        string
	URL         string
	Description *string
	SortOrder   int
	CategoryID  uuid.UUID
}

// SitePatch holds a partial site update. A non-nil empty URL is stored as
// the empty string; a non-nil empty Description clears it.
type SitePatch struct {
	Name        *string
	URL         *string
	Description *string
	SortOrder   *int
	CategoryID  *uuid.UUID
}

// LessonInput holds the fields for a new lesson
type LessonInput struct {
	Title     string
	Content   string
	VideoURL  *string
	SortOrder int
	SiteID    uuid.UUID
}

// LessonPatch holds a partial lesson update. A non-nil empty VideoURL clears it.
type LessonPatch struct {
	Title     *string
	Content   *string
	VideoURL  *string
	SortOrder *int
	SiteID    *uuid.UUID
}

// ContentService manages the category, site and lesson hierarchy
type ContentService struct {
	categories repositories.CategoryRepository
	sites      repositories.SiteRepository
	lessons    repositories.LessonRepository
	txMgr      repositories.TransactionManager
	sanitizer  HTMLSanitizer
	logger     *zap.Logger
}

// NewContentService creates a new ContentService instance. A nil sanitizer
// stores lesson content verbatim.
func NewContentService(
	repos *repositories.Repositories,
	txMgr repositories.TransactionManager,
	sanitizer HTMLSanitizer,
	logger *zap.Logger,
) *ContentService {
	return &ContentService{
		categories: repos.Categories,
		sites:      repos.Sites,
		lessons:    repos.Lessons,
		txMgr:      txMgr,
		sanitizer:  sanitizer,
		logger:     logger,
	}
}

// Categories

// CreateCategory creates a category
func (s *ContentService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if isBlank(in.Name) {
		return nil, ErrNameRequired
	}

	category := models.NewCategory(in.Name, normalizeOptional(in.Description), in.SortOrder)
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, WrapInternal("failed to create category", err)
	}

	category.Sites = []*models.Site{}
	s.logger.Info("category created", zap.String("category_id", category.ID.String()))
	return category, nil
}

// GetCategory returns a category with its sites
func (s *ContentService) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapContentError(err, ErrCategoryNotFound, "failed to get category")
	}
	if err := s.attachSites(ctx, []*models.Category{category}); err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories returns all categories with their sites, in display order
func (s *ContentService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, WrapInternal("failed to list categories", err)
	}
	if err := s.attachSites(ctx, categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// UpdateCategory applies the supplied fields to a category
func (s *ContentService) UpdateCategory(ctx context.Context, id uuid.UUID, patch CategoryPatch) (*models.Category, error) {
	if patch.Name != nil && isBlank(*patch.Name) {
		return nil, ErrNameRequired
	}

	category, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Category, error) {
		category, err := s.categories.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if patch.Name != nil {
			category.Name = *patch.Name
		}
		if patch.Description != nil {
			category.Description = normalizeOptional(patch.Description)
		}
		if patch.SortOrder != nil {
			category.SortOrder = *patch.SortOrder
		}
		category.UpdatedAt = time.Now().UTC()

		if err := s.categories.Update(ctx, category); err != nil {
			return nil, err
		}
		return category, nil
	})
	if err != nil {
		return nil, mapContentError(err, ErrCategoryNotFound, "failed to update category")
	}

	if err := s.attachSites(ctx, []*models.Category{category}); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category together with its sites and their
// lessons as one transaction. The category and its sites are locked first so
// concurrent child inserts wait and then fail their parent check.
func (s *ContentService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	var lessonsRemoved, sitesRemoved int64
	err := s.txMgr.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		if err := s.categories.Lock(ctx, id); err != nil {
			return err
		}
		if err := s.sites.LockByCategoryID(ctx, id); err != nil {
			return err
		}

		var err error
		if lessonsRemoved, err = s.lessons.DeleteByCategoryID(ctx, id); err != nil {
			return err
		}
		if sitesRemoved, err = s.sites.DeleteByCategoryID(ctx, id); err != nil {
			return err
		}
		return s.categories.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return WrapInternal("category gained children during delete", err)
		}
		return mapContentError(err, ErrCategoryNotFound, "failed to delete category")
	}

	s.logger.Info("category deleted",
		zap.String("category_id", id.String()),
		zap.Int64("sites_removed", sitesRemoved),
		zap.Int64("lessons_removed", lessonsRemoved))
	return nil
}

// Sites

// CreateSite creates a site under an existing category
func (s *ContentService) CreateSite(ctx context.Context, in SiteInput) (*models.Site, error) {
	if isBlank(in.Name) {
		return nil, ErrNameRequired
	}
	if err := s.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	site := models.NewSite(in.CategoryID, in.Name, in.URL, normalizeOptional(in.Description), in.SortOrder)
	if err := s.sites.Create(ctx, site); err != nil {
		return nil, mapContentError(err, ErrCategoryNotFound, "failed to create site")
	}

	s.logger.Info("site created",
		zap.String("site_id", site.ID.String()),
		zap.String("category_id", site.CategoryID.String()))
	return s.GetSite(ctx, site.ID)
}

// GetSite returns a site with its category and lessons
func (s *ContentService) GetSite(ctx context.Context, id uuid.UUID) (*models.Site, error) {
	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return nil, mapContentError(err, ErrSiteNotFound, "failed to get site")
	}
	if err := s.attachLessons(ctx, []*models.Site{site}); err != nil {
		return nil, err
	}
	return site, nil
}

// ListSites returns sites in display order, optionally only those of one category
func (s *ContentService) ListSites(ctx context.Context, categoryID *uuid.UUID) ([]*models.Site, error) {
	sites, err := s.sites.List(ctx, repositories.SiteFilter{CategoryID: categoryID})
	if err != nil {
		return nil, WrapInternal("failed to list sites", err)
	}
	if err := s.attachLessons(ctx, sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// UpdateSite applies the supplied fields to a site; a new category must exist
func (s *ContentService) UpdateSite(ctx context.Context, id uuid.UUID, patch SitePatch) (*models.Site, error) {
	if patch.Name != nil && isBlank(*patch.Name) {
		return nil, ErrNameRequired
	}

	_, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Site, error) {
		site, err := s.sites.GetByID(ctx, id)
		if err != nil {
			return nil, mapContentError(err, ErrSiteNotFound, "failed to get site")
		}
		if patch.CategoryID != nil && *patch.CategoryID != site.CategoryID {
			if err := s.requireCategory(ctx, *patch.CategoryID); err != nil {
				return nil, err
			}
			site.CategoryID = *patch.CategoryID
		}
		if patch.Name != nil {
			site.Name = *patch.Name
		}
		if patch.URL != nil {
			site.URL = *patch.URL
		}
		if patch.Description != nil {
			site.Description = normalizeOptional(patch.Description)
		}
		if patch.SortOrder != nil {
			site.SortOrder = *patch.SortOrder
		}
		site.UpdatedAt = time.Now().UTC()

		if err := s.sites.Update(ctx, site); err != nil {
			return nil, err
		}
		return site, nil
	})
	if err != nil {
		return nil, s.mapParentedError(err, ErrSiteNotFound, ErrCategoryNotFound, "failed to update site")
	}

	return s.GetSite(ctx, id)
}

// DeleteSite removes a site and its lessons as one transaction
func (s *ContentService) DeleteSite(ctx context.Context, id uuid.UUID) error {
	var lessonsRemoved int64
	err := s.txMgr.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
		if err := s.sites.Lock(ctx, id); err != nil {
			return err
		}

		var err error
		if lessonsRemoved, err = s.lessons.DeleteBySiteID(ctx, id); err != nil {
			return err
		}
		return s.sites.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return WrapInternal("site gained lessons during delete", err)
		}
		return mapContentError(err, ErrSiteNotFound, "failed to delete site")
	}

	s.logger.Info("site deleted",
		zap.String("site_id", id.String()),
		zap.Int64("lessons_removed", lessonsRemoved))
	return nil
}

// Lessons

// CreateLesson creates a lesson under an existing site
func (s *ContentService) CreateLesson(ctx context.Context, in LessonInput) (*models.Lesson, error) {
	if isBlank(in.Title) {
		return nil, ErrTitleRequired
	}
	content, err := s.cleanContent(in.Content)
	if err != nil {
		return nil, err
	}
	if err := s.requireSite(ctx, in.SiteID); err != nil {
		return nil, err
	}

	lesson := models.NewLesson(in.SiteID, in.Title, content, normalizeOptional(in.VideoURL), in.SortOrder)
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, mapContentError(err, ErrSiteNotFound, "failed to create lesson")
	}

	s.logger.Info("lesson created",
		zap.String("lesson_id", lesson.ID.String()),
		zap.String("site_id", lesson.SiteID.String()))
	return s.GetLesson(ctx, lesson.ID)
}

// GetLesson returns a lesson with its site and the site's category
func (s *ContentService) GetLesson(ctx context.Context, id uuid.UUID) (*models.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		return nil, mapContentError(err, ErrLessonNotFound, "failed to get lesson")
	}
	return lesson, nil
}

// ListLessons returns lessons in display order, optionally only those of one site
func (s *ContentService) ListLessons(ctx context.Context, siteID *uuid.UUID) ([]*models.Lesson, error) {
	lessons, err := s.lessons.List(ctx, repositories.LessonFilter{SiteID: siteID})
	if err != nil {
		return nil, WrapInternal("failed to list lessons", err)
	}
	return lessons, nil
}

// UpdateLesson applies the supplied fields to a lesson; a new site must exist
func (s *ContentService) UpdateLesson(ctx context.Context, id uuid.UUID, patch LessonPatch) (*models.Lesson, error) {
	if patch.Title != nil && isBlank(*patch.Title) {
		return nil, ErrTitleRequired
	}
	var content string
	if patch.Content != nil {
		cleaned, err := s.cleanContent(*patch.Content)
		if err != nil {
			return nil, err
		}
		content = cleaned
	}

	_, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Lesson, error) {
		lesson, err := s.lessons.GetByID(ctx, id)
		if err != nil {
			return nil, mapContentError(err, ErrLessonNotFound, "failed to get lesson")
		}
		if patch.SiteID != nil && *patch.SiteID != lesson.SiteID {
			if err := s.requireSite(ctx, *patch.SiteID); err != nil {
				return nil, err
			}
			lesson.SiteID = *patch.SiteID
		}
		if patch.Title != nil {
			lesson.Title = *patch.Title
		}
		if patch.Content != nil {
			lesson.Content = content
		}
		if patch.VideoURL != nil {
			lesson.VideoURL = normalizeOptional(patch.VideoURL)
		}
		if patch.SortOrder != nil {
			lesson.SortOrder = *patch.SortOrder
		}
		lesson.UpdatedAt = time.Now().UTC()

		if err := s.lessons.Update(ctx, lesson); err != nil {
			return nil, err
		}
		return lesson, nil
	})
	if err != nil {
		return nil, s.mapParentedError(err, ErrLessonNotFound, ErrSiteNotFound, "failed to update lesson")
	}

	return s.GetLesson(ctx, id)
}

// DeleteLesson removes a lesson
func (s *ContentService) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	if err := s.lessons.Delete(ctx, id); err != nil {
		return mapContentError(err, ErrLessonNotFound, "failed to delete lesson")
	}

	s.logger.Info("lesson deleted", zap.String("lesson_id", id.String()))
	return nil
}

// helpers

func (s *ContentService) requireCategory(ctx context.Context, id uuid.UUID) error {
	exists, err := s.categories.Exists(ctx, id)
	if err != nil {
		return WrapInternal("failed to check category", err)
	}
	if !exists {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *ContentService) requireSite(ctx context.Context, id uuid.UUID) error {
	exists, err := s.sites.Exists(ctx, id)
	if err != nil {
		return WrapInternal("failed to check site", err)
	}
	if !exists {
		return ErrSiteNotFound
	}
	return nil
}

// attachSites loads the sites of each category in one query. Nested sites
// do not repeat their category.
func (s *ContentService) attachSites(ctx context.Context, categories []*models.Category) error {
	ids := make([]uuid.UUID, len(categories))
	byID := make(map[uuid.UUID]*models.Category, len(categories))
	for i, category := range categories {
		ids[i] = category.ID
		category.Sites = []*models.Site{}
		byID[category.ID] = category
	}

	sites, err := s.sites.ListByCategoryIDs(ctx, ids)
	if err != nil {
		return WrapInternal("failed to load category sites", err)
	}
	for _, site := range sites {
		if category, ok := byID[site.CategoryID]; ok {
			site.Category = nil
			category.Sites = append(category.Sites, site)
		}
	}
	return nil
}

// attachLessons loads the lessons of each site in one query. Nested lessons
// do not repeat their site.
func (s *ContentService) attachLessons(ctx context.Context, sites []*models.Site) error {
	ids := make([]uuid.UUID, len(sites))
	byID := make(map[uuid.UUID]*models.Site, len(sites))
	for i, site := range sites {
		ids[i] = site.ID
		site.Lessons = []*models.Lesson{}
		byID[site.ID] = site
	}

	lessons, err := s.lessons.ListBySiteIDs(ctx, ids)
	if err != nil {
		return WrapInternal("failed to load site lessons", err)
	}
	for _, lesson := range lessons {
		if site, ok := byID[lesson.SiteID]; ok {
			lesson.Site = nil
			site.Lessons = append(site.Lessons, lesson)
		}
	}
	return nil
}

func (s *ContentService) cleanContent(content string) (string, error) {
	if isBlank(content) {
		return "", ErrContentRequired
	}
	if s.sanitizer == nil {
		return content, nil
	}
	cleaned := s.sanitizer.Sanitize(content)
	if isBlank(cleaned) {
		return "", ErrContentRequired
	}
	return cleaned, nil
}

// mapParentedError maps a failed update of an entity that may have been
// re-parented: a foreign key violation means the new parent vanished.
func (s *ContentService) mapParentedError(err error, self, parent *DomainError, message string) error {
	if errors.Is(err, repositories.ErrForeignKey) {
		return parent
	}
	return mapContentError(err, self, message)
}

// mapContentError converts repository sentinels into domain errors, passing
// domain errors through unchanged. Foreign key violations on create mean the
// parent is missing, which callers express through notFound.
func mapContentError(err error, notFound *DomainError, message string) error {
	var domainErr *DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.Is(err, repositories.ErrNotFound), errors.Is(err, repositories.ErrForeignKey):
		return notFound
	default:
		return WrapInternal(message, err)
	}
}

// normalizeOptional maps an explicit empty string to absent
func normalizeOptional(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
