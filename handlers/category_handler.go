package handlers

import (
	"net/http"

	"github.com/upb/learnhub/middleware"
	"github.com/upb/learnhub/services"
	"github.com/upb/learnhub/utils"
	"go.uber.org/zap"
)

// CreateCategoryRequest is the body for creating a category
type CreateCategoryRequest struct {
	Name        string  `json:"name" validate:"notblank,max=255"`
	Description *string `json:"description,omitempty"`
	Order       int     `json:"order"`
}

// UpdateCategoryRequest is the body for a partial category update
type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty"`
	Order       *int    `json:"order,omitempty"`
}

// HandleListCategories handles GET /api/categories
func (h *ContentHandler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.content.ListCategories(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, categories)
}

// HandleGetCategory handles GET /api/categories/{id}
func (h *ContentHandler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	category, err := h.content.GetCategory(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, category)
}

// HandleCreateCategory handles POST /api/admin/categories
func (h *ContentHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateCategoryRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	category, err := h.content.CreateCategory(ctx, services.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.Order,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("category created",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("category_id", category.ID.String()))

	_ = utils.WriteCreated(w, category)
}

// HandleUpdateCategory handles PUT /api/admin/categories/{id}
func (h *ContentHandler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateCategoryRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	category, err := h.content.UpdateCategory(r.Context(), id, services.CategoryPatch{
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.Order,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, category)
}

// HandleDeleteCategory handles DELETE /api/admin/categories/{id}. Sites and
// lessons under the category are removed with it.
func (h *ContentHandler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.content.DeleteCategory(ctx, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.metrics.RecordCascadeDelete("category")

	h.logger.Info("category deleted",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("category_id", id.String()))

	_ = utils.WriteMessage(w, "Category deleted")
}
