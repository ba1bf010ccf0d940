package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/learnhub/middleware"
	"github.com/upb/learnhub/services"
	"github.com/upb/learnhub/utils"
	"go.uber.org/zap"
)

// CreateSiteRequest is the body for creating a site
type CreateSiteRequest struct {
	Name        string    `json:"name" validate:"notblank,max=255"`
	URL         string    `json:"url"`
	Description *string   `json:"description,omitempty"`
	Order       int       `json:"order"`
	CategoryID  uuid.UUID `json:"category_id" validate:"required"`
}

// UpdateSiteRequest is the body for a partial site update. A present empty
// url is kept as the empty string.
type UpdateSiteRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=255"`
	URL         *string    `json:"url,omitempty"`
	Description *string    `json:"description,omitempty"`
	Order       *int       `json:"order,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
}

// HandleListSites handles GET /api/sites and GET /api/sites/category/{categoryId}
func (h *ContentHandler) HandleListSites(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := optionalFilter(w, r, "categoryId", "category_id", h.logger)
	if !ok {
		return
	}

	sites, err := h.content.ListSites(r.Context(), categoryID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, sites)
}

// HandleGetSite handles GET /api/sites/{id}
func (h *ContentHandler) HandleGetSite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	site, err := h.content.GetSite(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, site)
}

// HandleCreateSite handles POST /api/admin/sites
func (h *ContentHandler) HandleCreateSite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateSiteRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	site, err := h.content.CreateSite(ctx, services.SiteInput{
		Name:        req.Name,
		URL:         req.URL,
		Description: req.Description,
		SortOrder:   req.Order,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("site created",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("site_id", site.ID.String()),
		zap.String("category_id", site.CategoryID.String()))

	_ = utils.WriteCreated(w, site)
}

// HandleUpdateSite handles PUT /api/admin/sites/{id}
func (h *ContentHandler) HandleUpdateSite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateSiteRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	site, err := h.content.UpdateSite(r.Context(), id, services.SitePatch{
		Name:        req.Name,
		URL:         req.URL,
		Description: req.Description,
		SortOrder:   req.Order,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, site)
}

// HandleDeleteSite handles DELETE /api/admin/sites/{id}. Lessons under the
// site are removed with it.
func (h *ContentHandler) HandleDeleteSite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.content.DeleteSite(ctx, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	h.metrics.RecordCascadeDelete("site")

	h.logger.Info("site deleted",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("site_id", id.String()))

	_ = utils.WriteMessage(w, "Site deleted")
}
