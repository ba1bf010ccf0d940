package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/learnhub/middleware"
	"github.com/upb/learnhub/services"
	"github.com/upb/learnhub/utils"
	"go.uber.org/zap"
)

// CreateLessonRequest is the body for creating a lesson
type CreateLessonRequest struct {
	Title    string    `json:"title" validate:"notblank,max=255"`
	Content  string    `json:"content" validate:"notblank"`
	VideoURL *string   `json:"video_url,omitempty"`
	Order    int       `json:"order"`
	SiteID   uuid.UUID `json:"site_id" validate:"required"`
}

// UpdateLessonRequest is the body for a partial lesson update
type UpdateLessonRequest struct {
	Title    *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Content  *string    `json:"content,omitempty"`
	VideoURL *string    `json:"video_url,omitempty"`
	Order    *int       `json:"order,omitempty"`
	SiteID   *uuid.UUID `json:"site_id,omitempty"`
}

// HandleListLessons handles GET /api/lessons and GET /api/lessons/site/{siteId}
func (h *ContentHandler) HandleListLessons(w http.ResponseWriter, r *http.Request) {
	siteID, ok := optionalFilter(w, r, "siteId", "site_id", h.logger)
	if !ok {
		return
	}

	lessons, err := h.content.ListLessons(r.Context(), siteID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, lessons)
}

// HandleGetLesson handles GET /api/lessons/{id}
func (h *ContentHandler) HandleGetLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	lesson, err := h.content.GetLesson(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, lesson)
}

// HandleCreateLesson handles POST /api/admin/lessons
func (h *ContentHandler) HandleCreateLesson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateLessonRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	lesson, err := h.content.CreateLesson(ctx, services.LessonInput{
		Title:     req.Title,
		Content:   req.Content,
		VideoURL:  req.VideoURL,
		SortOrder: req.Order,
		SiteID:    req.SiteID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("lesson created",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("lesson_id", lesson.ID.String()),
		zap.String("site_id", lesson.SiteID.String()))

	_ = utils.WriteCreated(w, lesson)
}

// HandleUpdateLesson handles PUT /api/admin/lessons/{id}
func (h *ContentHandler) HandleUpdateLesson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateLessonRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	lesson, err := h.content.UpdateLesson(r.Context(), id, services.LessonPatch{
		Title:     req.Title,
		Content:   req.Content,
		VideoURL:  req.VideoURL,
		SortOrder: req.Order,
		SiteID:    req.SiteID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, lesson)
}

// HandleDeleteLesson handles DELETE /api/admin/lessons/{id}
func (h *ContentHandler) HandleDeleteLesson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.content.DeleteLesson(ctx, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("lesson deleted",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("lesson_id", id.String()))

	_ = utils.WriteMessage(w, "Lesson deleted")
}
