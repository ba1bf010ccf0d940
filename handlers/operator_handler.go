package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/learnhub/middleware"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/services"
	"github.com/upb/learnhub/utils"
	"go.uber.org/zap"
)

// CreateOperatorRequest is the body of POST /api/admin/users
type CreateOperatorRequest struct {
	Username string      `json:"username" validate:"notblank,max=255"`
	Password string      `json:"password" validate:"required"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=OPERATOR ADMINISTRATOR"`
}

// UpdateOperatorRequest is the body of PUT /api/admin/users/{id}.
// Omitted fields are left unchanged.
type UpdateOperatorRequest struct {
	Username *string      `json:"username,omitempty" validate:"omitempty,max=255"`
	Password *string      `json:"password,omitempty"`
	Role     *models.Role `json:"role,omitempty" validate:"omitempty,oneof=OPERATOR ADMINISTRATOR"`
}

// OperatorStore defines the credential operations used by user administration
type OperatorStore interface {
	Create(ctx context.Context, in services.CreateOperatorInput) (*models.Operator, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	List(ctx context.Context) ([]*models.Operator, error)
	Update(ctx context.Context, id uuid.UUID, in services.UpdateOperatorInput) (*models.Operator, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OperatorHandler handles administrator management of operator accounts
type OperatorHandler struct {
	operators OperatorStore
	logger    *zap.Logger
}

// NewOperatorHandler creates a new OperatorHandler
func NewOperatorHandler(operators OperatorStore, logger *zap.Logger) *OperatorHandler {
	return &OperatorHandler{
		operators: operators,
		logger:    logger,
	}
}

// HandleList handles GET /api/admin/users
func (h *OperatorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	operators, err := h.operators.List(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	responses := make([]OperatorResponse, len(operators))
	for i, o := range operators {
		responses[i] = operatorToResponse(o)
	}

	_ = utils.WriteOK(w, responses)
}

// HandleGet handles GET /api/admin/users/{id}
func (h *OperatorHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	operator, err := h.operators.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, operatorToResponse(operator))
}

// HandleCreate handles POST /api/admin/users
func (h *OperatorHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req CreateOperatorRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	operator, err := h.operators.Create(ctx, services.CreateOperatorInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("operator created",
		zap.String("request_id", requestID),
		zap.String("operator_id", operator.ID.String()),
		zap.String("role", string(operator.Role)))

	_ = utils.WriteCreated(w, operatorToResponse(operator))
}

// HandleUpdate handles PUT /api/admin/users/{id}
func (h *OperatorHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	var req UpdateOperatorRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	operator, err := h.operators.Update(ctx, id, services.UpdateOperatorInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("operator updated",
		zap.String("request_id", requestID),
		zap.String("operator_id", id.String()))

	_ = utils.WriteOK(w, operatorToResponse(operator))
}

// HandleDelete handles DELETE /api/admin/users/{id}
func (h *OperatorHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	id, ok := pathID(w, r, "id", h.logger)
	if !ok {
		return
	}

	if err := h.operators.Delete(ctx, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("operator deleted",
		zap.String("request_id", requestID),
		zap.String("operator_id", id.String()))

	_ = utils.WriteMessage(w, "User deleted")
}
