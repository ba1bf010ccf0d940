package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/learnhub/internal/observability"
	"github.com/upb/learnhub/middleware"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/services"
	"github.com/upb/learnhub/utils"
	"go.uber.org/zap"
)

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username string `json:"username" validate:"notblank,max=255"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest is the body of PUT /api/auth/password
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// OperatorResponse is an operator as exposed over HTTP
type OperatorResponse struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	CreatedAt string      `json:"created_at,omitempty"`
	UpdatedAt string      `json:"updated_at,omitempty"`
}

// AuthResponse carries a freshly issued credential
type AuthResponse struct {
	Token    string           `json:"token"`
	Operator OperatorResponse `json:"user"`
}

// VerifyResponse reports the operator behind a still-valid credential
type VerifyResponse struct {
	Valid    bool             `json:"valid"`
	Operator OperatorResponse `json:"user"`
}

// CredentialStore defines the credential operations used by the auth endpoints
type CredentialStore interface {
	Create(ctx context.Context, in services.CreateOperatorInput) (*models.Operator, error)
	VerifyLogin(ctx context.Context, username, password string) (*models.Operator, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
}

// TokenIssuer mints bearer credentials
type TokenIssuer interface {
	Issue(operatorID uuid.UUID) (string, error)
}

// Authenticator resolves the bearer credential on a request
type Authenticator interface {
	Authenticate(r *http.Request) (middleware.Identity, error)
}

// AuthHandler handles registration, login and credential checks
type AuthHandler struct {
	credentials CredentialStore
	tokens      TokenIssuer
	authn       Authenticator
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. metrics may be nil.
func NewAuthHandler(
	credentials CredentialStore,
	tokens TokenIssuer,
	authn Authenticator,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		tokens:      tokens,
		authn:       authn,
		metrics:     metrics,
		logger:      logger,
	}
}

// HandleRegister handles POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req RegisterRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	operator, err := h.credentials.Create(ctx, services.CreateOperatorInput{
		Username: req.Username,
		Password: req.Password,
		Role:     models.RoleOperator,
	})
	if err != nil {
		h.logger.Warn("registration failed",
			zap.String("request_id", requestID),
			zap.String("username", req.Username),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	token, err := h.tokens.Issue(operator.ID)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to issue token", err), h.logger)
		return
	}

	h.logger.Info("operator registered",
		zap.String("request_id", requestID),
		zap.String("operator_id", operator.ID.String()))

	_ = utils.WriteCreated(w, AuthResponse{Token: token, Operator: operatorToResponse(operator)})
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req LoginRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	operator, err := h.credentials.VerifyLogin(ctx, req.Username, req.Password)
	if err != nil {
		h.metrics.RecordLogin(false)
		h.logger.Info("login rejected",
			zap.String("request_id", requestID),
			zap.String("username", req.Username))
		HandleServiceError(w, err, h.logger)
		return
	}
	h.metrics.RecordLogin(true)

	token, err := h.tokens.Issue(operator.ID)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to issue token", err), h.logger)
		return
	}

	_ = utils.WriteOK(w, AuthResponse{Token: token, Operator: operatorToResponse(operator)})
}

// HandleVerify handles GET /api/auth/verify. A valid credential for an
// operator that no longer exists is forbidden.
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, err := h.authn.Authenticate(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	operator, err := h.credentials.Get(ctx, identity.OperatorID)
	if err != nil {
		if services.IsNotFoundError(err) {
			HandleServiceError(w, services.ErrForbidden, h.logger)
			return
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, VerifyResponse{Valid: true, Operator: operatorToResponse(operator)})
}

// HandleChangePassword handles PUT /api/auth/password
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	identity, ok := middleware.IdentityFromContext(ctx)
	if !ok {
		HandleServiceError(w, services.ErrUnauthenticated, h.logger)
		return
	}

	var req ChangePasswordRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	if err := h.credentials.ChangePassword(ctx, identity.OperatorID, req.CurrentPassword, req.NewPassword); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("password changed",
		zap.String("request_id", requestID),
		zap.String("operator_id", identity.OperatorID.String()))

	_ = utils.WriteMessage(w, "Password updated")
}

func operatorToResponse(o *models.Operator) OperatorResponse {
	resp := OperatorResponse{
		ID:       o.ID,
		Username: o.Username,
		Role:     o.Role,
	}
	if !o.CreatedAt.IsZero() {
		resp.CreatedAt = o.CreatedAt.UTC().Format(timeFormat)
		resp.UpdatedAt = o.UpdatedAt.UTC().Format(timeFormat)
	}
	return resp
}
