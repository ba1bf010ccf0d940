package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/learnhub/auth"
	"github.com/upb/learnhub/internal/observability"
	"github.com/upb/learnhub/models"
	"github.com/upb/learnhub/services"
	"github.com/upb/learnhub/utils"
	"go.uber.org/zap"
)

// TokenVerifier checks a bearer credential
type TokenVerifier interface {
	Verify(token string) auth.VerifyResult
}

// RoleLookup reads an operator's current role
type RoleLookup interface {
	RoleOf(ctx context.Context, operatorID uuid.UUID) (models.Role, error)
}

// Gate authenticates requests and, when a role is required, authorizes them
// against the operator's current role.
type Gate struct {
	verifier TokenVerifier
	roles    RoleLookup
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewGate creates a new Gate. metrics may be nil.
func NewGate(verifier TokenVerifier, roles RoleLookup, metrics *observability.Metrics, logger *zap.Logger) *Gate {
	return &Gate{
		verifier: verifier,
		roles:    roles,
		metrics:  metrics,
		logger:   logger,
	}
}

// Authenticate resolves the bearer credential on r into an Identity
func (g *Gate) Authenticate(r *http.Request) (Identity, error) {
	token := extractBearerToken(r)
	if token == "" {
		return Identity{}, services.ErrUnauthenticated
	}

	result := g.verifier.Verify(token)
	if !result.Valid {
		return Identity{}, services.ErrInvalidToken
	}

	return Identity{OperatorID: result.OperatorID}, nil
}

// Authorize checks that the identity on ctx currently holds role
func (g *Gate) Authorize(ctx context.Context, role models.Role) error {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return services.ErrUnauthenticated
	}

	current, err := g.roles.RoleOf(ctx, identity.OperatorID)
	if err != nil {
		if services.IsNotFoundError(err) {
			return services.ErrForbidden
		}
		return services.WrapInternal("failed to look up operator role", err)
	}

	if current != role {
		return services.ErrInsufficientPermissions
	}
	return nil
}

// Admit runs authentication and then, if role is non-nil, authorization. It
// stops at the first failure and returns the context carrying the identity.
func (g *Gate) Admit(r *http.Request, role *models.Role) (context.Context, error) {
	ctx := r.Context()

	identity, err := g.Authenticate(r)
	if err != nil {
		return ctx, err
	}
	ctx = WithIdentity(ctx, identity)

	if role == nil {
		return ctx, nil
	}
	if err := g.Authorize(ctx, *role); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// RequireAuth is a middleware that requires a valid bearer credential
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return g.admitHandler(nil, next)
}

// RequireRole is a middleware that requires a valid bearer credential whose
// operator currently holds role
func (g *Gate) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.admitHandler(&role, next)
	}
}

func (g *Gate) admitHandler(role *models.Role, next http.Handler) http.Handler {
	required := ""
	if role != nil {
		required = string(*role)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := GetRequestIDFromContext(r.Context())

		ctx, err := g.Admit(r, role)
		if err != nil {
			g.reject(w, requestID, required, err)
			return
		}

		g.metrics.RecordGateDecision(required, observability.GateAllowed)
		if identity, ok := IdentityFromContext(ctx); ok {
			g.logger.Debug("request admitted",
				zap.String("request_id", requestID),
				zap.String("operator_id", identity.OperatorID.String()),
				zap.String("required_role", required))
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) reject(w http.ResponseWriter, requestID, required string, err error) {
	switch services.GetErrorType(err) {
	case services.ErrorTypeUnauthorized:
		g.metrics.RecordGateDecision(required, observability.GateUnauthenticated)
		g.logger.Warn("authentication failed",
			zap.String("request_id", requestID),
			zap.String("reason", services.GetErrorMessage(err)))
		_ = utils.WriteUnauthorized(w, services.GetErrorMessage(err))
	case services.ErrorTypeForbidden:
		g.metrics.RecordGateDecision(required, observability.GateForbidden)
		g.logger.Warn("insufficient permissions",
			zap.String("request_id", requestID),
			zap.String("required_role", required))
		_ = utils.WriteForbidden(w, services.GetErrorMessage(err))
	default:
		g.metrics.RecordGateDecision(required, observability.GateError)
		g.logger.Error("auth gate failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "")
	}
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	// Check if it starts with "Bearer "
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
