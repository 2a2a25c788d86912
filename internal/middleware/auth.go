package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/deppfellow/storeops/internal/config"
	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/labstack/echo/v4"
)

// PrincipalKey stores the authenticated *model.Principal in Echo context.
const PrincipalKey = "principal"

// Authenticator resolves bearer credentials to an active employee.
type Authenticator interface {
	ParseToken(raw string) (int64, error)
	Authenticate(ctx context.Context, userID int64) (*model.Principal, error)
	AuthenticateExternal(ctx context.Context, externalID string) (*model.Principal, error)
}

// AuthMiddleware authenticates requests either with locally issued JWTs or
// with Clerk session tokens, depending on config.Auth.Provider.
type AuthMiddleware struct {
	server *server.Server
	auth   Authenticator
}

func NewAuthMiddleware(s *server.Server, auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
		auth:   auth,
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's Principal in Echo context.
//
// Role and store are loaded from the database on every request, so a
// deactivated or reassigned employee is affected immediately.
func (am *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	if am.server.Config.Auth.Provider == config.AuthProviderClerk {
		return am.requireClerk(next)
	}
	return am.requireLocal(next)
}

func (am *AuthMiddleware) requireLocal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		raw, ok := bearerToken(c.Request())
		if !ok {
			return errs.NewUnauthorizedError("Unauthorized", false)
		}

		userID, err := am.auth.ParseToken(raw)
		if err != nil {
			GetLogger(c).Warn().
				Str("function", "RequireAuth").
				Dur("duration", time.Since(start)).
				Msg("invalid bearer token")
			return err
		}

		principal, err := am.auth.Authenticate(c.Request().Context(), userID)
		if err != nil {
			return err
		}

		setPrincipal(c, principal)
		return next(c)
	}
}

func (am *AuthMiddleware) requireClerk(next echo.HandlerFunc) echo.HandlerFunc {
	return echo.WrapMiddleware(
		clerkhttp.WithHeaderAuthorization(
			clerkhttp.AuthorizationFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)

				if err := json.NewEncoder(w).Encode(errs.NewUnauthorizedError("Unauthorized", false)); err != nil {
					am.server.Logger.Error().
						Err(err).
						Str("function", "RequireAuth").
						Msg("failed to write JSON response")
				}
			}))))(
		func(c echo.Context) error {
			claims, ok := clerk.SessionClaimsFromContext(c.Request().Context())
			if !ok {
				GetLogger(c).Error().
					Str("function", "RequireAuth").
					Msg("could not get session claims from context")
				return errs.NewUnauthorizedError("Unauthorized", false)
			}

			principal, err := am.auth.AuthenticateExternal(c.Request().Context(), claims.Subject)
			if err != nil {
				return err
			}

			setPrincipal(c, principal)
			return next(c)
		})
}

// RequireRole allows only the listed roles. It must run after RequireAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal := GetPrincipal(c)
			if principal == nil {
				return errs.NewUnauthorizedError("Unauthorized", false)
			}
			if !slices.Contains(roles, principal.Role) {
				return errs.NewForbiddenError("You do not have permission to perform this action", true)
			}
			return next(c)
		}
	}
}

// GetPrincipal returns the authenticated caller, or nil on public routes.
func GetPrincipal(c echo.Context) *model.Principal {
	if p, ok := c.Get(PrincipalKey).(*model.Principal); ok {
		return p
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func setPrincipal(c echo.Context, p *model.Principal) {
	c.Set(PrincipalKey, p)
	withUser(c, p)
}
