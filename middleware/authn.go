package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopd-io/shopd/domain"
	serrors "github.com/shopd-io/shopd/errors"
	"github.com/shopd-io/shopd/services"
)

// Headers forming the refresh side-channel protocol. Clients send their
// refresh token on every request; when the server reissues an access token
// in-flight it answers with the new one, which the client must adopt.
const (
	RefreshTokenHeader = "X-Refresh-Token"
	AccessTokenHeader  = "X-Access-Token"
)

// Authenticator resolves a per-request identity from the bearer access token,
// transparently refreshing it when expired. Authentication here is advisory:
// every failure mode degrades to "unauthenticated", never to an error
// response. Rejecting unauthenticated callers is RequireAuth's job.
type Authenticator struct {
	tokens *services.TokenService
	auth   *services.AuthService
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(tokens *services.TokenService, auth *services.AuthService) *Authenticator {
	return &Authenticator{
		tokens: tokens,
		auth:   auth,
	}
}

// Resolve is the deterministic core of the middleware: given the raw tokens
// it returns the resolved identity (nil for unauthenticated) and, when a
// transparent refresh happened, the freshly issued access token. Setting the
// response header is left to the HTTP boundary.
//
// A token with a bad signature never triggers a refresh; only a well-signed
// but expired access token does.
func (a *Authenticator) Resolve(ctx context.Context, accessToken, refreshToken string) (*domain.Identity, string) {
	if accessToken == "" {
		return nil, ""
	}

	res := a.tokens.Verify(accessToken)
	switch {
	case res.Valid:
		return identityFromClaims(res.Claims), ""

	case res.Expired && refreshToken != "":
		fresh, identity, err := a.auth.ReissueAccessToken(ctx, refreshToken)
		if err != nil {
			// Storage trouble during refresh degrades to unauthenticated;
			// it must not fail the request pipeline.
			log.Error().Err(err).Msg("Authn: reissue failed, proceeding unauthenticated")
			return nil, ""
		}
		if fresh == "" {
			return nil, ""
		}
		return identity, fresh

	default:
		return nil, ""
	}
}

// Authenticate returns the echo middleware. It attaches the resolved
// identity to the request context and surfaces reissued access tokens on the
// response header.
func (a *Authenticator) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			accessToken := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			refreshToken := c.Request().Header.Get(RefreshTokenHeader)

			identity, fresh := a.Resolve(c.Request().Context(), accessToken, refreshToken)
			if fresh != "" {
				c.Response().Header().Set(AccessTokenHeader, fresh)
			}
			if identity != nil {
				ctx := domain.WithIdentity(c.Request().Context(), identity)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// RequireAuth rejects unauthenticated callers with 401. It assumes
// Authenticate already ran for the route group.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := domain.IdentityFromContext(c.Request().Context()); !ok {
				return c.JSON(http.StatusUnauthorized, serrors.NewUnauthorized("authentication required"))
			}
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header, returning "" for any other shape.
func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func identityFromClaims(claims jwt.MapClaims) *domain.Identity {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil
	}
	email, _ := claims[services.ClaimEmail].(string)
	name, _ := claims[services.ClaimName].(string)
	return &domain.Identity{UserID: sub, Email: email, Name: name}
}
