package middleware // middleware provides shared request processing for handlers

import (
	"strings" // bearer prefix handling

	"github.com/labstack/echo/v4" // echo middleware chaining and context

	"github.com/goodjob/goodjob/internal/model"
	"github.com/goodjob/goodjob/internal/utils"
)

// Cookie names carrying the token pair.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
)

// Authenticate resolves the caller from the access token and stores an
// Identity in the context.  The token is read from the accessToken cookie
// and, failing that, from an "Authorization: Bearer" header so API clients
// work without cookies.  A missing or invalid token is not an error here:
// the request continues as a guest and RequireAuth decides whether that is
// acceptable for the route.
func Authenticate(issuer *utils.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := accessToken(c)
			if raw == "" {
				return next(c)
			}
			claims, err := issuer.ParseAccess(raw)
			if err != nil || !model.Membership(claims.Role).Valid() {
				return next(c)
			}
			// ParseAccess has already rejected a malformed subject.
			id, _ := claims.MemberID()
			SetIdentity(c, Identity{MemberID: id, Membership: model.Membership(claims.Role)})
			return next(c)
		}
	}
}

func accessToken(c echo.Context) string {
	if ck, err := c.Cookie(AccessCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
