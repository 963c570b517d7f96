package middleware

// identity.go carries the authenticated caller through the request.  The
// identity is an explicit value stored under a private context key; nothing
// is kept in package or global state.

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/goodjob/goodjob/internal/model"
)

const identityKey = "goodjob.identity"

// Identity is who the access token says the caller is.
type Identity struct {
	MemberID   uint64
	Membership model.Membership
}

// SetIdentity attaches id to the request.
func SetIdentity(c echo.Context, id Identity) { c.Set(identityKey, id) }

// IdentityFrom returns the caller's identity, or false for guests.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// RequireAuth rejects guests with 401.  It must run after Authenticate.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := IdentityFrom(c); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}
			return next(c)
		}
	}
}
