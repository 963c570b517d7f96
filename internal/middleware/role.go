package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/goodjob/goodjob/internal/model"
)

// RequireMembership lets through callers whose membership is one of the
// given tiers.  Guests get 401, other members 403.
func RequireMembership(tiers ...model.Membership) echo.MiddlewareFunc {
	allowed := make(map[model.Membership]bool, len(tiers))
	for _, t := range tiers {
		allowed[t] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "login required")
			}
			if !allowed[id.Membership] {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
