package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB and by a small adapter over *redis.Client.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health answers "ok" when every dependency responds within a second, and
// 503 naming the first one that does not.  With no dependencies it is a
// plain liveness probe.
func Health(deps map[string]Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), time.Second)
		defer cancel()
		for name, p := range deps {
			if err := p.PingContext(ctx); err != nil {
				return c.String(http.StatusServiceUnavailable, name+" unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}
