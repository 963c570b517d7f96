package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieManager writes the auth cookies with one set of attributes so that
// set and clear always match on path and domain.
type CookieManager struct {
	Secure bool
	Domain string
}

func NewCookieManager(secure bool, domain string) *CookieManager {
	return &CookieManager{Secure: secure, Domain: domain}
}

// Set writes name=value living for ttl.  Max-Age is whole seconds.
func (m *CookieManager) Set(c echo.Context, name, value string, ttl time.Duration) {
	c.SetCookie(m.cookie(name, value, int(ttl/time.Second)))
}

// Clear expires name immediately (Max-Age=0 on the wire).
func (m *CookieManager) Clear(c echo.Context, name string) {
	c.SetCookie(m.cookie(name, "", -1))
}

func (m *CookieManager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   m.Domain,
		MaxAge:   maxAge,
		Secure:   m.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
