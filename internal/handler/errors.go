package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goodjob/goodjob/internal/service"
)

// ErrorHandler is the echo.HTTPErrorHandler for the whole server.  Known
// errors map to fixed statuses and messages; anything else is a 500 whose
// details go to the log only.  Browser form routes get the common/js view,
// API routes a JSON body.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code, msg := classify(err)
		var fields map[string]string
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			fields = verr.Fields
		}
		if code >= http.StatusInternalServerError {
			log.WithError(err).WithField("path", c.Request().URL.Path).Error("request failed")
		}

		var werr error
		switch {
		case c.Request().Method == http.MethodHead:
			werr = c.NoContent(code)
		case wantsJSON(c):
			body := echo.Map{"error": msg}
			if fields != nil {
				body["fields"] = fields
			}
			werr = c.JSON(code, body)
		default:
			view := jsView{Message: msg}
			if code == http.StatusUnauthorized && !isLogin(c) {
				view.Redirect = "/member/login"
			}
			werr = c.Render(code, ViewJS, view)
		}
		if werr != nil {
			log.WithError(werr).Warn("error response failed")
		}
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "이미 사용 중인 아이디 또는 이메일입니다."
	case errors.Is(err, service.ErrAuthentication):
		return http.StatusUnauthorized, "아이디 또는 비밀번호가 올바르지 않습니다."
	case errors.Is(err, service.ErrArticleNotFound):
		return http.StatusNotFound, "게시글을 찾을 수 없습니다."
	case errors.As(err, new(*service.ValidationError)):
		return http.StatusBadRequest, "입력값을 확인해 주세요."
	case errors.As(err, &he):
		switch he.Code {
		case http.StatusUnauthorized:
			return he.Code, "로그인이 필요합니다."
		case http.StatusForbidden:
			return he.Code, "권한이 없습니다."
		}
		if he.Code >= http.StatusInternalServerError {
			return he.Code, http.StatusText(he.Code)
		}
		if m, ok := he.Message.(string); ok {
			return he.Code, m
		}
		return he.Code, http.StatusText(he.Code)
	}
	return http.StatusInternalServerError, "잠시 후 다시 시도해 주세요."
}

// wantsJSON is true for API routes and for clients asking for JSON.
func wantsJSON(c echo.Context) bool {
	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		return true
	}
	p := c.Request().URL.Path
	return !strings.HasPrefix(p, "/member/") || p == "/member/me"
}

func isLogin(c echo.Context) bool {
	return c.Request().URL.Path == "/member/login"
}
