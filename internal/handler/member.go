package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goodjob/goodjob/internal/middleware"
	"github.com/goodjob/goodjob/internal/model"
	"github.com/goodjob/goodjob/internal/service"
	"github.com/goodjob/goodjob/internal/utils"
)

// MemberHandler serves the /member pages: join, login, logout, mentor
// application and token refresh.
type MemberHandler struct {
	Members *service.MemberService
	Cookies *CookieManager
	Log     logrus.FieldLogger
}

func NewMemberHandler(members *service.MemberService, cookies *CookieManager, log logrus.FieldLogger) *MemberHandler {
	return &MemberHandler{Members: members, Cookies: cookies, Log: log}
}

type memberResp struct {
	ID         uint64 `json:"id"`
	Account    string `json:"account"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Phone      string `json:"phone,omitempty"`
	Membership string `json:"membership"`
}

// JoinForm renders the empty sign-up form.
func (h *MemberHandler) JoinForm(c echo.Context) error {
	return c.Render(http.StatusOK, ViewJoin, joinView{Errors: map[string]string{}})
}

// Join creates a member from the sign-up form.  A malformed form re-renders
// the form with field errors (200); a taken account or email is a 409.
func (h *MemberHandler) Join(c echo.Context) error {
	req := bindJoin(c)
	m, err := h.Members.Join(c.Request().Context(), req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			req.Normalize()
			return c.Render(http.StatusOK, ViewJoin, joinView{
				Form:   joinForm{Account: req.Account, Username: req.Username, Email: req.Email, Phone: req.Phone},
				Errors: verr.Fields,
			})
		}
		return err
	}
	return c.Redirect(http.StatusFound, "/member/login?joined="+url.QueryEscape(m.Account))
}

// bindJoin reads the sign-up fields.  Older forms post the account as
// "username" and the display name as "nickname"; both layouts are accepted.
func bindJoin(c echo.Context) service.JoinRequest {
	req := service.JoinRequest{
		Account:         c.FormValue("account"),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirmPassword"),
		Username:        c.FormValue("username"),
		Email:           c.FormValue("email"),
		Phone:           c.FormValue("phone"),
	}
	if req.Account == "" {
		req.Account = req.Username
		req.Username = c.FormValue("nickname")
	}
	return req
}

// LoginForm renders the login page.
func (h *MemberHandler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, ViewLogin, loginView{Joined: c.QueryParam("joined")})
}

// Login checks the credentials and sets both token cookies.
func (h *MemberHandler) Login(c echo.Context) error {
	account := c.FormValue("account")
	if account == "" {
		account = c.FormValue("username")
	}
	_, pair, err := h.Members.Login(c.Request().Context(), account, c.FormValue("password"))
	if err != nil {
		return err
	}
	h.setTokens(c, pair)
	return c.Redirect(http.StatusFound, "/")
}

// Logout ends the caller's session and expires both cookies.
func (h *MemberHandler) Logout(c echo.Context) error {
	id, _ := middleware.IdentityFrom(c)
	if err := h.Members.Logout(c.Request().Context(), id.MemberID); err != nil {
		return err
	}
	h.clearTokens(c)
	return c.Redirect(http.StatusFound, "/")
}

// ApplyMentor promotes the caller to MENTOR when isMentor is truthy.  The
// current access token keeps its old role claim until the next refresh.
func (h *MemberHandler) ApplyMentor(c echo.Context) error {
	id, _ := middleware.IdentityFrom(c)
	if _, err := h.Members.ApplyMentor(c.Request().Context(), id.MemberID, formBool(c.FormValue("isMentor"))); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/mentoring/list")
}

// Refresh swaps the refreshToken cookie for a new pair.  A rejected token
// clears both cookies.
func (h *MemberHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie(middleware.RefreshCookie)
	if err != nil || ck.Value == "" {
		return service.ErrAuthentication
	}
	_, pair, err := h.Members.Refresh(c.Request().Context(), ck.Value)
	if err != nil {
		if errors.Is(err, service.ErrAuthentication) {
			h.clearTokens(c)
		}
		return err
	}
	h.setTokens(c, pair)
	return c.Redirect(http.StatusFound, "/")
}

// Me returns the caller's profile.
func (h *MemberHandler) Me(c echo.Context) error {
	id, _ := middleware.IdentityFrom(c)
	m, err := h.Members.FindByID(c.Request().Context(), id.MemberID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMemberResp(m))
}

func (h *MemberHandler) setTokens(c echo.Context, pair utils.TokenPair) {
	h.Cookies.Set(c, middleware.AccessCookie, pair.Access.Value, pair.Access.TTL)
	h.Cookies.Set(c, middleware.RefreshCookie, pair.Refresh.Value, pair.Refresh.TTL)
}

func (h *MemberHandler) clearTokens(c echo.Context) {
	h.Cookies.Clear(c, middleware.AccessCookie)
	h.Cookies.Clear(c, middleware.RefreshCookie)
}

func toMemberResp(m *model.Member) memberResp {
	return memberResp{
		ID:         m.ID,
		Account:    m.Account,
		Username:   m.Username,
		Email:      m.Email,
		Phone:      m.Phone,
		Membership: string(m.Membership),
	}
}

// formBool accepts what HTML checkboxes and API clients send.
func formBool(v string) bool {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "on" || v == "yes" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}
