package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/goodjob/goodjob/internal/config"
	"github.com/goodjob/goodjob/internal/handler"
	"github.com/goodjob/goodjob/internal/metrics"
	"github.com/goodjob/goodjob/internal/model"
	"github.com/goodjob/goodjob/internal/repository"
	"github.com/goodjob/goodjob/internal/router"
	"github.com/goodjob/goodjob/internal/service"
	"github.com/goodjob/goodjob/internal/service/servicetest"
	"github.com/goodjob/goodjob/internal/utils"
)

type env struct {
	e        *echo.Echo
	members  *servicetest.MemberStore
	svc      *service.MemberService
	sessions *repository.SessionRegistry
	content  *servicetest.ContentStore
	redis    *miniredis.Miniredis
}

func newEnv(t *testing.T) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	log, _ := logtest.NewNullLogger()

	issuer, err := utils.NewTokenIssuer("handler-secret", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	members := servicetest.NewMemberStore()
	sessions := repository.NewSessionRegistry(rdb, "")
	auth := metrics.NewAuth()
	svc, err := service.NewMemberService(members, sessions, issuer, nil, auth, log, bcrypt.MinCost)
	require.NoError(t, err)

	store := servicetest.NewContentStore()
	content := service.NewContentService(store, store.Comments(), store.Likes(), store.Jobs(), log)

	e := router.New(router.Deps{
		Issuer:  issuer,
		Members: handler.NewMemberHandler(svc, handler.NewCookieManager(false, ""), log),
		Content: handler.NewContentHandler(content),
		Metrics: auth,
		Redis:   rdb,
		Cache:   config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}, TTL: time.Minute, Prefix: "cache", MaxBodyBytes: 1 << 20},
		Log:     log,
	})
	return &env{e: e, members: members, svc: svc, sessions: sessions, content: store, redis: mr}
}

func (v *env) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	return rec
}

func (v *env) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return v.do(req, cookies...)
}

func (v *env) postMultipart(t *testing.T, path string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, val := range fields {
		require.NoError(t, w.WriteField(k, val))
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return v.do(req)
}

func (v *env) seed(t *testing.T, account string) *model.Member {
	t.Helper()
	m, err := v.svc.Join(context.Background(), service.JoinRequest{
		Account: account, Password: "1234", ConfirmPassword: "1234", Email: account + "@naver.com",
	})
	require.NoError(t, err)
	return m
}

func (v *env) login(t *testing.T, account string) []*http.Cookie {
	t.Helper()
	rec := v.postForm("/member/login", url.Values{"username": {account}, "password": {"1234"}})
	require.Equal(t, http.StatusFound, rec.Code)
	return rec.Result().Cookies()
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestJoinSuccessRedirectsToLogin(t *testing.T) {
	v := newEnv(t)

	rec := v.postMultipart(t, "/member/join", map[string]string{
		"username":        "tester1",
		"password":        "1234",
		"confirmPassword": "1234",
		"nickname":        "tester1",
		"email":           "tester1@naver.com",
	})

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderLocation), "/member/login"))
	m, err := v.members.FindByAccount(context.Background(), "tester1")
	require.NoError(t, err)
	assert.Equal(t, model.MembershipOrdinary, m.Membership)
}

func TestJoinBindingErrorRerendersForm(t *testing.T) {
	v := newEnv(t)

	rec := v.postMultipart(t, "/member/join", map[string]string{
		"username":        "tes",
		"password":        "1234",
		"confirmPassword": "1234",
		"nickname":        "tester1",
		"email":           "tester1@naver.com",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/member/join"`)
	assert.Contains(t, rec.Body.String(), `class="error"`)
	assert.NotContains(t, rec.Body.String(), "1234")
	_, err := v.members.FindByAccount(context.Background(), "tes")
	assert.ErrorIs(t, err, repository.ErrMemberNotFound)
}

func TestJoinLongMultibytePasswordRerendersForm(t *testing.T) {
	v := newEnv(t)
	pw := strings.Repeat("비", 30)

	rec := v.postMultipart(t, "/member/join", map[string]string{
		"username":        "tester1",
		"password":        pw,
		"confirmPassword": pw,
		"nickname":        "tester1",
		"email":           "tester1@naver.com",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="error"`)
	assert.Zero(t, v.members.Count())
}

func TestJoinConflictRendersAlert(t *testing.T) {
	v := newEnv(t)
	v.seed(t, "test")

	rec := v.postMultipart(t, "/member/join", map[string]string{
		"username":        "test",
		"password":        "1234",
		"confirmPassword": "1234",
		"nickname":        "tester1",
		"email":           "tester1@naver.com",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "alert(")
	assert.Equal(t, 1, v.members.Count())
}

func TestJoinAndLoginForms(t *testing.T) {
	v := newEnv(t)

	rec := v.do(httptest.NewRequest(http.MethodGet, "/member/join", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="confirmPassword"`)

	rec = v.do(httptest.NewRequest(http.MethodGet, "/member/login?joined=tester1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="tester1"`)
}

func TestLoginSetsCookiesAndSession(t *testing.T) {
	v := newEnv(t)
	m := v.seed(t, "test")

	rec := v.postMultipart(t, "/member/login", map[string]string{"username": "test", "password": "1234"})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	access := cookieNamed(cookies, "accessToken")
	refresh := cookieNamed(cookies, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, "/", refresh.Path)
	assert.Equal(t, int((30 * time.Minute).Seconds()), access.MaxAge)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), refresh.MaxAge)

	stored, ok, err := v.sessions.GetValue(context.Background(), "1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), m.ID)
	assert.Equal(t, refresh.Value, stored)
}

func TestLoginFailureSetsNoCookies(t *testing.T) {
	v := newEnv(t)
	v.seed(t, "test")

	for _, form := range []url.Values{
		{"username": {"tester1"}, "password": {"1234"}},
		{"account": {"test"}, "password": {"wrong"}},
	} {
		rec := v.postForm("/member/login", form)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, rec.Result().Cookies())
		assert.Contains(t, rec.Body.String(), "alert(")
	}
	has, err := v.sessions.HasValue(context.Background(), "1")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestLogoutClearsCookiesAndSession(t *testing.T) {
	v := newEnv(t)
	v.seed(t, "test")
	cookies := v.login(t, "test")

	rec := v.postForm("/member/logout", url.Values{}, cookies...)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	setCookies := rec.Header().Values(echo.HeaderSetCookie)
	require.Len(t, setCookies, 2)
	for _, sc := range setCookies {
		assert.Contains(t, sc, "Max-Age=0")
	}
	assert.False(t, v.redis.Exists("1"))
}

func TestProtectedRoutesRejectGuests(t *testing.T) {
	v := newEnv(t)

	for _, path := range []string{"/member/logout", "/member/applyMentor"} {
		rec := v.postForm(path, url.Values{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "location.replace(", path)
	}

	rec := v.do(httptest.NewRequest(http.MethodGet, "/member/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

func TestApplyMentor(t *testing.T) {
	v := newEnv(t)
	m := v.seed(t, "test")
	cookies := v.login(t, "test")

	rec := v.postForm("/member/applyMentor", url.Values{"isMentor": {"true"}}, cookies...)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/mentoring/list", rec.Header().Get(echo.HeaderLocation))

	rec = v.postForm("/member/applyMentor", url.Values{"isMentor": {"true"}}, cookies...)
	assert.Equal(t, http.StatusFound, rec.Code)

	got, err := v.members.FindByID(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MembershipMentor, got.Membership)
}

func TestRefreshRotatesCookies(t *testing.T) {
	v := newEnv(t)
	v.seed(t, "test")
	cookies := v.login(t, "test")
	old := cookieNamed(cookies, "refreshToken")

	req := httptest.NewRequest(http.MethodPost, "/member/refresh", nil)
	rec := v.do(req, old)
	require.Equal(t, http.StatusFound, rec.Code)
	next := cookieNamed(rec.Result().Cookies(), "refreshToken")
	require.NotNil(t, next)
	assert.NotEqual(t, old.Value, next.Value)

	stored, _, err := v.sessions.GetValue(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, next.Value, stored)

	// the rotated-out token is rejected and both cookies are cleared
	rec = v.do(httptest.NewRequest(http.MethodPost, "/member/refresh", nil), old)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Len(t, rec.Header().Values(echo.HeaderSetCookie), 2)
}

func TestMeReturnsProfile(t *testing.T) {
	v := newEnv(t)
	v.seed(t, "test")
	cookies := v.login(t, "test")

	rec := v.do(httptest.NewRequest(http.MethodGet, "/member/me", nil), cookies...)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "test", body["account"])
	assert.Equal(t, "ORDINARY", body["membership"])
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestArticleLikeFlow(t *testing.T) {
	v := newEnv(t)
	v.seed(t, "test")
	cookies := v.login(t, "test")

	req := httptest.NewRequest(http.MethodPost, "/article", strings.NewReader(`{"title":"hi","content":"first"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := v.do(req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/article", strings.NewReader(`{"title":"hi","content":"first"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = v.do(req, cookies...)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		ID uint64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = v.postForm("/article/1/like", url.Values{}, cookies...)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = v.postForm("/article/99/like", url.Values{}, cookies...)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = v.postForm("/article/1/comment", url.Values{"content": {"nice"}}, cookies...)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = v.do(httptest.NewRequest(http.MethodGet, "/article/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		ID    uint64 `json:"id"`
		Likes uint64 `json:"likes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, uint64(1), got.Likes)

	rec = v.do(httptest.NewRequest(http.MethodGet, "/article/1/comments", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nice")

	rec = v.do(httptest.NewRequest(http.MethodGet, "/article/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobsListingIsCached(t *testing.T) {
	v := newEnv(t)
	v.content.AddJob(model.Job{Company: "goodjob", Sector: "backend", DeadLine: time.Now().Add(time.Hour)})

	first := v.do(httptest.NewRequest(http.MethodGet, "/jobs?sector=backend", nil))
	second := v.do(httptest.NewRequest(http.MethodGet, "/jobs?sector=backend", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Contains(t, second.Body.String(), "goodjob")
}

func TestListingsHugePageIsEmpty(t *testing.T) {
	v := newEnv(t)

	for _, path := range []string{"/article/list?page=9223372036854775807", "/jobs?page=9223372036854775807"} {
		rec := v.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `[]`, rec.Body.String(), path)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	v := newEnv(t)
	v.seed(t, "test")

	rec := v.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = v.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `goodjob_auth_events_total{event="join",outcome="success"} 1`)
}
