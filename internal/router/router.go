package router // package router defines how HTTP routes are registered for the API

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/goodjob/goodjob/internal/config"
	"github.com/goodjob/goodjob/internal/handler"
	"github.com/goodjob/goodjob/internal/metrics"
	"github.com/goodjob/goodjob/internal/middleware"
	"github.com/goodjob/goodjob/internal/utils"
)

// Deps is everything the route table needs.  Redis may be nil, in which
// case the listing cache is off.
type Deps struct {
	Issuer  *utils.TokenIssuer
	Members *handler.MemberHandler
	Content *handler.ContentHandler
	Metrics *metrics.Auth
	Redis   *redis.Client
	Cache   config.CacheConfig
	Health  map[string]handler.Pinger
	Log     logrus.FieldLogger
}

// New builds the echo server with the renderer, error handler, request
// logging and every route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = handler.MustRenderer()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.Authenticate(d.Issuer))

	RegisterRoutes(e, d)
	RegisterMember(e, d.Members)
	RegisterContent(e, d.Content, middleware.NewRedisCache(d.Cache, d.Redis, d.Log))
	return e
}

// RegisterRoutes registers the operational endpoints.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health(d.Health))
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}
	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusFound, "/article/list") })
}

// RegisterMember registers the /member pages.  Join, login and refresh are
// open; the rest need a signed-in member.
func RegisterMember(e *echo.Echo, h *handler.MemberHandler) {
	g := e.Group("/member")
	g.GET("/join", h.JoinForm)
	g.POST("/join", h.Join)
	g.GET("/login", h.LoginForm)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)

	auth := g.Group("", middleware.RequireAuth())
	auth.POST("/logout", h.Logout)
	auth.POST("/applyMentor", h.ApplyMentor)
	auth.GET("/me", h.Me)
}

// RegisterContent registers the board and job listing.  Reads are public
// and the two list endpoints go through cache; writes need a member.
func RegisterContent(e *echo.Echo, h *handler.ContentHandler, cache echo.MiddlewareFunc) {
	e.GET("/article/list", h.ListArticles, cache)
	e.GET("/article/:id", h.GetArticle)
	e.GET("/article/:id/comments", h.ListComments)
	e.GET("/jobs", h.ListJobs, cache)

	auth := e.Group("/article", middleware.RequireAuth())
	auth.POST("", h.CreateArticle)
	auth.POST("/:id/comment", h.CreateComment)
	auth.POST("/:id/like", h.LikeArticle)
}

// RedisPinger adapts a redis client to handler.Pinger.
type RedisPinger struct{ *redis.Client }

func (p RedisPinger) PingContext(ctx context.Context) error { return p.Ping(ctx).Err() }
