package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/goodjob/goodjob/internal/middleware"
	"github.com/goodjob/goodjob/internal/model"
	"github.com/goodjob/goodjob/internal/service"
)

// ContentHandler serves the community board and the job listing as JSON.
type ContentHandler struct {
	Content *service.ContentService
}

func NewContentHandler(content *service.ContentService) *ContentHandler {
	return &ContentHandler{Content: content}
}

type articleReq struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
}

type commentReq struct {
	Content string `json:"content" form:"content"`
}

type articleResp struct {
	ID        uint64    `json:"id"`
	MemberID  uint64    `json:"member_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Likes     *uint64   `json:"likes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type commentResp struct {
	ID        uint64    `json:"id"`
	MemberID  uint64    `json:"member_id"`
	ArticleID uint64    `json:"article_id"`
	Content   string    `json:"content"`
	LikeCount uint64    `json:"like_count"`
	CreatedAt time.Time `json:"created_at"`
}

type jobResp struct {
	ID         uint64    `json:"id"`
	Company    string    `json:"company"`
	Subject    string    `json:"subject"`
	URL        string    `json:"url"`
	Sector     string    `json:"sector"`
	CreateDate time.Time `json:"create_date"`
	DeadLine   time.Time `json:"dead_line"`
	Career     int       `json:"career"`
}

// CreateArticle: POST /article
func (h *ContentHandler) CreateArticle(c echo.Context) error {
	var req articleReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	id, _ := middleware.IdentityFrom(c)
	a, err := h.Content.CreateArticle(c.Request().Context(), id.MemberID, req.Title, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toArticleResp(a, nil))
}

// ListArticles: GET /article/list?page=&size=
func (h *ContentHandler) ListArticles(c echo.Context) error {
	page, size := pageParams(c)
	list, err := h.Content.Articles(c.Request().Context(), page, size)
	if err != nil {
		return err
	}
	out := make([]articleResp, 0, len(list))
	for _, a := range list {
		out = append(out, toArticleResp(a, nil))
	}
	return c.JSON(http.StatusOK, out)
}

// GetArticle: GET /article/:id
func (h *ContentHandler) GetArticle(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	v, err := h.Content.Article(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toArticleResp(v.Article, &v.Likes))
}

// CreateComment: POST /article/:id/comment
func (h *ContentHandler) CreateComment(c echo.Context) error {
	articleID, err := pathID(c)
	if err != nil {
		return err
	}
	var req commentReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	who, _ := middleware.IdentityFrom(c)
	cm, err := h.Content.Comment(c.Request().Context(), who.MemberID, articleID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCommentResp(cm))
}

// ListComments: GET /article/:id/comments
func (h *ContentHandler) ListComments(c echo.Context) error {
	articleID, err := pathID(c)
	if err != nil {
		return err
	}
	list, err := h.Content.Comments(c.Request().Context(), articleID)
	if err != nil {
		return err
	}
	out := make([]commentResp, 0, len(list))
	for _, cm := range list {
		out = append(out, toCommentResp(cm))
	}
	return c.JSON(http.StatusOK, out)
}

// LikeArticle: POST /article/:id/like
func (h *ContentHandler) LikeArticle(c echo.Context) error {
	articleID, err := pathID(c)
	if err != nil {
		return err
	}
	who, _ := middleware.IdentityFrom(c)
	l, err := h.Content.LikeArticle(c.Request().Context(), who.MemberID, articleID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": l.ID, "article_id": l.ArticleID})
}

// ListJobs: GET /jobs?sector=&page=&size=
func (h *ContentHandler) ListJobs(c echo.Context) error {
	page, size := pageParams(c)
	list, err := h.Content.Jobs(c.Request().Context(), c.QueryParam("sector"), page, size)
	if err != nil {
		return err
	}
	out := make([]jobResp, 0, len(list))
	for _, j := range list {
		out = append(out, jobResp{
			ID: j.ID, Company: j.Company, Subject: j.Subject, URL: j.URL, Sector: j.Sector,
			CreateDate: j.CreateDate, DeadLine: j.DeadLine, Career: j.Career,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// pageParams reads page and size; bad values fall back to service defaults.
func pageParams(c echo.Context) (page, size int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	size, _ = strconv.Atoi(c.QueryParam("size"))
	return page, size
}

func toArticleResp(a *model.Article, likes *uint64) articleResp {
	return articleResp{ID: a.ID, MemberID: a.MemberID, Title: a.Title, Content: a.Content, Likes: likes, CreatedAt: a.CreatedAt}
}

func toCommentResp(cm *model.Comment) commentResp {
	return commentResp{
		ID: cm.ID, MemberID: cm.MemberID, ArticleID: cm.ArticleID,
		Content: cm.Content, LikeCount: cm.LikeCount, CreatedAt: cm.CreatedAt,
	}
}
