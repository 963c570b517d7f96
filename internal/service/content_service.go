package service

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goodjob/goodjob/internal/model"
	"github.com/goodjob/goodjob/internal/repository"
)

// Page size bounds for the public listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ArticleStore is implemented by repository.ArticleRepo.
type ArticleStore interface {
	Create(ctx context.Context, a *model.Article) error
	GetByID(ctx context.Context, id uint64) (*model.Article, error)
	List(ctx context.Context, limit, offset int) ([]*model.Article, error)
}

// CommentStore is implemented by repository.CommentRepo.
type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	ListByArticle(ctx context.Context, articleID uint64) ([]*model.Comment, error)
}

// LikeStore is implemented by repository.LikesRepo.
type LikeStore interface {
	Create(ctx context.Context, l *model.Like) error
	CountByArticle(ctx context.Context, articleID uint64) (uint64, error)
}

// JobStore is implemented by repository.JobRepo.
type JobStore interface {
	List(ctx context.Context, sector string, limit, offset int) ([]*model.Job, error)
}

// ArticleView is an article together with its like count.
type ArticleView struct {
	*model.Article
	Likes uint64
}

// ContentService serves the community board (articles, comments, likes)
// and the job listing.
type ContentService struct {
	articles ArticleStore
	comments CommentStore
	likes    LikeStore
	jobs     JobStore
	log      logrus.FieldLogger
}

func NewContentService(a ArticleStore, c CommentStore, l LikeStore, j JobStore, log logrus.FieldLogger) *ContentService {
	return &ContentService{articles: a, comments: c, likes: l, jobs: j, log: log}
}

// Page clamps a 1-based page number and size into limit/offset.
func Page(page, size int) (limit, offset int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	// Pages past the last representable offset are simply empty.
	if page > math.MaxInt/size {
		page = math.MaxInt / size
	}
	return size, (page - 1) * size
}

// CreateArticle stores a post written by memberID.
func (s *ContentService) CreateArticle(ctx context.Context, memberID uint64, title, content string) (*model.Article, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	fields := map[string]string{}
	if title == "" {
		fields["title"] = "required"
	} else if len(title) > 200 {
		fields["title"] = "must be at most 200 characters"
	}
	if content == "" {
		fields["content"] = "required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	a := &model.Article{MemberID: memberID, Title: title, Content: content}
	if err := s.articles.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"member_id": memberID, "article_id": a.ID}).Info("article created")
	return a, nil
}

// Article returns one live article with its like count.
func (s *ContentService) Article(ctx context.Context, id uint64) (ArticleView, error) {
	a, err := s.article(ctx, id)
	if err != nil {
		return ArticleView{}, err
	}
	n, err := s.likes.CountByArticle(ctx, id)
	if err != nil {
		return ArticleView{}, err
	}
	return ArticleView{Article: a, Likes: n}, nil
}

// Articles lists live articles, newest first.
func (s *ContentService) Articles(ctx context.Context, page, size int) ([]*model.Article, error) {
	limit, offset := Page(page, size)
	return s.articles.List(ctx, limit, offset)
}

// Comment adds a comment to a live article.
func (s *ContentService) Comment(ctx context.Context, memberID, articleID uint64, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &ValidationError{Fields: map[string]string{"content": "required"}}
	}
	if _, err := s.article(ctx, articleID); err != nil {
		return nil, err
	}
	c := &model.Comment{MemberID: memberID, ArticleID: articleID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Comments lists the live comments of a live article.
func (s *ContentService) Comments(ctx context.Context, articleID uint64) ([]*model.Comment, error) {
	if _, err := s.article(ctx, articleID); err != nil {
		return nil, err
	}
	return s.comments.ListByArticle(ctx, articleID)
}

// LikeArticle records a like by memberID.  Likes carry no uniqueness rule,
// so liking twice stores two rows.
func (s *ContentService) LikeArticle(ctx context.Context, memberID, articleID uint64) (*model.Like, error) {
	if _, err := s.article(ctx, articleID); err != nil {
		return nil, err
	}
	l := &model.Like{MemberID: memberID, ArticleID: articleID, CommentID: sql.NullInt64{}}
	if err := s.likes.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Jobs lists open postings, optionally narrowed to one sector.
func (s *ContentService) Jobs(ctx context.Context, sector string, page, size int) ([]*model.Job, error) {
	limit, offset := Page(page, size)
	return s.jobs.List(ctx, strings.TrimSpace(sector), limit, offset)
}

func (s *ContentService) article(ctx context.Context, id uint64) (*model.Article, error) {
	a, err := s.articles.GetByID(ctx, id)
	if errors.Is(err, repository.ErrArticleNotFound) {
		return nil, ErrArticleNotFound
	}
	return a, err
}
