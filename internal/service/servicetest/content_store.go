package servicetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goodjob/goodjob/internal/model"
	"github.com/goodjob/goodjob/internal/repository"
)

// ContentStore keeps articles, comments, likes and jobs in memory.  It is a
// service.ArticleStore; Comments, Likes and Jobs return the other views.
type ContentStore struct {
	mu       sync.Mutex
	articles []*model.Article
	comments []*model.Comment
	likes    []*model.Like
	jobs     []*model.Job
}

func NewContentStore() *ContentStore { return &ContentStore{} }

func (s *ContentStore) Create(_ context.Context, a *model.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uint64(len(s.articles) + 1)
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	s.articles = append(s.articles, &cp)
	return nil
}

func (s *ContentStore) GetByID(_ context.Context, id uint64) (*model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.articles {
		if a.ID == id && !a.IsDeleted {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrArticleNotFound
}

func (s *ContentStore) List(_ context.Context, limit, offset int) ([]*model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var live []*model.Article
	for i := len(s.articles) - 1; i >= 0; i-- {
		if !s.articles[i].IsDeleted {
			live = append(live, s.articles[i])
		}
	}
	return window(live, limit, offset), nil
}

// createLike backs LikeView.Create.
func (s *ContentStore) createLike(l *model.Like) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = uint64(len(s.likes) + 1)
	l.CreatedAt = time.Now().UTC()
	cp := *l
	s.likes = append(s.likes, &cp)
}

// CountByArticle counts article-level likes.
func (s *ContentStore) CountByArticle(_ context.Context, articleID uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n uint64
	for _, l := range s.likes {
		if l.ArticleID == articleID && !l.CommentID.Valid {
			n++
		}
	}
	return n, nil
}

// AddJob seeds a posting.
func (s *ContentStore) AddJob(j model.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j.ID = uint64(len(s.jobs) + 1)
	s.jobs = append(s.jobs, &j)
}

// Comments returns the comment store view.
func (s *ContentStore) Comments() *CommentView { return &CommentView{s} }

// Likes returns the like store view.
func (s *ContentStore) Likes() *LikeView { return &LikeView{s} }

// Jobs returns the job store view.
func (s *ContentStore) Jobs() *JobView { return &JobView{s} }

// CommentView adapts ContentStore to service.CommentStore.
type CommentView struct{ s *ContentStore }

func (v *CommentView) Create(_ context.Context, c *model.Comment) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	c.ID = uint64(len(v.s.comments) + 1)
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	v.s.comments = append(v.s.comments, &cp)
	return nil
}

func (v *CommentView) ListByArticle(_ context.Context, articleID uint64) ([]*model.Comment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []*model.Comment
	for _, c := range v.s.comments {
		if c.ArticleID == articleID && !c.IsDeleted {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

// LikeView adapts ContentStore to service.LikeStore.
type LikeView struct{ s *ContentStore }

func (v *LikeView) Create(_ context.Context, l *model.Like) error {
	v.s.createLike(l)
	return nil
}

func (v *LikeView) CountByArticle(ctx context.Context, articleID uint64) (uint64, error) {
	return v.s.CountByArticle(ctx, articleID)
}

// JobView adapts ContentStore to service.JobStore.
type JobView struct{ s *ContentStore }

func (v *JobView) List(_ context.Context, sector string, limit, offset int) ([]*model.Job, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	now := time.Now().UTC()
	var open []*model.Job
	for _, j := range v.s.jobs {
		if j.DeadLine.Before(now) || (sector != "" && j.Sector != sector) {
			continue
		}
		open = append(open, j)
	}
	sort.SliceStable(open, func(a, b int) bool { return open[a].DeadLine.Before(open[b].DeadLine) })
	return window(open, limit, offset), nil
}

func window[T any](xs []T, limit, offset int) []T {
	if offset >= len(xs) {
		return nil
	}
	xs = xs[offset:]
	if limit < len(xs) {
		xs = xs[:limit]
	}
	return xs
}
