package service_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodjob/goodjob/internal/model"
	"github.com/goodjob/goodjob/internal/service"
	"github.com/goodjob/goodjob/internal/service/servicetest"
)

func newContent(t *testing.T) (*service.ContentService, *servicetest.ContentStore) {
	t.Helper()
	store := servicetest.NewContentStore()
	log, _ := logtest.NewNullLogger()
	return service.NewContentService(store, store.Comments(), store.Likes(), store.Jobs(), log), store
}

func TestPageClamps(t *testing.T) {
	limit, offset := service.Page(0, 0)
	assert.Equal(t, service.DefaultPageSize, limit)
	assert.Zero(t, offset)

	limit, offset = service.Page(3, 1000)
	assert.Equal(t, service.MaxPageSize, limit)
	assert.Equal(t, 2*service.MaxPageSize, offset)
}

func TestPageHugeNumberStaysNonNegative(t *testing.T) {
	limit, offset := service.Page(math.MaxInt, 20)
	assert.Equal(t, 20, limit)
	assert.Positive(t, offset)

	svc, _ := newContent(t)
	_, err := svc.CreateArticle(context.Background(), 1, "hello", "body")
	require.NoError(t, err)
	list, err := svc.Articles(context.Background(), math.MaxInt, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateArticleValidates(t *testing.T) {
	svc, _ := newContent(t)
	_, err := svc.CreateArticle(context.Background(), 1, "  ", "")

	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "required", verr.Fields["title"])
	assert.Equal(t, "required", verr.Fields["content"])
}

func TestLikeArticleCountsEveryLike(t *testing.T) {
	svc, _ := newContent(t)
	a, err := svc.CreateArticle(context.Background(), 1, "hello", "first post")
	require.NoError(t, err)

	_, err = svc.LikeArticle(context.Background(), 2, a.ID)
	require.NoError(t, err)
	_, err = svc.LikeArticle(context.Background(), 2, a.ID)
	require.NoError(t, err)

	view, err := svc.Article(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), view.Likes)
	assert.Equal(t, "hello", view.Title)
}

func TestLikeMissingArticle(t *testing.T) {
	svc, _ := newContent(t)
	_, err := svc.LikeArticle(context.Background(), 1, 42)
	assert.Equal(t, service.ErrArticleNotFound, err)
}

func TestCommentsFlow(t *testing.T) {
	svc, _ := newContent(t)
	a, err := svc.CreateArticle(context.Background(), 1, "q", "how do I start?")
	require.NoError(t, err)

	_, err = svc.Comment(context.Background(), 2, a.ID, "read the docs")
	require.NoError(t, err)
	_, err = svc.Comment(context.Background(), 2, 999, "lost")
	assert.Equal(t, service.ErrArticleNotFound, err)

	list, err := svc.Comments(context.Background(), a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "read the docs", list[0].Content)
}

func TestArticlesNewestFirst(t *testing.T) {
	svc, _ := newContent(t)
	for _, title := range []string{"one", "two", "three"} {
		_, err := svc.CreateArticle(context.Background(), 1, title, "body")
		require.NoError(t, err)
	}
	list, err := svc.Articles(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "three", list[0].Title)
	assert.Equal(t, "two", list[1].Title)
}

func TestJobsFilterSectorAndExpired(t *testing.T) {
	svc, store := newContent(t)
	now := time.Now().UTC()
	store.AddJob(model.Job{Company: "a", Sector: "backend", DeadLine: now.Add(48 * time.Hour)})
	store.AddJob(model.Job{Company: "b", Sector: "frontend", DeadLine: now.Add(24 * time.Hour)})
	store.AddJob(model.Job{Company: "c", Sector: "backend", DeadLine: now.Add(-time.Hour)})

	all, err := svc.Jobs(context.Background(), "", 1, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "b", all[0].Company)

	backend, err := svc.Jobs(context.Background(), " backend ", 1, 10)
	require.NoError(t, err)
	require.Len(t, backend, 1)
	assert.Equal(t, "a", backend[0].Company)
}
