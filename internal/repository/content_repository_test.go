package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goodjob/goodjob/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestArticleRepoGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM articles WHERE id = ? AND is_deleted = 0")).
		WithArgs(uint64(5)).
		WillReturnError(sql.ErrNoRows)

	_, err := NewArticleRepo(db).GetByID(context.Background(), 5)
	assert.ErrorIs(t, err, ErrArticleNotFound)
}

func TestArticleRepoList(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM articles WHERE is_deleted = 0 ORDER BY id DESC LIMIT ? OFFSET ?")).
		WithArgs(10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "title", "content", "is_deleted", "created_at", "updated_at"}).
			AddRow(2, 1, "second", "b", false, now, now).
			AddRow(1, 1, "first", "a", false, now, now))

	got, err := NewArticleRepo(db).List(context.Background(), 10, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Title)
}

func TestCommentRepoCreate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO comments (member_id, article_id, content)")).
		WithArgs(uint64(1), uint64(2), "nice").
		WillReturnResult(sqlmock.NewResult(8, 1))

	c := &model.Comment{MemberID: 1, ArticleID: 2, Content: "nice"}
	require.NoError(t, NewCommentRepo(db).Create(context.Background(), c))
	assert.Equal(t, uint64(8), c.ID)
}

func TestLikesRepoCreateArticleLike(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO likes (member_id, article_id, comment_id)")).
		WithArgs(uint64(1), uint64(2), nil).
		WillReturnResult(sqlmock.NewResult(3, 1))

	l := &model.Like{MemberID: 1, ArticleID: 2}
	require.NoError(t, NewLikesRepo(db).Create(context.Background(), l))
	assert.Equal(t, uint64(3), l.ID)
}

func TestJobRepoListFiltersBySector(t *testing.T) {
	db, mock := newMock(t)
	deadline := time.Now().Add(72 * time.Hour).UTC()
	mock.ExpectQuery(regexp.QuoteMeta("AND sector = ? ORDER BY dead_line, id LIMIT ? OFFSET ?")).
		WithArgs("backend", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company", "subject", "url", "sector", "create_date", "dead_line", "career"}).
			AddRow(1, "goodjob", "Go developer", "https://example.com/1", "backend", time.Now().UTC(), deadline, 3))

	got, err := NewJobRepo(db).List(context.Background(), "backend", 20, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Career)
	assert.Equal(t, "backend", got[0].Sector)
}
