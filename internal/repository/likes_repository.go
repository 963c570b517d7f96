package repository

import (
	"context"
	"database/sql"

	pkgerrors "github.com/pkg/errors"

	"github.com/goodjob/goodjob/internal/model"
)

// LikesRepo persists rows of the `likes` table.
type LikesRepo struct{ DB *sql.DB }

func NewLikesRepo(db *sql.DB) *LikesRepo { return &LikesRepo{DB: db} }

// Create inserts l and sets l.ID.
func (r *LikesRepo) Create(ctx context.Context, l *model.Like) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO likes (member_id, article_id, comment_id) VALUES (?,?,?)",
		l.MemberID, l.ArticleID, l.CommentID)
	if err != nil {
		return pkgerrors.Wrap(err, "insert like")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.Wrap(err, "like last insert id")
	}
	l.ID = uint64(id)
	return nil
}

// CountByArticle returns how many likes an article has received.
func (r *LikesRepo) CountByArticle(ctx context.Context, articleID uint64) (uint64, error) {
	var n uint64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM likes WHERE article_id=? AND comment_id IS NULL", articleID).Scan(&n)
	return n, pkgerrors.Wrap(err, "count likes")
}
