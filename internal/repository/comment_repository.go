package repository

import (
	"context"
	"database/sql"

	pkgerrors "github.com/pkg/errors"

	"github.com/goodjob/goodjob/internal/model"
)

// CommentRepo encapsulates queries on the `comments` table.
type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// Create inserts c; on success c.ID is populated.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO comments (member_id, article_id, content) VALUES (?, ?, ?)",
		c.MemberID, c.ArticleID, c.Content)
	if err != nil {
		return pkgerrors.Wrap(err, "insert comment")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.Wrap(err, "comment last insert id")
	}
	c.ID = uint64(id)
	return nil
}

// ListByArticle returns the live comments of an article, oldest first.
func (r *CommentRepo) ListByArticle(ctx context.Context, articleID uint64) ([]*model.Comment, error) {
	const q = `SELECT id, member_id, article_id, content, like_count, is_deleted, created_at, updated_at
	           FROM comments WHERE article_id = ? AND is_deleted = 0 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, articleID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list comments")
	}
	defer rows.Close()

	var out []*model.Comment
	for rows.Next() {
		c := new(model.Comment)
		if err := rows.Scan(&c.ID, &c.MemberID, &c.ArticleID, &c.Content, &c.LikeCount, &c.IsDeleted, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, "scan comment")
		}
		out = append(out, c)
	}
	return out, pkgerrors.Wrap(rows.Err(), "iterate comments")
}
