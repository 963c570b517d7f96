package repository

import (
	"context"
	"database/sql"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/goodjob/goodjob/internal/model"
)

// ArticleRepo encapsulates queries on the `articles` table.
type ArticleRepo struct {
	db *sql.DB
}

func NewArticleRepo(db *sql.DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

// Create inserts a; on success a.ID is populated.
func (r *ArticleRepo) Create(ctx context.Context, a *model.Article) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO articles (member_id, title, content) VALUES (?, ?, ?)",
		a.MemberID, a.Title, a.Content)
	if err != nil {
		return pkgerrors.Wrap(err, "insert article")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.Wrap(err, "article last insert id")
	}
	a.ID = uint64(id)
	return nil
}

// GetByID fetches a live article.  It returns ErrArticleNotFound when the
// article does not exist or was deleted.
func (r *ArticleRepo) GetByID(ctx context.Context, id uint64) (*model.Article, error) {
	const q = `SELECT id, member_id, title, content, is_deleted, created_at, updated_at
	           FROM articles WHERE id = ? AND is_deleted = 0`
	var a model.Article
	err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.MemberID, &a.Title, &a.Content, &a.IsDeleted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, pkgerrors.Wrap(err, "query article")
	}
	return &a, nil
}

// List returns one page of live articles, newest first.
func (r *ArticleRepo) List(ctx context.Context, limit, offset int) ([]*model.Article, error) {
	const q = `SELECT id, member_id, title, content, is_deleted, created_at, updated_at
	           FROM articles WHERE is_deleted = 0 ORDER BY id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list articles")
	}
	defer rows.Close()

	var out []*model.Article
	for rows.Next() {
		a := new(model.Article)
		if err := rows.Scan(&a.ID, &a.MemberID, &a.Title, &a.Content, &a.IsDeleted, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, pkgerrors.Wrap(err, "scan article")
		}
		out = append(out, a)
	}
	return out, pkgerrors.Wrap(rows.Err(), "iterate articles")
}
