package repository

import (
	"context"
	"database/sql"

	pkgerrors "github.com/pkg/errors"

	"github.com/goodjob/goodjob/internal/model"
)

// JobRepo reads the `jobs` table filled by the job crawler.
type JobRepo struct{ DB *sql.DB }

func NewJobRepo(db *sql.DB) *JobRepo { return &JobRepo{DB: db} }

// List returns open postings ordered by deadline.  An empty sector means
// all sectors.
func (r *JobRepo) List(ctx context.Context, sector string, limit, offset int) ([]*model.Job, error) {
	q := `SELECT id, company, subject, url, sector, create_date, dead_line, career
	      FROM jobs WHERE dead_line >= UTC_TIMESTAMP()`
	args := []any{}
	if sector != "" {
		q += " AND sector = ?"
		args = append(args, sector)
	}
	q += " ORDER BY dead_line, id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list jobs")
	}
	defer rows.Close()

	var out []*model.Job
	for rows.Next() {
		j := new(model.Job)
		if err := rows.Scan(&j.ID, &j.Company, &j.Subject, &j.URL, &j.Sector, &j.CreateDate, &j.DeadLine, &j.Career); err != nil {
			return nil, pkgerrors.Wrap(err, "scan job")
		}
		out = append(out, j)
	}
	return out, pkgerrors.Wrap(rows.Err(), "iterate jobs")
}
