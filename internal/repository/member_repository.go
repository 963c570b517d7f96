package repository

import (
	"context"
	"database/sql"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/goodjob/goodjob/internal/model"
)

const memberColumns = "id, account, username, password_hash, email, phone, membership, is_deleted, created_at, updated_at"

// MemberRepo is the credential store backed by the `members` table.
type MemberRepo struct{ DB *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{DB: db} }

// Create inserts m and sets m.ID.  A unique index violation on account or
// email is reported as ErrMemberExists; that index is the source of truth
// when two joins race past the service's existence checks.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO members (account, username, password_hash, email, phone, membership, is_deleted) VALUES (?,?,?,?,?,?,0)",
		m.Account, m.Username, m.PasswordHash, m.Email, m.Phone, string(m.Membership))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrMemberExists
		}
		return pkgerrors.Wrap(err, "insert member")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return pkgerrors.Wrap(err, "member last insert id")
	}
	m.ID = uint64(id)
	return nil
}

// FindByAccount fetches a live member by account name.
func (r *MemberRepo) FindByAccount(ctx context.Context, account string) (*model.Member, error) {
	return r.findOne(ctx, "SELECT "+memberColumns+" FROM members WHERE account=? AND is_deleted=0 LIMIT 1", account)
}

// FindByEmail fetches a live member by email.
func (r *MemberRepo) FindByEmail(ctx context.Context, email string) (*model.Member, error) {
	return r.findOne(ctx, "SELECT "+memberColumns+" FROM members WHERE email=? AND is_deleted=0 LIMIT 1", email)
}

// FindByID fetches a live member by id.
func (r *MemberRepo) FindByID(ctx context.Context, id uint64) (*model.Member, error) {
	return r.findOne(ctx, "SELECT "+memberColumns+" FROM members WHERE id=? AND is_deleted=0 LIMIT 1", id)
}

// UpdateMembership sets the membership of a live member.  Setting the
// value it already has is not an error.
func (r *MemberRepo) UpdateMembership(ctx context.Context, id uint64, membership model.Membership) error {
	// RowsAffected is 0 for an unchanged row, so existence is checked by
	// the WHERE of a follow-up read instead.
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE members SET membership=? WHERE id=? AND is_deleted=0",
		string(membership), id); err != nil {
		return pkgerrors.Wrap(err, "update membership")
	}
	var one int
	err := r.DB.QueryRowContext(ctx, "SELECT 1 FROM members WHERE id=? AND is_deleted=0", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMemberNotFound
	}
	return pkgerrors.Wrap(err, "check member")
}

// SoftDelete flags a member as deleted.  Members are never removed.
func (r *MemberRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE members SET is_deleted=1 WHERE id=? AND is_deleted=0", id)
	if err != nil {
		return pkgerrors.Wrap(err, "soft delete member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *MemberRepo) findOne(ctx context.Context, q string, arg any) (*model.Member, error) {
	var (
		m          model.Member
		membership string
	)
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&m.ID, &m.Account, &m.Username, &m.PasswordHash, &m.Email, &m.Phone,
		&membership, &m.IsDeleted, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, pkgerrors.Wrap(err, "query member")
	}
	m.Membership = model.Membership(membership)
	return &m, nil
}
