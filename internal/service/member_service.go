// Package service holds the member flows (join, login, logout, refresh,
// mentor application) and the like flow, sitting between the echo handlers
// and the stores.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goodjob/goodjob/internal/metrics"
	"github.com/goodjob/goodjob/internal/model"
	"github.com/goodjob/goodjob/internal/queue"
	"github.com/goodjob/goodjob/internal/repository"
	"github.com/goodjob/goodjob/internal/utils"
)

// MemberStore is the credential store.  Lookups return
// repository.ErrMemberNotFound for absent or soft-deleted members and Create
// returns repository.ErrMemberExists on a unique index violation.
type MemberStore interface {
	Create(ctx context.Context, m *model.Member) error
	FindByAccount(ctx context.Context, account string) (*model.Member, error)
	FindByEmail(ctx context.Context, email string) (*model.Member, error)
	FindByID(ctx context.Context, id uint64) (*model.Member, error)
	UpdateMembership(ctx context.Context, id uint64, membership model.Membership) error
}

// SessionStore keeps one refresh token per member.
type SessionStore interface {
	Put(ctx context.Context, memberID uint64, token string, ttl time.Duration) error
	Remove(ctx context.Context, memberID uint64) error
	Matches(ctx context.Context, memberID uint64, token string) (bool, error)
}

// EventPublisher delivers member events.  Delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.MemberEvent) error
}

// MemberService runs the member flows.  It holds no per-request state, so
// one instance serves all requests concurrently.
type MemberService struct {
	members    MemberStore
	sessions   SessionStore
	tokens     *utils.TokenIssuer
	events     EventPublisher
	metrics    *metrics.Auth
	log        logrus.FieldLogger
	bcryptCost int
	dummyHash  string
}

// NewMemberService wires the flows.  events and m may be nil.  It fails if
// the password hasher rejects bcryptCost, which is a configuration error.
func NewMemberService(members MemberStore, sessions SessionStore, tokens *utils.TokenIssuer,
	events EventPublisher, m *metrics.Auth, log logrus.FieldLogger, bcryptCost int) (*MemberService, error) {
	if members == nil || sessions == nil || tokens == nil || log == nil {
		panic("nil dependency passed to NewMemberService")
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	// Unknown accounts are checked against this hash so both failure paths
	// spend the same bcrypt time.
	dummy, err := utils.HashPassword("goodjob-unknown-account", bcryptCost)
	if err != nil {
		return nil, err
	}
	return &MemberService{
		members:    members,
		sessions:   sessions,
		tokens:     tokens,
		events:     events,
		metrics:    m,
		log:        log,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}, nil
}

// Tokens exposes the issuer so the HTTP layer can derive cookie lifetimes.
func (s *MemberService) Tokens() *utils.TokenIssuer { return s.tokens }

// CanJoin reports whether req's email and account are both unused by live
// members.  It returns ErrConflict when either is taken.
func (s *MemberService) CanJoin(ctx context.Context, req JoinRequest) error {
	taken, err := s.exists(s.members.FindByEmail(ctx, req.Email))
	if err != nil {
		return err
	}
	if taken {
		return errors.Wrap(ErrConflict, "email taken")
	}
	taken, err = s.exists(s.members.FindByAccount(ctx, req.Account))
	if err != nil {
		return err
	}
	if taken {
		return errors.Wrap(ErrConflict, "account taken")
	}
	return nil
}

// Join validates req, checks uniqueness, then hashes the password and
// creates the member.  The checks run before hashing so doomed requests do
// not pay for bcrypt; the unique index still decides races between joins.
func (s *MemberService) Join(ctx context.Context, req JoinRequest) (*model.Member, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		s.metrics.Observe(metrics.EventJoin, metrics.OutcomeRejected)
		return nil, err
	}
	if err := s.CanJoin(ctx, req); err != nil {
		s.observeErr(metrics.EventJoin, err)
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		s.metrics.Observe(metrics.EventJoin, metrics.OutcomeError)
		return nil, err
	}
	m := model.NewMember(req.Account, req.Username, hash, req.Email, req.Phone)
	if err := s.members.Create(ctx, m); err != nil {
		if errors.Is(err, repository.ErrMemberExists) {
			err = errors.Wrap(ErrConflict, "unique index")
		}
		s.observeErr(metrics.EventJoin, err)
		return nil, err
	}

	s.metrics.Observe(metrics.EventJoin, metrics.OutcomeSuccess)
	s.log.WithFields(logrus.Fields{"member_id": m.ID, "account": m.Account}).Info("member joined")
	s.publish(ctx, queue.NewMemberEvent(queue.EventMemberJoined, m.ID, m.Account, string(m.Membership)))
	return m, nil
}

// Login verifies the credentials, mints a token pair and records the
// refresh token as the member's only live session.  Any credential failure
// returns ErrAuthentication and leaves the session registry untouched.
func (s *MemberService) Login(ctx context.Context, account, password string) (*model.Member, utils.TokenPair, error) {
	account = strings.TrimSpace(account)
	if account == "" || password == "" {
		s.metrics.Observe(metrics.EventLogin, metrics.OutcomeRejected)
		return nil, utils.TokenPair{}, ErrAuthentication
	}

	m, err := s.members.FindByAccount(ctx, account)
	switch {
	case errors.Is(err, repository.ErrMemberNotFound):
		utils.VerifyPassword(s.dummyHash, password)
		s.metrics.Observe(metrics.EventLogin, metrics.OutcomeRejected)
		return nil, utils.TokenPair{}, ErrAuthentication
	case err != nil:
		s.metrics.Observe(metrics.EventLogin, metrics.OutcomeError)
		return nil, utils.TokenPair{}, err
	}
	if !utils.VerifyPassword(m.PasswordHash, password) {
		s.metrics.Observe(metrics.EventLogin, metrics.OutcomeRejected)
		return nil, utils.TokenPair{}, ErrAuthentication
	}

	pair, err := s.establish(ctx, m)
	if err != nil {
		s.metrics.Observe(metrics.EventLogin, metrics.OutcomeError)
		return nil, utils.TokenPair{}, err
	}
	s.metrics.Observe(metrics.EventLogin, metrics.OutcomeSuccess)
	s.log.WithField("member_id", m.ID).Info("member logged in")
	return m, pair, nil
}

// Logout drops the member's session entry.  A missing entry is fine.
func (s *MemberService) Logout(ctx context.Context, memberID uint64) error {
	if err := s.sessions.Remove(ctx, memberID); err != nil {
		s.metrics.Observe(metrics.EventLogout, metrics.OutcomeError)
		return err
	}
	s.metrics.Observe(metrics.EventLogout, metrics.OutcomeSuccess)
	s.log.WithField("member_id", memberID).Info("member logged out")
	return nil
}

// Refresh exchanges the member's current refresh token for a new pair.  The
// token must verify, name a live member and equal the registry entry;
// anything else is ErrAuthentication.
func (s *MemberService) Refresh(ctx context.Context, refreshToken string) (*model.Member, utils.TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		s.metrics.Observe(metrics.EventRefresh, metrics.OutcomeRejected)
		return nil, utils.TokenPair{}, ErrAuthentication
	}
	memberID, _ := claims.MemberID() // ParseRefresh already checked it

	ok, err := s.sessions.Matches(ctx, memberID, refreshToken)
	if err != nil {
		s.metrics.Observe(metrics.EventRefresh, metrics.OutcomeError)
		return nil, utils.TokenPair{}, err
	}
	if !ok {
		s.metrics.Observe(metrics.EventRefresh, metrics.OutcomeRejected)
		return nil, utils.TokenPair{}, ErrAuthentication
	}

	m, err := s.members.FindByID(ctx, memberID)
	if errors.Is(err, repository.ErrMemberNotFound) {
		_ = s.sessions.Remove(ctx, memberID)
		s.metrics.Observe(metrics.EventRefresh, metrics.OutcomeRejected)
		return nil, utils.TokenPair{}, ErrAuthentication
	}
	if err != nil {
		s.metrics.Observe(metrics.EventRefresh, metrics.OutcomeError)
		return nil, utils.TokenPair{}, err
	}

	pair, err := s.establish(ctx, m)
	if err != nil {
		s.metrics.Observe(metrics.EventRefresh, metrics.OutcomeError)
		return nil, utils.TokenPair{}, err
	}
	s.metrics.Observe(metrics.EventRefresh, metrics.OutcomeSuccess)
	return m, pair, nil
}

// ApplyMentor sets the member's membership to MENTOR when isMentor is true.
// There is no approval step and repeating the call changes nothing.
func (s *MemberService) ApplyMentor(ctx context.Context, memberID uint64, isMentor bool) (*model.Member, error) {
	m, err := s.members.FindByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, repository.ErrMemberNotFound) {
			err = ErrAuthentication
		}
		s.observeErr(metrics.EventApplyMentor, err)
		return nil, err
	}
	if !isMentor {
		s.metrics.Observe(metrics.EventApplyMentor, metrics.OutcomeSuccess)
		return m, nil
	}

	if err := s.members.UpdateMembership(ctx, memberID, model.MembershipMentor); err != nil {
		s.metrics.Observe(metrics.EventApplyMentor, metrics.OutcomeError)
		return nil, err
	}
	changed := m.Membership != model.MembershipMentor
	m.Membership = model.MembershipMentor
	s.metrics.Observe(metrics.EventApplyMentor, metrics.OutcomeSuccess)
	if changed {
		s.log.WithField("member_id", m.ID).Info("member became mentor")
		s.publish(ctx, queue.NewMemberEvent(queue.EventMemberMentorApplied, m.ID, m.Account, string(m.Membership)))
	}
	return m, nil
}

// FindByAccount looks up a live member by account.
func (s *MemberService) FindByAccount(ctx context.Context, account string) (*model.Member, error) {
	return s.members.FindByAccount(ctx, account)
}

// FindByID looks up a live member by id.
func (s *MemberService) FindByID(ctx context.Context, id uint64) (*model.Member, error) {
	return s.members.FindByID(ctx, id)
}

// establish issues a pair for m and makes its refresh token the member's
// single registry entry.
func (s *MemberService) establish(ctx context.Context, m *model.Member) (utils.TokenPair, error) {
	pair, err := s.tokens.Issue(m)
	if err != nil {
		return utils.TokenPair{}, err
	}
	if err := s.sessions.Put(ctx, m.ID, pair.Refresh.Value, pair.Refresh.TTL); err != nil {
		return utils.TokenPair{}, err
	}
	return pair, nil
}

func (s *MemberService) exists(_ *model.Member, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrMemberNotFound) {
		return false, nil
	}
	return false, err
}

func (s *MemberService) observeErr(event string, err error) {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrAuthentication) {
		s.metrics.Observe(event, metrics.OutcomeRejected)
		return
	}
	s.metrics.Observe(event, metrics.OutcomeError)
}

// publish sends ev without letting a broker problem fail the request.
func (s *MemberService) publish(ctx context.Context, ev queue.MemberEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithError(err).WithField("event", ev.Type).Warn("member event dropped")
	}
}
