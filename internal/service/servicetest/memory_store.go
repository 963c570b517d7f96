// Package servicetest provides in-memory stores for exercising the service
// and handler layers without MySQL.
package servicetest

import (
	"context"
	"sync"
	"time"

	"github.com/goodjob/goodjob/internal/model"
	"github.com/goodjob/goodjob/internal/repository"
)

// MemberStore is a service.MemberStore backed by a map.  Create enforces
// the same live account/email uniqueness as the database indexes, and does
// so atomically, so concurrent joins behave like they do against MySQL.
type MemberStore struct {
	mu      sync.Mutex
	nextID  uint64
	members map[uint64]*model.Member
}

func NewMemberStore() *MemberStore {
	return &MemberStore{members: map[uint64]*model.Member{}}
}

func (s *MemberStore) Create(_ context.Context, m *model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.members {
		if !x.IsDeleted && (x.Account == m.Account || x.Email == m.Email) {
			return repository.ErrMemberExists
		}
	}
	s.nextID++
	m.ID = s.nextID
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	cp := *m
	s.members[m.ID] = &cp
	return nil
}

func (s *MemberStore) FindByAccount(_ context.Context, account string) (*model.Member, error) {
	return s.find(func(m *model.Member) bool { return m.Account == account })
}

func (s *MemberStore) FindByEmail(_ context.Context, email string) (*model.Member, error) {
	return s.find(func(m *model.Member) bool { return m.Email == email })
}

func (s *MemberStore) FindByID(_ context.Context, id uint64) (*model.Member, error) {
	return s.find(func(m *model.Member) bool { return m.ID == id })
}

func (s *MemberStore) UpdateMembership(_ context.Context, id uint64, membership model.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok || m.IsDeleted {
		return repository.ErrMemberNotFound
	}
	m.Membership = membership
	m.UpdatedAt = time.Now().UTC()
	return nil
}

// SoftDelete marks a member deleted, freeing its account and email.
func (s *MemberStore) SoftDelete(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok || m.IsDeleted {
		return repository.ErrMemberNotFound
	}
	m.IsDeleted = true
	return nil
}

// Count returns the number of live members.
func (s *MemberStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.members {
		if !m.IsDeleted {
			n++
		}
	}
	return n
}

func (s *MemberStore) find(match func(*model.Member) bool) (*model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if !m.IsDeleted && match(m) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrMemberNotFound
}
