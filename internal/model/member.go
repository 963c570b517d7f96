package model

import "time"

// Membership is a member's privilege tier as stored in members.membership
// and carried in the access token's role claim.
type Membership string

const (
    MembershipOrdinary Membership = "ORDINARY"
    MembershipMentor   Membership = "MENTOR"
)

// Valid reports whether m is a known tier.
func (m Membership) Valid() bool {
    return m == MembershipOrdinary || m == MembershipMentor
}

// Member represents a row of the `members` table.  Account and email are
// unique among rows whose IsDeleted flag is false; rows are never removed,
// only flagged.
//
// Fields:
//  ID           – primary key, assigned on insert, immutable.
//  Account      – login name (unique).
//  Username     – display name.
//  PasswordHash – bcrypt hash of the password.
//  Email        – unique email address.
//  Phone        – optional phone number.
//  Membership   – ORDINARY or MENTOR.
//  IsDeleted    – soft-delete flag.
type Member struct {
    ID           uint64     // members.id
    Account      string     // members.account
    Username     string     // members.username
    PasswordHash string     // members.password_hash
    Email        string     // members.email
    Phone        string     // members.phone ('' when not given)
    Membership   Membership // members.membership
    IsDeleted    bool       // members.is_deleted
    CreatedAt    time.Time  // members.created_at
    UpdatedAt    time.Time  // members.updated_at
}

// NewMember builds an ORDINARY, live member from already-validated fields.
// passwordHash must be the output of the password hasher, never plaintext.
func NewMember(account, username, passwordHash, email, phone string) *Member {
    return &Member{
        Account:      account,
        Username:     username,
        PasswordHash: passwordHash,
        Email:        email,
        Phone:        phone,
        Membership:   MembershipOrdinary,
    }
}
