// Package queue defines member domain events and moves them over RabbitMQ.
package queue

import "time"

// MemberQueueName is the durable queue all member events are published to.
const MemberQueueName = "member.events"

// Event types.
const (
    EventMemberJoined        = "member.joined"
    EventMemberMentorApplied = "member.mentor_applied"
)

// MemberEvent is published after a member-visible state change.  It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type MemberEvent struct {
    Type       string `json:"type"`
    MemberID   uint64 `json:"member_id"`
    Account    string `json:"account"`
    Membership string `json:"membership"`
    OccurredAt string `json:"occurred_at"`
}

// NewMemberEvent stamps an event with the current UTC time.
func NewMemberEvent(typ string, memberID uint64, account, membership string) MemberEvent {
    return MemberEvent{
        Type:       typ,
        MemberID:   memberID,
        Account:    account,
        Membership: membership,
        OccurredAt: time.Now().UTC().Format(time.RFC3339),
    }
}
