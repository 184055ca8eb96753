package models

import (
	"encoding/json"
	"strings"
)

// InviteStatus is the lifecycle state of an interview invitation.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

// Terminal reports whether no further transition is allowed.
func (s InviteStatus) Terminal() bool {
	return s == InviteStatusAccepted || s == InviteStatusDeclined
}

// UnmarshalJSON normalises case so "PENDING" and "pending" compare equal.
func (s *InviteStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = InviteStatus(strings.ToLower(strings.TrimSpace(raw)))
	return nil
}

// Invitation is a proposal from one user to another to open an interview room.
type Invitation struct {
	RoomID      int          `json:"roomId"`
	InviterID   int          `json:"inviterId"`
	InviterName string       `json:"inviterName,omitempty"`
	InviteeID   int          `json:"inviteeId"`
	Message     string       `json:"message,omitempty"`
	Status      InviteStatus `json:"status"`
	CreatedAt   Timestamp    `json:"createdAt"`
}

// IsPending treats a missing status as pending.
func (i Invitation) IsPending() bool {
	return i.Status == "" || i.Status == InviteStatusPending
}

// InviteRoom is an entry of the caller's invitation room list with its derived status.
type InviteRoom struct {
	Room
	DerivedStatus RoomStatus `json:"derivedStatus"`
}
