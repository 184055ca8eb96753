package models

import "strings"

// Name tags used by invitation rooms before the backend exposed an explicit status.
const (
	InviteRoomPrefix = "INVITE:"
	DirectRoomPrefix = "DM:"
)

// RoomStatus classifies invitation rooms.
type RoomStatus string

const (
	RoomStatusPending RoomStatus = "pending"
	RoomStatusActive  RoomStatus = "active"
	RoomStatusUnknown RoomStatus = "unknown"
)

// Room is a chat room as seen by the current viewer.
type Room struct {
	ID          int    `json:"roomId"`
	Name        string `json:"roomName"`
	IsOwner     bool   `json:"isOwner"`
	MemberCount int    `json:"memberCount"`
	LastMessage string `json:"lastMessage,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Classify returns the room status, preferring the explicit status field and
// falling back to the name prefix convention.
func (r Room) Classify() RoomStatus {
	if status, ok := statusFromField(r.Status); ok {
		return status
	}
	return StatusFromName(r.Name)
}

// StatusFromName derives a status from the INVITE:/DM: naming convention.
func StatusFromName(name string) RoomStatus {
	switch {
	case strings.HasPrefix(name, InviteRoomPrefix):
		return RoomStatusPending
	case strings.HasPrefix(name, DirectRoomPrefix):
		return RoomStatusActive
	default:
		return RoomStatusUnknown
	}
}

func statusFromField(raw string) (RoomStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", false
	case string(InviteStatusPending):
		return RoomStatusPending, true
	case string(InviteStatusAccepted), string(RoomStatusActive):
		return RoomStatusActive, true
	default:
		return RoomStatusUnknown, true
	}
}

// DisplayName strips the invitation tag from tagged room names.
func (r Room) DisplayName() string {
	for _, prefix := range []string{InviteRoomPrefix, DirectRoomPrefix} {
		if strings.HasPrefix(r.Name, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(r.Name, prefix))
		}
	}
	return r.Name
}
