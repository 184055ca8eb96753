// Package roomview turns fetched rooms and invitations into the rows the
// console renders. It holds no state of its own.
package roomview

import (
	"fmt"
	"strconv"

	"chat-client/internal/models"
)

const (
	EmptyText  = "no rooms"
	ownerBadge = "owner"
	maxPreview = 60
	ellipsis   = "..."
)

// Card is one rendered room row.
type Card struct {
	RoomID      int
	Title       string
	OwnerBadge  string
	MemberCount int
	Preview     string
	StatusLabel string
}

// List is a rendered room collection. Empty lists carry EmptyText.
type List struct {
	Cards     []Card
	Empty     bool
	EmptyText string
}

// StatusLabel maps a derived room status to its display label.
func StatusLabel(status models.RoomStatus) string {
	switch status {
	case models.RoomStatusPending:
		return "pending invitation"
	case models.RoomStatusActive:
		return "in conversation"
	default:
		return "unknown"
	}
}

// FromRoom renders a directory room. Directory rooms have no status label.
func FromRoom(room models.Room) Card {
	card := Card{
		RoomID:      room.ID,
		Title:       room.DisplayName(),
		MemberCount: room.MemberCount,
		Preview:     preview(room.LastMessage),
	}
	if room.IsOwner {
		card.OwnerBadge = ownerBadge
	}
	return card
}

func FromInviteRoom(room models.InviteRoom) Card {
	card := FromRoom(room.Room)
	card.StatusLabel = StatusLabel(room.DerivedStatus)
	return card
}

func Rooms(rooms []models.Room) List {
	cards := make([]Card, 0, len(rooms))
	for _, room := range rooms {
		cards = append(cards, FromRoom(room))
	}
	return newList(cards)
}

func InviteRooms(rooms []models.InviteRoom) List {
	cards := make([]Card, 0, len(rooms))
	for _, room := range rooms {
		cards = append(cards, FromInviteRoom(room))
	}
	return newList(cards)
}

// Pending renders invitations waiting for the viewer's answer.
func Pending(invites []models.Invitation) List {
	cards := make([]Card, 0, len(invites))
	for _, inv := range invites {
		from := inv.InviterName
		if from == "" {
			from = "user " + strconv.Itoa(inv.InviterID)
		}
		cards = append(cards, Card{
			RoomID:      inv.RoomID,
			Title:       "invitation from " + from,
			Preview:     preview(inv.Message),
			StatusLabel: StatusLabel(models.RoomStatusPending),
		})
	}
	return newList(cards)
}

func newList(cards []Card) List {
	if len(cards) == 0 {
		return List{Empty: true, EmptyText: EmptyText}
	}
	return List{Cards: cards}
}

// Line formats a card as a single console line.
func (c Card) Line() string {
	line := fmt.Sprintf("#%d %s", c.RoomID, c.Title)
	if c.OwnerBadge != "" {
		line += " [" + c.OwnerBadge + "]"
	}
	if c.MemberCount > 0 {
		line += fmt.Sprintf(" (%d members)", c.MemberCount)
	}
	if c.StatusLabel != "" {
		line += " - " + c.StatusLabel
	}
	if c.Preview != "" {
		line += ": " + c.Preview
	}
	return line
}

// Lines formats the whole list, or the empty text.
func (l List) Lines() []string {
	if l.Empty {
		return []string{l.EmptyText}
	}
	lines := make([]string, 0, len(l.Cards))
	for _, c := range l.Cards {
		lines = append(lines, c.Line())
	}
	return lines
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= maxPreview {
		return text
	}
	return string(runes[:maxPreview-len(ellipsis)]) + ellipsis
}
