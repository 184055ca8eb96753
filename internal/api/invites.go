package api

import (
	"context"
	"net/http"

	"chat-client/internal/models"
)

type inviteRequest struct {
	TargetUserID int    `json:"targetUserId"`
	Message      string `json:"message"`
}

type respondRequest struct {
	RoomID int  `json:"roomId"`
	Accept bool `json:"accept"`
}

// SendInvite opens an interview invitation to targetUserID.
func (c *Client) SendInvite(ctx context.Context, targetUserID int, message string) (models.Invitation, error) {
	var inv models.Invitation
	req := inviteRequest{TargetUserID: targetUserID, Message: message}
	if err := c.do(ctx, http.MethodPost, "/chat/invites", "/chat/invites", req, &inv); err != nil {
		return models.Invitation{}, err
	}
	if inv.Status == "" {
		inv.Status = models.InviteStatusPending
	}
	if inv.InviteeID == 0 {
		inv.InviteeID = targetUserID
	}
	if inv.Message == "" {
		inv.Message = message
	}
	return inv, nil
}

// ListMyInviteRooms returns the invitation rooms the session user sent or received.
func (c *Client) ListMyInviteRooms(ctx context.Context) ([]models.Room, error) {
	rooms := []models.Room{}
	if err := c.do(ctx, http.MethodGet, "/chat/invites/my", "/chat/invites/my", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListPendingInvites returns invitations addressed to the session user.
func (c *Client) ListPendingInvites(ctx context.Context) ([]models.Invitation, error) {
	invites := []models.Invitation{}
	if err := c.do(ctx, http.MethodGet, "/chat/invites/me/pending", "/chat/invites/me/pending", nil, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// RespondInvite accepts or declines the invitation for roomID.
func (c *Client) RespondInvite(ctx context.Context, roomID int, accept bool) error {
	path := "/chat/invites/decline"
	if accept {
		path = "/chat/invites/accept"
	}
	return c.do(ctx, http.MethodPost, path, path, respondRequest{RoomID: roomID, Accept: accept}, nil)
}
