package api

import (
	"context"
	"fmt"
	"net/http"

	"chat-client/internal/models"
)

// ListExploreRooms returns every room open for discovery, in server order.
func (c *Client) ListExploreRooms(ctx context.Context) ([]models.Room, error) {
	rooms := []models.Room{}
	if err := c.do(ctx, http.MethodGet, "/group-chat/rooms/explore", "/group-chat/rooms/explore", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListMyRooms returns the rooms the session user belongs to.
func (c *Client) ListMyRooms(ctx context.Context) ([]models.Room, error) {
	rooms := []models.Room{}
	if err := c.do(ctx, http.MethodGet, "/group-chat/rooms/my", "/group-chat/rooms/my", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom creates a room owned by the session user.
func (c *Client) CreateRoom(ctx context.Context, name string) (models.Room, error) {
	req := struct {
		RoomName string `json:"roomName"`
	}{RoomName: name}

	var room models.Room
	if err := c.do(ctx, http.MethodPost, "/group-chat/rooms", "/group-chat/rooms", req, &room); err != nil {
		return models.Room{}, err
	}
	if room.Name == "" {
		room.Name = name
	}
	return room, nil
}

func (c *Client) JoinRoom(ctx context.Context, roomID int) error {
	return c.do(ctx, http.MethodPost, "/group-chat/rooms/:id/join", fmt.Sprintf("/group-chat/rooms/%d/join", roomID), nil, nil)
}

func (c *Client) DeleteRoom(ctx context.Context, roomID int) error {
	return c.do(ctx, http.MethodDelete, "/group-chat/rooms/:id", fmt.Sprintf("/group-chat/rooms/%d", roomID), nil, nil)
}
