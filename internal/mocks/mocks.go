package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-client/internal/models"
)

type RoomAPIMock struct {
	mock.Mock
}

func (m *RoomAPIMock) ListExploreRooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called(ctx)
	var rooms []models.Room
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomAPIMock) ListMyRooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called(ctx)
	var rooms []models.Room
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *RoomAPIMock) CreateRoom(ctx context.Context, name string) (models.Room, error) {
	args := m.Called(ctx, name)
	var room models.Room
	if val := args.Get(0); val != nil {
		room = val.(models.Room)
	}
	return room, args.Error(1)
}

func (m *RoomAPIMock) JoinRoom(ctx context.Context, roomID int) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomAPIMock) DeleteRoom(ctx context.Context, roomID int) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

type InviteAPIMock struct {
	mock.Mock
}

func (m *InviteAPIMock) SendInvite(ctx context.Context, targetUserID int, message string) (models.Invitation, error) {
	args := m.Called(ctx, targetUserID, message)
	var inv models.Invitation
	if val := args.Get(0); val != nil {
		inv = val.(models.Invitation)
	}
	return inv, args.Error(1)
}

func (m *InviteAPIMock) ListMyInviteRooms(ctx context.Context) ([]models.Room, error) {
	args := m.Called(ctx)
	var rooms []models.Room
	if val := args.Get(0); val != nil {
		rooms = val.([]models.Room)
	}
	return rooms, args.Error(1)
}

func (m *InviteAPIMock) ListPendingInvites(ctx context.Context) ([]models.Invitation, error) {
	args := m.Called(ctx)
	var invites []models.Invitation
	if val := args.Get(0); val != nil {
		invites = val.([]models.Invitation)
	}
	return invites, args.Error(1)
}

func (m *InviteAPIMock) RespondInvite(ctx context.Context, roomID int, accept bool) error {
	args := m.Called(ctx, roomID, accept)
	return args.Error(0)
}

type ArchiveMock struct {
	mock.Mock
}

func (m *ArchiveMock) Append(ctx context.Context, roomKey string, entry models.TranscriptEntry) error {
	args := m.Called(ctx, roomKey, entry)
	return args.Error(0)
}

func (m *ArchiveMock) ListByRoom(ctx context.Context, roomKey string, limit int) ([]models.TranscriptEntry, error) {
	args := m.Called(ctx, roomKey, limit)
	var entries []models.TranscriptEntry
	if val := args.Get(0); val != nil {
		entries = val.([]models.TranscriptEntry)
	}
	return entries, args.Error(1)
}
