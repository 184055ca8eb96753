package directory

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-client/internal/api"
	"chat-client/internal/mocks"
	"chat-client/internal/models"
)

func setupDirectory() (*Directory, *mocks.RoomAPIMock, *mocks.Recorder) {
	roomAPI := new(mocks.RoomAPIMock)
	rec := &mocks.Recorder{Reply: true}
	dir := New(roomAPI, Hooks{Alert: rec, Confirm: rec, Navigate: rec}, nil, 1)
	return dir, roomAPI, rec
}

func TestListExploreReplacesRooms(t *testing.T) {
	dir, roomAPI, _ := setupDirectory()
	rooms := []models.Room{{ID: 2, Name: "b"}, {ID: 1, Name: "a"}}
	roomAPI.On("ListExploreRooms", mock.Anything).Return(rooms, nil).Once()

	require.NoError(t, dir.ListExplore(context.Background()))

	state := dir.State()
	require.Equal(t, ModeExplore, state.Mode)
	require.Equal(t, rooms, state.Rooms)
	require.Empty(t, state.Err)
	require.False(t, state.Loading)
	roomAPI.AssertExpectations(t)
}

func TestToggleTwiceRefetchesExplore(t *testing.T) {
	dir, roomAPI, _ := setupDirectory()
	roomAPI.On("ListExploreRooms", mock.Anything).Return([]models.Room{{ID: 1}}, nil).Twice()
	roomAPI.On("ListMyRooms", mock.Anything).Return([]models.Room{{ID: 5}}, nil).Once()

	require.NoError(t, dir.Load(context.Background()))
	require.NoError(t, dir.Toggle(context.Background()))
	require.Equal(t, ModeMine, dir.State().Mode)
	require.Equal(t, 5, dir.State().Rooms[0].ID)

	require.NoError(t, dir.Toggle(context.Background()))
	require.Equal(t, ModeExplore, dir.State().Mode)
	require.Equal(t, 1, dir.State().Rooms[0].ID)

	roomAPI.AssertExpectations(t)
	roomAPI.AssertNumberOfCalls(t, "ListExploreRooms", 2)
}

func TestToggleFailureKeepsListAndShowsDirectionalError(t *testing.T) {
	dir, roomAPI, _ := setupDirectory()
	roomAPI.On("ListExploreRooms", mock.Anything).Return([]models.Room{{ID: 1}}, nil).Once()
	roomAPI.On("ListMyRooms", mock.Anything).Return(nil, assert.AnError).Once()
	roomAPI.On("ListMyRooms", mock.Anything).Return([]models.Room{{ID: 2}}, nil).Once()
	roomAPI.On("ListExploreRooms", mock.Anything).Return(nil, assert.AnError).Once()

	require.NoError(t, dir.ListExplore(context.Background()))

	err := dir.Toggle(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	state := dir.State()
	require.Equal(t, "failed to load my rooms", state.Err)
	require.Equal(t, ModeExplore, state.Mode)
	require.Equal(t, []models.Room{{ID: 1}}, state.Rooms)

	require.NoError(t, dir.ListMine(context.Background()))
	require.Error(t, dir.Toggle(context.Background()))
	require.Equal(t, "failed to load all rooms", dir.State().Err)
	require.Equal(t, ModeMine, dir.State().Mode)
	require.Equal(t, []models.Room{{ID: 2}}, dir.State().Rooms)
}

func TestToggleRetriesFailedDirection(t *testing.T) {
	dir, roomAPI, _ := setupDirectory()
	roomAPI.On("ListExploreRooms", mock.Anything).Return([]models.Room{{ID: 1}}, nil).Once()
	roomAPI.On("ListMyRooms", mock.Anything).Return(nil, assert.AnError).Once()
	roomAPI.On("ListMyRooms", mock.Anything).Return([]models.Room{{ID: 5}}, nil).Once()

	require.NoError(t, dir.ListExplore(context.Background()))
	require.Error(t, dir.Toggle(context.Background()))
	require.NoError(t, dir.Toggle(context.Background()))

	state := dir.State()
	require.Equal(t, ModeMine, state.Mode)
	require.Empty(t, state.Err)
	require.Equal(t, []models.Room{{ID: 5}}, state.Rooms)
	roomAPI.AssertExpectations(t)
}

func TestFetchUnauthorizedAsksForLogin(t *testing.T) {
	dir, roomAPI, _ := setupDirectory()
	roomAPI.On("ListMyRooms", mock.Anything).Return(nil, &api.Error{StatusCode: http.StatusUnauthorized}).Once()

	require.Error(t, dir.ListMine(context.Background()))
	require.Equal(t, "login required", dir.State().Err)
}

func TestCreateRoomPrependsExactlyOne(t *testing.T) {
	dir, roomAPI, _ := setupDirectory()
	existing := []models.Room{{ID: 3, Name: "c"}, {ID: 2, Name: "b"}}
	roomAPI.On("ListExploreRooms", mock.Anything).Return(existing, nil).Once()
	roomAPI.On("CreateRoom", mock.Anything, "new room").Return(models.Room{ID: 9, Name: "new room", IsOwner: true}, nil).Once()

	require.NoError(t, dir.Load(context.Background()))
	room, err := dir.CreateRoom(context.Background(), "  new room  ")
	require.NoError(t, err)
	require.Equal(t, 9, room.ID)

	rooms := dir.State().Rooms
	require.Len(t, rooms, 3)
	require.Equal(t, 9, rooms[0].ID)
	require.Equal(t, existing, rooms[1:])
	roomAPI.AssertExpectations(t)
}

func TestCreateRoomRejectsBlankName(t *testing.T) {
	dir, roomAPI, rec := setupDirectory()

	_, err := dir.CreateRoom(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyRoomName)
	require.Equal(t, []string{"room name is required"}, rec.Alerts())
	roomAPI.AssertNotCalled(t, "CreateRoom", mock.Anything, mock.Anything)
}

func TestCreateRoomFailureAlertsAndKeepsState(t *testing.T) {
	dir, roomAPI, rec := setupDirectory()
	roomAPI.On("CreateRoom", mock.Anything, "x").Return(nil, assert.AnError).Once()

	_, err := dir.CreateRoom(context.Background(), "x")
	require.Error(t, err)
	require.Equal(t, []string{"failed to create room"}, rec.Alerts())
	require.Empty(t, dir.State().Rooms)
}

func TestEnterRoomIgnoresJoinFailure(t *testing.T) {
	dir, roomAPI, rec := setupDirectory()
	roomAPI.On("JoinRoom", mock.Anything, 4).Return(assert.AnError).Once()

	require.NoError(t, dir.EnterRoom(context.Background(), 4))
	require.Equal(t, []models.Room{{ID: 4}}, rec.Visited())
	require.Empty(t, rec.Alerts())
}

func TestDeleteRoomRequiresOwnership(t *testing.T) {
	dir, roomAPI, rec := setupDirectory()
	roomAPI.On("ListExploreRooms", mock.Anything).Return([]models.Room{{ID: 1, IsOwner: false}}, nil).Once()
	require.NoError(t, dir.Load(context.Background()))

	require.ErrorIs(t, dir.DeleteRoom(context.Background(), 1), ErrNotOwner)
	require.ErrorIs(t, dir.DeleteRoom(context.Background(), 99), ErrNotOwner)
	require.Len(t, rec.Alerts(), 2)
	roomAPI.AssertNotCalled(t, "DeleteRoom", mock.Anything, mock.Anything)
}

func TestDeleteRoomRequiresConfirmation(t *testing.T) {
	dir, roomAPI, rec := setupDirectory()
	rec.Reply = false
	roomAPI.On("ListExploreRooms", mock.Anything).Return([]models.Room{{ID: 1, Name: "mine", IsOwner: true}}, nil).Once()
	require.NoError(t, dir.Load(context.Background()))

	require.ErrorIs(t, dir.DeleteRoom(context.Background(), 1), ErrCancelled)
	require.Equal(t, []string{`Delete room "mine"?`}, rec.Prompts())
	require.Len(t, dir.State().Rooms, 1)
	roomAPI.AssertNotCalled(t, "DeleteRoom", mock.Anything, mock.Anything)
}

func TestDeleteRoomRemovesOnSuccessOnly(t *testing.T) {
	dir, roomAPI, rec := setupDirectory()
	roomAPI.On("ListExploreRooms", mock.Anything).Return([]models.Room{{ID: 1, IsOwner: true}, {ID: 2, IsOwner: true}}, nil).Once()
	roomAPI.On("DeleteRoom", mock.Anything, 1).Return(&api.Error{StatusCode: http.StatusForbidden, Message: "not yours"}).Once()
	roomAPI.On("DeleteRoom", mock.Anything, 2).Return(nil).Once()
	require.NoError(t, dir.Load(context.Background()))

	require.Error(t, dir.DeleteRoom(context.Background(), 1))
	require.Equal(t, []string{"not yours"}, rec.Alerts())
	require.Len(t, dir.State().Rooms, 2)

	require.NoError(t, dir.DeleteRoom(context.Background(), 2))
	require.Equal(t, []models.Room{{ID: 1, IsOwner: true}}, dir.State().Rooms)
}

func TestResponseAfterCloseIsDiscarded(t *testing.T) {
	dir, roomAPI, _ := setupDirectory()
	roomAPI.On("ListExploreRooms", mock.Anything).Run(func(mock.Arguments) {
		dir.Close()
	}).Return([]models.Room{{ID: 1}}, nil).Once()

	require.ErrorIs(t, dir.Load(context.Background()), ErrClosed)
	require.Empty(t, dir.State().Rooms)
}

func TestConcurrentFetchIsRejectedWhileLoading(t *testing.T) {
	dir, roomAPI, _ := setupDirectory()
	var inner error
	roomAPI.On("ListExploreRooms", mock.Anything).Run(func(mock.Arguments) {
		inner = dir.Toggle(context.Background())
	}).Return([]models.Room{}, nil).Once()

	require.NoError(t, dir.Load(context.Background()))
	require.ErrorIs(t, inner, ErrBusy)
	require.Equal(t, ModeExplore, dir.State().Mode)
}
