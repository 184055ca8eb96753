package invites

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

func setupWorkflow() (*Workflow, *mocks.InviteAPIMock, *mocks.Recorder) {
	inviteAPI := new(mocks.InviteAPIMock)
	rec := &mocks.Recorder{}
	return New(inviteAPI, rec, nil, 1), inviteAPI, rec
}

func loadPending(t *testing.T, w *Workflow, inviteAPI *mocks.InviteAPIMock, invites []models.Invitation) {
	t.Helper()
	inviteAPI.On("ListPendingInvites", mock.Anything).Return(invites, nil).Once()
	_, err := w.ListPendingForMe(context.Background())
	require.NoError(t, err)
}

func TestSendInviteCoercesTarget(t *testing.T) {
	w, inviteAPI, _ := setupWorkflow()
	inviteAPI.On("SendInvite", mock.Anything, 42, "hello").
		Return(models.Invitation{RoomID: 7, InviterID: 1, InviteeID: 42, Status: models.InviteStatusPending}, nil).Once()

	inv, err := w.SendInvite(context.Background(), " 42 ", "hello ")
	require.NoError(t, err)
	require.Equal(t, 7, inv.RoomID)
	require.Equal(t, models.InviteStatusPending, inv.Status)
	inviteAPI.AssertExpectations(t)
}

func TestSendInviteRejectsBadTargetBeforeNetwork(t *testing.T) {
	w, inviteAPI, rec := setupWorkflow()

	for _, target := range []string{"", "abc", "-3", "0", "1"} {
		_, err := w.SendInvite(context.Background(), target, "")
		require.ErrorIs(t, err, ErrInvalidTarget, target)
	}
	require.Len(t, rec.Alerts(), 5)
	inviteAPI.AssertNotCalled(t, "SendInvite", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendInviteFailureAlerts(t *testing.T) {
	w, inviteAPI, rec := setupWorkflow()
	inviteAPI.On("SendInvite", mock.Anything, 9, "").Return(nil, &api.Error{StatusCode: http.StatusNotFound, Message: "user not found"}).Once()

	_, err := w.SendInvite(context.Background(), "9", "")
	require.Error(t, err)
	require.Equal(t, []string{"user not found"}, rec.Alerts())
}

func TestListMyInviteRoomsClassifies(t *testing.T) {
	w, inviteAPI, _ := setupWorkflow()
	inviteAPI.On("ListMyInviteRooms", mock.Anything).Return([]models.Room{
		{ID: 1, Name: "INVITE:1-2"},
		{ID: 2, Name: "DM:1-3", LastMessage: "see you"},
		{ID: 3, Name: "lobby"},
		{ID: 4, Name: "INVITE:1-4", Status: "accepted"},
	}, nil).Once()

	rooms, err := w.ListMyInviteRooms(context.Background())
	require.NoError(t, err)
	got := make([]models.RoomStatus, 0, len(rooms))
	for _, r := range rooms {
		got = append(got, r.DerivedStatus)
	}
	require.Equal(t, []models.RoomStatus{
		models.RoomStatusPending,
		models.RoomStatusActive,
		models.RoomStatusUnknown,
		models.RoomStatusActive,
	}, got)
}

func TestListPendingKeepsOnlyPending(t *testing.T) {
	w, inviteAPI, _ := setupWorkflow()
	loadPending(t, w, inviteAPI, []models.Invitation{
		{RoomID: 1, Status: models.InviteStatusPending},
		{RoomID: 2, Status: models.InviteStatusAccepted},
		{RoomID: 3},
	})

	pending := w.Pending()
	require.Len(t, pending, 2)
	require.Equal(t, 1, pending[0].RoomID)
	require.Equal(t, 3, pending[1].RoomID)
	require.Equal(t, models.InviteStatusPending, pending[1].Status)
}

func TestAcceptRemovesExactlyOnce(t *testing.T) {
	w, inviteAPI, _ := setupWorkflow()
	loadPending(t, w, inviteAPI, []models.Invitation{{RoomID: 1}, {RoomID: 2}})
	inviteAPI.On("RespondInvite", mock.Anything, 1, true).Return(nil).Once()

	require.NoError(t, w.Accept(context.Background(), 1))
	require.NoError(t, w.Accept(context.Background(), 1))

	pending := w.Pending()
	require.Len(t, pending, 1)
	require.Equal(t, 2, pending[0].RoomID)
	require.Equal(t, models.InviteStatusAccepted, w.Status(1))
	inviteAPI.AssertNumberOfCalls(t, "RespondInvite", 1)
}

func TestDeclineAfterAcceptIsRejected(t *testing.T) {
	w, inviteAPI, rec := setupWorkflow()
	loadPending(t, w, inviteAPI, []models.Invitation{{RoomID: 1}})
	inviteAPI.On("RespondInvite", mock.Anything, 1, true).Return(nil).Once()

	require.NoError(t, w.Accept(context.Background(), 1))
	require.ErrorIs(t, w.Decline(context.Background(), 1), ErrInvitationResolved)
	require.Equal(t, []string{"invitation already resolved"}, rec.Alerts())
	inviteAPI.AssertNotCalled(t, "RespondInvite", mock.Anything, 1, false)
}

func TestDeclineRemovesFromPending(t *testing.T) {
	w, inviteAPI, _ := setupWorkflow()
	loadPending(t, w, inviteAPI, []models.Invitation{{RoomID: 5}})
	inviteAPI.On("RespondInvite", mock.Anything, 5, false).Return(nil).Once()

	require.NoError(t, w.Decline(context.Background(), 5))
	require.Empty(t, w.Pending())
	require.Equal(t, models.InviteStatusDeclined, w.Status(5))
}

func TestAcceptForbiddenSurfacesServerMessage(t *testing.T) {
	w, inviteAPI, rec := setupWorkflow()
	loadPending(t, w, inviteAPI, []models.Invitation{{RoomID: 1}})
	inviteAPI.On("RespondInvite", mock.Anything, 1, true).
		Return(&api.Error{StatusCode: http.StatusForbidden, Message: "you are not the invitee"}).Once()

	require.Error(t, w.Accept(context.Background(), 1))
	require.Equal(t, []string{"you are not the invitee"}, rec.Alerts())
	require.Len(t, w.Pending(), 1)
	require.Equal(t, models.InviteStatusPending, w.Status(1))
}

func TestFailedResponseCanBeRetried(t *testing.T) {
	w, inviteAPI, _ := setupWorkflow()
	loadPending(t, w, inviteAPI, []models.Invitation{{RoomID: 1}})
	inviteAPI.On("RespondInvite", mock.Anything, 1, false).Return(assert.AnError).Once()
	inviteAPI.On("RespondInvite", mock.Anything, 1, false).Return(nil).Once()

	require.Error(t, w.Decline(context.Background(), 1))
	require.NoError(t, w.Decline(context.Background(), 1))
	require.Empty(t, w.Pending())
}

func TestRespondWhileInFlight(t *testing.T) {
	w, inviteAPI, _ := setupWorkflow()
	var inner error
	inviteAPI.On("RespondInvite", mock.Anything, 1, true).Run(func(mock.Arguments) {
		inner = w.Decline(context.Background(), 1)
	}).Return(nil).Once()

	require.NoError(t, w.Accept(context.Background(), 1))
	require.ErrorIs(t, inner, ErrInFlight)
}

func TestResponseAfterCloseLeavesPendingUntouched(t *testing.T) {
	w, inviteAPI, _ := setupWorkflow()
	loadPending(t, w, inviteAPI, []models.Invitation{{RoomID: 1}})
	inviteAPI.On("RespondInvite", mock.Anything, 1, true).Run(func(mock.Arguments) {
		w.Close()
	}).Return(nil).Once()

	require.ErrorIs(t, w.Accept(context.Background(), 1), ErrClosed)
	require.Len(t, w.Pending(), 1)
}
