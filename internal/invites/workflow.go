package invites

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"chat-client/internal/api"
	"chat-client/internal/logging"
	"chat-client/internal/models"
	"chat-client/internal/telemetry"
)

var (
	ErrInvalidTarget      = errors.New("target user id must be a positive number")
	ErrInvitationResolved = errors.New("invitation already resolved")
	ErrInFlight           = errors.New("invitation response already in flight")
	ErrClosed             = errors.New("invitation view closed")
)

// InviteAPI is the subset of the backend the workflow talks to.
type InviteAPI interface {
	SendInvite(ctx context.Context, targetUserID int, message string) (models.Invitation, error)
	ListMyInviteRooms(ctx context.Context) ([]models.Room, error)
	ListPendingInvites(ctx context.Context) ([]models.Invitation, error)
	RespondInvite(ctx context.Context, roomID int, accept bool) error
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// Workflow sends invitations and resolves the ones addressed to the user.
// Each invitation moves from pending to accepted or declined exactly once.
type Workflow struct {
	api    InviteAPI
	alert  Alerter
	audit  *telemetry.AuditEmitter
	userID int

	mu       sync.Mutex
	pending  []models.Invitation
	resolved map[int]models.InviteStatus
	inFlight map[int]bool

	life context.Context
	stop context.CancelFunc
}

func New(inviteAPI InviteAPI, alert Alerter, audit *telemetry.AuditEmitter, userID int) *Workflow {
	life, stop := context.WithCancel(context.Background())
	return &Workflow{
		api:      inviteAPI,
		alert:    alert,
		audit:    audit,
		userID:   userID,
		resolved: map[int]models.InviteStatus{},
		inFlight: map[int]bool{},
		life:     life,
		stop:     stop,
	}
}

// Close ends the view lifetime; later responses do not touch state.
func (w *Workflow) Close() {
	w.stop()
}

// ParseTarget coerces user input into a user id.
func ParseTarget(raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, ErrInvalidTarget
	}
	return id, nil
}

// SendInvite invites target (a numeric user id as typed by the user) with an
// optional message.
func (w *Workflow) SendInvite(ctx context.Context, target, message string) (models.Invitation, error) {
	targetID, err := ParseTarget(target)
	if err != nil {
		w.notify(ErrInvalidTarget.Error())
		return models.Invitation{}, err
	}
	if targetID == w.userID {
		w.notify("you cannot invite yourself")
		return models.Invitation{}, ErrInvalidTarget
	}

	ctx, done := w.scope(telemetry.NewRequest(ctx))
	defer done()

	inv, err := w.api.SendInvite(ctx, targetID, strings.TrimSpace(message))
	if w.life.Err() != nil {
		return models.Invitation{}, ErrClosed
	}
	if err != nil {
		w.notify(api.UserMessage(err, "failed to send invitation"))
		w.emitAudit(ctx, "ERROR", "Invitation send failed", 0)
		return models.Invitation{}, fmt.Errorf("send invite: %w", err)
	}

	w.emitAudit(ctx, "INFO", "Invitation sent", inv.RoomID)
	return inv, nil
}

// ListMyInviteRooms returns every invitation room of the user, sent or
// received, with its derived status.
func (w *Workflow) ListMyInviteRooms(ctx context.Context) ([]models.InviteRoom, error) {
	ctx, done := w.scope(ctx)
	defer done()

	rooms, err := w.api.ListMyInviteRooms(ctx)
	if w.life.Err() != nil {
		return nil, ErrClosed
	}
	if err != nil {
		w.notify(api.UserMessage(err, "failed to load invitations"))
		return nil, fmt.Errorf("list invite rooms: %w", err)
	}

	out := make([]models.InviteRoom, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, models.InviteRoom{Room: r, DerivedStatus: r.Classify()})
	}
	return out, nil
}

// ListPendingForMe refreshes the local list of pending invitations
// addressed to the user.
func (w *Workflow) ListPendingForMe(ctx context.Context) ([]models.Invitation, error) {
	ctx, done := w.scope(ctx)
	defer done()

	invites, err := w.api.ListPendingInvites(ctx)
	if w.life.Err() != nil {
		return nil, ErrClosed
	}
	if err != nil {
		w.notify(api.UserMessage(err, "failed to load pending invitations"))
		return nil, fmt.Errorf("list pending invites: %w", err)
	}

	pending := make([]models.Invitation, 0, len(invites))
	for _, inv := range invites {
		if !inv.IsPending() {
			continue
		}
		if inv.Status == "" {
			inv.Status = models.InviteStatusPending
		}
		pending = append(pending, inv)
	}

	w.mu.Lock()
	w.pending = pending
	w.mu.Unlock()
	return w.Pending(), nil
}

// Pending returns a copy of the local pending list.
func (w *Workflow) Pending() []models.Invitation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]models.Invitation(nil), w.pending...)
}

// Status returns the locally known status of the invitation for roomID.
func (w *Workflow) Status(roomID int) models.InviteStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	if status, ok := w.resolved[roomID]; ok {
		return status
	}
	return models.InviteStatusPending
}

func (w *Workflow) Accept(ctx context.Context, roomID int) error {
	return w.respond(ctx, roomID, models.InviteStatusAccepted)
}

func (w *Workflow) Decline(ctx context.Context, roomID int) error {
	return w.respond(ctx, roomID, models.InviteStatusDeclined)
}

func (w *Workflow) respond(ctx context.Context, roomID int, target models.InviteStatus) error {
	w.mu.Lock()
	if status, ok := w.resolved[roomID]; ok {
		w.mu.Unlock()
		if status == target {
			return nil
		}
		w.notify(ErrInvitationResolved.Error())
		return ErrInvitationResolved
	}
	if w.inFlight[roomID] {
		w.mu.Unlock()
		return ErrInFlight
	}
	w.inFlight[roomID] = true
	w.mu.Unlock()

	ctx, done := w.scope(telemetry.NewRequest(ctx))
	defer done()

	accept := target == models.InviteStatusAccepted
	err := w.api.RespondInvite(ctx, roomID, accept)

	w.mu.Lock()
	delete(w.inFlight, roomID)
	if w.life.Err() != nil {
		w.mu.Unlock()
		return ErrClosed
	}
	if err != nil {
		w.mu.Unlock()
		verb := "decline"
		if accept {
			verb = "accept"
		}
		w.notify(api.UserMessage(err, "failed to "+verb+" invitation"))
		w.emitAudit(ctx, "ERROR", "Invitation "+verb+" failed", roomID)
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Int("room_id", roomID).Msg("invitation response failed")
		return fmt.Errorf("%s invite: %w", verb, err)
	}

	w.resolved[roomID] = target
	for i, inv := range w.pending {
		if inv.RoomID == roomID {
			w.pending = append(w.pending[:i:i], w.pending[i+1:]...)
			break
		}
	}
	w.mu.Unlock()

	w.emitAudit(ctx, "INFO", "Invitation "+string(target), roomID)
	return nil
}

func (w *Workflow) notify(message string) {
	if w.alert != nil {
		w.alert.Alert(message)
	}
}

func (w *Workflow) emitAudit(ctx context.Context, level, text string, roomID int) {
	if w.audit == nil {
		return
	}
	userID := w.userID
	w.audit.Emit(ctx, level, text, roomID, &userID)
}

func (w *Workflow) scope(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(w.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
