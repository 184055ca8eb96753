package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"chat-client/internal/api"
	"chat-client/internal/logging"
	"chat-client/internal/models"
	"chat-client/internal/telemetry"
)

var (
	ErrEmptyRoomName = errors.New("room name is required")
	ErrNotOwner      = errors.New("only the room owner can delete it")
	ErrCancelled     = errors.New("cancelled by user")
	ErrBusy          = errors.New("room list is already loading")
	ErrClosed        = errors.New("directory closed")
)

// RoomAPI is the subset of the backend the directory talks to.
type RoomAPI interface {
	ListExploreRooms(ctx context.Context) ([]models.Room, error)
	ListMyRooms(ctx context.Context) ([]models.Room, error)
	CreateRoom(ctx context.Context, name string) (models.Room, error)
	JoinRoom(ctx context.Context, roomID int) error
	DeleteRoom(ctx context.Context, roomID int) error
}

// Alerter shows a blocking message to the user.
type Alerter interface {
	Alert(message string)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Navigator moves the user into a room view.
type Navigator interface {
	Navigate(ctx context.Context, room models.Room)
}

// Mode selects which room collection is listed.
type Mode int

const (
	ModeExplore Mode = iota
	ModeMine
)

func (m Mode) String() string {
	if m == ModeMine {
		return "mine"
	}
	return "explore"
}

func (m Mode) failureMessage() string {
	if m == ModeMine {
		return "failed to load my rooms"
	}
	return "failed to load all rooms"
}

// State is a snapshot of what the directory view renders.
type State struct {
	Mode    Mode
	Rooms   []models.Room
	Err     string
	Loading bool
}

// Hooks connects the directory to the front end.
type Hooks struct {
	Alert    Alerter
	Confirm  Confirmer
	Navigate Navigator
}

// Directory lists, creates, enters and deletes rooms. Responses that arrive
// after Close are discarded.
type Directory struct {
	api    RoomAPI
	hooks  Hooks
	audit  *telemetry.AuditEmitter
	userID int

	mu      sync.Mutex
	mode    Mode
	rooms   []models.Room
	errText string
	loading bool

	life context.Context
	stop context.CancelFunc
}

// New constructs a Directory in explore mode with an empty list.
func New(roomAPI RoomAPI, hooks Hooks, audit *telemetry.AuditEmitter, userID int) *Directory {
	life, stop := context.WithCancel(context.Background())
	return &Directory{
		api:    roomAPI,
		hooks:  hooks,
		audit:  audit,
		userID: userID,
		life:   life,
		stop:   stop,
	}
}

// Close ends the view lifetime.
func (d *Directory) Close() {
	d.stop()
}

// State returns a copy of the current view state.
func (d *Directory) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	rooms := make([]models.Room, len(d.rooms))
	copy(rooms, d.rooms)
	return State{Mode: d.mode, Rooms: rooms, Err: d.errText, Loading: d.loading}
}

// Load re-fetches the list for the current mode.
func (d *Directory) Load(ctx context.Context) error {
	d.mu.Lock()
	mode := d.mode
	d.mu.Unlock()
	return d.fetch(ctx, mode)
}

// ListExplore switches to, and fetches, all discoverable rooms.
func (d *Directory) ListExplore(ctx context.Context) error {
	return d.fetch(ctx, ModeExplore)
}

// ListMine switches to, and fetches, the rooms the user belongs to.
func (d *Directory) ListMine(ctx context.Context) error {
	return d.fetch(ctx, ModeMine)
}

// Toggle flips between explore and mine and re-fetches. Nothing is cached.
func (d *Directory) Toggle(ctx context.Context) error {
	d.mu.Lock()
	next := ModeMine
	if d.mode == ModeMine {
		next = ModeExplore
	}
	d.mu.Unlock()
	return d.fetch(ctx, next)
}

func (d *Directory) fetch(ctx context.Context, mode Mode) error {
	d.mu.Lock()
	if d.loading {
		d.mu.Unlock()
		return ErrBusy
	}
	d.loading = true
	d.mu.Unlock()

	ctx, done := d.scope(ctx)
	defer done()

	var (
		rooms []models.Room
		err   error
	)
	if mode == ModeMine {
		rooms, err = d.api.ListMyRooms(ctx)
	} else {
		rooms, err = d.api.ListExploreRooms(ctx)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.loading = false
	if d.life.Err() != nil {
		return ErrClosed
	}
	if err != nil {
		d.errText = mode.failureMessage()
		if api.IsUnauthorized(err) {
			d.errText = api.UserMessage(err, d.errText)
		}
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Str("mode", mode.String()).Msg("room list fetch failed")
		return fmt.Errorf("%s: %w", mode.failureMessage(), err)
	}
	d.errText = ""
	d.mode = mode
	d.rooms = rooms
	return nil
}

// CreateRoom validates name, creates the room and prepends it to the list.
func (d *Directory) CreateRoom(ctx context.Context, name string) (models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		d.alert(ErrEmptyRoomName.Error())
		return models.Room{}, ErrEmptyRoomName
	}

	ctx, done := d.scope(telemetry.NewRequest(ctx))
	defer done()

	room, err := d.api.CreateRoom(ctx, name)
	if d.life.Err() != nil {
		return models.Room{}, ErrClosed
	}
	if err != nil {
		d.alert(api.UserMessage(err, "failed to create room"))
		d.emitAudit(ctx, "ERROR", "Room create failed", 0)
		return models.Room{}, fmt.Errorf("create room: %w", err)
	}

	d.mu.Lock()
	d.rooms = append([]models.Room{room}, d.rooms...)
	d.mu.Unlock()

	d.emitAudit(ctx, "INFO", "Room created", room.ID)
	return room, nil
}

// EnterRoom joins the room best-effort and navigates into it regardless of
// the join outcome.
func (d *Directory) EnterRoom(ctx context.Context, roomID int) error {
	ctx, done := d.scope(ctx)
	defer done()

	if err := d.api.JoinRoom(ctx, roomID); err != nil {
		logger := logging.Ctx(ctx)
		logger.Debug().Err(err).Int("room_id", roomID).Msg("join room ignored")
	}
	if d.life.Err() != nil {
		return ErrClosed
	}

	room, ok := d.find(roomID)
	if !ok {
		room = models.Room{ID: roomID}
	}
	if d.hooks.Navigate != nil {
		d.hooks.Navigate.Navigate(ctx, room)
	}
	return nil
}

// DeleteRoom removes a room the viewer owns after confirmation.
func (d *Directory) DeleteRoom(ctx context.Context, roomID int) error {
	room, ok := d.find(roomID)
	if !ok || !room.IsOwner {
		d.alert(ErrNotOwner.Error())
		return ErrNotOwner
	}
	if d.hooks.Confirm == nil || !d.hooks.Confirm.Confirm(fmt.Sprintf("Delete room %q?", room.DisplayName())) {
		return ErrCancelled
	}

	ctx, done := d.scope(telemetry.NewRequest(ctx))
	defer done()

	err := d.api.DeleteRoom(ctx, roomID)
	if d.life.Err() != nil {
		return ErrClosed
	}
	if err != nil {
		d.alert(api.UserMessage(err, "failed to delete room"))
		d.emitAudit(ctx, "ERROR", "Room delete failed", roomID)
		return fmt.Errorf("delete room: %w", err)
	}

	d.mu.Lock()
	for i, r := range d.rooms {
		if r.ID == roomID {
			d.rooms = append(d.rooms[:i:i], d.rooms[i+1:]...)
			break
		}
	}
	d.mu.Unlock()

	d.emitAudit(ctx, "INFO", "Room deleted", roomID)
	return nil
}

func (d *Directory) find(roomID int) (models.Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.rooms {
		if r.ID == roomID {
			return r, true
		}
	}
	return models.Room{}, false
}

func (d *Directory) alert(message string) {
	if d.hooks.Alert != nil {
		d.hooks.Alert.Alert(message)
	}
}

func (d *Directory) emitAudit(ctx context.Context, level, text string, roomID int) {
	if d.audit == nil {
		return
	}
	userID := d.userID
	d.audit.Emit(ctx, level, text, roomID, &userID)
}

// scope derives a context that is also cancelled when the directory closes.
func (d *Directory) scope(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(d.life, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
