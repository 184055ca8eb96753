// Package console is the terminal front end. It renders the directory,
// answers its alert/confirm/navigate hooks and owns the channel of the room
// being viewed.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"chat-client/internal/channel"
	"chat-client/internal/directory"
	"chat-client/internal/invites"
	"chat-client/internal/logging"
	"chat-client/internal/models"
	"chat-client/internal/roomview"
)

const (
	historyLimit = 50
	timeLayout   = "15:04"
)

var errQuit = errors.New("quit")

// ChannelFactory builds the channel for one room view.
type ChannelFactory func(roomKey string, opts ...channel.Option) *channel.Channel

// History reads archived transcripts.
type History interface {
	ListByRoom(ctx context.Context, roomKey string, limit int) ([]models.TranscriptEntry, error)
}

type Console struct {
	out   io.Writer
	outMu sync.Mutex
	lines chan string
	input io.Reader

	dir        *directory.Directory
	inv        *invites.Workflow
	newChannel ChannelFactory
	history    History
	ctx        context.Context

	mu   sync.Mutex
	room *models.Room
	ch   *channel.Channel
}

// New returns a console reading commands from in and writing to out. Bind
// must be called before Run.
func New(in io.Reader, out io.Writer, newChannel ChannelFactory, history History) *Console {
	return &Console{
		out:        out,
		input:      in,
		lines:      make(chan string),
		newChannel: newChannel,
		history:    history,
		ctx:        context.Background(),
	}
}

// Bind attaches the controllers the console drives. They are built with the
// console as their hooks, hence the two-step setup.
func (c *Console) Bind(dir *directory.Directory, inv *invites.Workflow) {
	c.dir = dir
	c.inv = inv
}

// Run processes commands until quit, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.ctx = ctx
	defer c.leave()

	go c.scan()

	c.printf("type 'help' for commands\n")
	_ = c.dir.Load(ctx)
	c.printRooms()

	for {
		line, ok := c.readLine()
		if !ok {
			return ctx.Err()
		}
		if err := c.dispatch(ctx, line); errors.Is(err, errQuit) {
			return nil
		}
	}
}

func (c *Console) scan() {
	defer close(c.lines)
	scanner := bufio.NewScanner(c.input)
	for scanner.Scan() {
		select {
		case c.lines <- scanner.Text():
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Console) readLine() (string, bool) {
	select {
	case line, ok := <-c.lines:
		return line, ok
	case <-c.ctx.Done():
		return "", false
	}
}

func (c *Console) dispatch(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "quit", "exit":
		return errQuit
	case "help":
		c.printf("%s", helpText)
	case "rooms":
		c.report(c.dir.Load(ctx))
		c.printRooms()
	case "toggle":
		c.report(c.dir.Toggle(ctx))
		c.printRooms()
	case "create":
		if room, err := c.dir.CreateRoom(ctx, rest); err == nil {
			c.printf("created %s\n", roomview.FromRoom(room).Line())
		}
	case "enter":
		id, ok := c.roomArg(rest)
		if ok {
			c.report(c.dir.EnterRoom(ctx, id))
		}
	case "delete":
		id, ok := c.roomArg(rest)
		if ok {
			if err := c.dir.DeleteRoom(ctx, id); err == nil {
				c.printf("deleted room #%d\n", id)
			} else {
				c.report(err)
			}
		}
	case "invite":
		target, message, _ := strings.Cut(rest, " ")
		if inv, err := c.inv.SendInvite(ctx, target, message); err == nil {
			c.printf("invitation sent: room #%d, %d -> %d, %s, %s\n",
				inv.RoomID, inv.InviterID, inv.InviteeID, inv.Status, inv.CreatedAt.Format("2006-01-02 15:04"))
		}
	case "invites":
		if rooms, err := c.inv.ListMyInviteRooms(ctx); err == nil {
			c.printLines(roomview.InviteRooms(rooms).Lines())
		}
	case "pending":
		if pending, err := c.inv.ListPendingForMe(ctx); err == nil {
			c.printLines(roomview.Pending(pending).Lines())
		}
	case "accept", "decline":
		id, ok := c.roomArg(rest)
		if !ok {
			return nil
		}
		respond := c.inv.Accept
		if strings.EqualFold(cmd, "decline") {
			respond = c.inv.Decline
		}
		if err := respond(ctx, id); err == nil {
			c.printf("invitation for room #%d %s\n", id, c.inv.Status(id))
		} else {
			c.report(err)
		}
	case "leave":
		c.leave()
	case "history":
		c.printHistory(ctx)
	case "say":
		c.say(rest)
	default:
		c.say(line)
	}
	return nil
}

// report prints the errors the controllers do not surface themselves.
func (c *Console) report(err error) {
	if errors.Is(err, directory.ErrBusy) || errors.Is(err, directory.ErrCancelled) ||
		errors.Is(err, invites.ErrInFlight) {
		c.printf("%s\n", err)
	}
}

func (c *Console) roomArg(raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		c.Alert("a numeric room id is required")
		return 0, false
	}
	return id, true
}

func (c *Console) say(text string) {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	if ch == nil {
		c.printf("not in a room; 'enter <id>' first\n")
		return
	}

	switch err := ch.Send(text); {
	case errors.Is(err, channel.ErrNotOpen):
		c.printf("not connected (%s); message not sent\n", ch.State())
	case err != nil:
		c.printf("message not sent: %s\n", err)
	}
}

func (c *Console) leave() {
	c.mu.Lock()
	ch, room := c.ch, c.room
	c.ch, c.room = nil, nil
	c.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
		c.printf("left %s\n", room.DisplayName())
	}
}

func (c *Console) printRooms() {
	state := c.dir.State()
	c.printf("-- %s rooms --\n", state.Mode)
	if state.Err != "" {
		c.printf("%s\n", state.Err)
	}
	c.printLines(roomview.Rooms(state.Rooms).Lines())
}

func (c *Console) printHistory(ctx context.Context) {
	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	if ch == nil {
		c.printf("not in a room\n")
		return
	}
	if c.history == nil {
		for _, e := range ch.Transcript().Entries() {
			c.printEntry(e)
		}
		return
	}

	entries, err := c.history.ListByRoom(ctx, ch.RoomKey(), historyLimit)
	if err != nil {
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Str(logging.FieldRoom, ch.RoomKey()).Msg("history lookup failed")
		c.Alert("failed to load history")
		return
	}
	for _, e := range entries {
		c.printEntry(e)
	}
}

func (c *Console) printEntry(e models.TranscriptEntry) {
	who := "them"
	switch {
	case e.IsMine:
		who = "me"
	case e.SenderID != 0:
		who = "user " + strconv.Itoa(e.SenderID)
	}
	c.printf("[%s] %s: %s\n", e.Time.Local().Format(timeLayout), who, e.Text)
}

func (c *Console) printLines(lines []string) {
	for _, l := range lines {
		c.printf("%s\n", l)
	}
}

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

// Alert prints message prominently.
func (c *Console) Alert(message string) {
	c.printf("! %s\n", message)
}

// Confirm asks prompt and reads a y/n answer from the next input line.
func (c *Console) Confirm(prompt string) bool {
	c.printf("%s [y/N] ", prompt)
	line, ok := c.readLine()
	if !ok {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// Navigate closes the current room view, if any, and opens a channel to room.
func (c *Console) Navigate(ctx context.Context, room models.Room) {
	c.leave()

	ch := c.newChannel(strconv.Itoa(room.ID),
		channel.WithStateHook(func(s channel.State) {
			if s == channel.StateReconnecting {
				c.printf("reconnecting...\n")
			}
		}),
		channel.WithScrollHook(func(e models.TranscriptEntry, _ int) {
			c.printEntry(e)
		}),
	)

	c.printf("entering %s\n", roomview.FromRoom(room).Line())
	if err := ch.Open(ctx); err != nil {
		logger := logging.Ctx(ctx)
		logger.Warn().Err(err).Int("room_id", room.ID).Msg("channel open failed")
		c.Alert("could not connect to the room")
		return
	}

	c.mu.Lock()
	c.room, c.ch = &room, ch
	c.mu.Unlock()
}

// Snapshot is what the diagnostics listener reports.
type Snapshot struct {
	Mode         string `json:"mode"`
	Rooms        int    `json:"rooms"`
	Loading      bool   `json:"loading"`
	Error        string `json:"error,omitempty"`
	Room         string `json:"room,omitempty"`
	ChannelState string `json:"channelState"`
	Transcript   int    `json:"transcript"`
	Pending      int    `json:"pending"`
}

func (c *Console) DebugState() any {
	snap := Snapshot{ChannelState: channel.StateClosed.String()}
	if c.dir != nil {
		state := c.dir.State()
		snap.Mode = state.Mode.String()
		snap.Rooms = len(state.Rooms)
		snap.Loading = state.Loading
		snap.Error = state.Err
	}
	if c.inv != nil {
		snap.Pending = len(c.inv.Pending())
	}

	c.mu.Lock()
	ch := c.ch
	c.mu.Unlock()
	if ch != nil {
		snap.Room = ch.RoomKey()
		snap.ChannelState = ch.State().String()
		snap.Transcript = ch.Transcript().Len()
	}
	return snap
}

const helpText = `commands:
  rooms                      reload the current room list
  toggle                     switch between all rooms and my rooms
  create <name>              create a room
  enter <id>                 join and open a room
  delete <id>                delete a room you own
  invite <userId> [message]  send an interview invitation
  invites                    list my invitation rooms
  pending                    list invitations waiting for me
  accept <roomId>            accept an invitation
  decline <roomId>           decline an invitation
  say <text>                 send a message (plain text works too)
  history                    show the archived transcript
  leave                      leave the current room
  quit                       exit
`
