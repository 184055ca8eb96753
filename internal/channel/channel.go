package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	"chat-client/internal/logging"
	"chat-client/internal/models"
	"chat-client/internal/observability"
	"chat-client/internal/session"
)

var (
	ErrNotOpen        = errors.New("channel is not open")
	ErrAlreadyOpen    = errors.New("channel already open")
	ErrSendBufferFull = errors.New("channel send buffer full")
	ErrClosed         = errors.New("channel closed")
)

const (
	chatPath          = "/ws/chat"
	eventsRoutingKey  = "channel_events.chat"
	archiveTimeout    = 5 * time.Second
	defaultSendBuffer = 64
)

// Archiver stores transcript entries outside the process.
type Archiver interface {
	Append(ctx context.Context, roomKey string, entry models.TranscriptEntry) error
}

// Config describes one room channel.
type Config struct {
	URL            string
	RoomKey        string
	MaxRetries     uint64
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	SendBuffer     int
}

func (c Config) withDefaults() Config {
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = 2 * c.PingInterval
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 64 * 1024
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	return c
}

type Option func(*Channel)

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Channel) { c.dialer = d }
}

func WithArchive(a Archiver) Option {
	return func(c *Channel) { c.archive = a }
}

// WithStateHook is called on every state change, including reconnect attempts.
func WithStateHook(fn func(State)) Option {
	return func(c *Channel) { c.onState = fn }
}

// WithScrollHook is called after every transcript append with the newest entry.
func WithScrollHook(fn func(newest models.TranscriptEntry, total int)) Option {
	return func(c *Channel) { c.transcript.onAppend = fn }
}

// Channel owns the single live connection of one room view.
type Channel struct {
	cfg        Config
	sess       session.Session
	dialer     *websocket.Dialer
	archive    Archiver
	onState    func(State)
	transcript *Transcript

	mu     sync.Mutex
	state  State
	link   *link
	closed bool
	gen    uint64
	life   context.Context
	cancel context.CancelFunc

	hookMu sync.Mutex
}

// New builds a closed channel for cfg.RoomKey on behalf of sess.
func New(cfg Config, sess session.Session, opts ...Option) *Channel {
	c := &Channel{
		cfg:        cfg.withDefaults(),
		sess:       sess,
		dialer:     websocket.DefaultDialer,
		transcript: &Transcript{},
		state:      StateClosed,
		closed:     true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Channel) RoomKey() string { return c.cfg.RoomKey }

func (c *Channel) Transcript() *Transcript { return c.transcript }

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Open connects the channel. It returns once the connection is open or the
// first dial failed; dropped connections are re-established in the background.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateClosed {
		c.mu.Unlock()
		return ErrAlreadyOpen
	}
	c.closed = false
	c.gen++
	gen := c.gen
	c.life, c.cancel = context.WithCancel(context.Background())
	c.state = StateConnecting
	c.mu.Unlock()
	c.emitState(StateConnecting)

	l, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		if c.gen != gen || c.closed {
			// Closed, and possibly reopened, while dialing.
			c.mu.Unlock()
			return err
		}
		c.closed = true
		c.cancel()
		c.state = StateClosed
		c.mu.Unlock()
		c.emitState(StateClosed)
		return err
	}
	return c.attach(l, gen)
}

// Close tears the connection down and stops any reconnect in progress.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancel()
	l := c.link
	c.link = nil
	c.state = StateClosed
	c.mu.Unlock()

	if l != nil {
		_ = l.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.cfg.WriteWait))
		l.shutdown()
	}
	c.emitState(StateClosed)
	c.publish(context.Background(), "channel_close", l, "closed by user")
	logger := logging.L()
	logger.Info().Str(logging.FieldRoom, c.cfg.RoomKey).Msg("channel closed")
	return nil
}

// Send transmits text. Blank text is ignored. Nothing is queued while the
// channel is not open; the message appears in the transcript only once the
// server echoes it back.
func (c *Channel) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	l, state := c.link, c.state
	c.mu.Unlock()
	if state != StateOpen || l == nil {
		observability.IncChannelEvent("send_rejected")
		return ErrNotOpen
	}

	payload, err := json.Marshal(models.OutgoingMessage{
		SenderID: c.sess.UserID,
		RoomKey:  c.cfg.RoomKey,
		Text:     text,
	})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	select {
	case <-l.done:
		return ErrNotOpen
	default:
	}
	select {
	case l.send <- payload:
		observability.IncChannelEvent("frame_out")
		return nil
	case <-l.done:
		return ErrNotOpen
	default:
		return ErrSendBufferFull
	}
}

func (c *Channel) endpoint() (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse channel url: %w", err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + chatPath
	q := u.Query()
	q.Set("roomKey", c.cfg.RoomKey)
	q.Set("userId", strconv.Itoa(c.sess.UserID))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Channel) dial(ctx context.Context) (l *link, err error) {
	ctx, span := observability.StartSpan(ctx, "ws.connect",
		attribute.String("chat.room_key", c.cfg.RoomKey),
	)
	defer func() { observability.EndSpan(span, err) }()

	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if c.sess.Token != "" {
		header.Set("Cookie", (&http.Cookie{Name: c.sess.Cookie(), Value: c.sess.Token}).String())
	}

	conn, resp, err := c.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", chatPath, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", chatPath, err)
	}

	return &link{
		id:          uuid.NewString(),
		conn:        conn,
		send:        make(chan []byte, c.cfg.SendBuffer),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}, nil
}

// attach installs l as the live link unless the lifetime gen belongs to was
// closed in the meantime.
func (c *Channel) attach(l *link, gen uint64) error {
	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		l.shutdown()
		return ErrClosed
	}
	c.link = l
	c.state = StateOpen
	c.mu.Unlock()

	observability.IncChannelsOpen()
	observability.IncChannelEvent("open")
	c.emitState(StateOpen)
	c.publish(context.Background(), "channel_open", l, "")
	logger := logging.L()
	logger.Info().Str(logging.FieldRoom, c.cfg.RoomKey).Str("conn_id", l.id).Msg("channel open")

	go c.writePump(l)
	go c.readPump(l)
	return nil
}

func (c *Channel) readPump(l *link) {
	var reason error
	defer func() { c.linkDown(l, reason) }()

	l.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = l.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	l.conn.SetPongHandler(func(string) error {
		return l.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	for {
		_, payload, err := l.conn.ReadMessage()
		if err != nil {
			reason = err
			return
		}
		_ = l.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		c.deliver(payload)
	}
}

func (c *Channel) writePump(l *link) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		l.shutdown()
	}()

	for {
		select {
		case <-l.done:
			return
		case payload := <-l.send:
			_ = l.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := l.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logger := logging.L()
				logger.Warn().Err(err).Str(logging.FieldRoom, c.cfg.RoomKey).Msg("channel write failed")
				return
			}
		case <-ticker.C:
			_ = l.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// deliver appends one received frame to the transcript. Frames that do not
// decode are shown verbatim as coming from the other party.
func (c *Channel) deliver(payload []byte) {
	now := time.Now()
	observability.IncChannelEvent("frame_in")

	var entry models.TranscriptEntry
	msg, err := models.DecodeIncoming(payload, now)
	if err != nil {
		observability.IncChannelEvent("decode_fallback")
		logger := logging.L()
		logger.Debug().Err(err).Str(logging.FieldRoom, c.cfg.RoomKey).Msg("raw frame")
		entry = models.TranscriptEntry{Text: string(payload), IsMine: false, Time: now}
	} else {
		entry = models.TranscriptEntry{
			SenderID: msg.UserID,
			Text:     msg.Message,
			IsMine:   msg.UserID == c.sess.UserID,
			Time:     msg.SentAt,
		}
	}

	c.transcript.Append(entry)

	if c.archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		if err := c.archive.Append(ctx, c.cfg.RoomKey, entry); err != nil {
			logger := logging.L()
			logger.Warn().Err(err).Str(logging.FieldRoom, c.cfg.RoomKey).Msg("archive append failed")
		}
		cancel()
	}
}

func (c *Channel) linkDown(l *link, reason error) {
	l.shutdown()
	observability.DecChannelsOpen()

	c.mu.Lock()
	if c.link != l || c.closed {
		c.mu.Unlock()
		return
	}
	c.link = nil
	gen := c.gen
	retry := c.cfg.MaxRetries > 0
	if retry {
		c.state = StateReconnecting
	} else {
		c.state = StateClosed
		c.closed = true
		c.cancel()
	}
	c.mu.Unlock()

	text := ""
	if reason != nil {
		text = reason.Error()
	}
	logger := logging.L()
	logger.Warn().Str(logging.FieldRoom, c.cfg.RoomKey).Str("conn_id", l.id).Str("reason", text).Msg("channel dropped")
	observability.IncChannelEvent("drop")
	c.publish(context.Background(), "channel_drop", l, text)

	if !retry {
		c.emitState(StateClosed)
		return
	}
	c.emitState(StateReconnecting)
	go c.reconnect(gen)
}

func (c *Channel) reconnect(gen uint64) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	life := c.life
	c.mu.Unlock()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.InitialBackoff
	exp.MaxInterval = c.cfg.MaxBackoff
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, c.cfg.MaxRetries), life)

	var l *link
	err := backoff.Retry(func() error {
		observability.IncChannelEvent("reconnect_attempt")
		next, err := c.dial(life)
		if err != nil {
			logger := logging.L()
			logger.Debug().Err(err).Str(logging.FieldRoom, c.cfg.RoomKey).Msg("reconnect attempt failed")
			return err
		}
		l = next
		return nil
	}, policy)

	if err == nil {
		if attachErr := c.attach(l, gen); attachErr == nil {
			observability.IncChannelEvent("reconnected")
		}
		return
	}

	c.mu.Lock()
	if c.closed || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	c.state = StateClosed
	c.mu.Unlock()

	observability.IncChannelEvent("reconnect_exhausted")
	logger := logging.L()
	logger.Error().Err(err).Str(logging.FieldRoom, c.cfg.RoomKey).Msg("channel reconnect gave up")
	c.emitState(StateClosed)
	c.publish(context.Background(), "channel_reconnect_exhausted", nil, err.Error())
}

func (c *Channel) emitState(s State) {
	if c.onState == nil {
		return
	}
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.onState(s)
}

func (c *Channel) publish(ctx context.Context, event string, l *link, reason string) {
	payload := map[string]any{
		"room_key": c.cfg.RoomKey,
		"user_id":  c.sess.UserID,
		"event":    event,
		"reason":   reason,
	}
	if l != nil {
		payload["conn_id"] = l.id
		payload["duration_ms"] = time.Since(l.connectedAt).Milliseconds()
	}
	_ = observability.PublishEvent(ctx, eventsRoutingKey, observability.EventEnvelope{
		EventType: "channel_events",
		EventName: event,
		TraceID:   observability.TraceID(ctx),
		Payload:   payload,
	})
}

type link struct {
	id          string
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	once        sync.Once
	connectedAt time.Time
}

func (l *link) shutdown() {
	l.once.Do(func() {
		close(l.done)
		_ = l.conn.Close()
	})
}
