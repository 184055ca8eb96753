package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

var errEmptyFrame = errors.New("frame has no text")

// OutgoingMessage is the frame written to the live channel.
type OutgoingMessage struct {
	SenderID int    `json:"senderId"`
	RoomKey  string `json:"roomKey"`
	Text     string `json:"text"`
}

// IncomingMessage is a broadcast frame received from the live channel.
type IncomingMessage struct {
	UserID  int       `json:"userId"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sentAt"`
}

// TranscriptEntry is one rendered line of a room transcript.
type TranscriptEntry struct {
	SenderID int       `json:"senderId,omitempty" db:"sender_id"`
	Text     string    `json:"text" db:"text"`
	IsMine   bool      `json:"isMine" db:"is_mine"`
	Time     time.Time `json:"time" db:"sent_at"`
}

type wireFrame struct {
	UserID   json.RawMessage `json:"userId"`
	SenderID json.RawMessage `json:"senderId"`
	Message  *string         `json:"message"`
	Text     *string         `json:"text"`
	SentAt   json.RawMessage `json:"sentAt"`
}

// DecodeIncoming parses a broadcast frame. Both the broadcast field names
// (userId, message) and the outgoing ones (senderId, text) are accepted.
// Sender ids may arrive as numbers or numeric strings; an unreadable id
// leaves UserID zero. A missing or unparsable sentAt resolves to receivedAt.
func DecodeIncoming(payload []byte, receivedAt time.Time) (IncomingMessage, error) {
	var frame wireFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		return IncomingMessage{}, err
	}

	msg := IncomingMessage{SentAt: receivedAt}
	switch {
	case frame.Message != nil:
		msg.Message = *frame.Message
	case frame.Text != nil:
		msg.Message = *frame.Text
	default:
		return IncomingMessage{}, errEmptyFrame
	}
	if id, ok := parseUserID(frame.UserID); ok {
		msg.UserID = id
	} else if id, ok := parseUserID(frame.SenderID); ok {
		msg.UserID = id
	}
	if ts, ok := parseSentAt(frame.SentAt); ok {
		msg.SentAt = ts
	}
	return msg, nil
}

func parseUserID(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(text)
	}
	id, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseSentAt(raw json.RawMessage) (time.Time, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.TrimSuffix(string(raw), ".0"), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
