package channel

import (
	"sync"

	"chat-client/internal/models"
)

// Transcript is the ordered list of messages shown for one room. Entries
// are kept in the order they were appended.
type Transcript struct {
	mu       sync.Mutex
	entries  []models.TranscriptEntry
	onAppend func(newest models.TranscriptEntry, total int)
}

// Append adds entry at the end and then runs the scroll hook.
func (t *Transcript) Append(entry models.TranscriptEntry) {
	t.mu.Lock()
	t.entries = append(t.entries, entry)
	total := len(t.entries)
	hook := t.onAppend
	t.mu.Unlock()

	if hook != nil {
		hook(entry, total)
	}
}

// Entries returns a copy of the transcript.
func (t *Transcript) Entries() []models.TranscriptEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.TranscriptEntry(nil), t.entries...)
}

func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
