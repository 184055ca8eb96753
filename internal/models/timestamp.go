package models

import (
	"encoding/json"
	"time"
)

// Timestamp accepts RFC 3339 strings, zone-less ISO strings and epoch
// milliseconds, since endpoints disagree on the format.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if ts, ok := parseSentAt(json.RawMessage(data)); ok {
		t.Time = ts
		return nil
	}
	t.Time = time.Time{}
	return nil
}
