package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp serializes as epoch milliseconds, the format browser-saved
// invoices use. It also accepts RFC 3339 strings and numeric strings.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, t.UnixMilli(), 10), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*t = Timestamp{}
		return nil
	}

	if raw[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return fmt.Errorf("decode timestamp: %w", err)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			*t = Timestamp{}
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if parsed, err := time.Parse(layout, value); err == nil {
				*t = NewTimestamp(parsed)
				return nil
			}
		}
		raw = value
	}

	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", raw)
	}
	*t = NewTimestamp(time.UnixMilli(int64(ms)))
	return nil
}
