package event

import (
	"encoding/json"
	"time"
)

// TimestampFormat is ISO 8601 in UTC with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Frame is one unit written to a subscriber. Raw holds the SSE wire bytes;
// JSON holds the envelope for data frames and is nil for comment frames.
// Frames are shared between subscribers and must not be modified.
type Frame struct {
	Raw  []byte
	JSON []byte
}

// IsComment reports whether the frame is an SSE comment (connect or heartbeat).
func (f Frame) IsComment() bool {
	return f.JSON == nil
}

// Comment builds a ": <text>" comment frame.
func Comment(text string) Frame {
	return Frame{Raw: []byte(": " + text + "\n\n")}
}

var (
	connectedFrame = Comment("connected")
	heartbeatFrame = Comment("heartbeat")
)

// NewEnvelope stamps payload with the current time.
func NewEnvelope(t time.Time, eventType EventType, payload any) Envelope {
	return Envelope{
		Timestamp: t.UTC().Format(TimestampFormat),
		Type:      eventType,
		Payload:   payload,
	}
}

// EncodeData encodes env as a single "data: <json>" frame. encoding/json
// escapes newlines, so the payload always fits on one line.
func EncodeData(env Envelope) (Frame, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return Frame{}, err
	}

	raw := make([]byte, 0, len(data)+8)
	raw = append(raw, "data: "...)
	raw = append(raw, data...)
	raw = append(raw, "\n\n"...)
	return Frame{Raw: raw, JSON: data}, nil
}
