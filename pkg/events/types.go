package events

import "encoding/json"

// Event name constants
const (
	SessionStep   = "session.step"
	SessionStatus = "session.status"
)

// Event is a generic console event, fanned out to SSE subscribers.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// SessionStepEvent is the typed payload for session.step, published on every
// calibration workflow transition (Setup -> Capture -> Results -> Setup).
type SessionStepEvent struct {
	SessionID string `json:"sessionId"`
	CameraID  string `json:"cameraId,omitempty"`
	From      string `json:"from"`
	To        string `json:"to"`
	Message   string `json:"message,omitempty"`
	Ts        int64  `json:"ts"`
}

// SessionStatusEvent is the typed payload for session.status. The console
// keeps a single current status message; each event replaces the previous one.
type SessionStatusEvent struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	Severity  string `json:"severity"`
	Ts        int64  `json:"ts"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is
// empty, it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.SessionStepEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.From, payload.To)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
