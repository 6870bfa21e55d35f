package stream

import (
	json "github.com/goccy/go-json"
)

// Frame renders a payload as an SSE frame: "data: <JSON>\n\n".
func Frame(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	frame := make([]byte, 0, len(b)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, b...)
	frame = append(frame, "\n\n"...)
	return frame, nil
}

// Event is a typed frame envelope. The type parameter pins the payload shape
// at the call site instead of trusting a bare map.
type Event[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data,omitempty"`
}

func (e Event[T]) Frame() ([]byte, error) {
	return Frame(e)
}

// Connected is the first frame a subscriber receives.
type Connected struct {
	Type              string `json:"type"`
	ConnectionID      string `json:"connectionId"`
	ActiveConnections int    `json:"activeConnections"`
}

func ConnectedFrame(connectionID string, active int) ([]byte, error) {
	return Frame(Connected{
		Type:              "connected",
		ConnectionID:      connectionID,
		ActiveConnections: active,
	})
}

// PingFrame is the keep-alive frame sent every ping interval.
var PingFrame = []byte("data: {\"type\":\"ping\"}\n\n")
