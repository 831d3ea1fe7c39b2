package ws

import "encoding/json"

// Frame commands sent by the server.
const (
	FrameMessage   = "MESSAGE"
	FrameConnected = "CONNECTED"
	FrameError     = "ERROR"
)

// Envelope is the server-to-client frame: published messages carry their
// destination so a session multiplexing several subscriptions can tell the
// streams apart.
type Envelope struct {
	Command       string          `json:"command"`
	Destination   string          `json:"destination,omitempty"`
	Body          json.RawMessage `json:"body,omitempty"`
	Message       string          `json:"message,omitempty"`
	Authenticated bool            `json:"authenticated,omitempty"`
}

// MessageEnvelope wraps a body for publication to destination.
func MessageEnvelope(destination string, body any) ([]byte, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Command:     FrameMessage,
		Destination: destination,
		Body:        raw,
	})
}

func ConnectedEnvelope(authenticated bool) []byte {
	payload, _ := json.Marshal(Envelope{
		Command:       FrameConnected,
		Authenticated: authenticated,
	})
	return payload
}

func ErrorEnvelope(message string) []byte {
	payload, _ := json.Marshal(Envelope{
		Command: FrameError,
		Message: message,
	})
	return payload
}
