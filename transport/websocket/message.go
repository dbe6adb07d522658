package websocket

import "encoding/json"

// Message is an inbound frame: an action name and its raw payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// session is the per-connection state, owned by the connection's reader loop.
type session struct {
	clientID string
	// chat room -> nickname used to join it
	rooms map[string]string
}

func newSession(clientID string) *session {
	return &session{
		clientID: clientID,
		rooms:    make(map[string]string),
	}
}
