package websocket

import "encoding/json"

// Client frame commands.
const (
	CommandConnect     = "CONNECT"
	CommandSubscribe   = "SUBSCRIBE"
	CommandUnsubscribe = "UNSUBSCRIBE"
	CommandSend        = "SEND"
)

// Application destinations (client -> server operations).
const (
	AppSendDirect     = "/app/chat.direct"
	AppSendChallenge  = "/app/chat.challenge"
	AppSendMentorship = "/app/chat.mentorship"
	AppJoin           = "/app/chat.join"
	AppLeave          = "/app/chat.leave"
)

// Frame is the client-to-server frame, one JSON object per websocket message.
type Frame struct {
	Command     string            `json:"command"`
	Id          string            `json:"id,omitempty"`
	Destination string            `json:"destination,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Body        json.RawMessage   `json:"body,omitempty"`
}

// PresenceRequest is the body of join/leave frames; exactly one of the two
// ids selects the shared topic the notice goes to.
type PresenceRequest struct {
	ChallengeId  int64 `json:"challengeId,omitempty"`
	MentorshipId int64 `json:"mentorshipId,omitempty"`
}
