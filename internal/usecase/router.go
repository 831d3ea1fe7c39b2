package usecase

import (
	"fmt"

	"batchchat/infrastructure/ws"
	"batchchat/internal/entity"
)

// ConversationRouter resolves the destinations a message fans out to:
//
//	DIRECT     -> sender's private queue AND recipient's private queue
//	CHALLENGE  -> the shared challenge topic (single broadcast)
//	MENTORSHIP -> the shared mentorship topic (single broadcast)
//
// Direct messages go to the sender's own queue too so that other sessions
// of the same user converge; scope sends are never echoed to private queues.
type ConversationRouter struct {
	broker ws.IBroker
}

func NewConversationRouter(broker ws.IBroker) *ConversationRouter {
	return &ConversationRouter{broker: broker}
}

func (r *ConversationRouter) publishTo(destination string, response entity.ChatMessageResponse) error {
	payload, err := ws.MessageEnvelope(destination, response)
	if err != nil {
		return err
	}
	r.broker.Publish(destination, payload)
	return nil
}

func (r *ConversationRouter) Route(message entity.Message, response entity.ChatMessageResponse) error {
	switch message.ConversationKind {
	case entity.ConversationDirect:
		if err := r.publishTo(ws.UserQueue(message.SenderId), response); err != nil {
			return err
		}
		return r.publishTo(ws.UserQueue(message.RecipientId), response)
	case entity.ConversationChallenge:
		return r.publishTo(ws.ChallengeTopic(message.ChallengeId), response)
	case entity.ConversationMentorship:
		return r.publishTo(ws.MentorshipTopic(message.MentorshipId), response)
	default:
		return fmt.Errorf("unroutable conversation kind %q", message.ConversationKind)
	}
}

// Publish sends a payload to one explicit destination. Used for the
// ephemeral join/leave notices, which address their shared topic directly.
func (r *ConversationRouter) Publish(destination string, response entity.ChatMessageResponse) error {
	return r.publishTo(destination, response)
}
