package entity

import (
	"errors"
	"time"
	"unicode/utf8"
)

// MaxContentLength is the maximum number of characters a message body may carry.
const MaxContentLength = 1000

var (
	ErrEmptyContent        = errors.New("message content cannot be empty")
	ErrContentTooLong      = errors.New("message content exceeds maximum length")
	ErrMissingRecipient    = errors.New("direct message requires a recipient")
	ErrMissingScopeId      = errors.New("scope id is required for this conversation kind")
	ErrInvalidConversation = errors.New("invalid conversation kind")
)

type ConversationKind string

const (
	ConversationDirect     ConversationKind = "DIRECT"
	ConversationChallenge  ConversationKind = "CHALLENGE"
	ConversationMentorship ConversationKind = "MENTORSHIP"
)

type ChatMessageType string

const (
	MessageTypeText   ChatMessageType = "TEXT"
	MessageTypeImage  ChatMessageType = "IMAGE"
	MessageTypeFile   ChatMessageType = "FILE"
	MessageTypeSystem ChatMessageType = "SYSTEM"
)

// Message is the stored form of a chat message. Exactly one of RecipientId,
// ChallengeId, MentorshipId is set, matching ConversationKind; the
// NewDirectMessage/NewScopeMessage constructors keep that invariant.
// A message is immutable after creation except for the read-state fields
// and the soft-delete flag.
type Message struct {
	Id               int64            `bson:"_id" json:"id"`
	Content          string           `bson:"content" json:"content"`
	Type             ChatMessageType  `bson:"type" json:"type"`
	ConversationKind ConversationKind `bson:"conversationKind" json:"conversationKind"`
	SenderId         int64            `bson:"senderId" json:"senderId"`
	RecipientId      int64            `bson:"recipientId,omitempty" json:"recipientId,omitempty"`
	ChallengeId      int64            `bson:"challengeId,omitempty" json:"challengeId,omitempty"`
	MentorshipId     int64            `bson:"mentorshipId,omitempty" json:"mentorshipId,omitempty"`
	IsSystem         bool             `bson:"isSystem" json:"isSystem"`
	IsDeleted        bool             `bson:"isDeleted" json:"isDeleted"`
	IsRead           bool             `bson:"isRead" json:"isRead"`
	CreatedAt        time.Time        `bson:"createdAt" json:"createdAt"`
	ReadAt           *time.Time       `bson:"readAt,omitempty" json:"readAt,omitempty"`
}

func validateContent(content string) error {
	if content == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return ErrContentTooLong
	}
	return nil
}

func NewDirectMessage(senderId, recipientId int64, content string, msgType ChatMessageType) (Message, error) {
	if err := validateContent(content); err != nil {
		return Message{}, err
	}
	if recipientId == 0 {
		return Message{}, ErrMissingRecipient
	}
	return Message{
		Content:          content,
		Type:             msgType,
		ConversationKind: ConversationDirect,
		SenderId:         senderId,
		RecipientId:      recipientId,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

func NewScopeMessage(senderId int64, kind ConversationKind, scopeId int64, content string, msgType ChatMessageType) (Message, error) {
	if err := validateContent(content); err != nil {
		return Message{}, err
	}
	if scopeId == 0 {
		return Message{}, ErrMissingScopeId
	}
	msg := Message{
		Content:          content,
		Type:             msgType,
		ConversationKind: kind,
		SenderId:         senderId,
		CreatedAt:        time.Now().UTC(),
	}
	switch kind {
	case ConversationChallenge:
		msg.ChallengeId = scopeId
	case ConversationMentorship:
		msg.MentorshipId = scopeId
	default:
		return Message{}, ErrInvalidConversation
	}
	return msg, nil
}

// PeerOf returns the other participant of a direct message, relative to userId.
func (m Message) PeerOf(userId int64) int64 {
	if m.SenderId == userId {
		return m.RecipientId
	}
	return m.SenderId
}

// ChatMessageRequest is the client payload for the send operations.
type ChatMessageRequest struct {
	Content      string          `json:"content"`
	Type         ChatMessageType `json:"type,omitempty"`
	RecipientId  int64           `json:"recipientId,omitempty"`
	ChallengeId  int64           `json:"challengeId,omitempty"`
	MentorshipId int64           `json:"mentorshipId,omitempty"`
}

// ChatMessageResponse is the wire representation published to destinations
// and returned by the history endpoints.
type ChatMessageResponse struct {
	Id           int64           `json:"id,omitempty"`
	Content      string          `json:"content"`
	Type         ChatMessageType `json:"type,omitempty"`
	SenderId     int64           `json:"senderId"`
	SenderName   string          `json:"senderName,omitempty"`
	RecipientId  int64           `json:"recipientId,omitempty"`
	ChallengeId  int64           `json:"challengeId,omitempty"`
	MentorshipId int64           `json:"mentorshipId,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	ReadAt       *time.Time      `json:"readAt,omitempty"`
	IsRead       bool            `json:"isRead"`
	IsSystem     bool            `json:"isSystem"`
}

// MessagePage is the envelope for paginated history reads.
type MessagePage struct {
	Items      []ChatMessageResponse `json:"items"`
	Page       int                   `json:"page"`
	Size       int                   `json:"size"`
	TotalItems int64                 `json:"totalItems"`
	TotalPages int                   `json:"totalPages"`
}

func NewMessagePage(items []ChatMessageResponse, page, size int, total int64) MessagePage {
	if items == nil {
		items = []ChatMessageResponse{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return MessagePage{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
