package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"batchchat/infrastructure/ws"
	"batchchat/internal/entity"
	"batchchat/internal/repository"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidDestination = errors.New("destination is not a shared topic")
)

type ChatUsecase interface {
	SendDirect(ctx context.Context, senderId int64, req entity.ChatMessageRequest) (entity.ChatMessageResponse, error)
	SendChallenge(ctx context.Context, senderId int64, req entity.ChatMessageRequest) (entity.ChatMessageResponse, error)
	SendMentorship(ctx context.Context, senderId int64, req entity.ChatMessageRequest) (entity.ChatMessageResponse, error)
	NotifyJoin(ctx context.Context, userId int64, destination string) error
	NotifyLeave(ctx context.Context, userId int64, destination string) error
}

type chatUsecase struct {
	userUc      UserUsecase
	messageRepo repository.MessageRepository
	router      *ConversationRouter
}

func NewChatUsecase(userUc UserUsecase, messageRepo repository.MessageRepository, router *ConversationRouter) ChatUsecase {
	return &chatUsecase{
		userUc:      userUc,
		messageRepo: messageRepo,
		router:      router,
	}
}

func (c *chatUsecase) resolveUser(ctx context.Context, userId int64) (entity.User, error) {
	user, err := c.userUc.Get(ctx, userId)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return entity.User{}, ErrUserNotFound
		}
		return entity.User{}, err
	}
	return user, nil
}

func messageType(req entity.ChatMessageRequest) entity.ChatMessageType {
	if req.Type == "" {
		return entity.MessageTypeText
	}
	return req.Type
}

// persistAndRoute writes the message, then publishes the wire representation.
// The two steps are deliberately not one transaction: a publish failure
// after a successful persist is logged and swallowed, since the message
// stays retrievable via history and a retry could duplicate live delivery.
func (c *chatUsecase) persistAndRoute(ctx context.Context, message entity.Message, senderName string) (entity.ChatMessageResponse, error) {
	id, err := c.messageRepo.Create(ctx, message)
	if err != nil {
		return entity.ChatMessageResponse{}, err
	}
	message.Id = id

	response := buildResponse(message, senderName)
	if err := c.router.Route(message, response); err != nil {
		log.Printf("publish failed for message %d (kept in history): %v", id, err)
	}
	return response, nil
}

func (c *chatUsecase) SendDirect(ctx context.Context, senderId int64, req entity.ChatMessageRequest) (entity.ChatMessageResponse, error) {
	sender, err := c.resolveUser(ctx, senderId)
	if err != nil {
		return entity.ChatMessageResponse{}, err
	}
	if req.RecipientId == 0 {
		return entity.ChatMessageResponse{}, entity.ErrMissingRecipient
	}
	if _, err := c.resolveUser(ctx, req.RecipientId); err != nil {
		return entity.ChatMessageResponse{}, err
	}

	message, err := entity.NewDirectMessage(senderId, req.RecipientId, req.Content, messageType(req))
	if err != nil {
		return entity.ChatMessageResponse{}, err
	}

	return c.persistAndRoute(ctx, message, sender.FullName())
}

func (c *chatUsecase) SendChallenge(ctx context.Context, senderId int64, req entity.ChatMessageRequest) (entity.ChatMessageResponse, error) {
	sender, err := c.resolveUser(ctx, senderId)
	if err != nil {
		return entity.ChatMessageResponse{}, err
	}

	message, err := entity.NewScopeMessage(senderId, entity.ConversationChallenge, req.ChallengeId, req.Content, messageType(req))
	if err != nil {
		return entity.ChatMessageResponse{}, err
	}

	return c.persistAndRoute(ctx, message, sender.FullName())
}

func (c *chatUsecase) SendMentorship(ctx context.Context, senderId int64, req entity.ChatMessageRequest) (entity.ChatMessageResponse, error) {
	sender, err := c.resolveUser(ctx, senderId)
	if err != nil {
		return entity.ChatMessageResponse{}, err
	}

	message, err := entity.NewScopeMessage(senderId, entity.ConversationMentorship, req.MentorshipId, req.Content, messageType(req))
	if err != nil {
		return entity.ChatMessageResponse{}, err
	}

	return c.persistAndRoute(ctx, message, sender.FullName())
}

// notifyPresence publishes an ephemeral system notice to a shared topic.
// Presence notices are never persisted and never sent to private queues.
func (c *chatUsecase) notifyPresence(ctx context.Context, userId int64, destination, verb string) error {
	if !ws.IsSharedTopic(destination) {
		return ErrInvalidDestination
	}
	user, err := c.resolveUser(ctx, userId)
	if err != nil {
		return err
	}

	notice := entity.ChatMessageResponse{
		Content:    user.FirstName + " " + verb,
		Type:       entity.MessageTypeSystem,
		SenderId:   userId,
		SenderName: user.FullName(),
		Timestamp:  time.Now().UTC(),
		IsSystem:   true,
	}
	if err := c.router.Publish(destination, notice); err != nil {
		log.Printf("presence notice publish failed for %s: %v", destination, err)
	}
	return nil
}

func (c *chatUsecase) NotifyJoin(ctx context.Context, userId int64, destination string) error {
	return c.notifyPresence(ctx, userId, destination, "has joined the chat")
}

func (c *chatUsecase) NotifyLeave(ctx context.Context, userId int64, destination string) error {
	return c.notifyPresence(ctx, userId, destination, "has left the chat")
}

func buildResponse(message entity.Message, senderName string) entity.ChatMessageResponse {
	return entity.ChatMessageResponse{
		Id:           message.Id,
		Content:      message.Content,
		Type:         message.Type,
		SenderId:     message.SenderId,
		SenderName:   senderName,
		RecipientId:  message.RecipientId,
		ChallengeId:  message.ChallengeId,
		MentorshipId: message.MentorshipId,
		Timestamp:    message.CreatedAt,
		ReadAt:       message.ReadAt,
		IsRead:       message.IsRead,
		IsSystem:     message.IsSystem,
	}
}
