package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"batchchat/internal/entity"
	"batchchat/internal/repository"
)

var ErrMessageNotFound = errors.New("message not found")

const defaultPageSize = 20

type HistoryUsecase interface {
	GetDirectMessages(ctx context.Context, userId, otherUserId int64, page, size int) (entity.MessagePage, error)
	GetChallengeMessages(ctx context.Context, challengeId int64, page, size int) (entity.MessagePage, error)
	GetMentorshipMessages(ctx context.Context, mentorshipId int64, page, size int) (entity.MessagePage, error)
	GetLastConversations(ctx context.Context, userId int64) ([]entity.ChatMessageResponse, error)
	GetUnreadCount(ctx context.Context, userId int64) (int64, error)
	MarkAsRead(ctx context.Context, messageId, requesterId int64) error
	MarkConversationAsRead(ctx context.Context, userId, peerId int64) (int64, error)
	Search(ctx context.Context, query string, userId, challengeId, mentorshipId int64, page, size int) (entity.MessagePage, error)
}

type historyUsecase struct {
	messageRepo repository.MessageRepository
	userUc      UserUsecase
}

func NewHistoryUsecase(messageRepo repository.MessageRepository, userUc UserUsecase) HistoryUsecase {
	return &historyUsecase{
		messageRepo: messageRepo,
		userUc:      userUc,
	}
}

func normalizePage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	return page, size
}

// toResponses resolves sender names on top of the raw records. A failed
// lookup degrades to an empty name rather than failing the whole read.
func (h *historyUsecase) toResponses(ctx context.Context, messages []entity.Message) []entity.ChatMessageResponse {
	responses := make([]entity.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		name := ""
		if sender, err := h.userUc.Get(ctx, m.SenderId); err == nil {
			name = sender.FullName()
		}
		responses = append(responses, buildResponse(m, name))
	}
	return responses
}

func (h *historyUsecase) GetDirectMessages(ctx context.Context, userId, otherUserId int64, page, size int) (entity.MessagePage, error) {
	page, size = normalizePage(page, size)
	messages, total, err := h.messageRepo.FindDirectBetween(ctx, userId, otherUserId, page, size)
	if err != nil {
		return entity.MessagePage{}, err
	}
	return entity.NewMessagePage(h.toResponses(ctx, messages), page, size, total), nil
}

func (h *historyUsecase) GetChallengeMessages(ctx context.Context, challengeId int64, page, size int) (entity.MessagePage, error) {
	page, size = normalizePage(page, size)
	messages, total, err := h.messageRepo.FindByScope(ctx, entity.ConversationChallenge, challengeId, page, size)
	if err != nil {
		return entity.MessagePage{}, err
	}
	return entity.NewMessagePage(h.toResponses(ctx, messages), page, size, total), nil
}

func (h *historyUsecase) GetMentorshipMessages(ctx context.Context, mentorshipId int64, page, size int) (entity.MessagePage, error) {
	page, size = normalizePage(page, size)
	messages, total, err := h.messageRepo.FindByScope(ctx, entity.ConversationMentorship, mentorshipId, page, size)
	if err != nil {
		return entity.MessagePage{}, err
	}
	return entity.NewMessagePage(h.toResponses(ctx, messages), page, size, total), nil
}

func (h *historyUsecase) GetLastConversations(ctx context.Context, userId int64) ([]entity.ChatMessageResponse, error) {
	messages, err := h.messageRepo.FindLastConversations(ctx, userId)
	if err != nil {
		return nil, err
	}
	return h.toResponses(ctx, messages), nil
}

func (h *historyUsecase) GetUnreadCount(ctx context.Context, userId int64) (int64, error) {
	return h.messageRepo.CountUnread(ctx, userId)
}

// MarkAsRead transitions a direct message UNREAD -> READ. Only the recipient
// may trigger the transition; anyone else is a silent no-op, not an error.
func (h *historyUsecase) MarkAsRead(ctx context.Context, messageId, requesterId int64) error {
	message, err := h.messageRepo.Get(ctx, messageId)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			return ErrMessageNotFound
		}
		return err
	}

	if message.ConversationKind != entity.ConversationDirect || message.RecipientId != requesterId {
		log.Printf("user %d is not the recipient of message %d, ignoring read request", requesterId, messageId)
		return nil
	}

	_, err = h.messageRepo.MarkRead(ctx, messageId, requesterId, time.Now().UTC())
	return err
}

func (h *historyUsecase) MarkConversationAsRead(ctx context.Context, userId, peerId int64) (int64, error) {
	return h.messageRepo.MarkConversationRead(ctx, userId, peerId, time.Now().UTC())
}

// Search runs a case-insensitive substring match scoped by priority:
// a given challenge beats a given mentorship beats the requester's own
// direct messages. Ordering follows the scope's history ordering.
func (h *historyUsecase) Search(ctx context.Context, query string, userId, challengeId, mentorshipId int64, page, size int) (entity.MessagePage, error) {
	page, size = normalizePage(page, size)

	var (
		messages []entity.Message
		total    int64
		err      error
	)
	switch {
	case challengeId != 0:
		messages, total, err = h.messageRepo.SearchScope(ctx, query, entity.ConversationChallenge, challengeId, page, size)
	case mentorshipId != 0:
		messages, total, err = h.messageRepo.SearchScope(ctx, query, entity.ConversationMentorship, mentorshipId, page, size)
	default:
		messages, total, err = h.messageRepo.SearchDirect(ctx, query, userId, page, size)
	}
	if err != nil {
		return entity.MessagePage{}, err
	}
	return entity.NewMessagePage(h.toResponses(ctx, messages), page, size, total), nil
}
