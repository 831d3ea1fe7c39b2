package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"batchchat/internal/entity"
)

// memoryMessageRepository is the non-durable twin of the mongo message
// store, selected when no MONGODB_URI is configured. It implements the same
// ordering, grouping and read-state semantics over an in-process slice,
// which also makes it the store the tests run against.
type memoryMessageRepository struct {
	messages []entity.Message // ordered by id ascending
	seq      int64
	mu       sync.RWMutex
}

func NewMemoryMessageRepository() MessageRepository {
	return &memoryMessageRepository{}
}

func (r *memoryMessageRepository) Create(ctx context.Context, message entity.Message) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	message.Id = r.seq
	r.messages = append(r.messages, message)
	return message.Id, nil
}

func (r *memoryMessageRepository) Get(ctx context.Context, messageId int64) (entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.messages {
		if m.Id == messageId {
			return m, nil
		}
	}
	return entity.Message{}, ErrMessageNotFound
}

// collect returns the messages matching keep, ordered by id ascending.
// Callers must hold at least a read lock.
func (r *memoryMessageRepository) collect(keep func(entity.Message) bool) []entity.Message {
	var matched []entity.Message
	for _, m := range r.messages {
		if m.IsDeleted {
			continue
		}
		if keep(m) {
			matched = append(matched, m)
		}
	}
	return matched
}

func reverseMessages(messages []entity.Message) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}

func paginate(messages []entity.Message, page, size int) ([]entity.Message, int64) {
	total := int64(len(messages))
	start := page * size
	if start >= len(messages) || page < 0 || size <= 0 {
		return nil, total
	}
	end := start + size
	if end > len(messages) {
		end = len(messages)
	}
	return messages[start:end], total
}

func isDirectBetween(m entity.Message, userId1, userId2 int64) bool {
	if m.ConversationKind != entity.ConversationDirect {
		return false
	}
	return (m.SenderId == userId1 && m.RecipientId == userId2) ||
		(m.SenderId == userId2 && m.RecipientId == userId1)
}

func matchesScope(m entity.Message, kind entity.ConversationKind, scopeId int64) bool {
	if m.ConversationKind != kind {
		return false
	}
	if kind == entity.ConversationMentorship {
		return m.MentorshipId == scopeId
	}
	return m.ChallengeId == scopeId
}

func (r *memoryMessageRepository) FindDirectBetween(ctx context.Context, userId1, userId2 int64, page, size int) ([]entity.Message, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.collect(func(m entity.Message) bool {
		return isDirectBetween(m, userId1, userId2)
	})
	reverseMessages(matched)
	items, total := paginate(matched, page, size)
	return items, total, nil
}

func (r *memoryMessageRepository) FindByScope(ctx context.Context, kind entity.ConversationKind, scopeId int64, page, size int) ([]entity.Message, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.collect(func(m entity.Message) bool {
		return matchesScope(m, kind, scopeId)
	})
	items, total := paginate(matched, page, size)
	return items, total, nil
}

func (r *memoryMessageRepository) FindLastConversations(ctx context.Context, userId int64) ([]entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	latestByPeer := make(map[int64]entity.Message)
	for _, m := range r.messages {
		if m.IsDeleted || m.ConversationKind != entity.ConversationDirect {
			continue
		}
		if m.SenderId != userId && m.RecipientId != userId {
			continue
		}
		peer := m.PeerOf(userId)
		if last, ok := latestByPeer[peer]; !ok || m.Id > last.Id {
			latestByPeer[peer] = m
		}
	}

	conversations := make([]entity.Message, 0, len(latestByPeer))
	for _, m := range latestByPeer {
		conversations = append(conversations, m)
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].Id > conversations[j].Id
	})
	return conversations, nil
}

func (r *memoryMessageRepository) CountUnread(ctx context.Context, userId int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, m := range r.messages {
		if m.ConversationKind == entity.ConversationDirect &&
			m.RecipientId == userId && !m.IsRead && !m.IsDeleted {
			count++
		}
	}
	return count, nil
}

func (r *memoryMessageRepository) MarkRead(ctx context.Context, messageId, recipientId int64, readAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.messages {
		m := &r.messages[i]
		if m.Id != messageId {
			continue
		}
		if m.ConversationKind != entity.ConversationDirect ||
			m.RecipientId != recipientId || m.IsRead || m.IsDeleted {
			return false, nil
		}
		m.IsRead = true
		at := readAt
		m.ReadAt = &at
		return true, nil
	}
	return false, nil
}

func (r *memoryMessageRepository) MarkConversationRead(ctx context.Context, userId, peerId int64, readAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for i := range r.messages {
		m := &r.messages[i]
		if m.ConversationKind != entity.ConversationDirect ||
			m.SenderId != peerId || m.RecipientId != userId ||
			m.IsRead || m.IsDeleted {
			continue
		}
		m.IsRead = true
		at := readAt
		m.ReadAt = &at
		affected++
	}
	return affected, nil
}

func (r *memoryMessageRepository) SearchDirect(ctx context.Context, query string, userId int64, page, size int) ([]entity.Message, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	matched := r.collect(func(m entity.Message) bool {
		if m.ConversationKind != entity.ConversationDirect {
			return false
		}
		if m.SenderId != userId && m.RecipientId != userId {
			return false
		}
		return strings.Contains(strings.ToLower(m.Content), needle)
	})
	reverseMessages(matched)
	items, total := paginate(matched, page, size)
	return items, total, nil
}

func (r *memoryMessageRepository) SearchScope(ctx context.Context, query string, kind entity.ConversationKind, scopeId int64, page, size int) ([]entity.Message, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	matched := r.collect(func(m entity.Message) bool {
		return matchesScope(m, kind, scopeId) &&
			strings.Contains(strings.ToLower(m.Content), needle)
	})
	items, total := paginate(matched, page, size)
	return items, total, nil
}

func (r *memoryMessageRepository) SoftDelete(ctx context.Context, messageId int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.messages {
		if r.messages[i].Id == messageId {
			r.messages[i].IsDeleted = true
			return nil
		}
	}
	return ErrMessageNotFound
}
