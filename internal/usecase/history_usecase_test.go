package usecase

import (
	"context"
	"testing"

	"batchchat/infrastructure/cache"
	"batchchat/internal/entity"
	"batchchat/internal/repository"

	"github.com/stretchr/testify/require"
)

type historyFixture struct {
	historyUc   HistoryUsecase
	messageRepo repository.MessageRepository
	alice       int64
	bob         int64
}

func newHistoryFixture(t *testing.T) historyFixture {
	t.Helper()
	ctx := context.Background()

	userRepo := repository.NewMemoryUserRepository()
	alice, err := userRepo.Create(ctx, entity.User{
		Email: "alice@example.com", FirstName: "Alice", LastName: "Ng", Role: entity.RoleParticipant,
	})
	require.NoError(t, err)
	bob, err := userRepo.Create(ctx, entity.User{
		Email: "bob@example.com", FirstName: "Bob", LastName: "Diaz", Role: entity.RoleMentor,
	})
	require.NoError(t, err)

	memCache := cache.NewMemCache(0)
	t.Cleanup(memCache.Close)

	messageRepo := repository.NewMemoryMessageRepository()
	return historyFixture{
		historyUc:   NewHistoryUsecase(messageRepo, NewUserUsecase(userRepo, memCache)),
		messageRepo: messageRepo,
		alice:       alice,
		bob:         bob,
	}
}

func (f historyFixture) sendDirect(t *testing.T, senderId, recipientId int64, content string) int64 {
	t.Helper()
	msg, err := entity.NewDirectMessage(senderId, recipientId, content, entity.MessageTypeText)
	require.NoError(t, err)
	id, err := f.messageRepo.Create(context.Background(), msg)
	require.NoError(t, err)
	return id
}

func (f historyFixture) sendScope(t *testing.T, senderId int64, kind entity.ConversationKind, scopeId int64, content string) int64 {
	t.Helper()
	msg, err := entity.NewScopeMessage(senderId, kind, scopeId, content, entity.MessageTypeText)
	require.NoError(t, err)
	id, err := f.messageRepo.Create(context.Background(), msg)
	require.NoError(t, err)
	return id
}

func TestGetDirectMessages_ResolvesSenderNames(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)
	ctx := context.Background()

	f.sendDirect(t, f.alice, f.bob, "older")
	f.sendDirect(t, f.bob, f.alice, "newer")

	page, err := f.historyUc.GetDirectMessages(ctx, f.alice, f.bob, 0, 10)
	req.NoError(err)
	req.EqualValues(2, page.TotalItems)
	req.Equal(1, page.TotalPages)
	req.Len(page.Items, 2)

	req.Equal("newer", page.Items[0].Content)
	req.Equal("Bob Diaz", page.Items[0].SenderName)
	req.Equal("older", page.Items[1].Content)
	req.Equal("Alice Ng", page.Items[1].SenderName)
}

func TestGetDirectMessages_NormalizesPaging(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)

	f.sendDirect(t, f.alice, f.bob, "only one")

	// Negative page and zero size fall back to defaults instead of failing.
	page, err := f.historyUc.GetDirectMessages(context.Background(), f.alice, f.bob, -3, 0)
	req.NoError(err)
	req.Equal(0, page.Page)
	req.Equal(defaultPageSize, page.Size)
	req.Len(page.Items, 1)
}

func TestGetChallengeMessages_OldestFirst(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)

	f.sendScope(t, f.alice, entity.ConversationChallenge, 7, "first")
	f.sendScope(t, f.bob, entity.ConversationChallenge, 7, "second")

	page, err := f.historyUc.GetChallengeMessages(context.Background(), 7, 0, 10)
	req.NoError(err)
	req.Len(page.Items, 2)
	req.Equal("first", page.Items[0].Content)
	req.Equal("second", page.Items[1].Content)
}

func TestMarkAsRead_RecipientOnly(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)
	ctx := context.Background()

	id := f.sendDirect(t, f.bob, f.alice, "read me")

	// The sender is not the recipient: a silent no-op, not an error.
	req.NoError(f.historyUc.MarkAsRead(ctx, id, f.bob))
	count, err := f.historyUc.GetUnreadCount(ctx, f.alice)
	req.NoError(err)
	req.EqualValues(1, count)

	req.NoError(f.historyUc.MarkAsRead(ctx, id, f.alice))
	count, err = f.historyUc.GetUnreadCount(ctx, f.alice)
	req.NoError(err)
	req.Zero(count)

	stored, err := f.messageRepo.Get(ctx, id)
	req.NoError(err)
	req.True(stored.IsRead)
	req.NotNil(stored.ReadAt)
}

func TestMarkAsRead_UnknownMessage(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)

	err := f.historyUc.MarkAsRead(context.Background(), 999, f.alice)
	req.ErrorIs(err, ErrMessageNotFound)
}

func TestMarkConversationAsRead_ReportsAffected(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)
	ctx := context.Background()

	f.sendDirect(t, f.bob, f.alice, "one")
	f.sendDirect(t, f.bob, f.alice, "two")

	affected, err := f.historyUc.MarkConversationAsRead(ctx, f.alice, f.bob)
	req.NoError(err)
	req.EqualValues(2, affected)

	affected, err = f.historyUc.MarkConversationAsRead(ctx, f.alice, f.bob)
	req.NoError(err)
	req.Zero(affected)
}

func TestGetLastConversations_OnePerPeer(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)

	f.sendDirect(t, f.alice, f.bob, "older")
	f.sendDirect(t, f.bob, f.alice, "latest with bob")

	conversations, err := f.historyUc.GetLastConversations(context.Background(), f.alice)
	req.NoError(err)
	req.Len(conversations, 1)
	req.Equal("latest with bob", conversations[0].Content)
	req.Equal("Bob Diaz", conversations[0].SenderName)
}

func TestSearch_ScopeBeatsDirect(t *testing.T) {
	req := require.New(t)
	f := newHistoryFixture(t)
	ctx := context.Background()

	f.sendDirect(t, f.alice, f.bob, "deadline is friday")
	f.sendScope(t, f.bob, entity.ConversationChallenge, 7, "deadline moved")
	f.sendScope(t, f.bob, entity.ConversationMentorship, 5, "deadline question")

	// A challenge id wins over everything else.
	page, err := f.historyUc.Search(ctx, "deadline", f.alice, 7, 5, 0, 10)
	req.NoError(err)
	req.Len(page.Items, 1)
	req.Equal("deadline moved", page.Items[0].Content)

	// Then the mentorship id.
	page, err = f.historyUc.Search(ctx, "deadline", f.alice, 0, 5, 0, 10)
	req.NoError(err)
	req.Len(page.Items, 1)
	req.Equal("deadline question", page.Items[0].Content)

	// Neither: the requester's own direct messages.
	page, err = f.historyUc.Search(ctx, "deadline", f.alice, 0, 0, 0, 10)
	req.NoError(err)
	req.Len(page.Items, 1)
	req.Equal("deadline is friday", page.Items[0].Content)
}
