package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"batchchat/infrastructure/cache"
	"batchchat/infrastructure/ws"
	"batchchat/internal/delivery/websocket"
	"batchchat/internal/entity"
	"batchchat/internal/repository"
	"batchchat/internal/usecase"
	"batchchat/pkg/jwt"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	server *httptest.Server
	chatUc usecase.ChatUsecase
	alice  entity.AuthResponse
	bob    entity.AuthResponse
}

func newApiFixture(t *testing.T) apiFixture {
	t.Helper()
	ctx := context.Background()

	userRepo := repository.NewMemoryUserRepository()
	refreshTokenRepo := repository.NewMemoryRefreshTokenRepository()
	messageRepo := repository.NewMemoryMessageRepository()

	memCache := cache.NewMemCache(0)
	t.Cleanup(memCache.Close)

	jwtManager := jwt.NewJWTManager("test-secret", 15*time.Minute, time.Hour)
	authUc := usecase.NewAuthUsecase(userRepo, refreshTokenRepo, jwtManager)
	userUc := usecase.NewUserUsecase(userRepo, memCache)

	broker := ws.NewMemoryBroker()
	go broker.Run()

	chatUc := usecase.NewChatUsecase(userUc, messageRepo, usecase.NewConversationRouter(broker))
	historyUc := usecase.NewHistoryUsecase(messageRepo, userUc)

	router := chi.NewRouter()
	MapHttpRoutes(router,
		*NewMessageHandler(historyUc),
		*websocket.NewWebsocketHandler(broker, authUc, chatUc),
		*NewAuthHandler(authUc),
		NewAuthMiddleware(authUc),
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	alice, err := authUc.Register(ctx, entity.RegisterRequest{
		Email: "alice@example.com", Password: "secret", FirstName: "Alice", LastName: "Ng",
	})
	require.NoError(t, err)
	bob, err := authUc.Register(ctx, entity.RegisterRequest{
		Email: "bob@example.com", Password: "secret", FirstName: "Bob", LastName: "Diaz",
	})
	require.NoError(t, err)

	return apiFixture{server: server, chatUc: chatUc, alice: alice, bob: bob}
}

func (f apiFixture) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(raw)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	request, err := http.NewRequest(method, f.server.URL+path, payload)
	require.NoError(t, err)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := http.DefaultClient.Do(request)
	require.NoError(t, err)
	t.Cleanup(func() { response.Body.Close() })
	return response
}

func decode[T any](t *testing.T, response *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(response.Body).Decode(&out))
	return out
}

func TestApi_RequiresBearerToken(t *testing.T) {
	req := require.New(t)
	f := newApiFixture(t)

	response := f.do(t, http.MethodGet, "/api/messages/conversations", "", nil)
	req.Equal(http.StatusUnauthorized, response.StatusCode)

	response = f.do(t, http.MethodGet, "/api/messages/conversations", "not-a-token", nil)
	req.Equal(http.StatusUnauthorized, response.StatusCode)
}

func TestApi_DirectHistoryRoundTrip(t *testing.T) {
	req := require.New(t)
	f := newApiFixture(t)
	ctx := context.Background()

	_, err := f.chatUc.SendDirect(ctx, f.alice.User.Id, entity.ChatMessageRequest{
		Content: "hello bob", RecipientId: f.bob.User.Id,
	})
	req.NoError(err)
	_, err = f.chatUc.SendDirect(ctx, f.bob.User.Id, entity.ChatMessageRequest{
		Content: "hello alice", RecipientId: f.alice.User.Id,
	})
	req.NoError(err)

	path := fmt.Sprintf("/api/messages/direct/%d", f.bob.User.Id)
	response := f.do(t, http.MethodGet, path, f.alice.AccessToken, nil)
	req.Equal(http.StatusOK, response.StatusCode)

	page := decode[entity.MessagePage](t, response)
	req.EqualValues(2, page.TotalItems)
	req.Equal("hello alice", page.Items[0].Content)
	req.Equal("hello bob", page.Items[1].Content)
}

func TestApi_UnreadFlow(t *testing.T) {
	req := require.New(t)
	f := newApiFixture(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two"} {
		_, err := f.chatUc.SendDirect(ctx, f.bob.User.Id, entity.ChatMessageRequest{
			Content: content, RecipientId: f.alice.User.Id,
		})
		req.NoError(err)
	}

	response := f.do(t, http.MethodGet, "/api/messages/unread/count", f.alice.AccessToken, nil)
	req.Equal(http.StatusOK, response.StatusCode)
	req.EqualValues(2, decode[map[string]int64](t, response)["count"])

	path := fmt.Sprintf("/api/messages/conversations/%d/read", f.bob.User.Id)
	response = f.do(t, http.MethodPut, path, f.alice.AccessToken, nil)
	req.Equal(http.StatusOK, response.StatusCode)
	req.EqualValues(2, decode[map[string]int64](t, response)["updated"])

	response = f.do(t, http.MethodGet, "/api/messages/unread/count", f.alice.AccessToken, nil)
	req.EqualValues(0, decode[map[string]int64](t, response)["count"])
}

func TestApi_MarkUnknownMessage(t *testing.T) {
	req := require.New(t)
	f := newApiFixture(t)

	response := f.do(t, http.MethodPut, "/api/messages/999/read", f.alice.AccessToken, nil)
	req.Equal(http.StatusNotFound, response.StatusCode)
}

func TestApi_Search(t *testing.T) {
	req := require.New(t)
	f := newApiFixture(t)
	ctx := context.Background()

	_, err := f.chatUc.SendDirect(ctx, f.alice.User.Id, entity.ChatMessageRequest{
		Content: "standup at nine", RecipientId: f.bob.User.Id,
	})
	req.NoError(err)
	_, err = f.chatUc.SendChallenge(ctx, f.bob.User.Id, entity.ChatMessageRequest{
		Content: "standup moved", ChallengeId: 7,
	})
	req.NoError(err)

	// Without a scope the requester's direct messages are searched.
	response := f.do(t, http.MethodGet, "/api/messages/search?q=standup", f.alice.AccessToken, nil)
	req.Equal(http.StatusOK, response.StatusCode)
	page := decode[entity.MessagePage](t, response)
	req.Len(page.Items, 1)
	req.Equal("standup at nine", page.Items[0].Content)

	// A challenge id narrows the search to that topic.
	response = f.do(t, http.MethodGet, "/api/messages/search?q=standup&challengeId=7", f.alice.AccessToken, nil)
	page = decode[entity.MessagePage](t, response)
	req.Len(page.Items, 1)
	req.Equal("standup moved", page.Items[0].Content)
}

func TestAuthApi_RegisterAndLogin(t *testing.T) {
	req := require.New(t)
	f := newApiFixture(t)

	response := f.do(t, http.MethodPost, "/auth/register", "", entity.RegisterRequest{
		Email: "carol@example.com", Password: "secret", FirstName: "Carol", LastName: "Wu",
	})
	req.Equal(http.StatusCreated, response.StatusCode)
	registered := decode[entity.AuthResponse](t, response)
	req.NotEmpty(registered.AccessToken)

	response = f.do(t, http.MethodPost, "/auth/register", "", entity.RegisterRequest{
		Email: "carol@example.com", Password: "other", FirstName: "Carol", LastName: "Two",
	})
	req.Equal(http.StatusConflict, response.StatusCode)

	response = f.do(t, http.MethodPost, "/auth/login", "", entity.LoginRequest{
		Email: "carol@example.com", Password: "wrong",
	})
	req.Equal(http.StatusUnauthorized, response.StatusCode)

	response = f.do(t, http.MethodPost, "/auth/login", "", entity.LoginRequest{
		Email: "carol@example.com", Password: "secret",
	})
	req.Equal(http.StatusOK, response.StatusCode)
}

func TestAuthApi_RefreshRotation(t *testing.T) {
	req := require.New(t)
	f := newApiFixture(t)

	response := f.do(t, http.MethodPost, "/auth/refresh", "", entity.RefreshTokenRequest{
		RefreshToken: f.alice.RefreshToken,
	})
	req.Equal(http.StatusOK, response.StatusCode)
	refreshed := decode[entity.AuthResponse](t, response)
	req.NotEqual(f.alice.RefreshToken, refreshed.RefreshToken)

	// Replaying the rotated-out token fails.
	response = f.do(t, http.MethodPost, "/auth/refresh", "", entity.RefreshTokenRequest{
		RefreshToken: f.alice.RefreshToken,
	})
	req.Equal(http.StatusUnauthorized, response.StatusCode)
}
