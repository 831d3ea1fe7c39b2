package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"batchchat/infrastructure/ws"
	"batchchat/internal/entity"
	"batchchat/internal/usecase"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebsocketHandler struct {
	broker ws.IBroker
	authUc usecase.AuthUsecase
	chatUc usecase.ChatUsecase
}

func NewWebsocketHandler(broker ws.IBroker, authUc usecase.AuthUsecase, chatUc usecase.ChatUsecase) *WebsocketHandler {
	return &WebsocketHandler{
		broker: broker,
		authUc: authUc,
		chatUc: chatUc,
	}
}

// HandleWebSocket upgrades the connection and runs the session loop. The
// token may arrive as a ?token= query parameter because browser clients
// cannot set custom headers during the upgrade; it is only captured here,
// never verified — a bad token must not fail the handshake.
func (h *WebsocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	queryToken := r.URL.Query().Get("token")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade error: %v", err)
		return
	}

	client := ws.NewClient(h.broker, conn, queryToken)
	h.broker.RegisterClient(client)

	go client.WritePump()
	client.ReadPump(func(data []byte) {
		h.handleFrame(ctx, client, data)
	})
}

func (h *WebsocketHandler) handleFrame(ctx context.Context, client *ws.Client, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		client.Enqueue(ws.ErrorEnvelope("malformed frame"))
		return
	}

	switch frame.Command {
	case CommandConnect:
		h.handleConnect(client, frame)
	case CommandSubscribe:
		h.handleSubscribe(client, frame)
	case CommandUnsubscribe:
		h.handleUnsubscribe(client, frame)
	case CommandSend:
		h.handleSend(ctx, client, frame)
	default:
		client.Enqueue(ws.ErrorEnvelope("unknown command"))
	}
}

// handleConnect binds a principal to the session. Verification failures
// leave the session anonymous instead of tearing down the transport: the
// client gets a normal session and only protected operations are refused
// later. A session that already carries a principal is never
// re-authenticated.
func (h *WebsocketHandler) handleConnect(client *ws.Client, frame Frame) {
	if client.Principal() != nil {
		client.Enqueue(ws.ConnectedEnvelope(true))
		return
	}

	authHeader := frame.Headers["Authorization"]
	if authHeader == "" && client.QueryToken() != "" {
		authHeader = "Bearer " + client.QueryToken()
	}
	if authHeader == "" {
		client.Enqueue(ws.ConnectedEnvelope(false))
		return
	}

	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		log.Println("websocket connect: malformed authorization header")
		client.Enqueue(ws.ConnectedEnvelope(false))
		return
	}

	claims, err := h.authUc.ValidateAccessToken(token)
	if err != nil {
		client.SetPrincipal(nil)
		log.Printf("websocket connect: token rejected: %v", err)
		client.Enqueue(ws.ConnectedEnvelope(false))
		return
	}

	client.SetPrincipal(&entity.Principal{UserId: claims.UserId, Role: claims.Role})
	client.Enqueue(ws.ConnectedEnvelope(true))
}

// handleSubscribe is where authorization actually fails closed: anonymous
// sessions cannot subscribe to anything protected, and a private queue is
// only subscribable by its owner.
func (h *WebsocketHandler) handleSubscribe(client *ws.Client, frame Frame) {
	principal := client.Principal()
	destination := frame.Destination

	if ownerId, ok := ws.ParseUserQueue(destination); ok {
		if principal == nil {
			client.Enqueue(ws.ErrorEnvelope("subscription requires authentication"))
			return
		}
		if ownerId != principal.UserId {
			client.Enqueue(ws.ErrorEnvelope("cannot subscribe to another user's queue"))
			return
		}
	} else if ws.IsSharedTopic(destination) {
		if principal == nil {
			client.Enqueue(ws.ErrorEnvelope("subscription requires authentication"))
			return
		}
	} else {
		client.Enqueue(ws.ErrorEnvelope("unknown destination"))
		return
	}

	h.broker.Subscribe(client, destination)
	if frame.Id != "" {
		client.BindSubscription(frame.Id, destination)
	}
}

func (h *WebsocketHandler) handleUnsubscribe(client *ws.Client, frame Frame) {
	destination := frame.Destination
	if frame.Id != "" {
		if bound, ok := client.TakeSubscription(frame.Id); ok {
			destination = bound
		}
	}
	if destination == "" {
		client.Enqueue(ws.ErrorEnvelope("unknown subscription"))
		return
	}
	h.broker.Unsubscribe(client, destination)
}

func (h *WebsocketHandler) handleSend(ctx context.Context, client *ws.Client, frame Frame) {
	principal := client.Principal()
	if principal == nil {
		client.Enqueue(ws.ErrorEnvelope("send requires authentication"))
		return
	}

	switch frame.Destination {
	case AppSendDirect, AppSendChallenge, AppSendMentorship:
		var req entity.ChatMessageRequest
		if err := json.Unmarshal(frame.Body, &req); err != nil {
			client.Enqueue(ws.ErrorEnvelope("malformed message body"))
			return
		}

		var err error
		switch frame.Destination {
		case AppSendDirect:
			_, err = h.chatUc.SendDirect(ctx, principal.UserId, req)
		case AppSendChallenge:
			_, err = h.chatUc.SendChallenge(ctx, principal.UserId, req)
		case AppSendMentorship:
			_, err = h.chatUc.SendMentorship(ctx, principal.UserId, req)
		}
		if err != nil {
			client.Enqueue(ws.ErrorEnvelope(err.Error()))
		}

	case AppJoin, AppLeave:
		var req PresenceRequest
		if err := json.Unmarshal(frame.Body, &req); err != nil {
			client.Enqueue(ws.ErrorEnvelope("malformed presence body"))
			return
		}
		destination, err := presenceDestination(req)
		if err != nil {
			client.Enqueue(ws.ErrorEnvelope(err.Error()))
			return
		}
		if frame.Destination == AppJoin {
			err = h.chatUc.NotifyJoin(ctx, principal.UserId, destination)
		} else {
			err = h.chatUc.NotifyLeave(ctx, principal.UserId, destination)
		}
		if err != nil {
			client.Enqueue(ws.ErrorEnvelope(err.Error()))
		}

	default:
		client.Enqueue(ws.ErrorEnvelope("unknown application destination"))
	}
}

func presenceDestination(req PresenceRequest) (string, error) {
	switch {
	case req.ChallengeId != 0:
		return ws.ChallengeTopic(req.ChallengeId), nil
	case req.MentorshipId != 0:
		return ws.MentorshipTopic(req.MentorshipId), nil
	default:
		return "", usecase.ErrInvalidDestination
	}
}
