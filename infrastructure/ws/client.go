package ws

import (
	"log"
	"time"

	"batchchat/internal/entity"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from peer. Content is capped at 1000
	// characters; this leaves room for the frame envelope.
	maxMessageSize = 8192
)

// Client is the connection-scoped state of one websocket session: the raw
// token captured at handshake time, the principal bound at CONNECT, and the
// client's active subscriptions. The principal is written once by the read
// loop and never re-authenticated afterwards.
type Client struct {
	broker     IBroker
	conn       *websocket.Conn
	send       chan []byte
	queryToken string
	principal  *entity.Principal

	// subscription id -> destination; touched only by the read loop.
	subs map[string]string
}

func NewClient(broker IBroker, conn *websocket.Conn, queryToken string) *Client {
	return &Client{
		broker:     broker,
		conn:       conn,
		send:       make(chan []byte, 256),
		queryToken: queryToken,
		subs:       make(map[string]string),
	}
}

// QueryToken returns the raw token captured from the handshake query
// parameter, or "" if none was present.
func (c *Client) QueryToken() string {
	return c.queryToken
}

func (c *Client) Principal() *entity.Principal {
	return c.principal
}

func (c *Client) SetPrincipal(p *entity.Principal) {
	c.principal = p
}

func (c *Client) BindSubscription(id, destination string) {
	c.subs[id] = destination
}

func (c *Client) TakeSubscription(id string) (string, bool) {
	destination, ok := c.subs[id]
	if ok {
		delete(c.subs, id)
	}
	return destination, ok
}

// Enqueue queues a payload for delivery to this client only. Returns false
// when the send buffer is full.
func (c *Client) Enqueue(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// ReadPump pumps frames from the websocket connection to onFrame. It owns
// unregistration: when the peer goes away the client is removed from the
// broker along with all its subscriptions.
func (c *Client) ReadPump(onFrame func(data []byte)) {
	defer func() {
		c.broker.UnregisterClient(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			break
		}
		onFrame(data)
	}
}

// WritePump pumps payloads from the send channel to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The broker closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
