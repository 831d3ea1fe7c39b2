package ws

import (
	"log"
	"sync"
)

// MemoryBroker is a single-process publish/subscribe broker. Clients
// subscribe to destination strings (private queues or shared topics) and
// every payload published to a destination is fanned out to its current
// subscribers. Publishing is fire-and-forget: a subscriber with a full send
// buffer misses the payload rather than blocking the publisher.
type MemoryBroker struct {
	subscriptions map[string]map[*Client]bool
	clients       map[*Client]map[string]bool
	Register      chan *Client
	Unregister    chan *Client
	mu            sync.RWMutex
}

func NewMemoryBroker() IBroker {
	return &MemoryBroker{
		subscriptions: make(map[string]map[*Client]bool),
		clients:       make(map[*Client]map[string]bool),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
	}
}

func (b *MemoryBroker) Run() {
	for {
		select {
		case client := <-b.Register:
			b.mu.Lock()
			b.clients[client] = make(map[string]bool)
			b.mu.Unlock()
			log.Println("broker: client connected")

		case client := <-b.Unregister:
			b.mu.Lock()
			if destinations, ok := b.clients[client]; ok {
				for destination := range destinations {
					b.removeSubscription(client, destination)
				}
				delete(b.clients, client)
				close(client.send)
				log.Println("broker: client disconnected")
			}
			b.mu.Unlock()
		}
	}
}

func (b *MemoryBroker) RegisterClient(client *Client) {
	b.Register <- client
}

func (b *MemoryBroker) UnregisterClient(client *Client) {
	b.Unregister <- client
}

func (b *MemoryBroker) Subscribe(client *Client, destination string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	destinations, ok := b.clients[client]
	if !ok {
		return
	}
	destinations[destination] = true

	subscribers, ok := b.subscriptions[destination]
	if !ok {
		subscribers = make(map[*Client]bool)
		b.subscriptions[destination] = subscribers
	}
	subscribers[client] = true
}

func (b *MemoryBroker) Unsubscribe(client *Client, destination string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if destinations, ok := b.clients[client]; ok {
		delete(destinations, destination)
	}
	b.removeSubscription(client, destination)
}

// removeSubscription must be called with b.mu held.
func (b *MemoryBroker) removeSubscription(client *Client, destination string) {
	subscribers, ok := b.subscriptions[destination]
	if !ok {
		return
	}
	delete(subscribers, client)
	if len(subscribers) == 0 {
		delete(b.subscriptions, destination)
	}
}

func (b *MemoryBroker) Publish(destination string, payload []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.subscriptions[destination] {
		select {
		case client.send <- payload:
		default:
			log.Printf("broker: send buffer full, dropping payload for %s", destination)
		}
	}
}

func (b *MemoryBroker) SubscriberCount(destination string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions[destination])
}

func (b *MemoryBroker) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
