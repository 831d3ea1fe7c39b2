package ws

type IBroker interface {
	Run()
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
	Subscribe(client *Client, destination string)
	Unsubscribe(client *Client, destination string)
	Publish(destination string, payload []byte)
	SubscriberCount(destination string) int
	ClientCount() int
}
