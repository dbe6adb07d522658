package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var ErrClientNotFound = errors.New("client is not registered")

const DefaultClientBuffer = 32

// Frame is the wire shape of every outbound realtime message.
type Frame struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

func Encode(action string, payload any) ([]byte, error) {
	data, err := json.Marshal(Frame{Action: action, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s frame: %w", action, err)
	}

	return data, nil
}

// Hub keeps the outbox of every local client and the topics each client is
// subscribed to. Delivery never blocks: a frame for a full outbox is dropped.
type Hub struct {
	logger     *slog.Logger
	bufferSize int

	mu      sync.RWMutex
	clients map[string]chan []byte
	topics  map[string]map[string]struct{}
}

func NewHub(logger *slog.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultClientBuffer
	}

	return &Hub{
		logger:     logger.With("component", "broadcast-hub"),
		bufferSize: bufferSize,
		clients:    make(map[string]chan []byte),
		topics:     make(map[string]map[string]struct{}),
	}
}

// Register creates the outbox of clientID. The channel is closed by Unregister.
func (that *Hub) Register(clientID string) <-chan []byte {
	that.mu.Lock()
	defer that.mu.Unlock()

	if outbox, ok := that.clients[clientID]; ok {
		return outbox
	}

	outbox := make(chan []byte, that.bufferSize)
	that.clients[clientID] = outbox

	return outbox
}

// Unregister drops clientID from every topic and closes its outbox.
func (that *Hub) Unregister(clientID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	outbox, ok := that.clients[clientID]
	if !ok {
		return
	}

	for topic, members := range that.topics {
		delete(members, clientID)
		if len(members) == 0 {
			delete(that.topics, topic)
		}
	}

	delete(that.clients, clientID)
	close(outbox)
}

func (that *Hub) Subscribe(clientID, topic string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.clients[clientID]; !ok {
		return
	}

	if _, ok := that.topics[topic]; !ok {
		that.topics[topic] = make(map[string]struct{})
	}
	that.topics[topic][clientID] = struct{}{}
}

func (that *Hub) Unsubscribe(clientID, topic string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if members, ok := that.topics[topic]; ok {
		delete(members, clientID)
		if len(members) == 0 {
			delete(that.topics, topic)
		}
	}
}

func (that *Hub) PublishRoom(_ context.Context, topic, action string, payload any) error {
	frame, err := Encode(action, payload)
	if err != nil {
		return err
	}

	that.DeliverRoom(topic, frame)

	return nil
}

func (that *Hub) PublishAll(_ context.Context, action string, payload any) error {
	frame, err := Encode(action, payload)
	if err != nil {
		return err
	}

	that.DeliverAll(frame)

	return nil
}

func (that *Hub) SendTo(_ context.Context, clientID, action string, payload any) error {
	frame, err := Encode(action, payload)
	if err != nil {
		return err
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	outbox, ok := that.clients[clientID]
	if !ok {
		return fmt.Errorf("failed to send %s: %w", action, ErrClientNotFound)
	}

	that.offer(clientID, outbox, frame)

	return nil
}

// DeliverRoom pushes an encoded frame to the subscribers of topic.
func (that *Hub) DeliverRoom(topic string, frame []byte) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for clientID := range that.topics[topic] {
		that.offer(clientID, that.clients[clientID], frame)
	}
}

// DeliverAll pushes an encoded frame to every registered client.
func (that *Hub) DeliverAll(frame []byte) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for clientID, outbox := range that.clients {
		that.offer(clientID, outbox, frame)
	}
}

func (that *Hub) offer(clientID string, outbox chan []byte, frame []byte) {
	select {
	case outbox <- frame:
	default:
		that.logger.Warn("outbox is full, frame dropped", "clientID", clientID)
	}
}
