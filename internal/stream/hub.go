package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"backend-trailtracker/internal/progress"

	"github.com/redis/go-redis/v9"
)

// TopicProgress carries the live TrailProgress snapshot pushed on every
// accepted fix.
const TopicProgress = "progress"

// Hub fans topic payloads out to connected websocket clients. With a Redis
// client it also publishes every broadcast and subscribes to the same
// channels, so multiple instances share one feed; without one it degrades to
// in-process delivery.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Topic string
	Send  chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(topic string) *Client {
	client := &Client{
		Topic: topic,
		Send:  make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = map[*Client]struct{}{}
	}
	h.clients[topic][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if topicClients, ok := h.clients[client.Topic]; ok {
		delete(topicClients, client)
		if len(topicClients) == 0 {
			delete(h.clients, client.Topic)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(topic string, payload []byte) {
	h.mu.RLock()
	clients := h.clients[topic]
	h.mu.RUnlock()

	for client := range clients {
		select {
		case client.Send <- payload:
		default:
		}
	}

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(topic), payload).Err()
		if err != nil {
			log.Printf("redis publish error: %v", err)
		}
	}
}

// BroadcastProgress pushes an updated snapshot to every map client. A
// marshal failure is dropped; the snapshot is already durable by the time
// this runs.
func (h *Hub) BroadcastProgress(p progress.TrailProgress) {
	payload, err := json.Marshal(p)
	if err != nil {
		log.Printf("progress marshal error: %v", err)
		return
	}
	h.Broadcast(TopicProgress, payload)
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, "trail:*:broadcast")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		topic := topicFromChannel(msg.Channel)
		h.mu.RLock()
		clients := h.clients[topic]
		h.mu.RUnlock()
		for client := range clients {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
	}
}

func redisChannel(topic string) string {
	return "trail:" + topic + ":broadcast"
}

func topicFromChannel(ch string) string {
	// trail:{topic}:broadcast
	const prefix = "trail:"
	const suffix = ":broadcast"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
