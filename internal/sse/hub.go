package sse

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/dimitrije/smsdesk/internal/events"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/google/uuid"
)

const (
	EventSmsCreated = "sms_created"
	EventSmsUpdated = "sms_updated"
	EventSmsDeleted = "sms_deleted"
)

type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type SmsEvent struct {
	SmsID       uuid.UUID `json:"sms_id"`
	Name        string    `json:"name"`
	IsPublished bool      `json:"is_published"`
	OwnerID     uuid.UUID `json:"owner_id"`
	ChangedBy   uuid.UUID `json:"changed_by"`
	Fields      []string  `json:"fields,omitempty"`
}

// Client is one open stream. ViewOther clients receive events of every
// message, the rest only those of messages they created.
type Client struct {
	ID        string
	UserID    uuid.UUID
	ViewOther bool
	Send      chan []byte
}

func (c *Client) receives(ownerID uuid.UUID) bool {
	return c.ViewOther || c.UserID == ownerID
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *ownedMessage
	done       chan struct{}
	mu         sync.RWMutex
}

type ownedMessage struct {
	OwnerID uuid.UUID
	Event   Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *ownedMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run fans events out until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Event)
			for _, client := range h.clients {
				if !client.receives(msg.OwnerID) {
					continue
				}
				select {
				case client.Send <- data:
				default:
					// slow client, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register and Unregister return immediately once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount is the number of open streams.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) BroadcastSmsEvent(eventType string, sms *models.Sms, changedBy uuid.UUID, fields []string) {
	msg := &ownedMessage{
		OwnerID: sms.CreatedBy,
		Event: Event{
			Type: eventType,
			Data: SmsEvent{
				SmsID:       sms.ID,
				Name:        sms.Name,
				IsPublished: sms.IsPublished,
				OwnerID:     sms.CreatedBy,
				ChangedBy:   changedBy,
				Fields:      fields,
			},
		},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// SmsSaved is a post-save hook.
func (h *Hub) SmsSaved(_ context.Context, e *events.SaveEvent) error {
	eventType := EventSmsUpdated
	if e.IsNew {
		eventType = EventSmsCreated
	}
	fields := make([]string, 0, len(e.Changes))
	for field := range e.Changes {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	h.BroadcastSmsEvent(eventType, e.Sms, e.UserID, fields)
	return nil
}

// SmsDeleted is a post-delete hook.
func (h *Hub) SmsDeleted(_ context.Context, e *events.DeleteEvent) error {
	h.BroadcastSmsEvent(EventSmsDeleted, e.Sms, e.UserID, nil)
	return nil
}
