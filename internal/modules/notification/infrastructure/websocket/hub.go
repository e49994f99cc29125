package websocket

import (
	"log/slog"
	"sync"

	"github.com/udyami/marketplace/internal/modules/notification/domain"
)

// RoleMessage is delivered only to clients subscribed to exactly Role.
type RoleMessage struct {
	Role    domain.Role
	Message []byte
}

// Hub maintains the set of active clients and fans role messages out to
// them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Messages for one role.
	roleCast chan RoleMessage

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Channel to signal termination
	stop     chan struct{}
	stopOnce sync.Once

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		roleCast:   make(chan RoleMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),

		clients: make(map[*Client]bool),
		stop:    make(chan struct{}),
		logger:  logger.With("component", "websocket_hub"),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered", "addr", client.addr(), "role", client.role)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				h.logger.Debug("client unregistered", "addr", client.addr(), "role", client.role)
			}
		case msg := <-h.roleCast:
			for client := range h.clients {
				if client.role == msg.Role {
					h.deliver(client, msg.Message)
				}
			}
		case <-h.stop:
			h.logger.Info("stopping hub", "clients", len(h.clients))
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// deliver drops clients whose send buffer is full.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	close(client.send)
	delete(h.clients, client)
}

// SendToRole queues message for clients subscribed to exactly role. The empty
// role addresses clients that subscribed without one.
func (h *Hub) SendToRole(role domain.Role, message []byte) {
	select {
	case h.roleCast <- RoleMessage{Role: role, Message: message}:
	case <-h.stop:
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}
