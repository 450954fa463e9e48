package websocket

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// reportEvent is a lifecycle message routed through the run loop so the
// client and subscription maps are only ever touched from one goroutine.
type reportEvent struct {
	reportID string
	message  []byte
}

// Hub maintains the set of active clients and broadcasts report lifecycle
// messages to them.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Report lifecycle events awaiting delivery.
	events chan reportEvent

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// A map of report IDs to the set of clients subscribed to them.
	subscriptions map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		events:        make(chan reportEvent, 64),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		clients:       make(map[*Client]bool),
		subscriptions: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
			// If the client subscribed to a report on connect, track it.
			if client.ReportID != "" {
				h.addSubscription(client, client.ReportID)
			}
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeSubscription(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case event := <-h.events:
			for client := range h.clients {
				// Scoped clients only receive events for their report.
				if client.ReportID != "" && client.ReportID != event.reportID {
					continue
				}
				select {
				case client.Send <- event.message:
				default:
					close(client.Send)
					delete(h.clients, client)
					h.removeSubscription(client)
				}
			}
		}
	}
}

// BroadcastReportEvent queues a report lifecycle message for delivery to
// every connected client, or only matching subscribers for scoped clients.
// Events are dropped rather than blocking the caller when the feed is
// saturated; the feed is observability, not business state.
func (h *Hub) BroadcastReportEvent(action, reportID string, payload interface{}) {
	message, err := json.Marshal(Message{Action: action, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("action", action).Msg("Failed to encode websocket message")
		return
	}

	select {
	case h.events <- reportEvent{reportID: reportID, message: message}:
	default:
		log.Warn().Str("action", action).Msg("Event feed saturated, dropping message")
	}
}

func (h *Hub) addSubscription(client *Client, reportID string) {
	if h.subscriptions[reportID] == nil {
		h.subscriptions[reportID] = make(map[*Client]bool)
	}
	h.subscriptions[reportID][client] = true
}

func (h *Hub) removeSubscription(client *Client) {
	for reportID, subs := range h.subscriptions {
		if _, ok := subs[client]; ok {
			delete(subs, client)
			if len(subs) == 0 {
				delete(h.subscriptions, reportID)
			}
		}
	}
}
