package sse

import (
	"net/http"
	"strings"
	"time"

	"github.com/ninelinehq/ConnectPortal_Go/internal/logger"
)

// Handler streams hub events to a browser over SSE
type Handler struct {
	hub *Hub
}

// NewHandler creates a new SSE handler
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeHTTP handles GET /connect/events. The stream is scoped to the
// external_user_id query parameter; an optional comma-separated types
// parameter narrows the event types delivered.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	externalUserID := strings.TrimSpace(r.URL.Query().Get("external_user_id"))
	if externalUserID == "" {
		http.Error(w, "external_user_id is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var eventTypes []string
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				eventTypes = append(eventTypes, t)
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	client := h.hub.Register(eventTypes, externalUserID)
	defer h.hub.Unregister(client.ID)

	log.Info(LogMsgClientConnected,
		"client_id", client.ID,
		"external_user_id", externalUserID,
		"types", eventTypes)

	// Initial hello so the browser knows the stream is live
	if err := h.writeEvent(w, flusher, Event{
		ID:        client.ID,
		Type:      EventTypeConnected,
		Timestamp: time.Now().Unix(),
		Payload: ConnectedPayload{
			ClientID: client.ID,
			Message:  "stream established",
		},
	}); err != nil {
		log.Warn(LogMsgWriteError, "client_id", client.ID, "error", err)
		return
	}

	keepalive := time.NewTicker(KeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case evt, open := <-client.EventChannel:
			if !open {
				log.Info(LogMsgClientDisconnected, "client_id", client.ID)
				return
			}
			if err := h.writeEvent(w, flusher, evt); err != nil {
				log.Warn(LogMsgWriteError, "client_id", client.ID, "error", err)
				return
			}

		case <-keepalive.C:
			evt := Event{
				Type:      EventTypeKeepalive,
				Timestamp: time.Now().Unix(),
				Payload:   KeepalivePayload{Time: time.Now().Unix()},
			}
			if err := h.writeEvent(w, flusher, evt); err != nil {
				log.Debug(LogMsgClientDisconnected, "client_id", client.ID)
				return
			}

		case <-r.Context().Done():
			log.Info(LogMsgClientDisconnected, "client_id", client.ID)
			return
		}
	}
}

func (h *Handler) writeEvent(w http.ResponseWriter, flusher http.Flusher, evt Event) error {
	msg, err := FormatSSEMessage(evt)
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
