package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"ohshop-admin/internal/logger"
	"ohshop-admin/internal/middleware"
	"ohshop-admin/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Discoverer is what the collection routes need.
type Discoverer interface {
	Discover(ctx context.Context, forceRefresh bool) (*service.DiscoveryResult, error)
	RefreshCollection(ctx context.Context, name string) (*service.CollectionInfo, error)
	Subscribe() (<-chan service.DiscoveryEvent, func())
}

// CollectionHandler serves collection discovery and its event stream.
type CollectionHandler struct {
	discovery Discoverer
	origins   []string
	log       logger.Logger
}

// NewCollectionHandler creates a new CollectionHandler. origins lists the
// browser origins allowed to open the event stream besides the server's own.
func NewCollectionHandler(discovery Discoverer, origins []string, log logger.Logger) *CollectionHandler {
	return &CollectionHandler{discovery: discovery, origins: origins, log: log}
}

// discover serves GET /api/collections?refresh=true.
func (h *CollectionHandler) discover(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	force := r.URL.Query().Get("refresh") == "true"
	res, err := h.discovery.Discover(r.Context(), force)
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, res)
}

// refresh serves POST /api/collections/{name}/refresh.
func (h *CollectionHandler) refresh(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	info, err := h.discovery.RefreshCollection(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		return fail(err)
	}
	return respond(w, http.StatusOK, info)
}

// events streams discovery events over a websocket until the client goes away.
func (h *CollectionHandler) events(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Discovery event stream upgrade failed: " + err.Error())
		return
	}
	defer conn.Close()

	events, unsubscribe := h.discovery.Subscribe()
	defer unsubscribe()

	// The read loop only handles pongs and notices the client closing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			msg, err := json.Marshal(ev)
			if err != nil {
				h.log.Error(err, "Failed to encode discovery event")
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *CollectionHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	h.log.Warn("Discovery event stream rejected from origin " + url.QueryEscape(origin))
	return false
}
