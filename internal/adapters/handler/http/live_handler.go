package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type LiveConfig struct {
	AllowedOrigins []string
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	ReadLimit      int64
}

// LiveHandler upgrades clients to a WebSocket and subscribes them to the
// broadcaster until the connection goes away.
type LiveHandler struct {
	hub      ports.Broadcaster
	cfg      LiveConfig
	upgrader websocket.Upgrader
}

func NewLiveHandler(hub ports.Broadcaster, cfg LiveConfig) *LiveHandler {
	return &LiveHandler{
		hub: hub,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

func (h *LiveHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already replied with an HTTP error
		slog.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	ch := newWSChannel(conn, h.cfg.WriteTimeout)
	id := h.hub.Subscribe(ch)
	slog.Info("websocket connected", "subscription", id, "remote", r.RemoteAddr)
	defer func() {
		h.hub.Unsubscribe(id)
		slog.Info("websocket disconnected", "subscription", id)
	}()

	done := make(chan struct{})
	defer close(done)
	go ch.keepAlive(h.cfg.PingInterval, done)

	pongWait := 2 * h.cfg.PingInterval
	if h.cfg.ReadLimit > 0 {
		conn.SetReadLimit(h.cfg.ReadLimit)
	}
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := context.WithoutCancel(r.Context())
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "subscription", id, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))
		h.hub.Broadcast(ctx, domain.NewMessageEvent(string(msg)))
	}
}

func (h *LiveHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": h.hub.Len(),
	})
}

// wsChannel adapts a WebSocket connection to ports.Channel. Writes are
// serialized and bounded by the write timeout.
type wsChannel struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
	closeOnce    sync.Once
	closeErr     error
}

func newWSChannel(conn *websocket.Conn, writeTimeout time.Duration) *wsChannel {
	return &wsChannel{conn: conn, writeTimeout: writeTimeout}
}

func (c *wsChannel) Send(ctx context.Context, msg []byte) error {
	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

func (c *wsChannel) Close() error {
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(c.writeTimeout),
		)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *wsChannel) keepAlive(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		for _, a := range allowed {
			if strings.EqualFold(a, origin) || strings.EqualFold(a, u.Scheme+"://"+u.Host) {
				return true
			}
		}
		return false
	}
}
