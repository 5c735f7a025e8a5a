package retell

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dentaldesk/voicedesk/pkg/errorsx"
)

// Sender writes one outbound frame. Implementations are safe for use
// from the connection's handler goroutine.
type Sender interface {
	Send(v any) error
}

// Handler owns one call. Events arrive sequentially on the connection
// goroutine; Finish is called exactly once when the connection closes.
type Handler interface {
	Greeting() string
	HandleEvent(ctx context.Context, ev Event) error
	Finish(reason string)
}

// HandlerFactory builds the per-call handler once the websocket is up.
type HandlerFactory func(callID, tenantID string, sender Sender) Handler

type TransportConfig struct {
	AllowAnyOrigin bool     `mapstructure:"allow_any_origin"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (c TransportConfig) withDefaults() TransportConfig {
	if !c.AllowAnyOrigin && len(c.AllowedOrigins) == 0 {
		c.AllowAnyOrigin = true
	}
	return c
}

// Transport upgrades websocket connections at /ws/retell/{call_id} and
// runs one read loop per connection. All turn work happens on that
// goroutine; frames are answered in arrival order.
type Transport struct {
	cfg      TransportConfig
	upgrader websocket.Upgrader
	factory  HandlerFactory
	logger   *slog.Logger

	draining atomic.Bool
}

func NewTransport(cfg TransportConfig, factory HandlerFactory, logger *slog.Logger) *Transport {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		factory: factory,
		logger:  logger,
	}
	t.upgrader.CheckOrigin = t.checkOrigin
	return t
}

// Drain rejects new connections during shutdown. Existing calls run to
// completion.
func (t *Transport) Drain() { t.draining.Store(true) }

func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if t.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	callID := chi.URLParam(r, "call_id")
	if callID == "" {
		callID = path.Base(r.URL.Path)
	}
	tenantID := r.URL.Query().Get("tenant_id")

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	t.logger.Info("retell_connected", "call_id", callID, "tenant_id", tenantID)

	sender := &wsSender{conn: conn}
	handler := t.factory(callID, tenantID, sender)

	if err := sender.Send(NewConfigResponse()); err != nil {
		t.logger.Error("retell_handshake_failed", "call_id", callID,
			"reason_code", string(errorsx.ReasonTransportSend), "error", err.Error())
		handler.Finish("handshake_failed")
		return
	}
	if err := sender.Send(NewTextResponse(0, handler.Greeting(), true, false)); err != nil {
		handler.Finish("handshake_failed")
		return
	}

	reason := "disconnect"
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.logger.Warn("retell_invalid_frame", "call_id", callID,
				"reason_code", string(errorsx.ReasonTransportInvalidPayload))
			continue
		}
		if ev.InteractionType == InteractionPingPong {
			ts := ev.Timestamp
			if ts == 0 {
				ts = time.Now().UnixMilli()
			}
			_ = sender.Send(NewPongResponse(ts))
			continue
		}
		if err := handler.HandleEvent(r.Context(), ev); err != nil {
			t.logger.Error("retell_event_error", "call_id", callID,
				"interaction_type", ev.InteractionType, "error", err.Error())
		}
	}

	t.logger.Info("retell_disconnected", "call_id", callID)
	handler.Finish(reason)
}

func (t *Transport) checkOrigin(r *http.Request) bool {
	if t.cfg.AllowAnyOrigin {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	origin = strings.TrimRight(origin, "/")
	originHost := strings.TrimPrefix(origin, "https://")
	originHost = strings.TrimPrefix(originHost, "http://")
	for _, allowed := range t.cfg.AllowedOrigins {
		a := strings.TrimRight(strings.TrimSpace(allowed), "/")
		if a == "" {
			continue
		}
		if strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
			if strings.EqualFold(a, origin) {
				return true
			}
			continue
		}
		if strings.EqualFold(a, originHost) {
			return true
		}
	}
	return false
}

type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSender) Send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(v); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransportSend)
	}
	return nil
}
