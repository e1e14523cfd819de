package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"whitelist-vpn-miniapp/internal/domain"
	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
	"whitelist-vpn-miniapp/internal/infra/logging"
	"whitelist-vpn-miniapp/internal/infra/metrics"
	"whitelist-vpn-miniapp/internal/infra/telegram"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Frame types.
const (
	FrameHello         = "hello"
	FrameInvoiceClosed = "invoice_closed"
	FrameHaptic        = "haptic"
	FramePopup         = "popup"
	FrameOpenInvoice   = "open_invoice"
	FrameTheme         = "theme"
	FrameState         = "state"
)

// Frame is the single JSON envelope exchanged with the web view.
type Frame struct {
	Type string `json:"type"`

	InitData string       `json:"init_data,omitempty"`
	Theme    *model.Theme `json:"theme,omitempty"`
	ID       string       `json:"id,omitempty"`
	Status   string       `json:"status,omitempty"`

	Kind            string          `json:"kind,omitempty"`
	Feedback        string          `json:"feedback,omitempty"` // impact | notification
	Title           string          `json:"title,omitempty"`
	Message         string          `json:"message,omitempty"`
	URL             string          `json:"url,omitempty"`
	HeaderColor     string          `json:"header_color,omitempty"`
	BackgroundColor string          `json:"background_color,omitempty"`
	State           *model.AppState `json:"state,omitempty"`
}

type RelayConfig struct {
	// BotToken enables init-data signature checks when set.
	BotToken         string
	InitDataMaxAge   time.Duration
	AllowedOrigins   []string
	HandshakeTimeout time.Duration
	// Dev logs init data and invoice links unredacted.
	Dev bool
}

// Relay is the host bridge backed by the web view's WebSocket. Only the most
// recent connection is addressed.
type Relay struct {
	cfg      RelayConfig
	upgrader websocket.Upgrader
	log      *zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	conn     *client
	conns    int
	identity *model.HostIdentity
	pending  map[string]chan model.InvoiceStatus
	onHello  func(ctx context.Context)
}

var _ adapter.HostBridge = (*Relay)(nil)

type client struct {
	ws   *websocket.Conn
	send chan Frame
	done chan struct{}
}

func NewRelay(cfg RelayConfig, logger *zerolog.Logger) *Relay {
	r := &Relay{
		cfg:     cfg,
		log:     logger,
		now:     time.Now,
		pending: make(map[string]chan model.InvoiceStatus),
	}
	r.upgrader = websocket.Upgrader{
		HandshakeTimeout: cfg.HandshakeTimeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
		CheckOrigin:      r.checkOrigin,
	}
	return r
}

// OnHello registers fn to run after each accepted hello frame.
func (r *Relay) OnHello(fn func(ctx context.Context)) {
	r.mu.Lock()
	r.onHello = fn
	r.mu.Unlock()
}

func (r *Relay) checkOrigin(req *http.Request) bool {
	if len(r.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := req.Header.Get("Origin")
	for _, o := range r.cfg.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request and runs the connection until it drops.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ws, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn().Err(err).Msg("bridge upgrade failed")
		return
	}
	c := &client{ws: ws, send: make(chan Frame, sendBuffer), done: make(chan struct{})}

	r.mu.Lock()
	r.conn = c
	r.conns++
	metrics.SetBridgeConnections(r.conns)
	r.mu.Unlock()
	r.log.Info().Str("remote", req.RemoteAddr).Msg("bridge connected")

	go r.writePump(c)
	r.readPump(c)
}

func (r *Relay) readPump(c *client) {
	defer func() {
		close(c.done)
		_ = c.ws.Close()
		r.mu.Lock()
		if r.conn == c {
			r.conn = nil
		}
		r.conns--
		metrics.SetBridgeConnections(r.conns)
		r.mu.Unlock()
		r.log.Info().Msg("bridge disconnected")
	}()

	c.ws.SetReadLimit(64 << 10)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.log.Warn().Err(err).Msg("bridge read")
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			r.log.Warn().Err(err).Msg("bridge frame is not json")
			continue
		}
		switch f.Type {
		case FrameHello:
			r.handleHello(f)
		case FrameInvoiceClosed:
			r.resolve(f.ID, model.ParseInvoiceStatus(f.Status))
		default:
			r.log.Debug().Str("type", f.Type).Msg("bridge frame ignored")
		}
	}
}

func (r *Relay) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case f := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(f); err != nil {
				r.log.Warn().Err(err).Str("type", f.Type).Msg("bridge write")
				_ = c.ws.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.ws.Close()
				return
			}
		}
	}
}

func (r *Relay) handleHello(f Frame) {
	var identity *model.HostIdentity
	if f.InitData != "" {
		data, err := telegram.ParseInitData(f.InitData, r.cfg.BotToken, r.cfg.InitDataMaxAge, r.now())
		if err != nil {
			r.log.Warn().Err(err).Str("init_data", logging.Redact(f.InitData, r.cfg.Dev)).Msg("bridge hello rejected")
		} else {
			id := data.User
			identity = &id
		}
	}
	if identity != nil && f.Theme != nil {
		identity.Theme = *f.Theme
	}

	r.mu.Lock()
	r.identity = identity
	hook := r.onHello
	r.mu.Unlock()

	if identity != nil {
		r.log.Info().Int64("tg_id", identity.ID).Msg("bridge hello")
	}
	if hook != nil {
		go hook(context.Background())
	}
}

func (r *Relay) resolve(id string, status model.InvoiceStatus) {
	r.mu.Lock()
	ch, ok := r.pending[id]
	delete(r.pending, id)
	r.mu.Unlock()

	if !ok {
		r.log.Warn().Str("invoice_id", id).Str("status", string(status)).Msg("invoice callback without a waiter")
		return
	}
	ch <- status
}

// push queues f for the current connection. Frames are dropped when no view
// is connected or its buffer is full.
func (r *Relay) push(f Frame) bool {
	r.mu.Lock()
	c := r.conn
	r.mu.Unlock()
	if c == nil {
		return false
	}
	select {
	case c.send <- f:
		return true
	case <-c.done:
		return false
	default:
		r.log.Warn().Str("type", f.Type).Msg("bridge send buffer full")
		return false
	}
}

func (r *Relay) Available() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

func (r *Relay) Identity(context.Context) *model.HostIdentity {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.identity == nil {
		return nil
	}
	id := *r.identity
	return &id
}

func (r *Relay) Haptic(kind model.HapticKind) {
	feedback := "impact"
	if kind.Notification() {
		feedback = "notification"
	}
	r.push(Frame{Type: FrameHaptic, Kind: string(kind), Feedback: feedback})
}

func (r *Relay) ShowPopup(title, message string) {
	r.push(Frame{Type: FramePopup, Title: title, Message: message})
}

func (r *Relay) ApplyTheme(theme model.Theme) {
	bg := theme.Background()
	r.push(Frame{Type: FrameTheme, HeaderColor: bg, BackgroundColor: bg})
}

// PushState sends the current app state so the view can re-render.
func (r *Relay) PushState(state model.AppState) {
	s := state.Clone()
	r.push(Frame{Type: FrameState, State: &s})
}

// OpenInvoice asks the view to present link and waits for its single
// invoice_closed callback.
func (r *Relay) OpenInvoice(ctx context.Context, link string) (model.InvoiceStatus, error) {
	id := uuid.NewString()
	ch := make(chan model.InvoiceStatus, 1)

	r.mu.Lock()
	r.pending[id] = ch
	r.mu.Unlock()

	if !r.push(Frame{Type: FrameOpenInvoice, ID: id, URL: link}) {
		r.forget(id)
		return "", domain.ErrBridgeUnavailable
	}
	r.log.Debug().Str("id", id).Str("link", logging.Redact(link, r.cfg.Dev)).Msg("invoice opened")

	select {
	case status := <-ch:
		return status, nil
	case <-ctx.Done():
		r.forget(id)
		return "", ctx.Err()
	}
}

func (r *Relay) forget(id string) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// Pending reports how many invoices await a callback.
func (r *Relay) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
