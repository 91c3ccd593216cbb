package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tunables
// ──────────────────────────────────────────────────────────────────────────────

const (
	writeDeadline   = 10 * time.Second
	pingInterval    = 30 * time.Second
	pongWait        = 35 * time.Second // must be > pingInterval
	maxMessageSize  = 512              // bytes; clients only send pongs
	sendBufferSize  = 256              // messages in each client send channel
	broadcastBuffer = 512
)

// ErrCodeReadOnly is sent to a client that writes to the push-only socket.
const ErrCodeReadOnly = "ERR_READ_ONLY"

// ──────────────────────────────────────────────────────────────────────────────
// Client
// ──────────────────────────────────────────────────────────────────────────────

// Client represents one connected WebSocket endpoint.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte // buffered outbound message queue
	remote string
}

// ──────────────────────────────────────────────────────────────────────────────
// Hub
// ──────────────────────────────────────────────────────────────────────────────

// Hub maintains the set of active clients and routes broadcast messages.
// Run must be started before ServeWs is used.
type Hub struct {
	// Registered clients and their concurrency guard.
	mu      sync.RWMutex
	clients map[*Client]bool

	// channels consumed by Run()
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns

	logger *slog.Logger

	// upgrader is safe for concurrent use after construction.
	upgrader websocket.Upgrader
}

// NewHub creates a Hub ready to be started with Run().  An empty
// allowedOrigins accepts every origin.
func NewHub(allowedOrigins []string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true // dev mode: allow all
				}
				origin := r.Header.Get("Origin")
				for _, o := range allowedOrigins {
					if o == "*" || o == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Run: hub event loop
// ──────────────────────────────────────────────────────────────────────────────

// Run processes registration, unregistration, and broadcast events
// sequentially until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("ws hub stopped")
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("ws client connected", "remote", client.remote)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("ws client disconnected", "remote", client.remote)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer full: drop the message for this client.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ConnectedCount returns the current number of connected clients.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ──────────────────────────────────────────────────────────────────────────────
// ServeWs: HTTP → WebSocket upgrade
// ──────────────────────────────────────────────────────────────────────────────

// ServeWs upgrades an HTTP request to a WebSocket connection and starts the
// read/write pumps.  The socket is push-only.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		remote: r.RemoteAddr,
	}
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ──────────────────────────────────────────────────────────────────────────────
// Client pumps
// ──────────────────────────────────────────────────────────────────────────────

// writePump drains the client's send channel and writes messages to the
// WebSocket connection.  It also sends ping frames every pingInterval.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if !ok {
				// Hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads frames from the WebSocket connection.  Pongs reset the read
// deadline; any data frame is answered with an ErrorMessage.  When the
// connection drops the client is unregistered.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("ws unexpected close", "remote", c.remote, "err", err)
			}
			return
		}
		c.hub.SendError(c, ErrCodeReadOnly, "this socket is server-push only")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Broadcast helpers: implement service.Broadcaster and scheduler.WsHub
// ──────────────────────────────────────────────────────────────────────────────

// BroadcastRoundCreated announces a newly opened round.
func (h *Hub) BroadcastRoundCreated(r *domain.Round) {
	h.broadcastJSON(RoundCreatedMessage{
		Type:      MsgTypeRoundCreated,
		RoundID:   r.ID,
		Protocols: r.CandidateIDs(),
		MinBet:    r.MinBet,
		CreatedAt: r.CreatedAt,
		EndsAt:    r.EndsAt,
		Timestamp: time.Now().UTC(),
	})
}

// BroadcastBetPlaced announces an accepted bet and the post-bet odds.
func (h *Hub) BroadcastBetPlaced(bet domain.Bet, totalPool decimal.Decimal, odds domain.OddsBreakdown) {
	h.broadcastJSON(BetPlacedMessage{
		Type:        MsgTypeBetPlaced,
		RoundID:     bet.RoundID,
		BetID:       bet.ID,
		AgentID:     bet.AgentID,
		ProtocolID:  bet.ProtocolID,
		Amount:      bet.Amount,
		TotalPool:   totalPool,
		CurrentOdds: odds,
		Timestamp:   time.Now().UTC(),
	})
}

// BroadcastRoundResolved announces the settlement of a round.
func (h *Hub) BroadcastRoundResolved(r *domain.Round, payouts []domain.Payout) {
	if r.Result == nil {
		return
	}
	h.broadcastJSON(RoundResolvedMessage{
		Type:              MsgTypeRoundResolved,
		RoundID:           r.ID,
		Winner:            r.Result.Winner,
		WinnerName:        r.Result.WinnerName,
		LiquidationCounts: r.Result.LiquidationCounts,
		TotalPool:         r.TotalPool,
		Winners:           payouts,
		Timestamp:         time.Now().UTC(),
	})
}

// BroadcastOddsUpdate serialises and broadcasts an OddsUpdateMessage.
func (h *Hub) BroadcastOddsUpdate(msg OddsUpdateMessage) {
	h.broadcastJSON(msg)
}

// BroadcastRoundExpired serialises and broadcasts a RoundExpiredMessage.
func (h *Hub) BroadcastRoundExpired(msg RoundExpiredMessage) {
	h.broadcastJSON(msg)
}

// broadcastJSON is the common marshalling path.  It never blocks.
func (h *Hub) broadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("ws marshal failed", "err", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("ws broadcast channel full, message dropped")
	}
}

// SendError writes an error message directly to one client's send channel.
func (h *Hub) SendError(client *Client, code, message string) {
	data, err := json.Marshal(ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}
