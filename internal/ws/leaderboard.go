// Package ws pushes live leaderboard standings to connected clients.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"felini_trivia/internal/domain"
	"felini_trivia/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	refreshEvery   = 30 * time.Second
	topSize        = 20
	sendBufferSize = 4
)

// Standings is the subset of the user repository the hub reads.
type Standings interface {
	Leaderboard(ctx context.Context, limit int) ([]domain.User, error)
}

type entry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Tokens   int64  `json:"tokens"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// LeaderboardHub fans the current standings out to every connected socket.
// A broadcast fires on the refresh ticker and whenever Notify is called
// (balance changes after scored answers and withdrawals).
type LeaderboardHub struct {
	standings Standings
	notify    chan struct{}
	done      chan struct{}

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

func NewLeaderboardHub(standings Standings) *LeaderboardHub {
	return &LeaderboardHub{
		standings: standings,
		notify:    make(chan struct{}, 1),
		done:      make(chan struct{}),
		clients:   map[*client]struct{}{},
	}
}

// Notify requests a fresh broadcast. Safe to call from any goroutine;
// coalesces while a broadcast is pending.
func (h *LeaderboardHub) Notify() {
	select {
	case h.notify <- struct{}{}:
	default:
	}
}

// Run drives periodic and on-demand broadcasts until Stop is called.
func (h *LeaderboardHub) Run() {
	ticker := time.NewTicker(refreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.broadcast()
		case <-h.notify:
			h.broadcast()
		}
	}
}

func (h *LeaderboardHub) Stop() {
	close(h.done)
}

func (h *LeaderboardHub) broadcast() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	users, err := h.standings.Leaderboard(ctx, topSize)
	cancel()
	if err != nil {
		logger.Warn("leaderboard refresh failed", "error", err)
		return
	}

	entries := make([]entry, 0, len(users))
	for i, u := range users {
		entries = append(entries, entry{Rank: i + 1, Username: u.Username, Tokens: u.Tokens})
	}
	payload, err := json.Marshal(gin.H{"type": "leaderboard", "users": entries})
	if err != nil {
		return
	}

	h.mu.Lock()
	h.last = payload
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// slow consumer, drop it
			delete(h.clients, c)
			close(c.send)
		}
	}
	h.mu.Unlock()
}

// Handle upgrades the request and streams standings until the peer goes away.
func (h *LeaderboardHub) Handle() gin.HandlerFunc {
	allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ws upgrade error", "error", err)
			return
		}

		cl := &client{conn: conn, send: make(chan []byte, sendBufferSize)}
		h.mu.Lock()
		h.clients[cl] = struct{}{}
		snapshot := h.last
		h.mu.Unlock()

		if snapshot != nil {
			cl.send <- snapshot
		} else {
			h.Notify()
		}

		go cl.writePump()
		go cl.readPump(h)
	}
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames; its job is to notice the peer closing.
func (c *client) readPump(h *LeaderboardHub) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
