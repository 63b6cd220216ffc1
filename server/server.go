package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/xhad/examaid/internal/types"
	"github.com/xhad/examaid/pkg/llm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // overlay pages are served from file:// or other local origins
	},
}

var urlRegex = regexp.MustCompile(`https?://[^\s]+`)

// Message is the JSON frame exchanged with clients. Clients send "query"
// frames; the server sends "answer", "status", "progress", "response" and
// "error" frames.
type Message struct {
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Data    interface{} `json:"data,omitempty"`
}

// Answerer answers a free-form query, typically with retrieved context.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Ingester indexes every document of a source.
type Ingester interface {
	LoadSource(ctx context.Context, src types.DocumentSource) (int, error)
}

// SourceFactory builds a document source for a URL found in a query.
type SourceFactory func(url string, onProgress func(url string)) (types.DocumentSource, error)

type Config struct {
	Answerer Answerer
	// Ingester and NewSource enable indexing URLs pasted into queries.
	Ingester  Ingester
	NewSource SourceFactory
	Logger    *slog.Logger
}

// Hub serves the websocket overlay. Every line passed to Display is
// broadcast to all connected clients.
type Hub struct {
	config Config
	log    *slog.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

var _ types.Display = (*Hub)(nil)

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

func New(config Config) *Hub {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Hub{
		config:  config,
		log:     config.Logger,
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP handler with permissive CORS.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	return cors.AllowAll().Handler(mux)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Display broadcasts text to every client.
func (h *Hub) Display(text string) {
	msg := Message{Type: displayType(text), Content: text}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(msg); err != nil {
			h.log.Warn("failed to send to client", slog.Any("error", err))
		}
	}
}

func displayType(text string) string {
	switch {
	case strings.HasPrefix(text, llm.SuccessMarker):
		return "answer"
	case llm.IsErrorAnswer(text):
		return "error"
	default:
		return "status"
	}
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	c := &client{conn: conn}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("client connected", slog.String("remote", r.RemoteAddr))

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		h.log.Info("client disconnected", slog.String("remote", r.RemoteAddr))
	}()

	// The hijacked request context outlives the connection, so in-flight
	// messages are cancelled here before waiting on them.
	ctx, cancel := context.WithCancel(r.Context())
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Warn("error reading message", slog.Any("error", err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			h.sendMessage(c, "error", fmt.Sprintf("invalid message: %v", err))
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			h.handleMessage(ctx, c, msg)
		}()
	}
}

func (h *Hub) handleMessage(ctx context.Context, c *client, msg Message) {
	if msg.Type != "query" {
		h.sendMessage(c, "error", fmt.Sprintf("unknown message type %q", msg.Type))
		return
	}

	query := strings.TrimSpace(msg.Content)
	if query == "" {
		h.sendMessage(c, "error", "empty query")
		return
	}

	if url := urlRegex.FindString(query); url != "" && h.config.Ingester != nil && h.config.NewSource != nil {
		if err := h.indexURL(ctx, c, url); err != nil {
			h.log.Error("failed to index url", slog.String("url", url), slog.Any("error", err))
			h.sendMessage(c, "error", err.Error())
			return
		}

		// Only continue with the query if it contains more than the URL.
		query = strings.TrimSpace(strings.Replace(query, url, "", 1))
		if query == "" {
			return
		}
	}

	if h.config.Answerer == nil {
		h.sendMessage(c, "error", "queries are not enabled")
		return
	}

	h.sendMessage(c, "status", llm.StatusAnalyzing)
	response, err := h.config.Answerer.Answer(ctx, query)
	if err != nil {
		h.log.Error("failed to answer query", slog.Any("error", err))
		h.sendMessage(c, "error", llm.ErrorAnswer(err))
		return
	}
	h.sendMessage(c, "response", response)
}

func (h *Hub) indexURL(ctx context.Context, c *client, url string) error {
	h.sendMessage(c, "status", fmt.Sprintf("Processing URL: %s", url))

	var scraped int32
	src, err := h.config.NewSource(url, func(string) {
		n := atomic.AddInt32(&scraped, 1)
		h.sendMessage(c, "progress", fmt.Sprintf("Scraped %d pages", n))
	})
	if err != nil {
		return fmt.Errorf("failed to initialize scraper: %w", err)
	}

	chunks, err := h.config.Ingester.LoadSource(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", url, err)
	}

	h.sendMessage(c, "status", fmt.Sprintf("Indexed %d chunks from %d pages", chunks, atomic.LoadInt32(&scraped)))
	return nil
}

func (h *Hub) sendMessage(c *client, msgType string, content string) {
	if err := c.send(Message{Type: msgType, Content: content}); err != nil {
		h.log.Warn("error sending message", slog.Any("error", err))
	}
}
