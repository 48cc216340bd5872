package marker

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// StreamPath is the HTTP path the outlet is mounted on by Serve.
const StreamPath = "/markers"

const (
	clientBuffer = 64
	writeTimeout = 2 * time.Second
)

// ErrOutletClosed is returned by Push after Close.
var ErrOutletClosed = errors.New("marker outlet closed")

// StreamHeader is the first message sent to every consumer.
type StreamHeader struct {
	Type   string     `json:"type"`
	Stream StreamInfo `json:"stream"`
}

// WSOutlet broadcasts samples to WebSocket consumers.
//
// Push never waits on the network: each consumer has a buffered queue and a
// writer goroutine. A consumer whose queue is full is disconnected.
type WSOutlet struct {
	info     StreamInfo
	header   []byte
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// NewWSOutlet creates an outlet for the given stream identity.
func NewWSOutlet(info StreamInfo, logger *slog.Logger) *WSOutlet {
	if logger == nil {
		logger = slog.Default()
	}
	header, _ := json.Marshal(StreamHeader{Type: "stream_header", Stream: info})
	return &WSOutlet{
		info:   info,
		header: header,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Info returns the stream identity.
func (o *WSOutlet) Info() StreamInfo {
	return o.info
}

// ServeHTTP upgrades the request and registers a consumer.
func (o *WSOutlet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := o.upgrader.Upgrade(w, r, nil)
	if err != nil {
		o.logger.Warn("marker consumer upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, clientBuffer)}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		_ = conn.Close()
		return
	}
	// Header is queued under the lock so it precedes every sample.
	c.send <- o.header
	o.clients[c] = struct{}{}
	o.mu.Unlock()

	o.logger.Info("marker consumer connected", "remote", conn.RemoteAddr().String())

	go o.writeLoop(c)
	o.readLoop(c)
}

// Push broadcasts one sample. It returns nil when there are no consumers.
func (o *WSOutlet) Push(sample []int32) error {
	msg, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOutletClosed
	}

	for c := range o.clients {
		select {
		case c.send <- msg:
		default:
			o.logger.Warn("marker consumer too slow, disconnecting", "remote", c.conn.RemoteAddr().String())
			o.dropLocked(c)
		}
	}
	return nil
}

// Clients returns the number of connected consumers.
func (o *WSOutlet) Clients() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.clients)
}

// Close disconnects every consumer. Further pushes fail.
func (o *WSOutlet) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	for c := range o.clients {
		o.dropLocked(c)
	}
	return nil
}

func (o *WSOutlet) drop(c *wsClient) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropLocked(c)
}

func (o *WSOutlet) dropLocked(c *wsClient) {
	if _, ok := o.clients[c]; !ok {
		return
	}
	delete(o.clients, c)
	c.once.Do(func() { close(c.send) })
}

func (o *WSOutlet) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			o.logger.Debug("marker consumer write failed", "error", err)
			o.drop(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream closed"),
		time.Now().Add(writeTimeout))
}

// readLoop discards inbound messages; the stream is outbound only. It
// returns when the consumer disconnects.
func (o *WSOutlet) readLoop(c *wsClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			o.drop(c)
			o.logger.Info("marker consumer disconnected", "remote", c.conn.RemoteAddr().String())
			return
		}
	}
}

// Server is a running HTTP listener for a WSOutlet.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Serve listens on addr and serves the outlet at StreamPath. Listen errors
// are returned immediately.
func Serve(addr string, o *WSOutlet) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(StreamPath, o)
	s := &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.logger.Error("marker stream server stopped", "error", err)
		}
	}()
	return s, nil
}

// Addr returns the bound listener address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Close stops accepting consumers.
func (s *Server) Close() error {
	return s.srv.Close()
}
