// Package live serves a browser view of the tablet screen. Frames
// arriving on a channel are pushed to every connected WebSocket viewer
// as JPEG, and the most recent one stays available as a PNG still.
package live

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moonstripe/resnap/internal/capture"
	"github.com/moonstripe/resnap/internal/encoder"
)

const writeTimeout = 2 * time.Second

// Server broadcasts captured frames over HTTP and WebSocket.
type Server struct {
	addr     string
	frames   <-chan *capture.Frame
	stream   encoder.Encoder
	still    encoder.Encoder
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	latest  *capture.Frame
}

// NewServer creates a server that drains frames and serves them on addr.
// quality sets the JPEG quality of the WebSocket stream.
func NewServer(addr string, frames <-chan *capture.Frame, quality int) *Server {
	return &Server{
		addr:    addr,
		frames:  frames,
		stream:  encoder.NewJPEGEncoder(quality),
		still:   encoder.NewPNGEncoder(),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/frame.png", s.handleStill)
	return mux
}

// Run serves until ctx is cancelled or the listener fails. The frames
// channel drives the broadcast loop; closing it stops the pushes but
// leaves the HTTP endpoints up.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	go s.broadcastLoop()

	log.Printf("live view on http://%s", s.addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.closeClients()
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("live server: %w", err)
		}
		return nil
	}
}

// closeClients drops every viewer. Shutdown does not reach hijacked
// WebSocket connections, so they are closed here.
func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
}

func (s *Server) broadcastLoop() {
	for frame := range s.frames {
		s.mu.Lock()
		s.latest = frame
		n := len(s.clients)
		s.mu.Unlock()
		if n == 0 {
			continue
		}

		data, err := s.stream.Encode(frame.Image)
		if err != nil {
			log.Printf("encode frame: %v", err)
			continue
		}
		s.broadcast(data)
	}
}

func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			log.Printf("drop viewer %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			delete(s.clients, conn)
		}
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
	log.Printf("viewer connected: %s", conn.RemoteAddr())

	// Drain incoming messages so control frames are processed; the
	// read failing is how we learn the viewer went away.
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
			log.Printf("viewer disconnected: %s", conn.RemoteAddr())
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleStill(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	frame := s.latest
	s.mu.Unlock()
	if frame == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	data, err := s.still.Encode(frame.Image)
	if err != nil {
		http.Error(w, "encode frame", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}
