// Package ws bridges a running scene to remote rasterizers over websockets:
// frames go out as JSON, pointer events come back in.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/physync/internal/binding"
	"github.com/san-kum/physync/internal/interact"
	"github.com/san-kum/physync/internal/sim"
)

const (
	writeWait    = 5 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 25 * time.Second
	readLimit    = 64 * 1024
	clientQueue  = 16
)

type client struct {
	id  uint64
	out chan []byte
}

// Server accepts websocket clients. OnFrame runs on the frame loop
// goroutine; connection handlers run on their own goroutines and only touch
// the scene through the inbox.
type Server struct {
	scene    string
	table    *binding.Table
	susp     binding.Suspension
	inbox    *interact.Inbox
	log      *slog.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.RWMutex
	clients map[uint64]*client
	latest  []byte
	dropped atomic.Uint64
}

func NewServer(scene string, table *binding.Table, susp binding.Suspension, inbox *interact.Inbox, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		scene: scene,
		table: table,
		susp:  susp,
		inbox: inbox,
		log:   log.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uint64]*client),
	}
}

// Clients is the number of connected clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Dropped counts frames not delivered to a client whose queue was full.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

// OnFrame broadcasts the frame. Slow clients miss frames rather than stall
// the loop.
func (s *Server) OnFrame(fi sim.FrameInfo) {
	b, err := json.Marshal(NewFrameMsg(fi, s.table, s.susp))
	if err != nil {
		s.log.Error("encode frame", "frame", fi.Frame, "err", err)
		return
	}
	s.mu.Lock()
	s.latest = b
	for _, c := range s.clients {
		select {
		case c.out <- b:
		default:
			s.dropped.Add(1)
		}
	}
	s.mu.Unlock()
}

func (s *Server) join() *client {
	c := &client{id: s.nextID.Add(1), out: make(chan []byte, clientQueue)}
	hello, _ := json.Marshal(HelloMsg{Type: TypeHello, Version: ProtocolVersion, Scene: s.scene})

	s.mu.Lock()
	c.out <- hello
	if s.latest != nil {
		c.out <- s.latest
	}
	s.clients[c.id] = c
	s.mu.Unlock()
	return c
}

func (s *Server) leave(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
}

func (s *Server) reject(c *client, err error) {
	b, _ := json.Marshal(ErrorMsg{Type: TypeError, Error: err.Error()})
	select {
	case c.out <- b:
	default:
	}
}

// Handler upgrades requests to websocket sessions.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.log.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}
		defer conn.Close()

		c := s.join()
		defer s.leave(c)
		log := s.log.With("client", c.id)
		log.Info("client connected", "remote", conn.RemoteAddr().String())

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			s.write(ctx, conn, c, log)
		}()

		conn.SetReadLimit(readLimit)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug("read ended", "err", err)
				}
				break
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			var in InputMsg
			if err := json.Unmarshal(data, &in); err != nil {
				s.reject(c, err)
				continue
			}
			ev, err := in.Event()
			if err != nil {
				s.reject(c, err)
				continue
			}
			s.inbox.Post(ev)
		}

		cancel()
		<-done
		log.Info("client disconnected")
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, c *client, log *slog.Logger) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
			return
		case b := <-c.out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				log.Debug("write failed", "err", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// ListenAndServe serves /ws and /healthz on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.Handler())
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(map[string]any{"scene": s.scene, "clients": s.Clients()})
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
