package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"clay.game/internal/sim/driver"
	"clay.game/internal/sim/engine"
)

// Hub fans engine output out to websocket sessions. It is subscribed to the
// engine and so runs on the driver goroutine; slow sessions lose messages
// rather than stall the simulation.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]chan []byte
}

func NewHub() *Hub {
	return &Hub{sessions: map[string]chan []byte{}}
}

func (h *Hub) OnNotification(n engine.Notification) {
	b, _ := json.Marshal(NotifyMsg{Type: "NOTIFY", ProtocolVersion: Version, Notification: n})
	h.broadcast(b)
}

func (h *Hub) OnAdvance(r engine.AdvanceReport) {
	b, _ := json.Marshal(AdvanceMsg{Type: "ADVANCE", ProtocolVersion: Version, Report: r})
	h.broadcast(b)
}

func (h *Hub) broadcast(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.sessions {
		select {
		case ch <- b:
		default:
		}
	}
}

func (h *Hub) join(id string, ch chan []byte) {
	h.mu.Lock()
	h.sessions[id] = ch
	h.mu.Unlock()
}

func (h *Hub) leave(id string) {
	h.mu.Lock()
	delete(h.sessions, id)
	h.mu.Unlock()
}

func (h *Hub) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

type Server struct {
	driver *driver.Driver
	hub    *Hub
	log    *log.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(d *driver.Driver, hub *Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		driver: d,
		hub:    hub,
		log:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Routes registers the observer endpoints on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/state", s.StateHandler())
	mux.HandleFunc("/v1/ws", s.WSHandler())
}

func (s *Server) StateHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		var resp StateResponse
		err := s.driver.Do(r.Context(), func(e *engine.Engine) {
			st, _ := e.Snapshot()
			resp = StateResponse{
				ProtocolVersion: Version,
				CatalogDigest:   e.Catalog().Digest,
				State:           st,
				Derived:         e.Derived(),
				Advisors: Advisors{
					Project:     e.ProjectAdvisorMessage(),
					Partnership: e.PartnershipAdvisorMessage(),
				},
			}
		})
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		out := make(chan []byte, 256)
		s.hub.join(sid, out)
		defer s.hub.leave(sid)
		s.log.Printf("session %s connected from %s", sid, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop: ACT commands.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var act ActMsg
			if err := json.Unmarshal(msg, &act); err != nil || act.Type != "ACT" {
				s.reply(out, ActResultMsg{Type: "ACT_RESULT", ID: act.ID, Code: ErrProtoBadRequest, Reason: "bad message"})
				continue
			}
			var res ActResultMsg
			if err := s.driver.Do(ctx, func(e *engine.Engine) { res = apply(e, act) }); err != nil {
				break
			}
			s.reply(out, res)
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		s.log.Printf("session %s closed", sid)
	}
}

// reply queues a result behind any broadcast already waiting, blocking
// briefly instead of dropping it.
func (s *Server) reply(out chan<- []byte, res ActResultMsg) {
	b, _ := json.Marshal(res)
	select {
	case out <- b:
	case <-time.After(time.Second):
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
