package observer

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"undercroft.game/internal/observerproto"
	"undercroft.game/internal/sim/world"
)

// Server streams run status to spectators. It only reads World.Metrics, so
// it never goes through the world loop and cannot slow the player down.
type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		m := s.world.Metrics()
		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			RunID:           s.world.RunID(),
			Tick:            m.Tick,
			Inputs:          m.Inputs,
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

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := parseSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}
		s.logf("observer %s subscribed interval=%dms", r.RemoteAddr, sub.IntervalMS)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		intervals := make(chan time.Duration, 1)
		writeErr := make(chan error, 1)
		go func() { writeErr <- s.push(ctx, conn, interval(sub), intervals) }()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			sub, ok := parseSubscribe(msg)
			if !ok {
				continue
			}
			select {
			case intervals <- interval(sub):
			default:
				// Drop updates under load; the client may resend.
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// push writes a STATUS frame at once and then on every interval where the
// run has moved on.
func (s *Server) push(ctx context.Context, conn *websocket.Conn, every time.Duration, intervals <-chan time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	var last *world.Metrics
	for {
		m := s.world.Metrics()
		if last == nil || changed(*last, m) {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(statusFrom(m)); err != nil {
				return err
			}
			last = &m
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d := <-intervals:
			t.Reset(d)
		case <-t.C:
		}
	}
}

func changed(a, b world.Metrics) bool {
	return a.Tick != b.Tick || a.Inputs != b.Inputs || a.Journal != b.Journal ||
		a.Attached != b.Attached || a.GameOver != b.GameOver
}

func statusFrom(m world.Metrics) observerproto.StatusMsg {
	msg := observerproto.StatusMsg{
		Type:            observerproto.TypeStatus,
		ProtocolVersion: observerproto.Version,
		Tick:            m.Tick,
		Inputs:          m.Inputs,
		Actors:          m.Actors,
		Attached:        m.Attached,
		GameOver:        m.GameOver,
		Recent:          m.Recent,
	}
	if m.Player != nil {
		msg.Player = &observerproto.PlayerState{Pos: m.Player.Pos, Wounds: m.Player.Wounds, Shocked: m.Player.Shocked}
	}
	return msg
}

func parseSubscribe(b []byte) (observerproto.SubscribeMsg, bool) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(b, &sub); err != nil {
		return sub, false
	}
	if sub.Type != observerproto.TypeSubscribe || sub.ProtocolVersion != observerproto.Version {
		return sub, false
	}
	return sub, true
}

func interval(sub observerproto.SubscribeMsg) time.Duration {
	ms := sub.IntervalMS
	if ms <= 0 {
		ms = 500
	}
	if ms < 50 {
		ms = 50
	}
	if ms > 10_000 {
		ms = 10_000
	}
	return time.Duration(ms) * time.Millisecond
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
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
