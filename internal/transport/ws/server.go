package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"undercroft.game/internal/protocol"
	"undercroft.game/internal/sim/world"
)

// Server bridges one websocket client to the world loop: HELLO attaches the
// player, ACT and JOURNAL_REQ are forwarded, OBS and results flow back.
type Server struct {
	world *world.World
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	s := &Server{
		world: w,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}
		s.logf("session %s attached from %s", sessionID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop. A player may think for a long time between inputs.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.dispatch(sessionID, msg, out)
		}

		// Cleanup.
		s.world.Leave() <- sessionID
		s.logf("session %s left", sessionID)
	}
}

func (s *Server) dispatch(sessionID string, msg []byte, out chan []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return
	}
	switch base.Type {
	case protocol.TypeAct:
		var act protocol.ActMsg
		if err := protocol.Validate(protocol.TypeAct, msg); err != nil {
			_ = json.Unmarshal(msg, &act)
			reject(out, act.ActID, err.Error())
			return
		}
		if err := json.Unmarshal(msg, &act); err != nil {
			reject(out, "", err.Error())
			return
		}
		if act.ProtocolVersion != protocol.Version {
			reject(out, act.ActID, "bad protocol_version")
			return
		}
		s.world.Inbox() <- world.InputRequest{SessionID: sessionID, Act: act}

	case protocol.TypeJournalReq:
		if err := protocol.Validate(protocol.TypeJournalReq, msg); err != nil {
			return
		}
		var req protocol.JournalReqMsg
		if err := json.Unmarshal(msg, &req); err != nil {
			return
		}
		s.world.JournalRequests() <- world.JournalRequest{SessionID: sessionID, Req: req}
	}
}

// reject answers a malformed ACT without involving the world.
func reject(out chan []byte, actID, message string) {
	b, err := json.Marshal(protocol.ActResultMsg{
		Type:            protocol.TypeActResult,
		ProtocolVersion: protocol.Version,
		ActID:           actID,
		Code:            protocol.ErrProtoBadRequest,
		Message:         message,
	})
	if err != nil {
		return
	}
	select {
	case out <- b:
	default:
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", nil
	}
	if err := protocol.Validate(protocol.TypeHello, msg); err != nil {
		closeWith(conn, protocol.ErrProtoBadRequest)
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return "", nil
	}

	out = make(chan []byte, 32)
	respCh := make(chan world.AttachResponse, 1)
	s.world.Attach() <- world.AttachRequest{
		Name: hello.PlayerName,
		Out:  out,
		Resp: respCh,
	}
	resp := <-respCh
	if resp.Code != "" {
		closeWith(conn, resp.Code)
		return "", nil
	}

	// WELCOME goes out before the writer starts, so it precedes the first OBS.
	if err := writeJSON(conn, resp.Welcome); err != nil {
		s.world.Leave() <- resp.Welcome.SessionID
		return "", nil
	}
	return resp.Welcome.SessionID, out
}

func (s *Server) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Printf(format, args...)
	}
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
