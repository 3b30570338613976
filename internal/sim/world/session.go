package world

import (
	"strings"

	"github.com/google/uuid"

	"undercroft.game/internal/protocol"
)

// InputRequest carries one ACT from the transport into the world loop. The
// world answers on the session's Out channel.
type InputRequest struct {
	SessionID string
	Act       protocol.ActMsg
}

type JournalRequest struct {
	SessionID string
	Req       protocol.JournalReqMsg
}

// AttachRequest connects a client to the player. Only one session can be
// attached at a time; a busy world answers with an empty session id.
type AttachRequest struct {
	Name string
	Out  chan []byte
	Resp chan AttachResponse
}

type AttachResponse struct {
	Welcome protocol.WelcomeMsg
	Code    string
}

// session is the attached client. Sessions never affect simulation state.
type session struct {
	id   string
	name string
	out  chan []byte
}

func (w *World) Inbox() chan<- InputRequest             { return w.inbox }
func (w *World) Attach() chan<- AttachRequest           { return w.attach }
func (w *World) Leave() chan<- string                   { return w.leave }
func (w *World) JournalRequests() chan<- JournalRequest { return w.journalReq }

func (w *World) handleAttach(req AttachRequest) {
	if req.Out == nil {
		if req.Resp != nil {
			req.Resp <- AttachResponse{Code: protocol.ErrProtoBadRequest}
		}
		return
	}
	if w.session != nil {
		if req.Resp != nil {
			req.Resp <- AttachResponse{Code: protocol.ErrWorldBusy}
		}
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "player"
	}
	w.session = &session{id: uuid.New().String(), name: name, out: req.Out}

	if req.Resp != nil {
		req.Resp <- AttachResponse{Welcome: w.buildWelcome(w.session.id)}
	}
	// Initial view, including everything logged so far.
	w.pushObs()
}

func (w *World) handleLeave(id string) {
	if w.session != nil && w.session.id == id {
		w.session = nil
	}
}
