package world

import (
	"context"
	"encoding/json"
	"errors"

	"undercroft.game/internal/protocol"
)

// Run serves the attached session until ctx is done or Stop is called. The
// simulation only advances when the player acts.
func (w *World) Run(ctx context.Context) error {
	for {
		w.publishMetrics()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.attach:
			w.handleAttach(req)
		case id := <-w.leave:
			w.handleLeave(id)
		case req := <-w.journalReq:
			w.handleJournalReq(req)
		case req := <-w.inbox:
			w.handleInput(req)
		}
	}
}

func (w *World) Stop() { close(w.stop) }

func (w *World) handleInput(req InputRequest) {
	if w.session == nil || w.session.id != req.SessionID {
		return
	}
	res := protocol.ActResultMsg{
		Type:            protocol.TypeActResult,
		ProtocolVersion: protocol.Version,
		ActID:           req.Act.ActID,
		StartTick:       w.tick,
		EndTick:         w.tick,
	}
	p, err := proposalFromAct(req.Act)
	if err != nil {
		res.Code = protocol.ErrBadRequest
		res.Message = err.Error()
		w.send(res)
		return
	}

	rep, err := w.Input(p)
	if errors.Is(err, ErrActionPending) {
		// The last input was capped: this one only continues the current action.
		rep, err = w.Resume()
		if err == nil {
			res.Code = protocol.ErrConflict
			res.Message = "still busy with " + string(rep.Input.Kind)
			res.StartTick = rep.StartTick
			res.EndTick = rep.EndTick
			res.Capped = rep.Capped
			res.GameOver = rep.GameOver
			w.send(res)
			w.pushObs()
			return
		}
	}
	switch {
	case errors.Is(err, ErrGameOver), errors.Is(err, ErrNoPlayer):
		res.Code = protocol.ErrGameOver
		res.Message = err.Error()
		res.GameOver = true
	case errors.Is(err, ErrActionPending):
		res.Code = protocol.ErrConflict
		res.Message = err.Error()
	case err != nil:
		res.Code = protocol.ErrBadRequest
		res.Message = err.Error()
	case !rep.Possibility.OK:
		res.Code = protocol.ErrDenied
		res.Message = rep.Possibility.Reason
	default:
		res.Accepted = true
		res.StartTick = rep.StartTick
		res.EndTick = rep.EndTick
		res.Capped = rep.Capped
		res.GameOver = rep.GameOver
	}
	w.send(res)
	if err == nil {
		w.pushObs()
	}
}

func (w *World) handleJournalReq(req JournalRequest) {
	if w.session == nil || w.session.id != req.SessionID {
		return
	}
	limit := req.Req.Limit
	if limit <= 0 || limit > 500 {
		limit = 500
	}
	msg := protocol.JournalMsg{
		Type:            protocol.TypeJournal,
		ProtocolVersion: protocol.Version,
		ReqID:           req.Req.ReqID,
		NextCursor:      req.Req.SinceCursor,
	}
	if req.Req.SinceCursor < uint64(w.journal.Len()) {
		events := w.journal.Since(int(req.Req.SinceCursor))
		if len(events) > limit {
			events = events[:limit]
		}
		for i, e := range events {
			cur := req.Req.SinceCursor + uint64(i)
			msg.Events = append(msg.Events, protocol.JournalItem{Cursor: cur, Event: eventObs(e)})
		}
		msg.NextCursor = req.Req.SinceCursor + uint64(len(events))
	}
	w.send(msg)
}

func (w *World) pushObs() {
	w.send(w.buildObs())
}

func (w *World) send(v any) {
	if w.session == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	sendLatest(w.session.out, b)
}

// sendLatest never blocks the world loop: when the client is slow the oldest
// queued message is dropped.
func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
