package world

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"undercroft.game/internal/protocol"
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/tuning"
)

func recv[T any](t *testing.T, out chan []byte, typ string) T {
	t.Helper()
	var v T
	select {
	case b := <-out:
		base, err := protocol.DecodeBase(b)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type != typ {
			t.Fatalf("got %s want %s: %s", base.Type, typ, b)
		}
		if err := json.Unmarshal(b, &v); err != nil {
			t.Fatalf("unmarshal %s: %v", typ, err)
		}
	default:
		t.Fatalf("no %s message queued", typ)
	}
	return v
}

func attach(t *testing.T, w *World) (string, chan []byte) {
	t.Helper()
	out := make(chan []byte, 8)
	resp := make(chan AttachResponse, 1)
	w.handleAttach(AttachRequest{Name: "tester", Out: out, Resp: resp})
	r := <-resp
	if r.Code != "" || r.Welcome.SessionID == "" {
		t.Fatalf("attach: %+v", r)
	}
	return r.Welcome.SessionID, out
}

func TestSession_AttachActObserve(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "items:\n  - {item: ROCK, at: [3, 1]}\n")
	sid, out := attach(t, w)

	obs := recv[protocol.ObsMsg](t, out, protocol.TypeObs)
	if obs.Self.Pos != [2]int{1, 1} || len(obs.Tiles) == 0 {
		t.Fatalf("initial obs self=%+v tiles=%d", obs.Self, len(obs.Tiles))
	}

	busy := make(chan AttachResponse, 1)
	w.handleAttach(AttachRequest{Out: make(chan []byte, 1), Resp: busy})
	if r := <-busy; r.Code != protocol.ErrWorldBusy {
		t.Fatalf("second attach code=%q", r.Code)
	}

	w.handleInput(InputRequest{SessionID: sid, Act: protocol.ActMsg{ActID: "a1", Kind: "WALK", Dir: "E"}})
	res := recv[protocol.ActResultMsg](t, out, protocol.TypeActResult)
	if !res.Accepted || res.ActID != "a1" || res.EndTick != 100 {
		t.Fatalf("act result=%+v", res)
	}
	obs = recv[protocol.ObsMsg](t, out, protocol.TypeObs)
	if obs.Self.Pos != [2]int{2, 1} || obs.Tick != 100 {
		t.Fatalf("obs after walk: tick=%d self=%+v", obs.Tick, obs.Self)
	}
	var rock bool
	for _, tile := range obs.Tiles {
		if tile.Pos == [2]int{3, 1} && len(tile.Items) == 1 && tile.Items[0] == "ROCK" {
			rock = true
		}
	}
	if !rock {
		t.Fatalf("rock not visible in obs")
	}

	w.handleInput(InputRequest{SessionID: sid, Act: protocol.ActMsg{ActID: "a2", Kind: "WALK", Dir: "N"}})
	res = recv[protocol.ActResultMsg](t, out, protocol.TypeActResult)
	if res.Accepted || res.Code != protocol.ErrDenied || res.Message != "The wall blocks your way." {
		t.Fatalf("denied result=%+v", res)
	}
	obs = recv[protocol.ObsMsg](t, out, protocol.TypeObs)
	if len(obs.Events) != 1 || obs.Events[0].Category != "denied" {
		t.Fatalf("obs events=%+v", obs.Events)
	}

	w.handleInput(InputRequest{SessionID: sid, Act: protocol.ActMsg{ActID: "a3", Kind: "MELEE"}})
	res = recv[protocol.ActResultMsg](t, out, protocol.TypeActResult)
	if res.Code != protocol.ErrBadRequest {
		t.Fatalf("missing target result=%+v", res)
	}
	if len(out) != 0 {
		t.Fatalf("bad request should not push an obs")
	}

	// Foreign sessions are ignored.
	w.handleInput(InputRequest{SessionID: "other", Act: protocol.ActMsg{ActID: "a4", Kind: "SKIP"}})
	if len(out) != 0 {
		t.Fatalf("foreign session got a reply")
	}

	w.handleJournalReq(JournalRequest{SessionID: sid, Req: protocol.JournalReqMsg{ReqID: "j1", Limit: 10}})
	jr := recv[protocol.JournalMsg](t, out, protocol.TypeJournal)
	if jr.ReqID != "j1" || len(jr.Events) != w.Journal().Len() || jr.NextCursor != uint64(w.Journal().Len()) {
		t.Fatalf("journal=%+v", jr)
	}

	w.handleLeave(sid)
	if w.session != nil {
		t.Fatalf("session still attached")
	}
	sid2, _ := attach(t, w)
	if sid2 == sid {
		t.Fatalf("session id reused")
	}
}

func TestProposalFromAct(t *testing.T) {
	idx := 2
	target := [2]int{3, 4}
	cases := []struct {
		act  protocol.ActMsg
		want actions.Proposal
		err  bool
	}{
		{act: protocol.ActMsg{Kind: "SKIP"}, want: actions.Skip()},
		{act: protocol.ActMsg{Kind: "WALK", Dir: "sw"}, want: actions.Walk(grid.SouthWest)},
		{act: protocol.ActMsg{Kind: "DIG", Target: &target}, want: actions.At(actions.KindDig, grid.P(3, 4))},
		{act: protocol.ActMsg{Kind: "WEAR", Index: &idx}, want: actions.Item(actions.KindWear, 2)},
		{act: protocol.ActMsg{Kind: "THROW", Index: &idx, Target: &target}, want: actions.Throw(2, grid.P(3, 4))},
		{act: protocol.ActMsg{Kind: "WALK"}, err: true},
		{act: protocol.ActMsg{Kind: "THROW", Index: &idx}, err: true},
		{act: protocol.ActMsg{Kind: "READ"}, err: true},
		{act: protocol.ActMsg{Kind: "TELEPORT"}, err: true},
	}
	for _, tc := range cases {
		got, err := proposalFromAct(tc.act)
		if tc.err {
			if err == nil {
				t.Fatalf("%+v: expected error, got %v", tc.act, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%+v: %v", tc.act, err)
		}
		if got != tc.want {
			t.Fatalf("%+v: got %v want %v", tc.act, got, tc.want)
		}
	}
}

func TestSendLatest_DropsOldest(t *testing.T) {
	ch := make(chan []byte, 2)
	sendLatest(ch, []byte("1"))
	sendLatest(ch, []byte("2"))
	sendLatest(ch, []byte("3"))
	if a, b := string(<-ch), string(<-ch); a != "2" || b != "3" {
		t.Fatalf("got %s %s", a, b)
	}
}

func TestMetrics_PublishedByLoop(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "")
	if m := w.Metrics(); m.Inputs != 0 || m.Attached {
		t.Fatalf("before run: %+v", m)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	out := make(chan []byte, 8)
	resp := make(chan AttachResponse, 1)
	w.Attach() <- AttachRequest{Name: "tester", Out: out, Resp: resp}
	sid := (<-resp).Welcome.SessionID
	w.Inbox() <- InputRequest{SessionID: sid, Act: protocol.ActMsg{ActID: "a1", Kind: "SKIP"}}

	deadline := time.Now().Add(5 * time.Second)
	for w.Metrics().Inputs != 1 || !w.Metrics().Attached {
		if time.Now().After(deadline) {
			t.Fatalf("metrics never caught up: %+v", w.Metrics())
		}
		// Nudge the loop so it publishes again.
		w.JournalRequests() <- JournalRequest{SessionID: "nobody"}
		time.Sleep(time.Millisecond)
	}
	if m := w.Metrics(); m.Player == nil || m.Player.Pos != [2]int{1, 1} {
		t.Fatalf("player status: %+v", m.Player)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run: %v", err)
	}
}
