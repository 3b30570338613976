package world

import (
	"errors"
	"testing"

	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/dice"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/journal"
	"undercroft.game/internal/sim/tuning"
)

const roomLayout = `
#######
#@....#
#.....#
#######
`

func TestInput_WalkTakesPassCost(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "")

	rep, err := w.Input(actions.Walk(grid.East))
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if !rep.Possibility.OK || rep.Possibility.Duration != 100 {
		t.Fatalf("possibility=%v", rep.Possibility)
	}
	if rep.StartTick != 0 || rep.EndTick != 100 || rep.Capped {
		t.Fatalf("report ticks %d..%d capped=%v", rep.StartTick, rep.EndTick, rep.Capped)
	}
	pl, _ := w.Player()
	if pl.Pos != grid.P(2, 1) || !pl.Idle {
		t.Fatalf("player=%+v", pl)
	}

	rep, err = w.Input(actions.Walk(grid.SouthEast))
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	// 100 * 1414 permille, rounded.
	if rep.Possibility.Duration != 141 || rep.EndTick != 241 {
		t.Fatalf("diagonal walk: %v end=%d", rep.Possibility, rep.EndTick)
	}
	if w.Inputs() != 2 {
		t.Fatalf("inputs=%d", w.Inputs())
	}
}

func TestInput_SkipIsOneTick(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "")
	for i := 1; i <= 3; i++ {
		rep, err := w.Input(actions.Skip())
		if err != nil {
			t.Fatalf("Input: %v", err)
		}
		if rep.EndTick != uint64(i) {
			t.Fatalf("skip %d ended at %d", i, rep.EndTick)
		}
	}
}

func TestInput_DeniedLeavesTickAndLogsOnce(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "")

	rep, err := w.Input(actions.Walk(grid.West))
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if rep.Possibility.OK || rep.EndTick != 0 {
		t.Fatalf("walk into wall: %v end=%d", rep.Possibility, rep.EndTick)
	}
	if !hasEvent(rep.Events, journal.Denied, "The wall blocks your way.") {
		t.Fatalf("missing denial event: %+v", rep.Events)
	}
	n := w.Journal().Len()
	if _, err := w.Input(actions.Walk(grid.West)); err != nil {
		t.Fatalf("Input: %v", err)
	}
	if w.Journal().Len() != n {
		t.Fatalf("repeated denial logged twice")
	}
	if pl, _ := w.Player(); !pl.Idle {
		t.Fatalf("denied proposal left an action pending")
	}
}

func TestInput_MalformedProposal(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "")
	if _, err := w.Input(actions.Proposal{Kind: "FLY"}); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
	if _, err := w.Input(actions.Item(actions.KindDrop, -1)); err == nil {
		t.Fatalf("expected error for negative index")
	}
	if w.Inputs() != 0 {
		t.Fatalf("malformed input counted: %d", w.Inputs())
	}
}

func TestAdvance_CapsAndResumes(t *testing.T) {
	tun := tuning.Defaults()
	tun.MaxTicksPerInput = 10
	w := newTestWorld(t, tun, roomLayout, "")

	rep, err := w.Input(actions.Walk(grid.East))
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if !rep.Capped || rep.EndTick != 10 {
		t.Fatalf("capped=%v end=%d", rep.Capped, rep.EndTick)
	}
	if _, err := w.Submit(actions.Skip()); !errors.Is(err, ErrActionPending) {
		t.Fatalf("Submit while pending: err=%v", err)
	}

	for i := 0; i < 20; i++ {
		rep = w.Advance()
		if !rep.Capped {
			break
		}
	}
	if rep.Capped || rep.EndTick != 100 {
		t.Fatalf("resume: capped=%v end=%d", rep.Capped, rep.EndTick)
	}
	if pl, _ := w.Player(); pl.Pos != grid.P(2, 1) {
		t.Fatalf("player at %v", pl.Pos)
	}
}

func TestResume_IsALoggedInput(t *testing.T) {
	tun := tuning.Defaults()
	tun.MaxTicksPerInput = 10
	w := newTestWorld(t, tun, roomLayout, "")
	log := &memLogger{}
	w.SetInputLogger(log)

	if _, err := w.Resume(); !errors.Is(err, ErrNothingPending) {
		t.Fatalf("Resume while idle: err=%v", err)
	}
	rep, err := w.Input(actions.Walk(grid.East))
	if err != nil || !rep.Capped {
		t.Fatalf("walk: capped=%v err=%v", rep.Capped, err)
	}
	for rep.Capped {
		if rep, err = w.Resume(); err != nil {
			t.Fatalf("Resume: %v", err)
		}
		if rep.Input != actions.Walk(grid.East) {
			t.Fatalf("resumed %v", rep.Input)
		}
	}
	if rep.EndTick != 100 || w.Inputs() != uint64(len(log.entries)) {
		t.Fatalf("end=%d inputs=%d logged=%d", rep.EndTick, w.Inputs(), len(log.entries))
	}
	if log.entries[0].Resumed || !log.entries[len(log.entries)-1].Resumed {
		t.Fatalf("resumed flags wrong: %+v", log.entries)
	}
}

func TestAct_LaterActorMovesFirst(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "")
	first := mustSpawn(t, w, "rat", grid.P(3, 2))
	second := mustSpawn(t, w, "rat", grid.P(5, 2))

	if p := w.install(first, actions.Walk(grid.East)); !p.OK {
		t.Fatalf("install first: %v", p)
	}
	if p := w.install(second, actions.Walk(grid.West)); !p.OK {
		t.Fatalf("install second: %v", p)
	}
	// Rats move at 700 permille: 70 ticks on stone floor.
	runUntil(w, 70)

	if second.Pos != grid.P(4, 2) {
		t.Fatalf("second rat at %v, want (4,2)", second.Pos)
	}
	if first.Pos != grid.P(3, 2) || first.pending != nil {
		t.Fatalf("first rat at %v pending=%v", first.Pos, first.pending)
	}
}

func TestInput_LosingTheRaceCancelsPlayerWalk(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "")
	rat := mustSpawn(t, w, "rat", grid.P(3, 2))
	if p := w.install(rat, actions.Walk(grid.NorthWest)); !p.OK {
		t.Fatalf("install rat: %v", p)
	}

	rep, err := w.Input(actions.Walk(grid.East))
	if err != nil {
		t.Fatalf("Input: %v", err)
	}
	if !rep.Possibility.OK {
		t.Fatalf("walk refused up front: %v", rep.Possibility)
	}
	if rat.Pos != grid.P(2, 1) {
		t.Fatalf("rat at %v, want (2,1)", rat.Pos)
	}
	pl, _ := w.Player()
	if pl.Pos != grid.P(1, 1) || !pl.Idle {
		t.Fatalf("player=%+v", pl)
	}
	var denied []journal.Event
	for _, e := range rep.Events {
		if e.Category == journal.Denied {
			denied = append(denied, e)
		}
	}
	if len(denied) != 1 || denied[0].Text != "The giant rat is in the way." {
		t.Fatalf("denied events=%+v", denied)
	}
}

func TestCheck_DoesNotRoll(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "")
	pl := w.player()
	pl.Inventory = append(pl.Inventory, Item{ID: "DIARY"})
	w.SetDiceSource(dice.NewScript())

	if p := w.Check(pl.ID, actions.Item(actions.KindRead, 0)); !p.OK {
		t.Fatalf("Check read: %v", p)
	}
	if p := w.Check(pl.ID, actions.Walk(grid.North)); p.OK {
		t.Fatalf("Check walk into wall allowed")
	}
	if p := w.Check(999, actions.Skip()); p.OK {
		t.Fatalf("Check for unknown actor allowed")
	}
	if !pl.Idle() {
		t.Fatalf("Check installed an action")
	}
}

func TestHandlers_CoverEveryKind(t *testing.T) {
	for _, k := range actions.Kinds {
		h, ok := actionHandlers[k]
		if !ok {
			t.Fatalf("no handler for %s", k)
		}
		if h.validate == nil || h.finish == nil {
			t.Fatalf("%s: validate and finish are required", k)
		}
	}
	if len(actionHandlers) != len(actions.Kinds) {
		t.Fatalf("handlers=%d kinds=%d", len(actionHandlers), len(actions.Kinds))
	}
}

func TestKill_DropsItemsAndEndsGame(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "")
	rat := mustSpawn(t, w, "rat", grid.P(4, 2))
	rat.Inventory = append(rat.Inventory, Item{ID: "SKULL"})
	w.kill(rat)
	if _, ok := w.Actor(rat.ID); ok {
		t.Fatalf("rat still registered")
	}
	if _, ok := w.ActorAt(grid.P(4, 2)); ok {
		t.Fatalf("rat still occupies its tile")
	}
	if items := w.tiles.Items(grid.P(4, 2)); len(items) != 1 || items[0].ID != "SKULL" {
		t.Fatalf("dropped=%+v", items)
	}

	pl := w.player()
	pl.Wielded = append(pl.Wielded, w.newItem("CROSSBOW"))
	at := pl.Pos
	w.kill(pl)
	if !w.GameOver() {
		t.Fatalf("game should be over")
	}
	if items := w.tiles.Items(at); len(items) != 1 || items[0].Loaded != 1 {
		t.Fatalf("player drop=%+v", items)
	}
	if _, err := w.Input(actions.Skip()); !errors.Is(err, ErrGameOver) {
		t.Fatalf("Input after death: err=%v", err)
	}
}

func TestStateDigest_Deterministic(t *testing.T) {
	run := func() []string {
		w := newTestWorld(t, tuning.Defaults(), roomLayout, "")
		mustSpawn(t, w, "rat", grid.P(5, 2))
		var out []string
		for _, p := range []actions.Proposal{actions.Walk(grid.East), actions.Skip(), actions.Walk(grid.SouthEast)} {
			rep, err := w.Input(p)
			if err != nil {
				t.Fatalf("Input: %v", err)
			}
			out = append(out, rep.Digest)
		}
		return out
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("digest %d differs: %s vs %s", i, a[i], b[i])
		}
	}
	if a[0] == a[1] {
		t.Fatalf("digest did not change between inputs")
	}
}

type memLogger struct{ entries []InputLogEntry }

func (m *memLogger) WriteInput(e InputLogEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

type brokenLogger struct{}

func (brokenLogger) WriteInput(InputLogEntry) error { return errors.New("read-only file system") }

func TestInput_LogFailuresAreCounted(t *testing.T) {
	w := newTestWorld(t, tuning.Defaults(), roomLayout, "")
	w.SetInputLogger(brokenLogger{})
	for i := 0; i < 2; i++ {
		if _, err := w.Input(actions.Skip()); err != nil {
			t.Fatalf("Input: %v", err)
		}
	}
	w.publishMetrics()
	if m := w.Metrics(); m.InputLogFailures != 2 || m.Inputs != 2 {
		t.Fatalf("metrics=%+v", m)
	}
}

func TestInput_LogsAndSnapshots(t *testing.T) {
	tun := tuning.Defaults()
	tun.SnapshotEveryInputs = 2
	w := newTestWorld(t, tun, roomLayout, "")
	log := &memLogger{}
	w.SetInputLogger(log)
	sink := make(chan snapshot.SnapshotV1, 4)
	w.SetSnapshotSink(sink)

	for i := 0; i < 4; i++ {
		if _, err := w.Input(actions.Skip()); err != nil {
			t.Fatalf("Input: %v", err)
		}
	}
	if len(log.entries) != 4 || log.entries[3].Input != 4 || log.entries[3].Tick != 4 {
		t.Fatalf("log entries=%+v", log.entries)
	}
	if len(sink) != 2 {
		t.Fatalf("snapshots=%d want 2", len(sink))
	}
	s := <-sink
	if s.Header.Inputs != 2 || s.Header.Tick != 2 {
		t.Fatalf("first snapshot header=%+v", s.Header)
	}
}
