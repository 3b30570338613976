package world

import (
	"fmt"

	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/journal"
)

// Report summarizes one player input.
type Report struct {
	Input       actions.Proposal
	Possibility actions.Possibility
	StartTick   uint64
	EndTick     uint64
	Events      []journal.Event
	Digest      string
	// Capped is set when the tick budget ran out before the player's action
	// completed.
	Capped   bool
	GameOver bool
}

func (w *World) validate(a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	h, ok := actionHandlers[p.Kind]
	if !ok {
		panic(fmt.Sprintf("world: no handler for action kind %q", p.Kind))
	}
	return h.validate(w, a, p, recheck)
}

// Check validates p for an actor without installing it. It never rolls dice.
func (w *World) Check(id ActorID, p actions.Proposal) actions.Possibility {
	a := w.byID[id]
	if a == nil {
		return actions.No("no such actor")
	}
	if err := p.Check(); err != nil {
		return actions.No("%v", err)
	}
	return w.validate(a, p, true)
}

// install validates p and stores the resulting action on a. A denial leaves
// the actor idle.
func (w *World) install(a *Actor, p actions.Proposal) actions.Possibility {
	if a.pending != nil {
		panic(fmt.Sprintf("world: actor %d already has a pending action", a.ID))
	}
	poss := w.validate(a, p, false)
	if !poss.OK {
		return poss
	}
	act, err := actions.New(a.ID, p, poss, w.tick)
	if err != nil {
		panic(fmt.Sprintf("world: %v", err))
	}
	a.pending = &pending{action: act}
	return poss
}

// Submit validates the player's proposal and installs it. Denials are
// returned as a Possibility and logged for the player; malformed proposals
// and calls in a state that cannot take input return an error.
func (w *World) Submit(p actions.Proposal) (actions.Possibility, error) {
	if w.gameOver {
		return actions.Possibility{}, ErrGameOver
	}
	pl := w.player()
	if pl == nil {
		return actions.Possibility{}, ErrNoPlayer
	}
	if pl.pending != nil {
		return actions.Possibility{}, ErrActionPending
	}
	if err := p.Check(); err != nil {
		return actions.Possibility{}, err
	}
	poss := w.install(pl, p)
	if !poss.OK {
		w.deny(pl, poss.Reason)
	}
	return poss, nil
}

func (w *World) deny(a *Actor, reason string) {
	if !a.Player {
		return
	}
	w.journal.PushUnique(journal.Event{Tick: w.tick, Text: reason, Pos: a.Pos, Category: journal.Denied})
}

// Advance executes the current tick and then keeps simulating while the
// player has a pending action, up to the per-input tick budget.
func (w *World) Advance() Report {
	rep := Report{StartTick: w.tick}
	offset := w.journal.Len()

	w.act()
	for n := 0; ; n++ {
		pl := w.player()
		if w.gameOver || pl == nil || pl.pending == nil {
			break
		}
		if n >= w.tuning.MaxTicksPerInput {
			rep.Capped = true
			break
		}
		w.tick++
		w.act()
		w.plan()
	}

	rep.EndTick = w.tick
	rep.GameOver = w.gameOver
	rep.Events = append([]journal.Event(nil), w.journal.Since(offset)...)
	return rep
}

// act runs one execution pass over every pending action, last inserted
// actor first.
func (w *World) act() {
	for _, id := range w.ActorIDs() {
		a := w.byID[id]
		if a == nil || a.pending == nil {
			// Removed or cancelled earlier in this pass.
			continue
		}
		w.execute(a)
	}
}

func (w *World) execute(a *Actor) {
	pd := a.pending
	act := pd.action
	if w.tick > act.Finish() {
		panic(fmt.Sprintf("world: %v missed its finish tick (now %d)", act, w.tick))
	}
	h := actionHandlers[act.Kind()]

	if poss := h.validate(w, a, act.Proposal(), true); !poss.OK {
		a.pending = nil
		w.deny(a, poss.Reason)
		return
	}

	finishing := w.tick == act.Finish()
	switch {
	case !pd.started:
		pd.started = true
		if h.start != nil {
			h.start(w, a, act)
		}
	case !finishing:
		if h.step != nil {
			h.step(w, a, act)
		}
	}
	if finishing {
		if a.pending == pd {
			a.pending = nil
		}
		h.finish(w, a, act)
	}
}

// plan asks the planners for actions for idle non-player actors. Proposals
// that fail validation are dropped.
func (w *World) plan() {
	for _, id := range w.ActorIDs() {
		a := w.byID[id]
		if a == nil || a.Player || a.pending != nil {
			continue
		}
		pl := w.planners[a.def.AI]
		if pl == nil {
			continue
		}
		p, ok := pl.Plan(w, id)
		if !ok || p.Check() != nil {
			continue
		}
		// The planner may have removed or moved things; re-fetch.
		if a = w.byID[id]; a == nil || a.pending != nil {
			continue
		}
		w.install(a, p)
	}
}

// Input is one full player turn: submit, advance, then record the result.
func (w *World) Input(p actions.Proposal) (Report, error) {
	offset := w.journal.Len()
	poss, err := w.Submit(p)
	if err != nil {
		return Report{}, err
	}
	rep := Report{StartTick: w.tick, EndTick: w.tick}
	if poss.OK {
		rep = w.Advance()
	}
	rep.Input = p
	rep.Possibility = poss
	w.record(&rep, offset, false)
	return rep, nil
}

// Resume is the player turn after a capped input: it keeps simulating the
// pending action without submitting anything new.
func (w *World) Resume() (Report, error) {
	if w.gameOver {
		return Report{}, ErrGameOver
	}
	pl := w.player()
	if pl == nil {
		return Report{}, ErrNoPlayer
	}
	if pl.pending == nil {
		return Report{}, ErrNothingPending
	}
	act := pl.pending.action
	offset := w.journal.Len()
	rep := w.Advance()
	rep.Input = act.Proposal()
	rep.Possibility = actions.Yes(act.Duration())
	w.record(&rep, offset, true)
	return rep, nil
}

// record counts the input, fills in the report and feeds the log and
// snapshot sinks.
func (w *World) record(rep *Report, offset int, resumed bool) {
	w.inputs++
	rep.GameOver = w.gameOver
	rep.Events = append([]journal.Event(nil), w.journal.Since(offset)...)
	rep.Digest = w.StateDigest()

	if w.inputLogger != nil {
		err := w.inputLogger.WriteInput(InputLogEntry{
			Input:    w.inputs,
			Proposal: rep.Input,
			Resumed:  resumed,
			OK:       rep.Possibility.OK,
			Tick:     rep.EndTick,
			Digest:   rep.Digest,
			Events:   rep.Events,
		})
		if err != nil {
			w.logFailures++
		}
	}
	periodic := w.tuning.SnapshotEveryInputs > 0 && w.inputs%uint64(w.tuning.SnapshotEveryInputs) == 0
	// The final state is always offered so the run can be archived.
	if w.snapshotSink != nil && (periodic || rep.GameOver) {
		select {
		case w.snapshotSink <- w.ExportSnapshot():
		default:
			// Drop snapshot if sink is backed up.
		}
	}
}

type InputLogger interface {
	WriteInput(entry InputLogEntry) error
}

// InputLogEntry is one line of the input log. Replaying the proposals from a
// snapshot must reproduce every digest.
type InputLogEntry struct {
	Input    uint64           `json:"input"`
	Proposal actions.Proposal `json:"proposal"`
	Resumed  bool             `json:"resumed,omitempty"`
	OK       bool             `json:"ok"`
	Tick     uint64           `json:"tick"`
	Digest   string           `json:"digest"`
	Events   []journal.Event  `json:"events,omitempty"`
}
