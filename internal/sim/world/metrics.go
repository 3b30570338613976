package world

import "undercroft.game/internal/protocol"

// recentEvents is how much of the journal tail Metrics carries.
const recentEvents = 8

// Metrics is a copy of the loop's counters, safe to read from any goroutine.
type Metrics struct {
	Tick     uint64 `json:"tick"`
	Inputs   uint64 `json:"inputs"`
	Actors   int    `json:"actors"`
	Journal  int    `json:"journal"`
	Attached bool   `json:"attached"`
	GameOver bool   `json:"game_over"`

	// InputLogFailures counts inputs the input logger failed to write.
	InputLogFailures uint64 `json:"input_log_failures"`

	Player *PlayerStatus    `json:"player,omitempty"`
	Recent []protocol.Event `json:"recent,omitempty"`

	QueueDepths QueueDepths `json:"queue_depths"`
}

type PlayerStatus struct {
	Pos     [2]int `json:"pos"`
	Wounds  int    `json:"wounds"`
	Shocked bool   `json:"shocked,omitempty"`
}

type QueueDepths struct {
	Inbox   int `json:"inbox"`
	Attach  int `json:"attach"`
	Leave   int `json:"leave"`
	Journal int `json:"journal"`
}

// Metrics returns the counters as of the last message the loop handled.
func (w *World) Metrics() Metrics {
	if m := w.metrics.Load(); m != nil {
		return *m
	}
	return Metrics{}
}

func (w *World) publishMetrics() {
	m := &Metrics{
		Tick:     w.tick,
		Inputs:   w.inputs,
		Actors:   len(w.actors),
		Journal:  w.journal.Len(),
		Attached: w.session != nil,
		GameOver: w.gameOver,

		InputLogFailures: w.logFailures,

		QueueDepths: QueueDepths{
			Inbox:   len(w.inbox),
			Attach:  len(w.attach),
			Leave:   len(w.leave),
			Journal: len(w.journalReq),
		},
	}
	if pl := w.player(); pl != nil {
		m.Player = &PlayerStatus{Pos: pl.Pos.ToArray(), Wounds: len(pl.Wounds), Shocked: pl.Shocked}
	}
	for _, e := range w.journal.Since(max(0, w.journal.Len()-recentEvents)) {
		m.Recent = append(m.Recent, eventObs(e))
	}
	w.metrics.Store(m)
}
