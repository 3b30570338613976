// Package journal is the append-only message log shown to the player.
// Readers keep a high-water mark instead of removing entries.
package journal

import "undercroft.game/internal/sim/grid"

type Category string

const (
	Info   Category = "info"
	Combat Category = "combat"
	Danger Category = "danger"
	Denied Category = "denied"
)

type Event struct {
	Tick     uint64     `json:"tick"`
	Text     string     `json:"text"`
	Pos      grid.Point `json:"pos"`
	Category Category   `json:"category"`
}

type Journal struct {
	events []Event
	read   int
}

func New() *Journal { return &Journal{} }

func (j *Journal) Push(e Event) { j.events = append(j.events, e) }

// PushUnique appends e unless the last entry has the same text.
func (j *Journal) PushUnique(e Event) bool {
	if n := len(j.events); n > 0 && j.events[n-1].Text == e.Text {
		return false
	}
	j.Push(e)
	return true
}

// NewEvents returns the entries after the read offset and advances it.
// The slice aliases the journal and must not be modified.
func (j *Journal) NewEvents() []Event {
	out := j.events[j.read:]
	j.read = len(j.events)
	return out
}

// Since returns entries from offset on without touching the read offset.
func (j *Journal) Since(offset int) []Event {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(j.events) {
		return nil
	}
	return j.events[offset:]
}

func (j *Journal) Len() int    { return len(j.events) }
func (j *Journal) Offset() int { return j.read }

// Restore replaces the content, used when importing a snapshot.
func (j *Journal) Restore(events []Event, offset int) {
	j.events = append([]Event(nil), events...)
	if offset > len(j.events) {
		offset = len(j.events)
	}
	j.read = offset
}
