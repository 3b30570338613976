package actions

import "fmt"

// Action is a validated proposal bound to its owner. The duration is fixed at
// creation; Finish is always Created+Duration.
type Action struct {
	owner    ActorID
	proposal Proposal
	duration int
	created  uint64
}

// New binds an allowed proposal to its owner at tick now. It returns an error
// when the possibility was a denial.
func New(owner ActorID, p Proposal, poss Possibility, now uint64) (*Action, error) {
	if !poss.OK {
		return nil, fmt.Errorf("%s denied: %s", p.Kind, poss.Reason)
	}
	if poss.Duration < 1 {
		return nil, fmt.Errorf("%s: duration %d < 1", p.Kind, poss.Duration)
	}
	return &Action{owner: owner, proposal: p, duration: poss.Duration, created: now}, nil
}

func (a *Action) Owner() ActorID     { return a.owner }
func (a *Action) Proposal() Proposal { return a.proposal }
func (a *Action) Kind() Kind         { return a.proposal.Kind }
func (a *Action) Duration() int      { return a.duration }
func (a *Action) Created() uint64    { return a.created }
func (a *Action) Finish() uint64     { return a.created + uint64(a.duration) }

// Remaining is the number of ticks left before finish at tick now.
func (a *Action) Remaining(now uint64) int {
	if now >= a.Finish() {
		return 0
	}
	return int(a.Finish() - now)
}

func (a *Action) String() string {
	return fmt.Sprintf("%s by #%d [%d..%d]", a.proposal, a.owner, a.created, a.Finish())
}

// Record is the serializable form of an Action.
type Record struct {
	Owner    ActorID  `json:"owner"`
	Proposal Proposal `json:"proposal"`
	Duration int      `json:"duration"`
	Created  uint64   `json:"created"`
}

func (a *Action) Record() Record {
	return Record{Owner: a.owner, Proposal: a.proposal, Duration: a.duration, Created: a.created}
}

// FromRecord restores an action exported with Record.
func FromRecord(r Record) (*Action, error) {
	if err := r.Proposal.Check(); err != nil {
		return nil, err
	}
	return New(r.Owner, r.Proposal, Yes(r.Duration), r.Created)
}
