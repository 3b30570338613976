// Package actions defines the closed set of action kinds, their parameters,
// and the immutable Action installed on an actor by the scheduler.
package actions

import (
	"fmt"

	"undercroft.game/internal/sim/grid"
)

// ActorID identifies an actor in the world registry.
type ActorID uint32

type Kind string

const (
	KindSkip    Kind = "SKIP"
	KindWalk    Kind = "WALK"
	KindMelee   Kind = "MELEE"
	KindSmash   Kind = "SMASH"
	KindShoot   Kind = "SHOOT"
	KindThrow   Kind = "THROW"
	KindDig     Kind = "DIG"
	KindOpen    Kind = "OPEN"
	KindClose   Kind = "CLOSE"
	KindPickup  Kind = "PICKUP"
	KindDrop    Kind = "DROP"
	KindWield   Kind = "WIELD"
	KindUnwield Kind = "UNWIELD"
	KindWear    Kind = "WEAR"
	KindTakeOff Kind = "TAKE_OFF"
	KindReload  Kind = "RELOAD"
	KindRead    Kind = "READ"
)

// Param is the parameter shape a kind expects.
type Param uint8

const (
	ParamNone Param = iota
	ParamDir
	ParamTarget
	ParamIndex
	ParamIndexTarget
)

var kindParams = map[Kind]Param{
	KindSkip:    ParamNone,
	KindWalk:    ParamDir,
	KindMelee:   ParamTarget,
	KindSmash:   ParamTarget,
	KindShoot:   ParamTarget,
	KindThrow:   ParamIndexTarget,
	KindDig:     ParamTarget,
	KindOpen:    ParamTarget,
	KindClose:   ParamTarget,
	KindPickup:  ParamIndex,
	KindDrop:    ParamIndex,
	KindWield:   ParamIndex,
	KindUnwield: ParamIndex,
	KindWear:    ParamIndex,
	KindTakeOff: ParamIndex,
	KindReload:  ParamNone,
	KindRead:    ParamIndex,
}

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	KindSkip, KindWalk, KindMelee, KindSmash, KindShoot, KindThrow, KindDig,
	KindOpen, KindClose, KindPickup, KindDrop, KindWield, KindUnwield,
	KindWear, KindTakeOff, KindReload, KindRead,
}

func (k Kind) Valid() bool {
	_, ok := kindParams[k]
	return ok
}

func (k Kind) Param() Param { return kindParams[k] }

// Proposal is a kind plus its parameters, before validation. Only the fields
// named by the kind's Param are meaningful.
type Proposal struct {
	Kind   Kind           `json:"kind"`
	Dir    grid.Direction `json:"dir,omitempty"`
	Target grid.Point     `json:"target,omitempty"`
	Index  int            `json:"index,omitempty"`
}

func Skip() Proposal                   { return Proposal{Kind: KindSkip} }
func Walk(d grid.Direction) Proposal   { return Proposal{Kind: KindWalk, Dir: d} }
func At(k Kind, p grid.Point) Proposal { return Proposal{Kind: k, Target: p} }
func Item(k Kind, index int) Proposal  { return Proposal{Kind: k, Index: index} }
func Throw(index int, p grid.Point) Proposal {
	return Proposal{Kind: KindThrow, Index: index, Target: p}
}

// Check verifies the proposal is well formed. It does not consult the world.
func (p Proposal) Check() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("unknown action kind %q", p.Kind)
	}
	switch p.Kind.Param() {
	case ParamDir:
		if !p.Dir.Valid() {
			return fmt.Errorf("%s: invalid direction %d", p.Kind, p.Dir)
		}
	case ParamIndex, ParamIndexTarget:
		if p.Index < 0 {
			return fmt.Errorf("%s: negative index %d", p.Kind, p.Index)
		}
	}
	return nil
}

func (p Proposal) String() string {
	switch p.Kind.Param() {
	case ParamDir:
		return fmt.Sprintf("%s %s", p.Kind, p.Dir)
	case ParamTarget:
		return fmt.Sprintf("%s %s", p.Kind, p.Target)
	case ParamIndex:
		return fmt.Sprintf("%s #%d", p.Kind, p.Index)
	case ParamIndexTarget:
		return fmt.Sprintf("%s #%d %s", p.Kind, p.Index, p.Target)
	}
	return string(p.Kind)
}
