package world

import "undercroft.game/internal/sim/actions"

// handler is the per-kind action contract. validate never mutates the world;
// with recheck set it must not consume randomness either. start and step may
// be nil. Effects commit in finish.
type handler struct {
	validate func(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility
	start    func(w *World, a *Actor, act *actions.Action)
	step     func(w *World, a *Actor, act *actions.Action)
	finish   func(w *World, a *Actor, act *actions.Action)
}

// actionHandlers must cover every kind in actions.Kinds. Handlers must not
// reach back into the scheduler (Submit/Advance/plan): that would make this
// table refer to itself during package initialization.
var actionHandlers = map[actions.Kind]handler{
	actions.KindSkip:    {validate: validateSkip, finish: finishSkip},
	actions.KindWalk:    {validate: validateWalk, finish: finishWalk},
	actions.KindMelee:   {validate: validateMelee, start: startAttack, finish: finishMelee},
	actions.KindSmash:   {validate: validateSmash, finish: finishSmash},
	actions.KindShoot:   {validate: validateShoot, start: startAttack, finish: finishShoot},
	actions.KindThrow:   {validate: validateThrow, start: startAttack, finish: finishThrow},
	actions.KindDig:     {validate: validateDig, start: startDig, finish: finishDig},
	actions.KindOpen:    {validate: validateOpen, finish: finishOpen},
	actions.KindClose:   {validate: validateClose, finish: finishClose},
	actions.KindPickup:  {validate: validatePickup, finish: finishPickup},
	actions.KindDrop:    {validate: validateDrop, finish: finishDrop},
	actions.KindWield:   {validate: validateWield, finish: finishWield},
	actions.KindUnwield: {validate: validateUnwield, finish: finishUnwield},
	actions.KindWear:    {validate: validateWear, finish: finishWear},
	actions.KindTakeOff: {validate: validateTakeOff, finish: finishTakeOff},
	actions.KindReload:  {validate: validateReload, finish: finishReload},
	actions.KindRead:    {validate: validateRead, start: startRead, finish: finishRead},
}
