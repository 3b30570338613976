package world

import (
	"errors"
	"fmt"
	"sync/atomic"

	"undercroft.game/internal/persistence/snapshot"
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/combat"
	"undercroft.game/internal/sim/dice"
	"undercroft.game/internal/sim/grid"
	"undercroft.game/internal/sim/journal"
	"undercroft.game/internal/sim/level"
	"undercroft.game/internal/sim/tuning"
	"undercroft.game/internal/sim/world/logic/fov"
)

type ActorID = actions.ActorID

var (
	ErrNoPlayer       = errors.New("world: no player")
	ErrUnknownActor   = errors.New("world: unknown actor")
	ErrActionPending  = errors.New("world: action already pending")
	ErrGameOver       = errors.New("world: game over")
	ErrNothingPending = errors.New("world: no pending action to resume")
)

type Config struct {
	RunID string
	Level string
	Seed  uint64
}

// Planner proposes the next action for an idle non-player actor. A false
// result leaves the actor idle for this tick.
type Planner interface {
	Plan(w *World, id ActorID) (actions.Proposal, bool)
}

// World is a single-threaded simulation. All state must be accessed only from
// the goroutine driving Input/Advance (or Run).
type World struct {
	cfg      Config
	catalogs *catalogs.Catalogs
	tuning   tuning.Tuning

	tick   uint64
	inputs uint64

	rng      *dice.Rand
	src      dice.Source
	resolver *combat.Resolver

	tiles *TileStore

	// actors is kept in insertion order; byID and occupancy index into it.
	actors    []*Actor
	byID      map[ActorID]*Actor
	occupancy map[grid.Point]ActorID

	journal  *journal.Journal
	planners map[string]Planner

	playerFOV fov.Set
	fovDirty  bool

	gameOver bool

	// Optional sinks (may be nil). Implemented in internal/persistence/*.
	inputLogger  InputLogger
	logFailures  uint64
	snapshotSink chan<- snapshot.SnapshotV1

	// Run loop plumbing.
	inbox      chan InputRequest
	attach     chan AttachRequest
	leave      chan string
	journalReq chan JournalRequest
	stop       chan struct{}

	session *session
	metrics atomic.Pointer[Metrics]
}

// New builds a world from a level. Actors are spawned in level order, so the
// player (or whoever comes first) gets id 1.
func New(cfg Config, cats *catalogs.Catalogs, tun tuning.Tuning, lvl *level.Level) (*World, error) {
	if err := tun.Validate(); err != nil {
		return nil, fmt.Errorf("tuning: %w", err)
	}
	w := newEmpty(cfg, cats, tun)
	if lvl == nil {
		return w, nil
	}
	w.tiles.bounds(lvl.Width, lvl.Height)
	for y := 0; y < lvl.Height; y++ {
		for x := 0; x < lvl.Width; x++ {
			p := grid.P(x, y)
			c := lvl.Cell(p)
			idx, ok := cats.Terrain.Index[c.Terrain]
			if !ok {
				return nil, fmt.Errorf("level %s: unknown terrain %s", lvl.Name, c.Terrain)
			}
			w.tiles.SetTerrain(p, idx)
			// Terrain that cannot hold items keeps them inside (crates, coffins).
			holds := cats.Terrain.Defs[c.Terrain].HoldsItems
			for _, it := range c.Items {
				if holds {
					w.tiles.AddItem(p, w.newItem(it))
				} else {
					w.tiles.Bury(p, w.newItem(it))
				}
			}
			for _, it := range c.Buried {
				w.tiles.Bury(p, Item{ID: it})
			}
		}
	}
	for _, s := range lvl.Spawns {
		if _, err := w.Spawn(s.Template, s.At); err != nil {
			return nil, fmt.Errorf("level %s: %w", lvl.Name, err)
		}
	}
	return w, nil
}

func newEmpty(cfg Config, cats *catalogs.Catalogs, tun tuning.Tuning) *World {
	rng := dice.NewRand(cfg.Seed)
	w := &World{
		cfg:        cfg,
		catalogs:   cats,
		tuning:     tun,
		rng:        rng,
		src:        rng,
		tiles:      NewTileStore(),
		byID:       map[ActorID]*Actor{},
		occupancy:  map[grid.Point]ActorID{},
		journal:    journal.New(),
		planners:   map[string]Planner{},
		fovDirty:   true,
		inbox:      make(chan InputRequest, 16),
		attach:     make(chan AttachRequest, 4),
		leave:      make(chan string, 4),
		journalReq: make(chan JournalRequest, 4),
		stop:       make(chan struct{}),
	}
	w.resolver = combat.New(w.src, tun.Combat)
	return w
}

// SetDiceSource replaces the randomness source, for tests that script rolls.
func (w *World) SetDiceSource(src dice.Source) {
	w.src = src
	w.resolver.Src = src
}

// SetPlanners registers planner strategies by template ai name.
func (w *World) SetPlanners(p map[string]Planner) {
	w.planners = map[string]Planner{}
	for k, v := range p {
		w.planners[k] = v
	}
}

func (w *World) SetInputLogger(l InputLogger)                  { w.inputLogger = l }
func (w *World) SetSnapshotSink(ch chan<- snapshot.SnapshotV1) { w.snapshotSink = ch }

func (w *World) Catalogs() *catalogs.Catalogs { return w.catalogs }
func (w *World) Tuning() tuning.Tuning        { return w.tuning }
func (w *World) CurrentTick() uint64          { return w.tick }
func (w *World) Inputs() uint64               { return w.inputs }
func (w *World) Journal() *journal.Journal    { return w.journal }
func (w *World) GameOver() bool               { return w.gameOver }
func (w *World) Rand() dice.Source            { return w.src }
func (w *World) RunID() string                { return w.cfg.RunID }
func (w *World) Tiles() *TileStore            { return w.tiles }
