package world

import (
	"fmt"
	"sort"

	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/combat"
	"undercroft.game/internal/sim/dice"
	"undercroft.game/internal/sim/grid"
)

// Actor is a player or non-player unit. Player and AI actors share one shape;
// the Player flag selects who supplies actions.
type Actor struct {
	ID       ActorID
	Template string
	Name     string
	Player   bool
	Pos      grid.Point

	Skills  map[string]dice.Trait
	Wounds  []string
	Shocked bool

	Inventory []Item
	Wielded   []Item
	Worn      []Item

	// Path is the planner's cached route, excluding the current position.
	Path []grid.Point

	def     catalogs.TemplateDef
	pending *pending
}

type pending struct {
	action  *actions.Action
	started bool
}

func (a *Actor) Attributes() catalogs.Attributes { return a.def.Attributes }
func (a *Actor) Wild() bool                      { return a.def.Wild }
func (a *Actor) AI() string                      { return a.def.AI }
func (a *Actor) Speed() int                      { return a.def.Speed }
func (a *Actor) SightRadius() int                { return a.def.SightRadius }

// Skill returns the trait for a skill, untrained when missing.
func (a *Actor) Skill(name string) dice.Trait {
	if t, ok := a.Skills[name]; ok {
		return t
	}
	return dice.T(dice.Untrained)
}

func (a *Actor) Pending() *actions.Action {
	if a.pending == nil {
		return nil
	}
	return a.pending.action
}

func (a *Actor) Idle() bool { return a.pending == nil }

// hands is how many hands the wielded items occupy.
func (a *Actor) hands(cats *catalogs.Catalogs) int {
	n := 0
	for _, it := range a.Wielded {
		if d, ok := cats.Item(it.ID); ok && d.TwoHanded {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// meleeWeapon is the first wielded melee weapon, else the natural weapon.
func (a *Actor) meleeWeapon(cats *catalogs.Catalogs) (catalogs.WeaponDef, string) {
	for _, it := range a.Wielded {
		if d, ok := cats.Item(it.ID); ok && d.Melee != nil {
			wd := *d.Melee
			if wd.Name == "" {
				wd.Name = d.Name
			}
			return wd, it.ID
		}
	}
	return a.def.Natural, ""
}

// rangedWeapon is the index into Wielded of the first ranged weapon.
func (a *Actor) rangedWeapon(cats *catalogs.Catalogs) (int, catalogs.ItemDef, bool) {
	for i, it := range a.Wielded {
		if d, ok := cats.Item(it.ID); ok && d.Ranged != nil {
			return i, d, true
		}
	}
	return -1, catalogs.ItemDef{}, false
}

func (a *Actor) hasDigTool(cats *catalogs.Catalogs) bool {
	for _, it := range a.Wielded {
		if d, ok := cats.Item(it.ID); ok && d.Dig {
			return true
		}
	}
	return false
}

// armorAt sums natural armor and every worn layer covering loc.
func (a *Actor) armorAt(cats *catalogs.Catalogs, loc string) int {
	v := a.def.Armor
	for _, it := range a.Worn {
		d, ok := cats.Item(it.ID)
		if !ok || d.Armor == nil {
			continue
		}
		for _, c := range d.Armor.Covers {
			if c == loc {
				v += d.Armor.Value
				break
			}
		}
	}
	return v
}

func (a *Actor) attacker(skill string, w combat.Weapon) combat.Attacker {
	return combat.Attacker{
		Skill:    a.Skill(skill),
		Strength: a.def.Attributes.Strength,
		Wild:     a.def.Wild,
		Weapon:   w,
	}
}

func (a *Actor) defender(cats *catalogs.Catalogs) combat.Defender {
	wd, _ := a.meleeWeapon(cats)
	armor := make(map[string]int, len(catalogs.Locations))
	for _, loc := range catalogs.Locations {
		armor[loc] = a.armorAt(cats, loc)
	}
	return combat.Defender{
		Parry:     combat.Parry(a.Skill("fighting"), wd.ParryMod),
		Toughness: combat.Toughness(a.def.Attributes.Vigor),
		Armor:     armor,
		Shocked:   a.Shocked,
		Vigor:     a.def.Attributes.Vigor,
		Wild:      a.def.Wild,
	}
}

func (a *Actor) carried() []Item {
	out := make([]Item, 0, len(a.Wielded)+len(a.Worn)+len(a.Inventory))
	out = append(out, a.Wielded...)
	out = append(out, a.Worn...)
	out = append(out, a.Inventory...)
	return out
}

func (a *Actor) String() string {
	return fmt.Sprintf("%s#%d@%s", a.Template, a.ID, a.Pos)
}

// Spawn creates an actor from a template at p and inserts it into the
// registry with id max+1.
func (w *World) Spawn(template string, p grid.Point) (ActorID, error) {
	def, ok := w.catalogs.Template(template)
	if !ok {
		return 0, fmt.Errorf("spawn: unknown template %s", template)
	}
	if !w.passable(p) {
		return 0, fmt.Errorf("spawn %s: %v is not passable", template, p)
	}
	if _, taken := w.occupancy[p]; taken {
		return 0, fmt.Errorf("spawn %s: %v is occupied", template, p)
	}
	a := &Actor{
		Template: template,
		Name:     def.Name,
		Player:   template == "player",
		Pos:      p,
		Skills:   map[string]dice.Trait{},
		def:      def,
	}
	if a.Player && w.player() != nil {
		return 0, fmt.Errorf("spawn: a player already exists")
	}
	for k, v := range def.Skills {
		a.Skills[k] = v
	}
	for _, id := range def.Wield {
		a.Wielded = append(a.Wielded, w.newItem(id))
	}
	for _, id := range def.Wear {
		a.Worn = append(a.Worn, Item{ID: id})
	}
	for _, id := range def.Inventory {
		a.Inventory = append(a.Inventory, Item{ID: id})
	}
	w.insert(a)
	return a.ID, nil
}

// newItem returns a fresh instance; ranged weapons spawn loaded.
func (w *World) newItem(id string) Item {
	it := Item{ID: id}
	if d, ok := w.catalogs.Item(id); ok && d.Ranged != nil {
		it.Loaded = d.Ranged.Capacity
	}
	return it
}

func (w *World) insert(a *Actor) {
	var top ActorID
	for _, o := range w.actors {
		if o.ID > top {
			top = o.ID
		}
	}
	a.ID = top + 1
	w.attachActor(a)
}

// attachActor adds an actor whose id is already set.
func (w *World) attachActor(a *Actor) {
	if _, dup := w.byID[a.ID]; dup {
		panic(fmt.Sprintf("world: duplicate actor id %d", a.ID))
	}
	if other, taken := w.occupancy[a.Pos]; taken {
		panic(fmt.Sprintf("world: actor %d placed on actor %d at %v", a.ID, other, a.Pos))
	}
	w.actors = append(w.actors, a)
	w.byID[a.ID] = a
	w.occupancy[a.Pos] = a.ID
	if a.Player {
		w.fovDirty = true
	}
}

// remove drops the actor from the registry together with its pending action.
func (w *World) remove(id ActorID) {
	a := w.byID[id]
	if a == nil {
		panic(fmt.Sprintf("world: remove unknown actor %d", id))
	}
	a.pending = nil
	delete(w.byID, id)
	if w.occupancy[a.Pos] == id {
		delete(w.occupancy, a.Pos)
	}
	for i, o := range w.actors {
		if o.ID == id {
			w.actors = append(w.actors[:i], w.actors[i+1:]...)
			break
		}
	}
}

// mustActor is the internal lookup; a miss is a registry desync.
func (w *World) mustActor(id ActorID) *Actor {
	a := w.byID[id]
	if a == nil {
		panic(fmt.Sprintf("world: unknown actor %d", id))
	}
	return a
}

func (w *World) player() *Actor {
	for _, a := range w.actors {
		if a.Player {
			return a
		}
	}
	return nil
}

func (w *World) moveActor(a *Actor, to grid.Point) {
	if w.occupancy[a.Pos] == a.ID {
		delete(w.occupancy, a.Pos)
	}
	a.Pos = to
	w.occupancy[to] = a.ID
	if a.Player {
		w.fovDirty = true
	}
}

// ActorAt returns the id of the actor standing on p.
func (w *World) ActorAt(p grid.Point) (ActorID, bool) {
	id, ok := w.occupancy[p]
	return id, ok
}

// ActorIDs lists the registry in execution order: last inserted first.
func (w *World) ActorIDs() []ActorID {
	out := make([]ActorID, 0, len(w.actors))
	for i := len(w.actors) - 1; i >= 0; i-- {
		out = append(out, w.actors[i].ID)
	}
	return out
}

// View is a read-only copy of an actor's public state.
type View struct {
	ID          ActorID
	Template    string
	Name        string
	Player      bool
	Pos         grid.Point
	AI          string
	SightRadius int
	Shocked     bool
	Wounds      int
	Idle        bool
	Pending     *actions.Action
	Path        []grid.Point
	Inventory   []Item
	Wielded     []Item
	Worn        []Item
	Skills      map[string]dice.Trait
}

func (a *Actor) view() View {
	skills := make(map[string]dice.Trait, len(a.Skills))
	for k, v := range a.Skills {
		skills[k] = v
	}
	return View{
		ID:          a.ID,
		Template:    a.Template,
		Name:        a.Name,
		Player:      a.Player,
		Pos:         a.Pos,
		AI:          a.def.AI,
		SightRadius: a.def.SightRadius,
		Shocked:     a.Shocked,
		Wounds:      len(a.Wounds),
		Idle:        a.pending == nil,
		Pending:     a.Pending(),
		Path:        append([]grid.Point(nil), a.Path...),
		Inventory:   append([]Item(nil), a.Inventory...),
		Wielded:     append([]Item(nil), a.Wielded...),
		Worn:        append([]Item(nil), a.Worn...),
		Skills:      skills,
	}
}

func (w *World) Actor(id ActorID) (View, bool) {
	a := w.byID[id]
	if a == nil {
		return View{}, false
	}
	return a.view(), true
}

func (w *World) Player() (View, bool) {
	a := w.player()
	if a == nil {
		return View{}, false
	}
	return a.view(), true
}

// Actors returns views of every actor sorted by id.
func (w *World) Actors() []View {
	out := make([]View, 0, len(w.actors))
	for _, a := range w.actors {
		out = append(out, a.view())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetPath replaces an actor's cached planner route.
func (w *World) SetPath(id ActorID, path []grid.Point) {
	a := w.mustActor(id)
	a.Path = append(a.Path[:0:0], path...)
}
