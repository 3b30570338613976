package world

import (
	"undercroft.game/internal/sim/actions"
	"undercroft.game/internal/sim/dice"
	"undercroft.game/internal/sim/journal"
)

func validatePickup(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	items := w.tiles.Items(a.Pos)
	if p.Index < 0 || p.Index >= len(items) {
		return actions.No("There is nothing like that here.")
	}
	d, _ := w.catalogs.Item(items[p.Index].ID)
	dur := w.tuning.Durations
	return actions.Yes(dur.PickupBase + dur.PickupPerKg*d.Mass/1000)
}

func finishPickup(w *World, a *Actor, act *actions.Action) {
	it, _ := w.tiles.TakeItem(a.Pos, act.Proposal().Index)
	a.Inventory = append(a.Inventory, it)
	w.observe(journal.Info, a.Pos, a.Player, "%s %s the %s.", capitalize(name(a)), verb(a, "pick up", "picks up"), itemName(w.catalogs, it.ID))
}

func validateDrop(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if p.Index < 0 || p.Index >= len(a.Inventory) {
		return actions.No("You don't have that.")
	}
	return actions.Yes(w.tuning.Durations.Drop)
}

func finishDrop(w *World, a *Actor, act *actions.Action) {
	var it Item
	it, a.Inventory = removeAt(a.Inventory, act.Proposal().Index)
	w.tiles.AddItem(a.Pos, it)
	w.observe(journal.Info, a.Pos, a.Player, "%s %s the %s.", capitalize(name(a)), verb(a, "drop", "drops"), itemName(w.catalogs, it.ID))
}

func validateWield(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if p.Index < 0 || p.Index >= len(a.Inventory) {
		return actions.No("You don't have that.")
	}
	d, _ := w.catalogs.Item(a.Inventory[p.Index].ID)
	need := 1
	if d.TwoHanded {
		need = 2
	}
	if a.hands(w.catalogs)+need > 2 {
		return actions.No("Your hands are full.")
	}
	return actions.Yes(w.tuning.Durations.Wield)
}

func finishWield(w *World, a *Actor, act *actions.Action) {
	var it Item
	it, a.Inventory = removeAt(a.Inventory, act.Proposal().Index)
	a.Wielded = append(a.Wielded, it)
	w.tell(a, journal.Info, "You wield the %s.", itemName(w.catalogs, it.ID))
}

func validateUnwield(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if p.Index < 0 || p.Index >= len(a.Wielded) {
		return actions.No("You are not holding that.")
	}
	return actions.Yes(w.tuning.Durations.Unwield)
}

func finishUnwield(w *World, a *Actor, act *actions.Action) {
	var it Item
	it, a.Wielded = removeAt(a.Wielded, act.Proposal().Index)
	a.Inventory = append(a.Inventory, it)
	w.tell(a, journal.Info, "You put away the %s.", itemName(w.catalogs, it.ID))
}

func validateWear(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if p.Index < 0 || p.Index >= len(a.Inventory) {
		return actions.No("You don't have that.")
	}
	d, _ := w.catalogs.Item(a.Inventory[p.Index].ID)
	if d.Armor == nil {
		return actions.No("You can't wear the %s.", d.Name)
	}
	for _, worn := range a.Worn {
		wd, _ := w.catalogs.Item(worn.ID)
		if wd.Armor == nil || wd.Armor.Layer != d.Armor.Layer {
			continue
		}
		if overlaps(wd.Armor.Covers, d.Armor.Covers) {
			return actions.No("You are already wearing the %s.", wd.Name)
		}
	}
	return actions.Yes(w.tuning.Durations.Wear)
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func finishWear(w *World, a *Actor, act *actions.Action) {
	var it Item
	it, a.Inventory = removeAt(a.Inventory, act.Proposal().Index)
	a.Worn = append(a.Worn, it)
	w.tell(a, journal.Info, "You put on the %s.", itemName(w.catalogs, it.ID))
}

func validateTakeOff(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if p.Index < 0 || p.Index >= len(a.Worn) {
		return actions.No("You are not wearing that.")
	}
	return actions.Yes(w.tuning.Durations.TakeOff)
}

func finishTakeOff(w *World, a *Actor, act *actions.Action) {
	var it Item
	it, a.Worn = removeAt(a.Worn, act.Proposal().Index)
	a.Inventory = append(a.Inventory, it)
	w.tell(a, journal.Info, "You take off the %s.", itemName(w.catalogs, it.ID))
}

// ammoIndex finds the first inventory item of the given ammo type.
func (w *World) ammoIndex(a *Actor, ammo string) int {
	for i, it := range a.Inventory {
		if d, ok := w.catalogs.Item(it.ID); ok && d.AmmoType == ammo {
			return i
		}
	}
	return -1
}

func validateReload(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	i, d, ok := a.rangedWeapon(w.catalogs)
	if !ok || d.Ranged.AmmoType == "" {
		return actions.No("You have nothing to reload.")
	}
	if a.Wielded[i].Loaded >= d.Ranged.Capacity {
		return actions.No("Your %s is already loaded.", d.Name)
	}
	if w.ammoIndex(a, d.Ranged.AmmoType) < 0 {
		return actions.No("You are out of ammunition.")
	}
	return actions.Yes(w.tuning.Durations.Reload)
}

func finishReload(w *World, a *Actor, act *actions.Action) {
	i, d, _ := a.rangedWeapon(w.catalogs)
	_, a.Inventory = removeAt(a.Inventory, w.ammoIndex(a, d.Ranged.AmmoType))
	a.Wielded[i].Loaded++
	w.tell(a, journal.Info, "You load the %s.", d.Name)
}

// validateRead rolls Smarts for the reading time on first validation. A
// recheck only confirms the book is still at hand.
func validateRead(w *World, a *Actor, p actions.Proposal, recheck bool) actions.Possibility {
	if p.Index < 0 || p.Index >= len(a.Inventory) {
		return actions.No("You don't have that.")
	}
	d, _ := w.catalogs.Item(a.Inventory[p.Index].ID)
	if d.Book == nil {
		return actions.No("There is nothing to read on the %s.", d.Name)
	}
	if recheck {
		return actions.Yes(1)
	}
	base := w.tuning.Durations.Read
	if d.Book.ReadTicks > 0 {
		base = d.Book.ReadTicks
	}
	smarts := a.def.Attributes.Smarts
	var roll dice.RollResult
	if a.def.Wild {
		roll, _ = smarts.RollWild(w.src, 0)
	} else {
		roll = smarts.Roll(w.src, 0)
	}
	return actions.Yes(ReadDuration(base, roll.Successes()))
}

// ReadDuration is twice the base time with no successes, the base time with
// one and half of it (rounded) with two or more.
func ReadDuration(base, successes int) int {
	switch {
	case successes <= 0:
		return base * 2
	case successes == 1:
		return base
	}
	return (base + 1) / 2
}

func startRead(w *World, a *Actor, act *actions.Action) {
	w.tell(a, journal.Info, "You begin to read the %s.", itemName(w.catalogs, a.Inventory[act.Proposal().Index].ID))
}

func finishRead(w *World, a *Actor, act *actions.Action) {
	d, _ := w.catalogs.Item(a.Inventory[act.Proposal().Index].ID)
	w.tell(a, journal.Info, "%s", d.Book.Text)
	if d.Book.Teaches == "" {
		return
	}
	top := d.Book.MaxLevel
	if top == dice.Untrained {
		top = dice.LevelD12
	}
	cur := a.Skill(d.Book.Teaches)
	if cur.Level >= top {
		w.tell(a, journal.Info, "You learn nothing new about %s.", d.Book.Teaches)
		return
	}
	cur.Level = cur.Level.Next()
	a.Skills[d.Book.Teaches] = cur
	w.tell(a, journal.Info, "Your %s improves to %s.", d.Book.Teaches, cur.Level)
}
