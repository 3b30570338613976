package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"undercroft.game/internal/sim/dice"
)

// Catalogs is the read-only game data built once at startup and shared by the
// world, the combat resolver and the planners.
type Catalogs struct {
	Terrain   TerrainCatalog
	Items     ItemCatalog
	Templates TemplateCatalog
}

type TerrainCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]TerrainDef
	PaletteDigest string
	DefsDigest    string
}

type TerrainDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Glyph       string `json:"glyph,omitempty"`
	Passable    bool   `json:"passable"`
	Transparent bool   `json:"transparent"`
	PassCost    int    `json:"pass_cost,omitempty"` // ticks to cross orthogonally

	// Capabilities. An empty result means the interaction is unsupported.
	DigResult   string    `json:"dig_result,omitempty"`
	OpenResult  string    `json:"open_result,omitempty"`
	CloseResult string    `json:"close_result,omitempty"`
	Smash       *SmashDef `json:"smash,omitempty"`

	// HoldsItems is false for terrain that cannot have items lying in it
	// (closed doors, solid rock).
	HoldsItems bool `json:"holds_items"`
}

type SmashDef struct {
	Toughness int    `json:"toughness"`
	Result    string `json:"result"`
}

func (d TerrainDef) Diggable() bool    { return d.DigResult != "" }
func (d TerrainDef) Openable() bool    { return d.OpenResult != "" }
func (d TerrainDef) Closeable() bool   { return d.CloseResult != "" }
func (d TerrainDef) Smashable() bool   { return d.Smash != nil && d.Smash.Result != "" }
func (d TerrainDef) BlocksSight() bool { return !d.Transparent }

type ItemCatalog struct {
	Defs       map[string]ItemDef
	DefsDigest string
}

// ItemDef describes an item kind. Capability blocks are optional; an item can
// be both a melee weapon and a throwable, for example.
type ItemDef struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"` // "WEAPON","TOOL","ARMOR","AMMO","BOOK","MISC"
	Mass      int    `json:"mass"` // grams
	TwoHanded bool   `json:"two_handed,omitempty"`

	Melee  *WeaponDef `json:"melee,omitempty"`
	Ranged *RangedDef `json:"ranged,omitempty"`
	Throw  *RangedDef `json:"throw,omitempty"`
	Armor  *ArmorDef  `json:"armor,omitempty"`
	Book   *BookDef   `json:"book,omitempty"`

	AmmoType string `json:"ammo_type,omitempty"` // for AMMO items
	Dig      bool   `json:"dig,omitempty"`       // usable as a digging tool
}

// WeaponDef is a close-combat profile (also used for natural weapons).
type WeaponDef struct {
	Name        string     `json:"name,omitempty"`
	Damage      []dice.Die `json:"damage"`
	Strength    bool       `json:"strength,omitempty"` // add the wielder's Strength die
	Penetration int        `json:"penetration,omitempty"`
	AttackMod   int        `json:"attack_mod,omitempty"`
	ParryMod    int        `json:"parry_mod,omitempty"`
	Reach       int        `json:"reach,omitempty"`
	Ticks       int        `json:"ticks,omitempty"` // attack duration override
}

// RangedDef is a shooting or throwing profile. Range is [short, medium, long].
type RangedDef struct {
	Damage      []dice.Die `json:"damage"`
	Strength    bool       `json:"strength,omitempty"`
	Penetration int        `json:"penetration,omitempty"`
	Range       [3]int     `json:"range"`
	AmmoType    string     `json:"ammo_type,omitempty"`
	Capacity    int        `json:"capacity,omitempty"`
	Ticks       int        `json:"ticks,omitempty"`
}

type ArmorDef struct {
	Value  int      `json:"value"`
	Covers []string `json:"covers"` // body locations
	Layer  int      `json:"layer"`
}

type BookDef struct {
	Text      string     `json:"text"`
	Teaches   string     `json:"teaches,omitempty"`
	MaxLevel  dice.Level `json:"max_level,omitempty"`
	ReadTicks int        `json:"read_ticks,omitempty"`
}

type TemplateCatalog struct {
	Defs       map[string]TemplateDef
	DefsDigest string
}

// TemplateDef is an actor blueprint. AI names the planner strategy; the
// player template leaves it empty.
type TemplateDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Wild        bool   `json:"wild,omitempty"`
	AI          string `json:"ai,omitempty"`
	Speed       int    `json:"speed,omitempty"` // permille duration factor, 1000 = normal
	SightRadius int    `json:"sight_radius,omitempty"`

	Attributes Attributes            `json:"attributes"`
	Skills     map[string]dice.Trait `json:"skills,omitempty"`
	Natural    WeaponDef             `json:"natural"`
	Armor      int                   `json:"armor,omitempty"` // natural armor, all locations

	Wield     []string `json:"wield,omitempty"`
	Wear      []string `json:"wear,omitempty"`
	Inventory []string `json:"inventory,omitempty"`
}

type Attributes struct {
	Agility  dice.Trait `json:"agility"`
	Smarts   dice.Trait `json:"smarts"`
	Spirit   dice.Trait `json:"spirit"`
	Strength dice.Trait `json:"strength"`
	Vigor    dice.Trait `json:"vigor"`
}

// Body locations used by armor coverage and wounds.
const (
	LocHead  = "head"
	LocTorso = "torso"
	LocArms  = "arms"
	LocLegs  = "legs"
)

var Locations = []string{LocHead, LocTorso, LocArms, LocLegs}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadTerrain(filepath.Join(configDir, "terrain.json"), &c.Terrain); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadTemplates(filepath.Join(configDir, "templates.json"), &c.Templates); err != nil {
		return nil, err
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalogs) TerrainByIndex(idx uint16) TerrainDef {
	if int(idx) >= len(c.Terrain.Palette) {
		return c.Terrain.Defs[VoidTerrain]
	}
	return c.Terrain.Defs[c.Terrain.Palette[idx]]
}

func (c *Catalogs) Item(id string) (ItemDef, bool) {
	d, ok := c.Items.Defs[id]
	return d, ok
}

func (c *Catalogs) Template(id string) (TemplateDef, bool) {
	d, ok := c.Templates.Defs[id]
	return d, ok
}

// VoidTerrain is palette id 0: impassable, opaque, the value of unloaded tiles.
const VoidTerrain = "VOID"

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadTerrain(path string, out *TerrainCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validateDoc("terrain.json", terrainSchema, raw); err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []TerrainDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("terrain.json: %w", err)
	}
	out.Defs = map[string]TerrainDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("terrain.json: empty id")
		}
		if d.Passable && d.PassCost <= 0 {
			return fmt.Errorf("terrain.json: %s: passable terrain needs pass_cost", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Ensure VOID exists and is palette id 0.
	if _, ok := out.Defs[VoidTerrain]; !ok {
		return fmt.Errorf("terrain.json: missing %s", VoidTerrain)
	}
	ids = append([]string{VoidTerrain}, filterOut(ids, VoidTerrain)...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validateDoc("items.json", itemsSchema, raw); err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		if _, dup := out.Defs[d.ID]; dup {
			return fmt.Errorf("items.json: duplicate id %s", d.ID)
		}
		out.Defs[d.ID] = d
	}
	return nil
}

func loadTemplates(path string, out *TemplateCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := validateDoc("templates.json", templatesSchema, raw); err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []TemplateDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("templates.json: %w", err)
	}
	out.Defs = map[string]TemplateDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("templates.json: empty id")
		}
		if d.Speed <= 0 {
			d.Speed = 1000
		}
		out.Defs[d.ID] = d
	}
	return nil
}

// check verifies cross references between the three catalogs.
func (c *Catalogs) check() error {
	for id, d := range c.Terrain.Defs {
		for _, ref := range []string{d.DigResult, d.OpenResult, d.CloseResult} {
			if ref == "" {
				continue
			}
			if _, ok := c.Terrain.Defs[ref]; !ok {
				return fmt.Errorf("terrain.json: %s references unknown terrain %s", id, ref)
			}
		}
		if d.Smash != nil {
			if _, ok := c.Terrain.Defs[d.Smash.Result]; !ok {
				return fmt.Errorf("terrain.json: %s smash result %s unknown", id, d.Smash.Result)
			}
		}
	}
	for id, d := range c.Items.Defs {
		if d.Armor != nil {
			for _, loc := range d.Armor.Covers {
				if !validLocation(loc) {
					return fmt.Errorf("items.json: %s covers unknown location %s", id, loc)
				}
			}
		}
		if d.Ranged != nil && d.Ranged.AmmoType != "" && d.Ranged.Capacity <= 0 {
			return fmt.Errorf("items.json: %s needs capacity for ammo_type %s", id, d.Ranged.AmmoType)
		}
	}
	for id, t := range c.Templates.Defs {
		for _, group := range [][]string{t.Wield, t.Wear, t.Inventory} {
			for _, item := range group {
				if _, ok := c.Items.Defs[item]; !ok {
					return fmt.Errorf("templates.json: %s references unknown item %s", id, item)
				}
			}
		}
		if len(t.Wield) > 2 {
			return fmt.Errorf("templates.json: %s wields more than two items", id)
		}
	}
	return nil
}

func validLocation(loc string) bool {
	for _, l := range Locations {
		if l == loc {
			return true
		}
	}
	return false
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}
