// Package level loads hand-authored maps: a character layout, a legend that
// maps glyphs to terrain, and placements for actors and items.
package level

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"undercroft.game/internal/sim/catalogs"
	"undercroft.game/internal/sim/grid"
)

type Level struct {
	Name   string
	Width  int
	Height int

	// Cells is row-major, Height*Width entries.
	Cells  []Cell
	Spawns []Spawn
}

type Cell struct {
	Terrain string
	Items   []string
	Buried  []string
}

type Spawn struct {
	Template string
	At       grid.Point
}

type fileLevel struct {
	Name   string               `yaml:"name"`
	Legend map[string]fileGlyph `yaml:"legend"`
	Layout string               `yaml:"layout"`
	Spawns []filePlacement      `yaml:"spawns"`
	Items  []filePlacement      `yaml:"items"`
	Buried []filePlacement      `yaml:"buried"`
}

type fileGlyph struct {
	Terrain string   `yaml:"terrain"`
	Spawn   string   `yaml:"spawn"`
	Items   []string `yaml:"items"`
	Buried  []string `yaml:"buried"`
}

type filePlacement struct {
	Template string `yaml:"template"`
	Item     string `yaml:"item"`
	At       [2]int `yaml:"at"`
}

func Load(path string, cats *catalogs.Catalogs) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := Parse(raw, cats)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

func Parse(raw []byte, cats *catalogs.Catalogs) (*Level, error) {
	var f fileLevel
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	rows := strings.Split(strings.TrimRight(f.Layout, "\n"), "\n")
	if len(rows) == 0 || rows[0] == "" {
		return nil, fmt.Errorf("empty layout")
	}
	width := 0
	for _, r := range rows {
		if n := len([]rune(r)); n > width {
			width = n
		}
	}

	l := &Level{
		Name:   f.Name,
		Width:  width,
		Height: len(rows),
		Cells:  make([]Cell, width*len(rows)),
	}
	for y, r := range rows {
		runes := []rune(r)
		for x := 0; x < width; x++ {
			glyph := " "
			if x < len(runes) {
				glyph = string(runes[x])
			}
			g, ok := f.Legend[glyph]
			if !ok {
				if glyph == " " {
					l.Cells[y*width+x].Terrain = catalogs.VoidTerrain
					continue
				}
				return nil, fmt.Errorf("layout (%d,%d): glyph %q not in legend", x, y, glyph)
			}
			c := &l.Cells[y*width+x]
			c.Terrain = g.Terrain
			c.Items = append(c.Items, g.Items...)
			c.Buried = append(c.Buried, g.Buried...)
			if g.Spawn != "" {
				l.Spawns = append(l.Spawns, Spawn{Template: g.Spawn, At: grid.P(x, y)})
			}
		}
	}

	for _, p := range f.Spawns {
		l.Spawns = append(l.Spawns, Spawn{Template: p.Template, At: grid.FromArray(p.At)})
	}
	for _, p := range f.Items {
		c, err := l.cellAt(grid.FromArray(p.At))
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		c.Items = append(c.Items, p.Item)
	}
	for _, p := range f.Buried {
		c, err := l.cellAt(grid.FromArray(p.At))
		if err != nil {
			return nil, fmt.Errorf("buried: %w", err)
		}
		c.Buried = append(c.Buried, p.Item)
	}

	// Spawn order decides actor ids, keep it independent of legend map order.
	sort.SliceStable(l.Spawns, func(i, j int) bool {
		a, b := l.Spawns[i].At, l.Spawns[j].At
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	if cats != nil {
		if err := l.check(cats); err != nil {
			return nil, err
		}
	}
	return l, nil
}

func (l *Level) In(p grid.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < l.Width && p.Y < l.Height
}

func (l *Level) Cell(p grid.Point) Cell {
	if !l.In(p) {
		return Cell{Terrain: catalogs.VoidTerrain}
	}
	return l.Cells[p.Y*l.Width+p.X]
}

func (l *Level) cellAt(p grid.Point) (*Cell, error) {
	if !l.In(p) {
		return nil, fmt.Errorf("%v outside %dx%d layout", p, l.Width, l.Height)
	}
	return &l.Cells[p.Y*l.Width+p.X], nil
}

// PlayerSpawn returns the position of the single player spawn.
func (l *Level) PlayerSpawn() (grid.Point, bool) {
	for _, s := range l.Spawns {
		if s.Template == "player" {
			return s.At, true
		}
	}
	return grid.Point{}, false
}

func (l *Level) check(cats *catalogs.Catalogs) error {
	players := 0
	for i, c := range l.Cells {
		if _, ok := cats.Terrain.Index[c.Terrain]; !ok {
			return fmt.Errorf("cell %d: unknown terrain %s", i, c.Terrain)
		}
		for _, it := range append(append([]string{}, c.Items...), c.Buried...) {
			if _, ok := cats.Item(it); !ok {
				return fmt.Errorf("cell %d: unknown item %s", i, it)
			}
		}
	}
	seen := map[grid.Point]bool{}
	for _, s := range l.Spawns {
		if _, ok := cats.Template(s.Template); !ok {
			return fmt.Errorf("spawn at %v: unknown template %s", s.At, s.Template)
		}
		if !l.In(s.At) {
			return fmt.Errorf("spawn %s at %v outside layout", s.Template, s.At)
		}
		if !cats.Terrain.Defs[l.Cell(s.At).Terrain].Passable {
			return fmt.Errorf("spawn %s at %v on impassable terrain", s.Template, s.At)
		}
		if seen[s.At] {
			return fmt.Errorf("two spawns at %v", s.At)
		}
		seen[s.At] = true
		if s.Template == "player" {
			players++
		}
	}
	if players != 1 {
		return fmt.Errorf("need exactly one player spawn, got %d", players)
	}
	return nil
}
