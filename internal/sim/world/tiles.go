package world

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"undercroft.game/internal/sim/grid"
)

const chunkSize = 16

// Item is a single item instance. Loaded counts ammunition in a ranged weapon.
type Item struct {
	ID     string
	Loaded int
}

// Tile is a read view of one map cell.
type Tile struct {
	Terrain uint16
	// Items lie on the floor, in the order they were dropped.
	Items []Item
	// Contents are buried or sealed inside the terrain.
	Contents []Item
}

type ChunkKey struct {
	CX int
	CY int
}

type Chunk struct {
	CX, CY  int
	Terrain []uint16 // len = 16*16, palette indices

	dirty bool
	hash  [32]byte
}

func (c *Chunk) index(x, y int) int {
	// x fastest, then y
	return x + y*chunkSize
}

func (c *Chunk) Get(x, y int) uint16 {
	return c.Terrain[c.index(x, y)]
}

func (c *Chunk) Set(x, y int, t uint16) {
	i := c.index(x, y)
	if c.Terrain[i] == t {
		return
	}
	c.Terrain[i] = t
	c.dirty = true
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		for _, v := range c.Terrain {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

// TileStore holds terrain in fixed-size chunks plus sparse item stacks.
// Tiles outside the loaded bounds read as palette index 0 (VOID).
type TileStore struct {
	width, height int
	// Accessed only from the world goroutine.
	chunks map[ChunkKey]*Chunk
	floor  map[grid.Point][]Item
	buried map[grid.Point][]Item
}

func NewTileStore() *TileStore {
	return &TileStore{
		chunks: map[ChunkKey]*Chunk{},
		floor:  map[grid.Point][]Item{},
		buried: map[grid.Point][]Item{},
	}
}

func (s *TileStore) bounds(w, h int) {
	s.width, s.height = w, h
}

func (s *TileStore) Size() (int, int) { return s.width, s.height }

func (s *TileStore) In(p grid.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.width && p.Y < s.height
}

func (s *TileStore) chunk(p grid.Point, create bool) (*Chunk, int, int) {
	cx, cy := grid.FloorDiv(p.X, chunkSize), grid.FloorDiv(p.Y, chunkSize)
	lx, ly := grid.Mod(p.X, chunkSize), grid.Mod(p.Y, chunkSize)
	k := ChunkKey{CX: cx, CY: cy}
	ch := s.chunks[k]
	if ch == nil && create {
		ch = &Chunk{CX: cx, CY: cy, Terrain: make([]uint16, chunkSize*chunkSize), dirty: true}
		s.chunks[k] = ch
	}
	return ch, lx, ly
}

func (s *TileStore) TerrainAt(p grid.Point) uint16 {
	if !s.In(p) {
		return 0
	}
	ch, lx, ly := s.chunk(p, false)
	if ch == nil {
		return 0
	}
	return ch.Get(lx, ly)
}

func (s *TileStore) SetTerrain(p grid.Point, t uint16) {
	if !s.In(p) {
		return
	}
	ch, lx, ly := s.chunk(p, true)
	ch.Set(lx, ly, t)
}

func (s *TileStore) Get(p grid.Point) Tile {
	return Tile{Terrain: s.TerrainAt(p), Items: s.floor[p], Contents: s.buried[p]}
}

func (s *TileStore) Items(p grid.Point) []Item { return s.floor[p] }

func (s *TileStore) AddItem(p grid.Point, it Item) {
	s.floor[p] = append(s.floor[p], it)
}

// TakeItem removes and returns the floor item at index i.
func (s *TileStore) TakeItem(p grid.Point, i int) (Item, bool) {
	st := s.floor[p]
	if i < 0 || i >= len(st) {
		return Item{}, false
	}
	it := st[i]
	st = append(st[:i:i], st[i+1:]...)
	if len(st) == 0 {
		delete(s.floor, p)
	} else {
		s.floor[p] = st
	}
	return it, true
}

func (s *TileStore) Buried(p grid.Point) []Item { return s.buried[p] }

func (s *TileStore) Bury(p grid.Point, it Item) {
	s.buried[p] = append(s.buried[p], it)
}

// Unearth removes and returns everything buried at p.
func (s *TileStore) Unearth(p grid.Point) []Item {
	out := s.buried[p]
	delete(s.buried, p)
	return out
}

func (s *TileStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.chunks))
	for k := range s.chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CY != keys[j].CY {
			return keys[i].CY < keys[j].CY
		}
		return keys[i].CX < keys[j].CX
	})
	return keys
}

func sortedPoints(m map[grid.Point][]Item) []grid.Point {
	pts := make([]grid.Point, 0, len(m))
	for p := range m {
		pts = append(pts, p)
	}
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Y != pts[j].Y {
			return pts[i].Y < pts[j].Y
		}
		return pts[i].X < pts[j].X
	})
	return pts
}
