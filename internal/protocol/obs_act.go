package protocol

// OBS (server -> client): what the player can see after an input.
type ObsMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`

	Self   SelfObs    `json:"self"`
	Tiles  []TileObs  `json:"tiles"`
	Actors []ActorObs `json:"actors"`
	Events []Event    `json:"events"`

	GameOver bool `json:"game_over,omitempty"`
}

type SelfObs struct {
	ID        uint32   `json:"id"`
	Pos       [2]int   `json:"pos"`
	Wounds    int      `json:"wounds"`
	Shocked   bool     `json:"shocked,omitempty"`
	Busy      string   `json:"busy,omitempty"` // pending action kind
	Inventory []string `json:"inventory"`
	Wielded   []string `json:"wielded"`
	Worn      []string `json:"worn"`
}

// TileObs is one visible tile. Terrain is the palette index.
type TileObs struct {
	Pos     [2]int   `json:"pos"`
	Terrain uint16   `json:"terrain"`
	Items   []string `json:"items,omitempty"`
}

type ActorObs struct {
	ID       uint32 `json:"id"`
	Template string `json:"template"`
	Name     string `json:"name"`
	Pos      [2]int `json:"pos"`
	Wounds   int    `json:"wounds"`
	Shocked  bool   `json:"shocked,omitempty"`
}

type Event struct {
	Tick     uint64 `json:"tick"`
	Text     string `json:"text"`
	Pos      [2]int `json:"pos"`
	Category string `json:"category"`
}

// ACT (client -> server): one player action proposal. Which of Dir, Target
// and Index are required depends on Kind.
type ActMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	ActID           string  `json:"act_id"`
	Kind            string  `json:"kind"`
	Dir             string  `json:"dir,omitempty"`
	Target          *[2]int `json:"target,omitempty"`
	Index           *int    `json:"index,omitempty"`
}
