package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerName      string `json:"player_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	RunID           string         `json:"run_id"`
	Level           LevelParams    `json:"level"`
	Tick            uint64         `json:"tick"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type LevelParams struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type CatalogDigests struct {
	TerrainPalette DigestRef `json:"terrain_palette"`
	ItemsDigest    string    `json:"items_digest"`
	TemplateDigest string    `json:"templates_digest"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

// ACT_RESULT (server -> client): the answer to one ACT.
type ActResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ActID           string `json:"act_id"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	StartTick       uint64 `json:"start_tick"`
	EndTick         uint64 `json:"end_tick"`
	Capped          bool   `json:"capped,omitempty"`
	GameOver        bool   `json:"game_over,omitempty"`
}
