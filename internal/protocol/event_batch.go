package protocol

// JOURNAL_REQ (client -> server): page through the journal from a cursor.
type JournalReqMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	SinceCursor     uint64 `json:"since_cursor"`
	Limit           int    `json:"limit"`
}

type JournalItem struct {
	Cursor uint64 `json:"cursor"`
	Event  Event  `json:"event"`
}

// JOURNAL (server -> client)
type JournalMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	ReqID           string        `json:"req_id"`
	Events          []JournalItem `json:"events"`
	NextCursor      uint64        `json:"next_cursor"`
}
