package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Session/world state.
	ErrWorldBusy = "E_WORLD_BUSY"
	ErrGameOver  = "E_GAME_OVER"

	// Action layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrDenied     = "E_DENIED"
	ErrConflict   = "E_CONFLICT"
	ErrInternal   = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrWorldBusy:       {},
	ErrGameOver:        {},
	ErrBadRequest:      {},
	ErrDenied:          {},
	ErrConflict:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
