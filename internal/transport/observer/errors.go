package observer

const (
	// Transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Action layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrBlocked    = "E_BLOCKED"
	ErrStale      = "E_STALE"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrBlocked:         {},
	ErrStale:           {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
