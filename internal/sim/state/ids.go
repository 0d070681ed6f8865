package state

import (
	"strconv"

	"github.com/google/uuid"
)

var idNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("clay.game/state"))

// NewID returns the next instance id. Ids are name-based (v5) over a persisted
// serial, so two runs from the same save produce the same ids.
func (s *GameState) NewID() string {
	s.NextSerial++
	return uuid.NewSHA1(idNamespace, []byte(strconv.FormatUint(s.NextSerial, 10))).String()
}
