package engine

import (
	"strconv"
	"time"

	"clay.game/internal/sim/state"
)

type Style string

const (
	StyleInfo    Style = "info"
	StyleWarning Style = "warning"
	StyleSuccess Style = "success"
)

// Notification is a transient message for the player. It is not persisted.
type Notification struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Style   Style     `json:"style"`
	At      time.Time `json:"at"`
}

// AdvanceReport summarises one completed advance.
type AdvanceReport struct {
	ElapsedSeconds float64               `json:"elapsed_seconds"`
	AsOf           time.Time             `json:"as_of"`
	Offline        bool                  `json:"offline"`
	NewEntries     []state.EventLogEntry `json:"new_entries,omitempty"`
	Derived        Derived               `json:"derived"`
}

// Observer receives engine output on the engine's goroutine. Implementations
// must return quickly and must not call back into the engine.
type Observer interface {
	OnNotification(Notification)
	OnAdvance(AdvanceReport)
}

// Subscribe registers o and returns a function that removes it.
func (e *Engine) Subscribe(o Observer) (unsubscribe func()) {
	id := e.nextObsID
	e.nextObsID++
	e.observers[id] = o
	return func() { delete(e.observers, id) }
}

// note builds a notification. Ids come from an engine-local counter so
// refused actions leave the saved state untouched.
func (e *Engine) note(message string, style Style, at time.Time) Notification {
	e.noteSeq++
	return Notification{ID: "n" + strconv.Itoa(e.noteSeq), Message: message, Style: style, At: at}
}

func (e *Engine) notify(n Notification) {
	for _, id := range e.observerIDs() {
		e.observers[id].OnNotification(n)
	}
}

func (e *Engine) reportAdvance(r AdvanceReport) {
	for _, id := range e.observerIDs() {
		e.observers[id].OnAdvance(r)
	}
}

// observerIDs returns ids in registration order.
func (e *Engine) observerIDs() []int {
	ids := make([]int, 0, len(e.observers))
	for id := 0; id < e.nextObsID; id++ {
		if _, ok := e.observers[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
