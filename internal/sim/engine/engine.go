// Package engine advances the economy simulation. An Engine owns one GameState
// and is not safe for concurrent use; callers serialise access (see driver).
package engine

import (
	"time"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/rng"
	"clay.game/internal/sim/state"
	"clay.game/internal/sim/tuning"
)

type Config struct {
	// Seed is used when RNG is nil.
	Seed uint64
	// RNG resumes a saved stream position.
	RNG *rng.Stream
	// State is a loaded save; nil starts a fresh game.
	State  *state.GameState
	Clock  Clock
	Tuning tuning.Tuning
}

type Engine struct {
	cat   *catalogs.Catalog
	st    *state.GameState
	rng   *rng.Stream
	clock Clock
	tun   tuning.Tuning

	derived Derived

	observers  map[int]Observer
	nextObsID  int
	noteSeq    int
	newEntries []state.EventLogEntry
}

// New builds an engine over a validated catalog. A loaded state is migrated
// and its domain tiers refreshed; derived values and achievements are brought
// up to date before New returns.
func New(cat *catalogs.Catalog, cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = RealClock{}
	}
	if cfg.Tuning == (tuning.Tuning{}) {
		cfg.Tuning = tuning.Defaults()
	}
	r := cfg.RNG
	if r == nil {
		r = rng.New(cfg.Seed)
	}
	e := &Engine{
		cat:       cat,
		rng:       r,
		clock:     cfg.Clock,
		tun:       cfg.Tuning,
		observers: map[int]Observer{},
	}
	now := e.clock.Now()
	if cfg.State == nil {
		e.st = e.freshState(now)
	} else {
		e.st = cfg.State
		state.Migrate(e.st, cat)
		e.refreshDomainTiers(now)
	}
	e.refreshDerived(now)
	e.evaluateAchievements(now)
	e.newEntries = nil
	return e
}

func (e *Engine) freshState(now time.Time) *state.GameState {
	s := state.Default(e.cat, now, e.rng)
	if e.tun.OfflineCapDays > 0 {
		s.Settings.OfflineCapDays = e.tun.OfflineCapDays
	}
	return s
}

// State exposes the live aggregate for reads. Callers must not mutate it.
func (e *Engine) State() *state.GameState { return e.st }

// Snapshot returns a deep copy of the state and the RNG position, suitable
// for saving from another goroutine.
func (e *Engine) Snapshot() (*state.GameState, *rng.Stream) {
	return e.st.Clone(), e.rng.Clone()
}

func (e *Engine) Catalog() *catalogs.Catalog { return e.cat }

func (e *Engine) Derived() Derived { return e.derived.Clone() }

func (e *Engine) Now() time.Time { return e.clock.Now() }

// MarkSaved stamps the save time; the offline reconcile measures from it.
func (e *Engine) MarkSaved(now time.Time) { e.st.LastSavedAt = now }

func (e *Engine) logEvent(now time.Time, category, title, message string) {
	entry := state.EventLogEntry{
		ID:        e.st.NewID(),
		Timestamp: now,
		Category:  category,
		Title:     title,
		Message:   message,
		Severity:  1,
	}
	e.st.Events = append([]state.EventLogEntry{entry}, e.st.Events...)
	if limit := e.tun.EventLogLimit; limit > 0 && len(e.st.Events) > limit {
		e.st.Events = e.st.Events[:limit]
	}
	e.newEntries = append(e.newEntries, entry)
}

// drainEntries returns log entries added since the last call, oldest first.
func (e *Engine) drainEntries() []state.EventLogEntry {
	out := e.newEntries
	e.newEntries = nil
	return out
}
