package engine

import (
	"time"

	"clay.game/internal/sim/state"
)

// failedRewardShare scales the rewards of a failed dispatch on collection.
const failedRewardShare = 0.5

// progressDispatches counts down active dispatches. Each one that finishes
// consumes exactly one draw to decide between ready and failed.
func (e *Engine) progressDispatches(elapsed float64, now time.Time) {
	for i := range e.st.Dispatches {
		d := &e.st.Dispatches[i]
		if d.Status != state.DispatchActive {
			continue
		}
		d.RemainingSeconds -= elapsed
		if d.RemainingSeconds > 0 {
			continue
		}
		d.RemainingSeconds = 0
		def, ok := e.cat.Dispatch(d.DispatchID)
		if !ok {
			d.Status = state.DispatchFailed
			continue
		}
		if e.rng.Float64() < def.RiskChance {
			d.Status = state.DispatchFailed
			e.logEvent(now, "dispatch", "Dispatch Failed", def.Name+" returned with losses.")
		} else {
			d.Status = state.DispatchReady
			e.logEvent(now, "dispatch", "Dispatch Ready", def.Name+" is ready to collect.")
		}
	}
}

func (e *Engine) removeDispatch(instanceID string) {
	kept := e.st.Dispatches[:0]
	for _, d := range e.st.Dispatches {
		if d.ID != instanceID {
			kept = append(kept, d)
		}
	}
	e.st.Dispatches = kept
}
