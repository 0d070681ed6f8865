package engine

import (
	"time"

	"clay.game/internal/sim/state"
)

const (
	marketStep      = time.Hour
	marketReversion = 0.1
	marketNoise     = 0.04
)

// updateMarket advances price indices in whole-hour steps up to now. Partial
// hours carry over to the next call.
func (e *Engine) updateMarket(now time.Time) {
	m := &e.st.Market
	last := m.LastUpdatedAt
	for !last.Add(marketStep).After(now) {
		last = last.Add(marketStep)
		for _, res := range e.cat.Resources() {
			p := m.PriceIndex(res.ID)
			p += (1-p)*marketReversion + e.rng.Uniform(-marketNoise, marketNoise)
			m.PriceIndexByResource.Set(res.ID, clamp(p, state.MinPriceIndex, state.MaxPriceIndex))
		}
	}
	m.LastUpdatedAt = last
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
