package engine

import (
	"math"

	"clay.game/internal/sim/state"
)

const baseLogisticsCapacity = 100.0

// computeLogistics compares hub capacity with the throughput demanded by all
// buildings, disabled ones included.
func (e *Engine) computeLogistics(mods Modifiers, g grid) state.LogisticsState {
	capacity := baseLogisticsCapacity + e.st.LogisticsBonus + mods.LogisticsBonus
	demand := 0.0
	for i := range e.st.Buildings {
		b := &e.st.Buildings[i]
		def, ok := e.cat.Building(b.BuildingID)
		if !ok {
			continue
		}
		mult := levelCurve(logisticsGrowth, b.Level) * e.adjacency(b, def, g) * e.district(b, def, g)
		capacity += def.LogisticsCapAdd * mult
		prod := def.ProductionPerHour.Sum() * mult
		cons := def.ConsumptionPerHour.Sum() * mult
		demand += math.Abs(prod) + math.Abs(cons)
	}
	factor := 1.0
	if capacity > 0 {
		factor = math.Min(1, capacity/math.Max(1, demand))
	}
	return state.LogisticsState{Capacity: capacity, Demand: demand, Factor: factor}
}
