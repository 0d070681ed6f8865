package engine

import (
	"math"
	"time"

	"clay.game/internal/sim/state"
)

// activeSeconds is the part of the window [end-elapsed, end] during which b
// was not disabled.
func activeSeconds(b *state.BuildingInstance, end time.Time, elapsed float64) float64 {
	start := end.Add(-durationOf(elapsed))
	switch {
	case b.DisabledUntil == nil || !b.DisabledUntil.After(start):
		return elapsed
	case !b.DisabledUntil.Before(end):
		return 0
	}
	return end.Sub(*b.DisabledUntil).Seconds()
}

// applyResourceDelta resolves production and consumption for the window
// ending at asOf. Buildings run in state order against a shared ledger of
// what is still available, so an input drained by one building throttles
// the next. Overflow above cap is recorded as waste.
func (e *Engine) applyResourceDelta(elapsed float64, asOf time.Time, mods Modifiers, caps state.Amounts) {
	hours := elapsed / 3600
	g := newGrid(e.st.Buildings)
	logistics := e.st.Logistics.Factor

	available := state.Amounts{}
	for _, res := range e.cat.Resources() {
		available.Set(res.ID, e.st.Amount(res.ID))
	}
	produced, consumed := state.Amounts{}, state.Amounts{}
	effSum, effN := 0.0, 0

	for i := range e.st.Buildings {
		b := &e.st.Buildings[i]
		def, ok := e.cat.Building(b.BuildingID)
		if !ok {
			continue
		}
		active := activeSeconds(b, asOf, elapsed)
		if active <= 0 {
			continue
		}
		lm := e.outputMultiplier(b, def, g)
		sf := active / 3600

		input := 1.0
		for _, id := range def.ConsumptionPerHour.IDs() {
			if rate := def.ConsumptionPerHour[id]; rate > 0 {
				input = math.Min(input, available.Get(id)/(rate*lm*sf))
			}
		}
		for _, id := range def.MaintenancePerHour.IDs() {
			if rate := def.MaintenancePerHour[id]; rate > 0 {
				input = math.Min(input, available.Get(id)/(rate*sf))
			}
		}
		input = clamp(input, 0, 1)
		base := input * logistics

		prodFactor := base
		if !def.HasInputs() {
			prodFactor = math.Max(def.EfficiencyFloor, base)
		}
		if prodFactor > 0 {
			for _, id := range def.ProductionPerHour.IDs() {
				produced.Add(id, def.ProductionPerHour[id]*lm*sf*prodFactor)
			}
		}
		if base > 0 {
			for _, id := range def.ConsumptionPerHour.IDs() {
				amt := def.ConsumptionPerHour[id] * lm * sf * base
				consumed.Add(id, amt)
				available.Set(id, math.Max(0, available.Get(id)-amt))
			}
			for _, id := range def.MaintenancePerHour.IDs() {
				amt := def.MaintenancePerHour[id] * sf * base
				consumed.Add(id, amt)
				available.Set(id, math.Max(0, available.Get(id)-amt))
			}
		}
		effSum += base
		effN++
	}

	contractMult := state.Amounts{}
	if hours > 0 {
		contractMult = e.contractFlows(hours, produced, consumed)
	}
	for _, res := range e.cat.Resources() {
		if p, ok := produced[res.ID]; ok {
			produced[res.ID] = p * e.outputScale(res.ID, mods, contractMult)
		}
	}

	if hours > 0 {
		c := &e.st.Collector
		for _, res := range e.cat.Resources() {
			net := produced.Get(res.ID) - consumed.Get(res.ID)
			if net <= 0 {
				continue
			}
			capacity := net / hours * c.CapacityHours
			c.StoredByResource.Set(res.ID, math.Min(capacity, c.StoredByResource.Get(res.ID)+net))
		}
		c.LastUpdatedAt = asOf
	}

	if effN > 0 {
		e.st.Stats.LastEfficiency = effSum / float64(effN)
	} else {
		e.st.Stats.LastEfficiency = 1
	}

	for _, res := range e.cat.Resources() {
		r := e.st.Resources[res.ID]
		c := caps.GetOr(res.ID, res.BaseCap)
		p := produced.Get(res.ID)
		next := r.Amount + p - consumed.Get(res.ID)
		waste := math.Max(0, next-c)
		r.Cap = c
		r.Amount = clamp(next, 0, c)
		e.st.Resources[res.ID] = r
		if p > 0 {
			e.st.Stats.TotalProduced.Add(res.ID, p)
		}
		if waste > 0 {
			e.st.Stats.TotalWasted.Add(res.ID, waste)
		}
	}
}
