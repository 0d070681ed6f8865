package engine

import (
	"math"
	"time"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/state"
)

// Derived holds read-only aggregates recomputed after every advance and
// every state-changing action.
type Derived struct {
	RatesPerHour           state.Amounts        `json:"rates_per_hour"`
	Caps                   state.Amounts        `json:"caps"`
	TimeToCapHours         state.Amounts        `json:"time_to_cap_hours"`
	ActiveCrew             int                  `json:"active_crew"`
	AvailableCrew          int                  `json:"available_crew"`
	ProjectSpeedMultiplier float64              `json:"project_speed_multiplier"`
	Risk                   state.RiskState      `json:"risk"`
	Logistics              state.LogisticsState `json:"logistics"`
	Efficiency             float64              `json:"efficiency"`
}

func (d Derived) Clone() Derived {
	d.RatesPerHour = d.RatesPerHour.Clone()
	d.Caps = d.Caps.Clone()
	d.TimeToCapHours = d.TimeToCapHours.Clone()
	return d
}

// refreshDerived recomputes logistics, risk and the derived projection as of now.
func (e *Engine) refreshDerived(now time.Time) {
	mods := e.resolveModifiers(now)
	g := newGrid(e.st.Buildings)
	e.st.Logistics = e.computeLogistics(mods, g)
	caps := e.computeCaps(mods)
	e.st.Risk = e.computeRisk(mods, caps)

	rates := e.computeRates(now, mods, g)
	ttc := state.Amounts{}
	for _, res := range e.cat.Resources() {
		r := rates.Get(res.ID)
		if r <= 0 {
			continue
		}
		ttc.Set(res.ID, math.Max(0, (caps.Get(res.ID)-e.st.Amount(res.ID))/r))
	}
	used := e.usedCrew()
	e.derived = Derived{
		RatesPerHour:           rates,
		Caps:                   caps,
		TimeToCapHours:         ttc,
		ActiveCrew:             used,
		AvailableCrew:          max(0, e.st.CrewCount-used),
		ProjectSpeedMultiplier: e.projectSpeed(mods),
		Risk:                   e.st.Risk,
		Logistics:              e.st.Logistics,
		Efficiency:             e.st.Stats.LastEfficiency,
	}
}

// computeCaps returns effective storage caps per catalog resource.
func (e *Engine) computeCaps(mods Modifiers) state.Amounts {
	caps := state.Amounts{}
	for _, res := range e.cat.Resources() {
		caps.Set(res.ID, res.BaseCap)
	}
	for i := range e.st.Buildings {
		b := &e.st.Buildings[i]
		def, ok := e.cat.Building(b.BuildingID)
		if !ok {
			continue
		}
		mult := levelCurve(storageGrowth, b.Level)
		for _, id := range def.StorageCapAdd.IDs() {
			caps.Add(id, def.StorageCapAdd[id]*mult)
		}
	}
	for _, id := range e.st.StorageAdditions.Keys() {
		caps.Add(id, e.st.StorageAdditions[id])
	}
	for _, id := range mods.StorageAdditions.Keys() {
		caps.Add(id, mods.StorageAdditions[id])
	}
	for _, id := range caps.Keys() {
		if caps[id] < 0 {
			caps[id] = 0
		}
	}
	return caps
}

// computeRates projects net hourly rates from buildings enabled at now and
// active contracts.
func (e *Engine) computeRates(now time.Time, mods Modifiers, g grid) state.Amounts {
	prod, cons := state.Amounts{}, state.Amounts{}
	logistics := e.st.Logistics.Factor
	for i := range e.st.Buildings {
		b := &e.st.Buildings[i]
		if b.DisabledAt(now) {
			continue
		}
		def, ok := e.cat.Building(b.BuildingID)
		if !ok {
			continue
		}
		lm := e.outputMultiplier(b, def, g)
		for _, id := range def.ProductionPerHour.IDs() {
			prod.Add(id, def.ProductionPerHour[id]*lm*logistics)
		}
		for _, id := range def.ConsumptionPerHour.IDs() {
			cons.Add(id, def.ConsumptionPerHour[id]*lm*logistics)
		}
		for _, id := range def.MaintenancePerHour.IDs() {
			cons.Add(id, def.MaintenancePerHour[id])
		}
	}
	contractMult := e.contractFlows(1, prod, cons)

	rates := state.Amounts{}
	for _, res := range e.cat.Resources() {
		p := prod.Get(res.ID) * e.outputScale(res.ID, mods, contractMult)
		rates.Set(res.ID, p-cons.Get(res.ID))
	}
	return rates
}

// contractFlows adds hours worth of contract output and upkeep to prod and
// cons and returns the product of contract multipliers per resource.
func (e *Engine) contractFlows(hours float64, prod, cons state.Amounts) state.Amounts {
	mult := state.Amounts{}
	e.eachContract(func(_ string, c *state.ContractInstance) {
		def, ok := e.cat.Contract(c.ContractID)
		if !ok {
			return
		}
		for _, id := range def.EffectsPerHour.IDs() {
			prod.Add(id, def.EffectsPerHour[id]*hours*e.st.Market.PriceIndex(id)*def.PriceIndexMultiplier)
		}
		for _, id := range def.UpkeepPerHour.IDs() {
			cons.Add(id, def.UpkeepPerHour[id]*hours)
		}
		for _, id := range def.Multipliers.IDs() {
			mult.Set(id, mult.GetOr(id, 1)*def.Multipliers[id])
		}
	})
	return mult
}

// outputScale is the multiplier chain applied to a resource's production.
func (e *Engine) outputScale(id string, mods Modifiers, contractMult state.Amounts) float64 {
	return e.st.GlobalResourceMultiplier *
		mods.GlobalMultiplier *
		e.st.ResourceMultipliers.GetOr(id, 1) *
		mods.resourceMultiplier(id) *
		contractMult.GetOr(id, 1)
}

// eachContract visits active contracts, factions in catalog order. fn may
// mutate the instance in place.
func (e *Engine) eachContract(fn func(factionID string, c *state.ContractInstance)) {
	for _, f := range e.cat.Factions() {
		fs, ok := e.st.FactionStates[f.ID]
		if !ok {
			continue
		}
		for i := range fs.ActiveContracts {
			fn(f.ID, &fs.ActiveContracts[i])
		}
	}
}

func (e *Engine) usedCrew() int {
	used := 0
	for _, p := range e.st.ActiveProjects {
		used += p.CrewRequired
	}
	for _, d := range e.st.Dispatches {
		if d.Status != state.DispatchActive {
			continue
		}
		if def, ok := e.cat.Dispatch(d.DispatchID); ok {
			used += def.RequiredCrew
		}
	}
	return used
}

func (e *Engine) availableCrew() int { return max(0, e.st.CrewCount-e.usedCrew()) }

// AvailableCrewCount is the crew not assigned to projects or active dispatches.
func (e *Engine) AvailableCrewCount() int { return e.availableCrew() }

// ResourceRatesPerHour projects net hourly rates as of the clock's now.
func (e *Engine) ResourceRatesPerHour() state.Amounts {
	now := e.clock.Now()
	return e.computeRates(now, e.resolveModifiers(now), newGrid(e.st.Buildings))
}

func (e *Engine) ResourceCaps() state.Amounts {
	return e.computeCaps(e.resolveModifiers(e.clock.Now()))
}

// canAfford reports whether every cost is covered by current amounts.
func (e *Engine) canAfford(costs catalogs.Amounts) bool {
	for _, id := range costs.IDs() {
		if e.st.Amount(id) < costs[id] {
			return false
		}
	}
	return true
}

func (e *Engine) spend(costs catalogs.Amounts) {
	for _, id := range costs.IDs() {
		e.st.SetAmount(id, math.Max(0, e.st.Amount(id)-costs[id]))
	}
}
