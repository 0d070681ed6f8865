package engine

import (
	"math"

	"clay.game/internal/sim/state"
)

const (
	baseRaidRate       = 0.3
	raidSteepness      = 4.0
	securityPerDefense = 100.0
)

func (e *Engine) computeRisk(mods Modifiers, caps state.Amounts) state.RiskState {
	exposure, n := 0.0, 0
	for _, res := range e.cat.Resources() {
		r := e.st.Resources[res.ID]
		c := caps.GetOr(res.ID, r.Cap)
		if c > 0 {
			exposure += math.Min(1, r.Amount/c)
			n++
		}
	}
	if n > 0 {
		exposure /= float64(n)
	}

	security := 0.0
	for _, b := range e.st.Buildings {
		if def, ok := e.cat.Building(b.BuildingID); ok {
			security += def.DefenseScore
		}
	}
	e.eachContract(func(_ string, c *state.ContractInstance) {
		if def, ok := e.cat.Contract(c.ContractID); ok {
			security += def.SecurityBonus
		}
	})
	security += e.st.SecurityBonus + mods.SecurityBonus
	security = clamp(security/securityPerDefense, 0, 1)

	hostility := e.hostility()
	x := (exposure - security) * hostility * raidSteepness
	return state.RiskState{
		Exposure:          exposure,
		Security:          security,
		Hostility:         hostility,
		RaidChancePerHour: baseRaidRate / (1 + math.Exp(-x)),
	}
}

// hostility is a step function of the raiders' relationship.
func (e *Engine) hostility() float64 {
	switch e.st.Relationship(state.RaidersFactionID) {
	case -2:
		return 1.0
	case -1:
		return 0.7
	case 0:
		return 0.4
	case 1:
		return 0.2
	}
	return 0.1
}
