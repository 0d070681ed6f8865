package engine

import (
	"time"

	"clay.game/internal/sim/state"
)

const (
	renewWindowSeconds  = 3600
	expiringSoonSeconds = 7200
)

// progressContracts counts contracts down, marks missed upkeep and settles
// expired ones. A faction gains one relationship point when its expiring
// contracts were all kept up and loses one otherwise.
func (e *Engine) progressContracts(elapsed float64, now time.Time) {
	for _, f := range e.cat.Factions() {
		fs, ok := e.st.FactionStates[f.ID]
		if !ok || len(fs.ActiveContracts) == 0 {
			continue
		}
		kept := make([]state.ContractInstance, 0, len(fs.ActiveContracts))
		var expired []state.ContractInstance
		for _, c := range fs.ActiveContracts {
			c.RemainingSeconds -= elapsed
			if def, ok := e.cat.Contract(c.ContractID); ok {
				for _, id := range def.UpkeepPerHour.IDs() {
					if e.st.Amount(id) <= 0 {
						c.UpkeepMissed = true
					}
				}
			}
			if c.RemainingSeconds > 0 {
				kept = append(kept, c)
				continue
			}
			expired = append(expired, c)
		}
		fs.ActiveContracts = kept
		if len(expired) > 0 {
			delta := 1
			for _, c := range expired {
				if c.UpkeepMissed {
					delta = -1
				}
			}
			fs.Relationship = clampInt(fs.Relationship+delta, state.MinRelationship, state.MaxRelationship)
		}
		e.st.FactionStates[f.ID] = fs

		for _, c := range expired {
			if def, ok := e.cat.Contract(c.ContractID); ok && c.UpkeepMissed {
				e.applyEffects(def.PenaltyEffects, now)
			}
		}
		if len(expired) > 0 {
			e.logEvent(now, "contract", "Contract Completed", "A contract with "+f.Name+" concluded successfully.")
		}
	}
}

// autoRenewContracts extends renewable contracts close to expiry when the
// faction still qualifies and one hour of upkeep is on hand.
func (e *Engine) autoRenewContracts(now time.Time) {
	if !e.st.AutoPlan.AutoRenewContracts {
		return
	}
	e.eachContract(func(factionID string, c *state.ContractInstance) {
		def, ok := e.cat.Contract(c.ContractID)
		if !ok || !def.Renewable || c.RemainingSeconds >= renewWindowSeconds {
			return
		}
		if e.st.Relationship(factionID) < def.RequiredRelationship || !e.canAfford(def.UpkeepPerHour) {
			return
		}
		c.RemainingSeconds += def.DurationSeconds
		c.UpkeepMissed = false
		e.logEvent(now, "contract", "Contract Renewed", def.Name)
	})
}
