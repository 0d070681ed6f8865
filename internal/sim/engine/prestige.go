package engine

import (
	"fmt"
	"math"

	"clay.game/internal/sim/state"
)

const energyBonusOffset = 7

// LegacyGain itemises the legacy points an ascension would award now.
type LegacyGain struct {
	EraPoints        int `json:"era_points"`
	DomainBonus      int `json:"domain_bonus"`
	AchievementBonus int `json:"achievement_bonus"`
	EnergyBonus      int `json:"energy_bonus"`
}

func (g LegacyGain) Total() int {
	return g.EraPoints + g.DomainBonus + g.AchievementBonus + g.EnergyBonus
}

// LegacyGainBreakdown counts eras past the first whose keystone (any of
// them) is complete, plus domain, achievement and energy bonuses.
func (e *Engine) LegacyGainBreakdown() LegacyGain {
	var g LegacyGain
	for _, era := range e.cat.Eras() {
		if era.SortOrder <= 0 {
			continue
		}
		for _, k := range era.Keystones() {
			if e.st.IsProjectCompleted(k) {
				g.EraPoints++
				break
			}
		}
	}
	g.DomainBonus = e.st.Domains.UnlockedTiers.Total() / 3
	g.AchievementBonus = len(e.st.AchievementsUnlocked) / 4
	if e.st.Flags.Has(typeIIICompleteFlagID) {
		produced := math.Max(1, e.st.Stats.TotalProduced.Get(energyResourceID))
		g.EnergyBonus = max(0, int(math.Floor(math.Log10(produced)))-energyBonusOffset)
	}
	return g
}

// Ascend resets the run, keeping settings, the id counter and prestige,
// then reapplies every owned legacy upgrade. It returns the points gained.
func (e *Engine) Ascend() int {
	now := e.clock.Now()
	gain := e.LegacyGainBreakdown().Total()
	old := e.st

	next := state.Default(e.cat, now, e.rng)
	next.Settings = old.Settings
	next.NextSerial = old.NextSerial
	next.Prestige = old.Prestige
	next.Prestige.LegacyUpgrades = append([]string(nil), old.Prestige.LegacyUpgrades...)
	next.Prestige.LegacyPoints += gain
	at := now
	next.Prestige.LastPrestigeAt = &at
	e.st = next

	for _, id := range e.st.Prestige.LegacyUpgrades {
		if def, ok := e.cat.LegacyUpgrade(id); ok {
			e.applyEffects(def.Effects, now)
		}
	}
	e.logEvent(now, "prestige", "Ascension", fmt.Sprintf("Gained %d legacy points.", gain))
	e.refreshDerived(now)
	return gain
}

func (e *Engine) PurchaseLegacyUpgrade(upgradeID string) bool {
	if e.LegacyUpgradeBlockReason(upgradeID) != "" {
		return false
	}
	def, _ := e.cat.LegacyUpgrade(upgradeID)
	now := e.clock.Now()
	e.st.Prestige.LegacyPoints -= def.Cost
	e.st.Prestige.LegacyUpgrades = append(e.st.Prestige.LegacyUpgrades, def.ID)
	e.applyEffects(def.Effects, now)
	e.logEvent(now, "prestige", "Legacy Upgrade", def.Name)
	e.refreshDerived(now)
	return true
}
