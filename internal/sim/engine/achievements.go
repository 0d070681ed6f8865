package engine

import (
	"time"

	"clay.game/internal/sim/catalogs"
)

// evaluateAchievements unlocks every achievement whose condition now holds.
// Each one unlocks at most once.
func (e *Engine) evaluateAchievements(now time.Time) {
	for i := range e.cat.Achievements() {
		a := &e.cat.Achievements()[i]
		if e.st.HasAchievement(a.ID) || !e.conditionMet(a.Condition, now) {
			continue
		}
		e.st.AchievementsUnlocked = append(e.st.AchievementsUnlocked, a.ID)
		e.applyEffects(a.Effects, now)
		e.logEvent(now, "achievement", "Achievement Unlocked", a.Name)
	}
}

func (e *Engine) conditionMet(c catalogs.AchievementCondition, now time.Time) bool {
	switch c.Type {
	case catalogs.ConditionResourceRate:
		return c.Amount != nil && e.derived.RatesPerHour.Get(c.ResourceID) >= *c.Amount
	case catalogs.ConditionResourceTotal:
		return c.Amount != nil && e.st.Stats.TotalProduced.Get(c.ResourceID) >= *c.Amount
	case catalogs.ConditionDomainTier:
		return c.Tier != nil && e.st.Domains.UnlockedTiers.Get(c.DomainID) >= *c.Tier
	case catalogs.ConditionRaidFreeDays:
		if c.DurationHours == nil {
			return false
		}
		since := e.st.LastSavedAt
		if e.st.Stats.LastRaidAt != nil {
			since = *e.st.Stats.LastRaidAt
		}
		return now.Sub(since).Seconds() >= *c.DurationHours*3600
	case catalogs.ConditionFlag:
		return c.FlagID != "" && e.st.Flags.Has(c.FlagID)
	}
	return false
}
