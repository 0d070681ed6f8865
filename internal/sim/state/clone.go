package state

import "time"

// Clone returns a deep copy safe to hand to another goroutine.
func (s *GameState) Clone() *GameState {
	c := *s

	c.Resources = make(map[string]ResourceState, len(s.Resources))
	for k, v := range s.Resources {
		c.Resources[k] = v
	}
	c.UnlockedBuildingIDs = cloneStrings(s.UnlockedBuildingIDs)
	c.UnlockedProjectIDs = cloneStrings(s.UnlockedProjectIDs)
	c.CompletedProjectIDs = cloneStrings(s.CompletedProjectIDs)
	c.ActiveProjects = append([]ProjectInstance(nil), s.ActiveProjects...)
	c.QueuedProjects = append([]QueuedProject(nil), s.QueuedProjects...)
	c.Flags = s.Flags.Clone()

	if s.Buildings != nil {
		c.Buildings = make([]BuildingInstance, len(s.Buildings))
		for i, b := range s.Buildings {
			b.DisabledUntil = cloneTime(b.DisabledUntil)
			c.Buildings[i] = b
		}
	}
	c.FactionStates = make(map[string]FactionState, len(s.FactionStates))
	for k, f := range s.FactionStates {
		f.ActiveContracts = append([]ContractInstance(nil), f.ActiveContracts...)
		c.FactionStates[k] = f
	}
	c.Events = append([]EventLogEntry(nil), s.Events...)
	c.Catalyst.ActiveUntil = cloneTime(s.Catalyst.ActiveUntil)

	c.ResourceMultipliers = s.ResourceMultipliers.Clone()
	c.StorageAdditions = s.StorageAdditions.Clone()
	c.Market.PriceIndexByResource = s.Market.PriceIndexByResource.Clone()
	c.Policies.ActiveBySlot = s.Policies.ActiveBySlot.Clone()
	c.Policies.CooldownByPolicy = s.Policies.CooldownByPolicy.Clone()
	c.Domains.Points = s.Domains.Points.Clone()
	c.Domains.UnlockedTiers = s.Domains.UnlockedTiers.Clone()
	c.Dispatches = append([]DispatchInstance(nil), s.Dispatches...)
	c.Collector.StoredByResource = s.Collector.StoredByResource.Clone()
	c.ChosenMegaprojectFamily = s.ChosenMegaprojectFamily.Clone()
	c.AchievementsUnlocked = cloneStrings(s.AchievementsUnlocked)
	c.AutoPlan.PriorityTags = cloneStrings(s.AutoPlan.PriorityTags)
	c.Prestige.LegacyUpgrades = cloneStrings(s.Prestige.LegacyUpgrades)
	c.Prestige.LastPrestigeAt = cloneTime(s.Prestige.LastPrestigeAt)

	c.Stats.TotalProduced = s.Stats.TotalProduced.Clone()
	c.Stats.TotalWasted = s.Stats.TotalWasted.Clone()
	c.Stats.TotalRaidLoss = s.Stats.TotalRaidLoss.Clone()
	c.Stats.DispatchRewards = s.Stats.DispatchRewards.Clone()
	c.Stats.LastRaidAt = cloneTime(s.Stats.LastRaidAt)

	c.Metahumans = make(map[string]MetahumanState, len(s.Metahumans))
	for k, m := range s.Metahumans {
		m.LastEncounterAt = cloneTime(m.LastEncounterAt)
		c.Metahumans[k] = m
	}
	c.People.RecruitedIDs = cloneStrings(s.People.RecruitedIDs)
	c.EventChains.CooldownByChain = s.EventChains.CooldownByChain.Clone()
	c.Alerts.LastTriggeredAt = s.Alerts.LastTriggeredAt.Clone()
	c.TimeTravelClampUntil = cloneTime(s.TimeTravelClampUntil)
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
