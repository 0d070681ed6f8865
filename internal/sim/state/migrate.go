package state

import (
	"clay.game/internal/sim/catalogs"
)

// Normalize allocates every map a decoded save may carry as nil. Decoders drop
// empty maps, and the engine writes through several of them by index.
func (s *GameState) Normalize() {
	if s.Resources == nil {
		s.Resources = map[string]ResourceState{}
	}
	if s.FactionStates == nil {
		s.FactionStates = map[string]FactionState{}
	}
	if s.Metahumans == nil {
		s.Metahumans = map[string]MetahumanState{}
	}
	if s.Flags == nil {
		s.Flags = Flags{}
	}
	if s.ResourceMultipliers == nil {
		s.ResourceMultipliers = Amounts{}
	}
	if s.StorageAdditions == nil {
		s.StorageAdditions = Amounts{}
	}
	if s.Market.PriceIndexByResource == nil {
		s.Market.PriceIndexByResource = Amounts{}
	}
	if s.Policies.ActiveBySlot == nil {
		s.Policies.ActiveBySlot = Strings{}
	}
	if s.Policies.CooldownByPolicy == nil {
		s.Policies.CooldownByPolicy = Times{}
	}
	if s.Domains.Points == nil {
		s.Domains.Points = Counts{}
	}
	if s.Domains.UnlockedTiers == nil {
		s.Domains.UnlockedTiers = Counts{}
	}
	if s.Collector.StoredByResource == nil {
		s.Collector.StoredByResource = Amounts{}
	}
	if s.ChosenMegaprojectFamily == nil {
		s.ChosenMegaprojectFamily = Strings{}
	}
	if s.Stats.TotalProduced == nil {
		s.Stats.TotalProduced = Amounts{}
	}
	if s.Stats.TotalWasted == nil {
		s.Stats.TotalWasted = Amounts{}
	}
	if s.Stats.TotalRaidLoss == nil {
		s.Stats.TotalRaidLoss = Amounts{}
	}
	if s.Stats.DispatchRewards == nil {
		s.Stats.DispatchRewards = Amounts{}
	}
	if s.EventChains.CooldownByChain == nil {
		s.EventChains.CooldownByChain = Times{}
	}
	if s.Alerts.LastTriggeredAt == nil {
		s.Alerts.LastTriggeredAt = Times{}
	}
}

// Migrate upgrades a loaded save to CurrentVersion and reports whether it
// changed anything beyond Normalize. Resources and factions added to the
// catalog since the save was written are backfilled regardless of version.
// Domain tiers are refreshed by the engine afterwards since that applies effects.
func Migrate(s *GameState, cat *catalogs.Catalog) bool {
	s.Normalize()
	changed := false
	for _, res := range cat.Resources() {
		if _, ok := s.Resources[res.ID]; !ok {
			s.Resources[res.ID] = ResourceState{Amount: res.StartingAmount, Cap: res.BaseCap}
			changed = true
		}
	}
	for _, f := range cat.Factions() {
		if _, ok := s.FactionStates[f.ID]; !ok {
			rel := 0
			if f.ID == RaidersFactionID {
				rel = -1
			}
			s.FactionStates[f.ID] = FactionState{Relationship: rel}
			changed = true
		}
	}
	// Older saves carry no update stamps; the market and cache resume from
	// the save time instead of walking up from year one.
	if s.Market.LastUpdatedAt.IsZero() {
		s.Market.LastUpdatedAt = s.LastSavedAt
		changed = true
	}
	if s.Collector.LastUpdatedAt.IsZero() {
		s.Collector.LastUpdatedAt = s.LastSavedAt
		changed = true
	}
	if s.SaveVersion >= CurrentVersion {
		return changed
	}

	if len(s.Market.PriceIndexByResource) == 0 {
		for _, res := range cat.Resources() {
			s.Market.PriceIndexByResource[res.ID] = 1
		}
	}
	if len(s.Stats.TotalProduced) == 0 {
		for _, res := range cat.Resources() {
			s.Stats.TotalProduced[res.ID] = 0
			s.Stats.TotalWasted[res.ID] = 0
			s.Stats.TotalRaidLoss[res.ID] = 0
		}
	}
	if len(s.Domains.Points) == 0 {
		for _, d := range cat.Domains() {
			s.Domains.Points[d.ID] = 0
			s.Domains.UnlockedTiers[d.ID] = 0
		}
	}
	if s.Collector.CapacityHours <= 0 {
		s.Collector.CapacityHours = cat.Collector().CapacityHours
	}
	if len(s.Collector.StoredByResource) == 0 {
		for _, res := range cat.Resources() {
			s.Collector.StoredByResource[res.ID] = 0
		}
	}
	if s.Stats.LastRaidAt == nil {
		t := s.LastSavedAt
		s.Stats.LastRaidAt = &t
	}
	if len(s.Metahumans) == 0 {
		for _, m := range cat.Metahumans() {
			st := MetahumanState{Disposition: Neutral}
			switch {
			case s.Flags.Has(AllyFlag(m.ID)):
				st = MetahumanState{Affinity: 2, Disposition: Ally}
			case s.Flags.Has(EnemyFlag(m.ID)):
				st = MetahumanState{Affinity: -2, Disposition: Enemy}
			}
			s.Metahumans[m.ID] = st
		}
	}
	if len(s.People.RecruitedIDs) == 0 && s.People.MaxRoster == 0 {
		s.People = PeopleState{MaxRoster: DefaultMaxRoster}
	}
	if s.Settings.OfflineCapDays == 0 {
		s.Settings.OfflineCapDays = DefaultOfflineCapDays
	}
	if s.GlobalResourceMultiplier == 0 {
		s.GlobalResourceMultiplier = 1
	}
	if s.Flags.Has("type_iii_complete") || s.Flags.Has("type_ii_complete") {
		if _, ok := cat.Era("galactic"); ok {
			s.EraID = "galactic"
		}
	}
	s.SyncUnlocks(cat)
	s.SaveVersion = CurrentVersion
	return true
}

// SyncUnlocks grants every building and project unlocked by the current era
// and the eras before it.
func (s *GameState) SyncUnlocks(cat *catalogs.Catalog) {
	current, ok := cat.Era(s.EraID)
	if !ok {
		return
	}
	for _, era := range cat.Eras() {
		if era.SortOrder > current.SortOrder {
			continue
		}
		for _, id := range era.UnlocksBuildingIDs {
			s.UnlockBuilding(id)
		}
		for _, id := range era.UnlocksProjectIDs {
			s.UnlockProject(id)
		}
	}
}
