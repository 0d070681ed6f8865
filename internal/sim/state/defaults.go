package state

import (
	"time"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/rng"
)

const (
	DefaultCrew           = 2
	DefaultGridSize       = 20
	DefaultMaxRoster      = 8
	DefaultOfflineCapDays = 7
	DefaultHostility      = 0.4
	DefaultLogisticsCap   = 100

	RaidersFactionID = "raiders"
)

// NeverAvailable is the catalyst availability before it is unlocked.
var NeverAvailable = time.Date(4001, time.January, 1, 0, 0, 0, 0, time.UTC)

// Default builds a fresh game from the catalog. The first event countdown is
// the stream's first draw.
func Default(cat *catalogs.Catalog, now time.Time, r *rng.Stream) *GameState {
	s := &GameState{
		SaveVersion:              CurrentVersion,
		LastSavedAt:              now,
		LastTickAt:               now,
		Resources:                map[string]ResourceState{},
		CrewCount:                DefaultCrew,
		MaxCrew:                  DefaultCrew,
		Flags:                    Flags{},
		FactionStates:            map[string]FactionState{},
		Catalyst:                 CatalystState{AvailableAt: NeverAvailable},
		GlobalResourceMultiplier: 1,
		ResourceMultipliers:      Amounts{},
		StorageAdditions:         Amounts{},
		Risk:                     RiskState{Hostility: DefaultHostility},
		Market:                   MarketState{PriceIndexByResource: Amounts{}, LastUpdatedAt: now},
		Logistics:                LogisticsState{Capacity: DefaultLogisticsCap, Factor: 1},
		Policies:                 PolicyState{ActiveBySlot: Strings{}, CooldownByPolicy: Times{}},
		Domains:                  DomainState{Points: Counts{}, UnlockedTiers: Counts{}},
		Collector: CollectorState{
			StoredByResource: Amounts{},
			CapacityHours:    cat.Collector().CapacityHours,
			LastCollectedAt:  now,
			LastUpdatedAt:    now,
		},
		ChosenMegaprojectFamily: Strings{},
		Stats: StatsState{
			TotalProduced:   Amounts{},
			TotalWasted:     Amounts{},
			TotalRaidLoss:   Amounts{},
			LastEfficiency:  1,
			LastRaidAt:      &now,
			DispatchRewards: Amounts{},
		},
		Metahumans:         map[string]MetahumanState{},
		People:             PeopleState{MaxRoster: DefaultMaxRoster},
		EventChains:        EventChainState{CooldownByChain: Times{}},
		Alerts:             AlertState{LastTriggeredAt: Times{}},
		NextEventInSeconds: r.Uniform(5000, 12000),
		GridSize:           DefaultGridSize,
		Settings:           SettingsState{OfflineCapDays: DefaultOfflineCapDays, NotificationsEnabled: true},
	}

	for _, res := range cat.Resources() {
		s.Resources[res.ID] = ResourceState{Amount: res.StartingAmount, Cap: res.BaseCap}
		s.Market.PriceIndexByResource[res.ID] = 1
		s.Stats.TotalProduced[res.ID] = 0
		s.Stats.TotalWasted[res.ID] = 0
		s.Stats.TotalRaidLoss[res.ID] = 0
		s.Collector.StoredByResource[res.ID] = 0
	}
	if eras := cat.Eras(); len(eras) > 0 {
		first := eras[0]
		s.EraID = first.ID
		s.UnlockedBuildingIDs = append([]string(nil), first.UnlocksBuildingIDs...)
		s.UnlockedProjectIDs = append([]string(nil), first.UnlocksProjectIDs...)
	}
	for _, f := range cat.Factions() {
		rel := 0
		if f.ID == RaidersFactionID {
			rel = -1
		}
		s.FactionStates[f.ID] = FactionState{Relationship: rel}
	}
	for _, d := range cat.Domains() {
		s.Domains.Points[d.ID] = 0
		s.Domains.UnlockedTiers[d.ID] = 0
	}
	for _, m := range cat.Metahumans() {
		s.Metahumans[m.ID] = MetahumanState{Disposition: Neutral}
	}
	return s
}
