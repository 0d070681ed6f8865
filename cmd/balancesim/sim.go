package main

import (
	"slices"
	"time"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/state"
)

// simEpoch pins the fake clock so identical seeds give identical reports.
var simEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type simConfig struct {
	Days     int
	Seed     uint64
	AutoPlan bool
}

// Summary is the balance report. Fields are kept in json key order.
type Summary struct {
	CacheCollects       int            `json:"cacheCollects"`
	CrewIdlePct         float64        `json:"crewIdlePct"`
	Days                int            `json:"days"`
	DispatchesCompleted int            `json:"dispatchesCompleted"`
	DomainPoints        state.Counts   `json:"domainPoints"`
	DomainTiers         state.Counts   `json:"domainTiers"`
	EnergyProduced      float64        `json:"energyProduced"`
	RaidRatePerDay      float64        `json:"raidRatePerDay"`
	Seed                uint64         `json:"seed"`
	TimeToEraHours      map[string]int `json:"timeToEraHours"`
	WastePct            float64        `json:"wastePct"`
}

// runBalance plays the catalog hour by hour as an idle player would: keep one
// dispatch out, collect whatever comes back, empty the cache.
func runBalance(cat *catalogs.Catalog, cfg simConfig) Summary {
	days := max(1, cfg.Days)
	e := engine.New(cat, engine.Config{Seed: cfg.Seed, Clock: engine.NewFakeClock(simEpoch)})
	if cfg.AutoPlan {
		e.SetAutoPlannerEnabled(true)
		for _, d := range cat.Domains() {
			e.SetAutoPlanTag(d.ID, true)
		}
	}

	hours := days * 24
	var crewIdleSum float64
	cacheCollects := 0
	timeToEra := map[string]int{}

	for hour := 0; hour < hours; hour++ {
		if len(e.State().Dispatches) == 0 {
			for _, d := range cat.Dispatches() {
				if e.DispatchBlockReason(d.ID) == "" {
					e.StartDispatch(d.ID)
					break
				}
			}
		}

		e.Simulate(3600, true)

		var finished []string
		for _, d := range e.State().Dispatches {
			if d.Status != state.DispatchActive {
				finished = append(finished, d.ID)
			}
		}
		for _, id := range finished {
			e.CollectDispatch(id)
		}
		if sum(e.State().Collector.StoredByResource) > 0 && e.CollectCache() {
			cacheCollects++
		}

		st := e.State()
		crewIdleSum += float64(e.AvailableCrewCount()) / float64(max(1, st.MaxCrew))
		for _, era := range cat.Eras() {
			if _, seen := timeToEra[era.ID]; seen {
				continue
			}
			for _, k := range era.Keystones() {
				if slices.Contains(st.CompletedProjectIDs, k) {
					timeToEra[era.ID] = hour + 1
					break
				}
			}
		}
	}

	st := e.State()
	produced := sum(st.Stats.TotalProduced)
	wastePct := 0.0
	if produced > 0 {
		wastePct = sum(st.Stats.TotalWasted) / produced * 100
	}
	raids := 0
	for _, ev := range st.Events {
		if ev.Category == "raid" && ev.Title == "Raid" {
			raids++
		}
	}

	return Summary{
		CacheCollects:       cacheCollects,
		CrewIdlePct:         crewIdleSum / float64(hours) * 100,
		Days:                days,
		DispatchesCompleted: st.Stats.DispatchesCompleted,
		DomainPoints:        st.Domains.Points.Clone(),
		DomainTiers:         st.Domains.UnlockedTiers.Clone(),
		EnergyProduced:      st.Stats.TotalProduced.Get("energy"),
		RaidRatePerDay:      float64(raids) / float64(days),
		Seed:                cfg.Seed,
		TimeToEraHours:      timeToEra,
		WastePct:            wastePct,
	}
}

func sum(a state.Amounts) float64 {
	total := 0.0
	for _, v := range a {
		total += v
	}
	return total
}
