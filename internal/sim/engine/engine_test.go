package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/effects"
	"clay.game/internal/sim/state"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const quiet = 1e12

func stoneBuilding(id string, mut func(*catalogs.BuildingDef)) catalogs.BuildingDef {
	b := catalogs.BuildingDef{
		ID:               id,
		Name:             id,
		Era:              "stone",
		MaxLevel:         3,
		BaseCost:         catalogs.Amounts{"materials": 10},
		CostGrowth:       2,
		BuildTimeSeconds: 600,
		DistrictBonus:    1,
	}
	if mut != nil {
		mut(&b)
	}
	return b
}

func basePack() catalogs.Pack {
	return catalogs.Pack{
		Resources: []catalogs.ResourceDef{
			{ID: "food", Name: "Food", SortOrder: 0, StartingAmount: 50, BaseCap: 1000},
			{ID: "materials", Name: "Materials", SortOrder: 1, StartingAmount: 100, BaseCap: 1000},
			{ID: "credits", Name: "Credits", SortOrder: 2, StartingAmount: 100, BaseCap: 1000},
			{ID: "energy", Name: "Energy", SortOrder: 3, StartingAmount: 0, BaseCap: 1000},
		},
		Buildings: []catalogs.BuildingDef{
			stoneBuilding("farm", func(b *catalogs.BuildingDef) {
				b.ProductionPerHour = catalogs.Amounts{"food": 10}
				b.EfficiencyFloor = 0.5
			}),
			stoneBuilding("mill", func(b *catalogs.BuildingDef) {
				b.ConsumptionPerHour = catalogs.Amounts{"food": 10}
				b.ProductionPerHour = catalogs.Amounts{"materials": 5}
			}),
			stoneBuilding("silo", func(b *catalogs.BuildingDef) { b.StorageCapAdd = catalogs.Amounts{"food": 100} }),
			stoneBuilding("wall", func(b *catalogs.BuildingDef) { b.DefenseScore = 100 }),
			stoneBuilding("hub", func(b *catalogs.BuildingDef) { b.LogisticsCapAdd = 1000 }),
			stoneBuilding("reactor", func(b *catalogs.BuildingDef) { b.ProductionPerHour = catalogs.Amounts{"energy": 300} }),
		},
		Projects: []catalogs.ProjectDef{
			{ID: "fire", Name: "Fire", Era: "stone", DurationSeconds: 3600, CrewRequired: 1,
				Costs: catalogs.Amounts{"materials": 10}, Tags: []string{"science"},
				Effects: effects.List{effects.SetFlag{Flag: "fire_lit"}}},
			{ID: "tools", Name: "Tools", Era: "stone", DurationSeconds: 1800, CrewRequired: 1,
				Costs: catalogs.Amounts{"materials": 5}, Tags: []string{"industry"}},
			{ID: "wheel", Name: "Wheel", Era: "stone", DurationSeconds: 10000, CrewRequired: 2,
				Costs: catalogs.Amounts{"materials": 5}, Tags: []string{"science"}},
			{ID: "bronze_key", Name: "Bronze Casting", Era: "stone", DurationSeconds: 20000, CrewRequired: 1,
				Effects: effects.List{effects.UnlockEra{Era: "bronze"}}},
			{ID: "orbital", Name: "Orbital Ring", Era: "stone", DurationSeconds: 1000, CrewRequired: 1},
			{ID: "swarm", Name: "Swarm", Era: "stone", DurationSeconds: 1000, CrewRequired: 1},
			{ID: "forge", Name: "Forge", Era: "bronze", DurationSeconds: 1000, CrewRequired: 1},
		},
		Eras: []catalogs.EraDef{
			{ID: "stone", Name: "Stone", SortOrder: 0, KeystoneProjectID: "fire",
				UnlocksBuildingIDs: []string{"farm", "mill", "silo", "wall", "hub", "reactor"},
				UnlocksProjectIDs:  []string{"fire", "tools", "wheel", "bronze_key"}},
			{ID: "bronze", Name: "Bronze", SortOrder: 1, KeystoneProjectID: "bronze_key",
				UnlocksProjectIDs: []string{"forge"}},
		},
		Factions: []catalogs.FactionDef{{ID: "raiders", Name: "Raiders"}, {ID: "guild", Name: "Guild"}},
		Contracts: []catalogs.ContractDef{{
			ID: "trade", Name: "Trade Pact", FactionID: "guild", DurationSeconds: 7200,
			UpkeepPerHour:        catalogs.Amounts{"food": 1},
			EffectsPerHour:       catalogs.Amounts{"credits": 10},
			PriceIndexMultiplier: 1,
			Renewable:            true,
			PenaltyEffects:       effects.List{effects.SetFlag{Flag: "trade_penalty"}},
		}},
		Policies: []catalogs.PolicyDef{{
			ID: "rationing", Name: "Rationing", Slot: "economy", Era: "stone", CooldownSeconds: 600,
			Effects: effects.List{effects.AddResourceMultiplier{Resource: "food", Multiplier: 2}},
		}, {
			ID: "bronze_law", Name: "Bronze Law", Slot: "civic", Era: "bronze",
		}},
		LegacyUpgrades: []catalogs.LegacyUpgradeDef{{
			ID: "head_start", Name: "Head Start", Cost: 2,
			Effects: effects.List{effects.AddCrew{Count: 1}},
		}},
		Metahumans: []catalogs.MetahumanDef{{
			ID: "oracle", Name: "Oracle",
			AllyPassiveEffects:  effects.List{effects.AddGlobalMultiplier{Multiplier: 1.5}},
			EnemyPassiveEffects: effects.List{effects.AddSecurityBonus{Amount: -10}},
		}},
		People: []catalogs.PersonDef{{
			ID: "engineer", Name: "Engineer", Era: "stone",
			Costs:   catalogs.Amounts{"credits": 10},
			Effects: effects.List{effects.ProjectSpeedBonus{Amount: 0.5}},
		}},
		Domains: []catalogs.DomainDef{{
			ID: "science", Name: "Science", Tags: []string{"science"},
			Tiers: []catalogs.DomainTier{
				{Tier: 2, RequiredPoints: 2, Effects: effects.List{effects.SetFlag{Flag: "science_2"}}},
				{Tier: 1, RequiredPoints: 1, Effects: effects.List{effects.ProjectSpeedBonus{Amount: 0.25}}},
			},
		}},
		Dispatches: []catalogs.DispatchDef{
			{ID: "scout", Name: "Scout", DurationSeconds: 600, RequiredCrew: 1, Rewards: catalogs.Amounts{"materials": 20}, Era: "stone"},
			{ID: "doomed", Name: "Doomed", DurationSeconds: 600, RequiredCrew: 1, Rewards: catalogs.Amounts{"materials": 20}, RiskChance: 1, Era: "stone"},
			{ID: "deep", Name: "Deep Run", DurationSeconds: 600, RequiredCrew: 1, Era: "bronze"},
		},
		MegaprojectFamilies: []catalogs.MegaprojectFamilyDef{{
			FamilyID: "type_ii", Choices: []string{"orbital", "swarm"}, Exclusive: true, Description: "Type II Research",
		}},
		Achievements: []catalogs.AchievementDef{{
			ID: "lit", Name: "First Flame",
			Condition: catalogs.AchievementCondition{Type: catalogs.ConditionFlag, FlagID: "fire_lit"},
			Effects:   effects.List{effects.GrantChronoShards{Count: 1}},
		}},
		Collector: catalogs.CollectorDef{CapacityHours: 12},
	}
}

// withEvents adds one of every bespoke event plus a plain one.
func withEvents(p *catalogs.Pack) {
	p.Events = []catalogs.EventDef{
		{ID: "raid", Category: "raid", Title: "Raid", Weight: 1},
		{ID: "market_shock", Category: "market", Title: "Market Shock", Weight: 1},
		{ID: "discovery", Category: "discovery", Title: "Discovery", Weight: 1},
		{ID: "diplomatic_pressure", Category: "diplomacy", Title: "Pressure", Weight: 1},
		{ID: "infrastructure_failure", Category: "infrastructure", Title: "Outage", Weight: 1},
		{ID: "festival", Category: "morale", Title: "Festival", Description: "The base celebrates.", Weight: 1},
	}
}

func newTestEngine(t *testing.T, mutate ...func(*catalogs.Pack)) (*Engine, *FakeClock) {
	t.Helper()
	return newSeededEngine(t, 42, mutate...)
}

func newSeededEngine(t *testing.T, seed uint64, mutate ...func(*catalogs.Pack)) (*Engine, *FakeClock) {
	t.Helper()
	pack := basePack()
	for _, m := range mutate {
		m(&pack)
	}
	cat, err := catalogs.New(pack)
	require.NoError(t, err)
	require.NoError(t, cat.Validate())
	clk := NewFakeClock(t0)
	e := New(cat, Config{Seed: seed, Clock: clk})
	e.st.NextEventInSeconds = quiet
	return e, clk
}

// place adds a finished building directly, bypassing construction.
func place(e *Engine, buildingID string, x, y int) *state.BuildingInstance {
	e.st.Buildings = append(e.st.Buildings, state.BuildingInstance{
		ID: e.st.NewID(), BuildingID: buildingID, Level: 1, X: x, Y: y,
	})
	return &e.st.Buildings[len(e.st.Buildings)-1]
}

func setAmount(e *Engine, id string, v float64) { e.st.SetAmount(id, v) }

func lastEntry(e *Engine) state.EventLogEntry {
	if len(e.st.Events) == 0 {
		return state.EventLogEntry{}
	}
	return e.st.Events[0]
}

func hasEntry(e *Engine, title string) bool {
	for _, ev := range e.st.Events {
		if ev.Title == title {
			return true
		}
	}
	return false
}

func TestNew_FreshState(t *testing.T) {
	e, _ := newTestEngine(t)
	st := e.State()

	assert.Equal(t, "stone", st.EraID)
	assert.Equal(t, 2, e.AvailableCrewCount())
	assert.Equal(t, 1.0, st.Logistics.Factor)
	assert.Equal(t, 1000.0, e.ResourceCaps()["food"])
	assert.Empty(t, st.Events)
	assert.Equal(t, state.DefaultOfflineCapDays, st.Settings.OfflineCapDays)
}

func TestNew_LoadedStateRefreshesDomainTiers(t *testing.T) {
	e, clk := newTestEngine(t)
	saved := e.State().Clone()
	saved.Domains.Points["science"] = 2

	loaded := New(e.Catalog(), Config{Seed: 1, Clock: clk, State: saved})
	assert.Equal(t, 2, loaded.State().Domains.UnlockedTiers.Get("science"))
	assert.InDelta(t, 0.25, loaded.State().ProjectSpeedBonus, 1e-9)
	assert.True(t, loaded.State().Flags.Has("science_2"))
}

func TestNew_OldSaveMarketResumesFromSaveTime(t *testing.T) {
	e, clk := newTestEngine(t)
	saved := e.State().Clone()
	saved.SaveVersion = 6
	saved.Market.LastUpdatedAt = time.Time{}
	saved.Collector.LastUpdatedAt = time.Time{}

	loaded := New(e.Catalog(), Config{Seed: 1, Clock: clk, State: saved})
	assert.Equal(t, t0, loaded.State().Market.LastUpdatedAt)
	assert.Equal(t, t0, loaded.State().Collector.LastUpdatedAt)

	loaded.Simulate(60, true)
	assert.Equal(t, t0, loaded.State().Market.LastUpdatedAt)
	assert.Equal(t, 1.0, loaded.State().Market.PriceIndex("credits"))

	loaded.Simulate(3600, true)
	assert.Equal(t, t0.Add(time.Hour), loaded.State().Market.LastUpdatedAt)
	for _, res := range loaded.Catalog().Resources() {
		assert.InDelta(t, 1.0, loaded.State().Market.PriceIndex(res.ID), marketNoise, res.ID)
	}
}

func TestAdvance_NoInputBuildingProducesAtFullRate(t *testing.T) {
	e, _ := newTestEngine(t)
	place(e, "farm", 0, 0)

	e.Simulate(3600, true)

	assert.InDelta(t, 60, e.State().Amount("food"), 1e-9)
	assert.InDelta(t, 10, e.State().Stats.TotalProduced.Get("food"), 1e-9)
	assert.Equal(t, 1.0, e.State().Stats.LastEfficiency)
	assert.Equal(t, t0.Add(time.Hour), e.State().LastTickAt)
}

func TestAdvance_InputShortageThrottlesProduction(t *testing.T) {
	e, _ := newTestEngine(t)
	place(e, "mill", 0, 0)
	setAmount(e, "food", 5)

	e.Simulate(3600, true)

	assert.InDelta(t, 0, e.State().Amount("food"), 1e-9)
	assert.InDelta(t, 102.5, e.State().Amount("materials"), 1e-9)
	assert.InDelta(t, 0.5, e.State().Stats.LastEfficiency, 1e-9)
}

func TestAdvance_LaterBuildingsSeeReducedInputs(t *testing.T) {
	e, _ := newTestEngine(t)
	place(e, "mill", 0, 0)
	place(e, "mill", 5, 5)
	setAmount(e, "food", 15)

	e.Simulate(3600, true)

	assert.InDelta(t, 0, e.State().Amount("food"), 1e-9)
	assert.InDelta(t, 107.5, e.State().Amount("materials"), 1e-9)
	assert.InDelta(t, 0.75, e.State().Stats.LastEfficiency, 1e-9)
}

func TestAdvance_OverflowBecomesWaste(t *testing.T) {
	e, _ := newTestEngine(t)
	place(e, "farm", 0, 0)
	setAmount(e, "food", 999)

	e.Simulate(3600, true)

	assert.Equal(t, 1000.0, e.State().Amount("food"))
	assert.InDelta(t, 9, e.State().Stats.TotalWasted.Get("food"), 1e-9)
}

func TestAdvance_LogisticsThrottle(t *testing.T) {
	e, _ := newTestEngine(t)
	place(e, "reactor", 0, 0)

	e.Simulate(3600, true)

	assert.InDelta(t, 1.0/3, e.State().Logistics.Factor, 1e-9)
	assert.InDelta(t, 100, e.State().Amount("energy"), 1e-9)

	place(e, "hub", 3, 3)
	e.Simulate(3600, true)
	assert.Equal(t, 1.0, e.State().Logistics.Factor)
	assert.InDelta(t, 400, e.State().Amount("energy"), 1e-9)
}

func TestAdvance_DisabledTimeIsExcluded(t *testing.T) {
	e, _ := newTestEngine(t)
	b := place(e, "farm", 0, 0)
	until := t0.Add(30 * time.Minute)
	b.DisabledUntil = &until

	e.Simulate(3600, true)

	assert.InDelta(t, 55, e.State().Amount("food"), 1e-9)
}

func TestAdvance_StorageBuildingRaisesCap(t *testing.T) {
	e, _ := newTestEngine(t)
	place(e, "silo", 0, 0)

	e.Simulate(60, true)

	assert.Equal(t, 1100.0, e.State().Resources["food"].Cap)
	assert.Equal(t, 1100.0, e.Derived().Caps["food"])
}

func TestAdvance_NegativeStorageEffectFloorsCapAtZero(t *testing.T) {
	e, _ := newTestEngine(t)
	e.applyEffect(effects.AddResourceCap{Resource: "food", Amount: -5000}, t0)

	e.Simulate(60, true)

	r := e.State().Resources["food"]
	assert.Equal(t, 0.0, r.Cap)
	assert.Equal(t, 0.0, r.Amount)
	assert.Equal(t, 0.0, e.ResourceCaps()["food"])
	assert.Equal(t, 1000.0, e.State().Resources["materials"].Cap)
}

func TestAdvance_ChunkingEquivalence(t *testing.T) {
	run := func(steps ...float64) *state.GameState {
		e, _ := newTestEngine(t)
		place(e, "farm", 0, 0)
		place(e, "mill", 2, 0)
		setAmount(e, "food", 500)
		require.True(t, e.StartProject("wheel"))
		for _, s := range steps {
			e.Simulate(s, true)
		}
		return e.State()
	}
	one := run(7200)
	two := run(3600, 3600)

	assert.Equal(t, one.Resources, two.Resources)
	assert.Equal(t, one.Stats.TotalProduced, two.Stats.TotalProduced)
	assert.Equal(t, one.ActiveProjects, two.ActiveProjects)
	assert.Equal(t, one.Collector.StoredByResource, two.Collector.StoredByResource)
	require.Len(t, one.ActiveProjects, 1)
	assert.InDelta(t, 2800, one.ActiveProjects[0].RemainingSeconds, 1e-9)
}

func TestAdvance_MarketStepsOnlyOnWholeHours(t *testing.T) {
	e, _ := newTestEngine(t)

	e.Simulate(1800, true)
	assert.Equal(t, t0, e.State().Market.LastUpdatedAt)
	assert.Equal(t, 1.0, e.State().Market.PriceIndex("credits"))

	e.Simulate(1800, true)
	assert.Equal(t, t0.Add(time.Hour), e.State().Market.LastUpdatedAt)
	idx := e.State().Market.PriceIndex("credits")
	assert.InDelta(t, 1.0, idx, 0.04)
}

func TestAdvance_CollectorBufferIsCapped(t *testing.T) {
	e, _ := newTestEngine(t)
	place(e, "farm", 0, 0)

	for i := 0; i < 20; i++ {
		e.Simulate(3600, true)
	}

	assert.InDelta(t, 120, e.State().Collector.StoredByResource.Get("food"), 1e-9)
	assert.InDelta(t, 250, e.State().Amount("food"), 1e-9)
}

func TestAdvance_SameSeedSameResult(t *testing.T) {
	run := func() *state.GameState {
		e, _ := newSeededEngine(t, 7, withEvents)
		e.st.NextEventInSeconds = 0
		place(e, "farm", 0, 0)
		place(e, "mill", 1, 0)
		e.SetAutoPlannerEnabled(true)
		require.True(t, e.StartDispatch("scout"))
		for i := 0; i < 72; i++ {
			e.Simulate(3600, i%2 == 0)
		}
		return e.State()
	}
	assert.Equal(t, run(), run())
}

func TestAdvance_InvariantsHold(t *testing.T) {
	for _, seed := range []uint64{1, 2, 3} {
		e, _ := newSeededEngine(t, seed, withEvents)
		e.st.NextEventInSeconds = 0
		place(e, "farm", 0, 0)
		place(e, "mill", 1, 0)
		place(e, "reactor", 0, 1)
		e.SetAutoPlannerEnabled(true)
		e.applyEffect(effects.AdjustFaction{Faction: "raiders", Delta: -5}, t0)

		for i := 0; i < 300; i++ {
			e.Simulate(3600, i%5 == 0)
			st := e.State()
			for id, r := range st.Resources {
				require.GreaterOrEqual(t, r.Amount, 0.0, "seed %d step %d %s", seed, i, id)
				require.LessOrEqual(t, r.Amount, r.Cap, "seed %d step %d %s", seed, i, id)
			}
			for id, f := range st.FactionStates {
				require.GreaterOrEqual(t, f.Relationship, state.MinRelationship, id)
				require.LessOrEqual(t, f.Relationship, state.MaxRelationship, id)
			}
			for id, idx := range st.Market.PriceIndexByResource {
				require.GreaterOrEqual(t, idx, state.MinPriceIndex, id)
				require.LessOrEqual(t, idx, state.MaxPriceIndex, id)
			}
			require.GreaterOrEqual(t, st.Logistics.Factor, 0.0)
			require.LessOrEqual(t, st.Logistics.Factor, 1.0)
			require.GreaterOrEqual(t, st.Risk.Security, 0.0)
			require.LessOrEqual(t, st.Risk.Security, 1.0)
		}
	}
}

func TestAdvance_IgnoresNonPositiveDurations(t *testing.T) {
	e, _ := newTestEngine(t)
	before := e.State().Clone()
	e.Advance(0, t0, false)
	e.Advance(-5, t0, false)
	assert.Equal(t, before, e.State())
}

type recorder struct {
	notes    []Notification
	advances []AdvanceReport
}

func (r *recorder) OnNotification(n Notification) { r.notes = append(r.notes, n) }
func (r *recorder) OnAdvance(a AdvanceReport)     { r.advances = append(r.advances, a) }

func TestObserver_ReceivesReportsUntilUnsubscribed(t *testing.T) {
	e, _ := newTestEngine(t)
	rec := &recorder{}
	unsubscribe := e.Subscribe(rec)

	require.True(t, e.StartBuilding("farm", 0, 0))
	e.Simulate(600, false)
	require.Len(t, rec.advances, 1)
	adv := rec.advances[0]
	assert.Equal(t, 600.0, adv.ElapsedSeconds)
	assert.False(t, adv.Offline)
	require.NotEmpty(t, adv.NewEntries)
	assert.Equal(t, "Construction Started", adv.NewEntries[0].Title)
	assert.Equal(t, "Construction Complete", adv.NewEntries[len(adv.NewEntries)-1].Title)

	adv.Derived.RatesPerHour["food"] = -99
	assert.NotEqual(t, -99.0, e.Derived().RatesPerHour["food"])

	e.RecruitPerson("engineer")
	assert.False(t, e.RecruitPerson("engineer"))
	require.NotEmpty(t, rec.notes)
	last := rec.notes[len(rec.notes)-1]
	assert.Equal(t, ReasonRecruited, last.Message)
	assert.Equal(t, StyleWarning, last.Style)

	unsubscribe()
	e.Simulate(60, false)
	assert.Len(t, rec.advances, 1)
}
