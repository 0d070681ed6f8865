package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/rng"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *catalogs.Catalog {
	t.Helper()
	cat, err := catalogs.New(catalogs.Pack{
		Resources: []catalogs.ResourceDef{
			{ID: "food", Name: "Food", StartingAmount: 20, BaseCap: 100},
			{ID: "materials", Name: "Materials", StartingAmount: 10, BaseCap: 50},
		},
		Buildings: []catalogs.BuildingDef{{ID: "hut", Name: "Hut", Era: "stone", MaxLevel: 3}},
		Projects: []catalogs.ProjectDef{
			{ID: "fire", Name: "Fire", Era: "stone"},
			{ID: "wheel", Name: "Wheel", Era: "bronze"},
		},
		Eras: []catalogs.EraDef{
			{ID: "bronze", Name: "Bronze", SortOrder: 1, KeystoneProjectID: "wheel", UnlocksProjectIDs: []string{"wheel"}},
			{ID: "stone", Name: "Stone", SortOrder: 0, KeystoneProjectID: "fire", UnlocksBuildingIDs: []string{"hut"}, UnlocksProjectIDs: []string{"fire"}},
			{ID: "galactic", Name: "Galactic", SortOrder: 2, KeystoneProjectID: "fire"},
		},
		Factions:   []catalogs.FactionDef{{ID: "raiders", Name: "Raiders"}, {ID: "guild", Name: "Guild"}},
		Domains:    []catalogs.DomainDef{{ID: "science", Name: "Science", Tags: []string{"science"}}},
		Metahumans: []catalogs.MetahumanDef{{ID: "oracle", Name: "Oracle"}, {ID: "warden", Name: "Warden"}},
		Collector:  catalogs.CollectorDef{CapacityHours: 12},
	})
	require.NoError(t, err)
	return cat
}

func TestDefault_FromCatalog(t *testing.T) {
	cat := testCatalog(t)
	s := Default(cat, t0, rng.New(1))

	assert.Equal(t, CurrentVersion, s.SaveVersion)
	assert.Equal(t, "stone", s.EraID)
	assert.Equal(t, []string{"hut"}, s.UnlockedBuildingIDs)
	assert.Equal(t, []string{"fire"}, s.UnlockedProjectIDs)
	assert.Equal(t, ResourceState{Amount: 20, Cap: 100}, s.Resources["food"])
	assert.Equal(t, -1, s.Relationship("raiders"))
	assert.Equal(t, 0, s.Relationship("guild"))
	assert.Equal(t, 2, s.CrewCount)
	assert.Equal(t, 12.0, s.Collector.CapacityHours)
	assert.Equal(t, 1.0, s.Market.PriceIndex("food"))
	assert.Equal(t, Neutral, s.Metahumans["oracle"].Disposition)
	assert.GreaterOrEqual(t, s.NextEventInSeconds, 5000.0)
	assert.Less(t, s.NextEventInSeconds, 12000.0)
	assert.True(t, s.Catalyst.AvailableAt.After(t0.AddDate(1000, 0, 0)))
}

func TestDefault_SameSeedSameCountdown(t *testing.T) {
	cat := testCatalog(t)
	a := Default(cat, t0, rng.New(9))
	b := Default(cat, t0, rng.New(9))
	assert.Equal(t, a.NextEventInSeconds, b.NextEventInSeconds)
}

func TestNewID_DeterministicAndUnique(t *testing.T) {
	a := &GameState{}
	b := &GameState{}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		x, y := a.NewID(), b.NewID()
		require.Equal(t, x, y)
		require.False(t, seen[x], "duplicate id %s", x)
		seen[x] = true
	}
	assert.Equal(t, uint64(50), a.NextSerial)
}

func TestMigrate_BackfillsOldSave(t *testing.T) {
	cat := testCatalog(t)
	s := &GameState{
		SaveVersion: 3,
		LastSavedAt: t0,
		EraID:       "stone",
		Resources:   map[string]ResourceState{"food": {Amount: 5, Cap: 100}},
		Flags:       Flags{AllyFlag("oracle"): true, "type_ii_complete": true},
	}
	require.True(t, Migrate(s, cat))

	assert.Equal(t, CurrentVersion, s.SaveVersion)
	assert.Equal(t, 5.0, s.Amount("food"), "existing amounts survive")
	assert.Equal(t, 10.0, s.Amount("materials"), "new resources are backfilled")
	assert.Equal(t, 1.0, s.Market.PriceIndexByResource["materials"])
	assert.Equal(t, 12.0, s.Collector.CapacityHours)
	require.NotNil(t, s.Stats.LastRaidAt)
	assert.Equal(t, t0, *s.Stats.LastRaidAt)
	assert.Equal(t, MetahumanState{Affinity: 2, Disposition: Ally}, s.Metahumans["oracle"])
	assert.Equal(t, Neutral, s.Metahumans["warden"].Disposition)
	assert.Equal(t, DefaultMaxRoster, s.People.MaxRoster)
	assert.Equal(t, "galactic", s.EraID)
	assert.ElementsMatch(t, []string{"fire", "wheel"}, s.UnlockedProjectIDs)
	assert.Equal(t, -1, s.Relationship("raiders"))
}

func TestMigrate_CurrentVersionUntouched(t *testing.T) {
	cat := testCatalog(t)
	s := Default(cat, t0, rng.New(1))
	s.Flags.Set("type_ii_complete", true)
	assert.False(t, Migrate(s, cat))
	assert.Equal(t, "stone", s.EraID)
}

func TestMigrate_BackfillsUpdateStamps(t *testing.T) {
	cat := testCatalog(t)
	stamp := t0.Add(-2 * time.Hour)
	cases := []struct {
		name    string
		version int
		market  time.Time
		cache   time.Time
		wantM   time.Time
		wantC   time.Time
	}{
		{"v6 without stamps", 6, time.Time{}, time.Time{}, t0, t0},
		{"current without stamps", CurrentVersion, time.Time{}, time.Time{}, t0, t0},
		{"market stamp kept", 6, stamp, time.Time{}, stamp, t0},
		{"both stamps kept", 6, stamp, stamp, stamp, stamp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &GameState{SaveVersion: tc.version, LastSavedAt: t0, EraID: "stone"}
			s.Market.LastUpdatedAt = tc.market
			s.Collector.LastUpdatedAt = tc.cache
			Migrate(s, cat)
			assert.Equal(t, tc.wantM, s.Market.LastUpdatedAt)
			assert.Equal(t, tc.wantC, s.Collector.LastUpdatedAt)
		})
	}
}

func TestClone_IsDeep(t *testing.T) {
	cat := testCatalog(t)
	s := Default(cat, t0, rng.New(1))
	until := t0.Add(time.Hour)
	s.Buildings = append(s.Buildings, BuildingInstance{ID: "b1", BuildingID: "hut", Level: 1, DisabledUntil: &until})
	f := s.FactionStates["guild"]
	f.ActiveContracts = append(f.ActiveContracts, ContractInstance{ID: "c1", ContractID: "pact"})
	s.FactionStates["guild"] = f

	c := s.Clone()
	c.Resources["food"] = ResourceState{Amount: 99, Cap: 100}
	c.Stats.TotalProduced.Add("food", 5)
	*c.Buildings[0].DisabledUntil = t0
	c.FactionStates["guild"].ActiveContracts[0].RemainingSeconds = 42
	c.Flags.Set("x", true)

	assert.Equal(t, 20.0, s.Amount("food"))
	assert.Equal(t, 0.0, s.Stats.TotalProduced.Get("food"))
	assert.Equal(t, until, *s.Buildings[0].DisabledUntil)
	assert.Equal(t, 0.0, s.FactionStates["guild"].ActiveContracts[0].RemainingSeconds)
	assert.False(t, s.Flags.Has("x"))
}

func TestTotalMaps_NilReadsAsZero(t *testing.T) {
	var a Amounts
	assert.Equal(t, 0.0, a.Get("x"))
	assert.Equal(t, 1.0, a.GetOr("x", 1))
	a.Add("x", 2)
	assert.Equal(t, 2.0, a.Get("x"))

	var c Counts
	c.Add("d", 3)
	assert.Equal(t, 3, c.Total())

	var tm Times
	assert.False(t, tm.ActiveAt("p", t0))
	tm.Set("p", t0.Add(time.Second))
	assert.True(t, tm.ActiveAt("p", t0))
	assert.False(t, tm.ActiveAt("p", t0.Add(time.Second)))
}

func TestDispositionFor(t *testing.T) {
	assert.Equal(t, Ally, DispositionFor(3))
	assert.Equal(t, Ally, DispositionFor(2))
	assert.Equal(t, Neutral, DispositionFor(1))
	assert.Equal(t, Neutral, DispositionFor(-1))
	assert.Equal(t, Enemy, DispositionFor(-2))
}
