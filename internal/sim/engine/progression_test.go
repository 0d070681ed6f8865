package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeIDs(e *Engine) []string {
	var ids []string
	for _, p := range e.State().ActiveProjects {
		ids = append(ids, p.ProjectID)
	}
	return ids
}

func TestAutoPlanner_ShortestFirst(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetAutoPlannerEnabled(true)

	e.Simulate(1, false)

	assert.Equal(t, []string{"tools", "fire"}, activeIDs(e))
	assert.Equal(t, 0, e.AvailableCrewCount())
	assert.Equal(t, 85.0, e.State().Amount("materials"))
}

func TestAutoPlanner_PriorityTagsFirst(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetAutoPlannerEnabled(true)
	e.SetAutoPlanTag("science", true)

	e.Simulate(1, false)

	assert.Equal(t, []string{"fire", "tools"}, activeIDs(e))
}

func TestAutoPlanner_IdleOfflineAndWithQueue(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetAutoPlannerEnabled(true)

	e.Simulate(60, true)
	assert.Empty(t, e.State().ActiveProjects)

	require.True(t, e.QueueProject("wheel"))
	setAmount(e, "materials", 0)
	e.Simulate(60, false)
	assert.Empty(t, e.State().ActiveProjects, "a non-empty queue holds the planner")
}

func TestProjectCompletion_DomainTiersAndAchievement(t *testing.T) {
	e, _ := newTestEngine(t)
	require.True(t, e.StartProject("fire"))

	e.Simulate(3600, true)

	st := e.State()
	assert.True(t, st.IsProjectCompleted("fire"))
	assert.True(t, st.Flags.Has("fire_lit"))
	assert.Equal(t, 1, st.Domains.Points.Get("science"))
	assert.Equal(t, 1, st.Domains.UnlockedTiers.Get("science"))
	assert.InDelta(t, 0.25, st.ProjectSpeedBonus, 1e-9)
	assert.True(t, hasEntry(e, "Domain Tier Unlocked"))
	assert.Equal(t, []string{"lit"}, st.AchievementsUnlocked)
	assert.Equal(t, 1, st.ChronoShards)
	assert.Equal(t, ReasonProjectDone, e.ProjectBlockReason("fire"))

	e.Simulate(3600, true)
	assert.Equal(t, 1, e.State().ChronoShards, "achievements unlock once")

	require.True(t, e.StartProject("wheel"))
	assert.InDelta(t, 8000, e.State().ActiveProjects[0].TotalSeconds, 1e-9)
	e.Simulate(8000, true)
	assert.Equal(t, 2, e.State().Domains.UnlockedTiers.Get("science"))
	assert.True(t, e.State().Flags.Has("science_2"))
}

func TestUnlockEra_OpensContentAndGrowsGrid(t *testing.T) {
	e, _ := newTestEngine(t)
	require.True(t, e.StartProject("bronze_key"))

	e.Simulate(20000, true)

	st := e.State()
	assert.Equal(t, "bronze", st.EraID)
	assert.Equal(t, 30, st.GridSize)
	assert.True(t, st.IsProjectUnlocked("forge"))
	assert.True(t, hasEntry(e, "Era Advanced"))
	assert.Equal(t, "", e.DispatchBlockReason("deep"))
	assert.Equal(t, "", e.PolicyBlockReason("bronze_law"))

	e.unlockEra("bronze", t0)
	assert.Equal(t, 30, e.State().GridSize)
}

func TestPurchaseLegacyUpgrade(t *testing.T) {
	e, _ := newTestEngine(t)
	e.st.Prestige.LegacyPoints = 1
	assert.Equal(t, ReasonLegacyPoints, e.LegacyUpgradeBlockReason("head_start"))
	assert.False(t, e.PurchaseLegacyUpgrade("head_start"))

	e.st.Prestige.LegacyPoints = 3
	require.True(t, e.PurchaseLegacyUpgrade("head_start"))
	assert.Equal(t, 1, e.State().Prestige.LegacyPoints)
	assert.Equal(t, 3, e.State().CrewCount)
	assert.Equal(t, 3, e.AvailableCrewCount())
	assert.Equal(t, ReasonAlreadyOwned, e.LegacyUpgradeBlockReason("head_start"))
	assert.Equal(t, ReasonUnknown, e.LegacyUpgradeBlockReason("nope"))
}

func TestAscend_ResetsRunAndKeepsPrestige(t *testing.T) {
	e, _ := newTestEngine(t)
	e.st.CompletedProjectIDs = []string{"bronze_key"}
	e.st.Prestige.LegacyUpgrades = []string{"head_start"}
	e.SetOfflineCapDays(3)
	e.SetAutoPlannerEnabled(true)
	e.SetAutoPlanTag("science", true)
	e.SetAutoRenewContracts(true)
	setAmount(e, "food", 900)
	place(e, "farm", 0, 0)

	assert.Equal(t, LegacyGain{EraPoints: 1}, e.LegacyGainBreakdown())
	assert.Equal(t, 1, e.Ascend())

	st := e.State()
	assert.Equal(t, 1, st.Prestige.LegacyPoints)
	assert.Equal(t, []string{"head_start"}, st.Prestige.LegacyUpgrades)
	require.NotNil(t, st.Prestige.LastPrestigeAt)
	assert.Equal(t, t0, *st.Prestige.LastPrestigeAt)
	assert.Equal(t, 3, st.CrewCount)
	assert.Empty(t, st.CompletedProjectIDs)
	assert.Empty(t, st.Buildings)
	assert.Equal(t, 50.0, st.Amount("food"))
	assert.Equal(t, 3, st.Settings.OfflineCapDays)
	assert.False(t, st.AutoPlan.Enabled)
	assert.Empty(t, st.AutoPlan.PriorityTags)
	assert.False(t, st.AutoPlan.AutoRenewContracts)
	assert.Equal(t, "Ascension", lastEntry(e).Title)
}

func TestTimeTravel_RollbackFreezesUntilResolved(t *testing.T) {
	e, _ := newTestEngine(t)
	rec := &recorder{}
	e.Subscribe(rec)
	place(e, "farm", 0, 0)

	e.ReconcileOffline(t0.Add(-2 * time.Minute))

	st := e.State()
	assert.True(t, st.PendingTimeTravelWarning)
	require.NotNil(t, st.TimeTravelClampUntil)
	assert.Equal(t, t0, *st.TimeTravelClampUntil)
	require.NotEmpty(t, rec.notes)
	assert.Equal(t, StyleWarning, rec.notes[len(rec.notes)-1].Style)

	e.Tick(t0.Add(-time.Minute))
	assert.Equal(t, t0.Add(-time.Minute), e.State().LastTickAt)
	assert.Equal(t, 50.0, e.State().Amount("food"))

	e.ResolveTimeTravel(false, t0.Add(-time.Minute))
	assert.False(t, e.State().PendingTimeTravelWarning)
	assert.NotNil(t, e.State().TimeTravelClampUntil)

	e.Tick(t0.Add(time.Hour))
	assert.Nil(t, e.State().TimeTravelClampUntil)
	assert.Equal(t, t0.Add(time.Hour), e.State().LastTickAt)
	assert.InDelta(t, 50+10.0*3660/3600, e.State().Amount("food"), 1e-9)
}

func TestTimeTravel_AllowResetsSaveTime(t *testing.T) {
	e, _ := newTestEngine(t)
	back := t0.Add(-time.Hour)
	e.ReconcileOffline(back)

	e.ResolveTimeTravel(true, back)

	st := e.State()
	assert.False(t, st.PendingTimeTravelWarning)
	assert.Nil(t, st.TimeTravelClampUntil)
	assert.Equal(t, back, st.LastSavedAt)
	assert.Equal(t, back, st.LastTickAt)
}

func TestReconcileOffline_SmallRollbackIsTolerated(t *testing.T) {
	e, _ := newTestEngine(t)
	e.ReconcileOffline(t0.Add(-30 * time.Second))

	assert.False(t, e.State().PendingTimeTravelWarning)
	assert.Nil(t, e.State().TimeTravelClampUntil)
	assert.Equal(t, t0.Add(-30*time.Second), e.State().LastTickAt)
}

func TestReconcileOffline_CapsElapsedTime(t *testing.T) {
	e, _ := newTestEngine(t)
	place(e, "farm", 0, 0)
	e.SetOfflineCapDays(1)

	e.ReconcileOffline(t0.Add(48 * time.Hour))

	assert.True(t, hasEntry(e, "Offline Cap Reached"))
	assert.InDelta(t, 290, e.State().Amount("food"), 1e-6)
	assert.Equal(t, t0.Add(48*time.Hour), e.State().LastTickAt)
}

func TestAdvisors(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Equal(t, "", e.ProjectAdvisorMessage())
	assert.Equal(t, "Raid risk is elevated. Consider a Security Pact.", e.PartnershipAdvisorMessage())

	place(e, "wall", 5, 5)
	e.refreshDerived(t0)
	assert.Equal(t, "Credits are tight. Export surplus via trade contracts.", e.PartnershipAdvisorMessage())

	place(e, "mill", 0, 0)
	e.refreshDerived(t0)
	assert.Equal(t, "Net Food is negative. Boost production or reduce upkeep.", e.ProjectAdvisorMessage())

	setAmount(e, "materials", 950)
	assert.Equal(t, "Materials nearing cap. Invest in storage or spend resources.", e.ProjectAdvisorMessage())

	place(e, "reactor", 9, 9)
	e.refreshDerived(t0)
	assert.Equal(t, "Logistics bottleneck detected. Consider building a Logistics Hub.", e.ProjectAdvisorMessage())
}
