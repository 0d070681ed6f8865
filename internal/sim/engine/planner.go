package engine

import (
	"sort"
	"time"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/state"
)

// runAutoPlanner fills idle crew when the queue is empty. Projects carrying
// any priority tag come first, then shorter ones; catalog order breaks ties.
func (e *Engine) runAutoPlanner(now time.Time, mods Modifiers) {
	if !e.st.AutoPlan.Enabled || len(e.st.QueuedProjects) > 0 || e.availableCrew() <= 0 {
		return
	}
	var candidates []*catalogs.ProjectDef
	for i := range e.cat.Projects() {
		p := &e.cat.Projects()[i]
		if !e.st.IsProjectUnlocked(p.ID) || e.st.IsProjectCompleted(p.ID) || e.st.IsProjectActive(p.ID) {
			continue
		}
		candidates = append(candidates, p)
	}
	tags := e.st.AutoPlan.PriorityTags
	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := intersects(candidates[i].Tags, tags), intersects(candidates[j].Tags, tags)
		if pi != pj {
			return pi
		}
		return candidates[i].DurationSeconds < candidates[j].DurationSeconds
	})
	for _, p := range candidates {
		avail := e.availableCrew()
		if avail <= 0 {
			return
		}
		if p.CrewRequired > avail || !e.canAfford(p.Costs) || e.megaprojectReason(p.ID) != "" {
			continue
		}
		e.startProjectInstance(p, state.SourceResearch, now, mods)
	}
}
