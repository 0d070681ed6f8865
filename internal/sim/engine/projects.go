package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/state"
)

const (
	catalystBoost    = 0.75
	minProjectSpeed  = 0.1
	catalystDuration = time.Hour
	catalystCooldown = 24 * time.Hour
)

// projectSpeed is the base speed multiplier before any catalyst boost.
func (e *Engine) projectSpeed(mods Modifiers) float64 {
	speed := 1 + e.st.ProjectSpeedBonus + mods.ProjectSpeedBonus
	for _, b := range e.st.Buildings {
		if def, ok := e.cat.Building(b.BuildingID); ok {
			speed += def.ProjectSpeedBonus * float64(b.Level)
		}
	}
	return speed
}

func (e *Engine) catalystBoosting(instanceID string, now time.Time) bool {
	c := e.st.Catalyst
	return c.ActiveProjectID == instanceID && c.ActiveUntil != nil && now.Before(*c.ActiveUntil)
}

func (e *Engine) progressProjects(elapsed float64, now time.Time, mods Modifiers) {
	if len(e.st.ActiveProjects) == 0 {
		return
	}
	base := e.projectSpeed(mods)
	kept := make([]state.ProjectInstance, 0, len(e.st.ActiveProjects))
	var done []state.ProjectInstance
	for _, p := range e.st.ActiveProjects {
		speed := base
		if e.catalystBoosting(p.ID, now) {
			speed += catalystBoost
		}
		p.RemainingSeconds -= elapsed * math.Max(minProjectSpeed, speed)
		if p.RemainingSeconds <= 0 {
			p.RemainingSeconds = 0
			done = append(done, p)
			continue
		}
		kept = append(kept, p)
	}
	e.st.ActiveProjects = kept
	for _, p := range done {
		e.completeProject(p, now)
	}
}

func (e *Engine) completeProject(p state.ProjectInstance, now time.Time) {
	switch {
	case strings.HasPrefix(p.ProjectID, state.BuildPrefix):
		if b, ok := e.st.Building(p.AssociatedBuildingID); ok {
			b.DisabledUntil = nil
		}
		e.logEvent(now, "construction", "Construction Complete", "A facility is now operational.")
	case strings.HasPrefix(p.ProjectID, state.UpgradePrefix):
		if b, ok := e.st.Building(p.AssociatedBuildingID); ok {
			b.Level++
			b.DisabledUntil = nil
		}
		e.logEvent(now, "construction", "Upgrade Complete", "A facility has been upgraded.")
	default:
		def, ok := e.cat.Project(p.ProjectID)
		if !ok {
			return
		}
		e.applyEffects(def.Effects, now)
		if !e.st.IsProjectCompleted(def.ID) {
			e.st.CompletedProjectIDs = append(e.st.CompletedProjectIDs, def.ID)
		}
		e.awardDomainPoints(def.Tags, now)
		e.logEvent(now, "project", "Project Completed", def.Name)
	}
}

// startProjectInstance pays for def and starts it. Callers have checked
// every precondition.
func (e *Engine) startProjectInstance(def *catalogs.ProjectDef, source state.ProjectSource, now time.Time, mods Modifiers) {
	e.spend(def.Costs)
	e.removeQueued(def.ID)
	duration := def.DurationSeconds / math.Max(minProjectSpeed, e.projectSpeed(mods))
	e.st.ActiveProjects = append(e.st.ActiveProjects, state.ProjectInstance{
		ID:               e.st.NewID(),
		ProjectID:        def.ID,
		RemainingSeconds: duration,
		TotalSeconds:     duration,
		CrewRequired:     def.CrewRequired,
		StartedAt:        now,
		Source:           source,
	})
	if fam, ok := e.cat.FamilyOf(def.ID); ok && fam.Exclusive {
		e.st.ChosenMegaprojectFamily.Set(fam.FamilyID, def.ID)
	}
}

func (e *Engine) removeQueued(projectID string) {
	kept := e.st.QueuedProjects[:0]
	for _, q := range e.st.QueuedProjects {
		if q.ProjectID != projectID {
			kept = append(kept, q)
		}
	}
	e.st.QueuedProjects = kept
}

// processQueued starts queued projects in order while crew and resources allow.
func (e *Engine) processQueued(now time.Time, mods Modifiers) {
	if len(e.st.QueuedProjects) == 0 {
		return
	}
	queue := append([]state.QueuedProject(nil), e.st.QueuedProjects...)
	for _, q := range queue {
		avail := e.availableCrew()
		if avail <= 0 {
			break
		}
		def, ok := e.cat.Project(q.ProjectID)
		if !ok {
			e.removeQueued(q.ProjectID)
			continue
		}
		if def.CrewRequired > avail || !e.canAfford(def.Costs) || e.megaprojectReason(def.ID) != "" {
			continue
		}
		source := q.Source
		if source == "" {
			source = state.SourceResearch
		}
		e.startProjectInstance(def, source, now, mods)
	}
}

func (e *Engine) awardDomainPoints(tags []string, now time.Time) {
	if len(tags) == 0 {
		return
	}
	for i := range e.cat.Domains() {
		d := &e.cat.Domains()[i]
		if !intersects(d.Tags, tags) {
			continue
		}
		e.st.Domains.Points.Add(d.ID, 1)
		e.unlockDomainTiers(d, now)
	}
}

// refreshDomainTiers unlocks any tiers whose points were reached but never
// applied, as after a catalog change.
func (e *Engine) refreshDomainTiers(now time.Time) {
	for i := range e.cat.Domains() {
		e.unlockDomainTiers(&e.cat.Domains()[i], now)
	}
}

func (e *Engine) unlockDomainTiers(d *catalogs.DomainDef, now time.Time) {
	tiers := append([]catalogs.DomainTier(nil), d.Tiers...)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Tier < tiers[j].Tier })
	points := e.st.Domains.Points.Get(d.ID)
	for _, t := range tiers {
		if t.Tier <= e.st.Domains.UnlockedTiers.Get(d.ID) || points < t.RequiredPoints {
			continue
		}
		e.st.Domains.UnlockedTiers.Set(d.ID, t.Tier)
		e.applyEffects(t.Effects, now)
		e.logEvent(now, "domain", "Domain Tier Unlocked", fmt.Sprintf("%s Tier %d achieved.", d.Name, t.Tier))
	}
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
