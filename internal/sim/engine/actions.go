package engine

import (
	"math"
	"time"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/state"
)

// Actions return whether they were applied. A refused action leaves state
// untouched; the matching block-reason query explains the refusal.

func (e *Engine) StartProject(projectID string) bool {
	if e.ProjectBlockReason(projectID) != "" {
		return false
	}
	def, _ := e.cat.Project(projectID)
	now := e.clock.Now()
	source := state.SourceResearch
	if fam, ok := e.cat.FamilyOf(def.ID); ok && fam.Exclusive {
		source = state.SourceMegaproject
	}
	e.startProjectInstance(def, source, now, e.resolveModifiers(now))
	e.refreshDerived(now)
	return true
}

func (e *Engine) QueueProject(projectID string) bool {
	if e.QueueBlockReason(projectID) != "" {
		return false
	}
	e.st.QueuedProjects = append(e.st.QueuedProjects, state.QueuedProject{
		ID:        e.st.NewID(),
		ProjectID: projectID,
		QueuedAt:  e.clock.Now(),
		Source:    state.SourceResearch,
	})
	return true
}

// UnqueueProject removes the queue entry with the given entry id.
func (e *Engine) UnqueueProject(queueID string) bool {
	for i, q := range e.st.QueuedProjects {
		if q.ID == queueID {
			e.st.QueuedProjects = append(e.st.QueuedProjects[:i], e.st.QueuedProjects[i+1:]...)
			return true
		}
	}
	return false
}

// StartBuilding places a level 1 building at (x, y). It stays disabled until
// its construction project completes.
func (e *Engine) StartBuilding(buildingID string, x, y int) bool {
	if e.BuildingBlockReason(buildingID, x, y) != "" {
		return false
	}
	def, _ := e.cat.Building(buildingID)
	now := e.clock.Now()
	e.spend(def.BaseCost)
	duration := def.BuildTimeSeconds / math.Max(minProjectSpeed, e.projectSpeed(e.resolveModifiers(now)))
	until := now.Add(durationOf(duration))
	b := state.BuildingInstance{
		ID:            e.st.NewID(),
		BuildingID:    def.ID,
		Level:         1,
		X:             x,
		Y:             y,
		DisabledUntil: &until,
	}
	e.st.Buildings = append(e.st.Buildings, b)
	e.st.ActiveProjects = append(e.st.ActiveProjects, state.ProjectInstance{
		ID:                   e.st.NewID(),
		ProjectID:            state.BuildPrefix + def.ID,
		RemainingSeconds:     duration,
		TotalSeconds:         duration,
		CrewRequired:         1,
		StartedAt:            now,
		Source:               state.SourceBuildingConstruction,
		AssociatedBuildingID: b.ID,
	})
	e.logEvent(now, "construction", "Construction Started", def.Name+" is under construction.")
	e.refreshDerived(now)
	return true
}

func upgradeCost(def *catalogs.BuildingDef, level int) catalogs.Amounts {
	return def.BaseCost.Scaled(math.Pow(def.CostGrowth, float64(level)))
}

func (e *Engine) UpgradeBuilding(instanceID string) bool {
	if e.UpgradeBlockReason(instanceID) != "" {
		return false
	}
	b, _ := e.st.Building(instanceID)
	def, _ := e.cat.Building(b.BuildingID)
	now := e.clock.Now()
	e.spend(upgradeCost(def, b.Level))
	speed := math.Max(minProjectSpeed, e.projectSpeed(e.resolveModifiers(now)))
	duration := def.BuildTimeSeconds * math.Pow(upgradeTimeGrowth, float64(b.Level)) / speed
	until := now.Add(durationOf(duration))
	b.DisabledUntil = &until
	e.st.ActiveProjects = append(e.st.ActiveProjects, state.ProjectInstance{
		ID:                   e.st.NewID(),
		ProjectID:            state.UpgradePrefix + def.ID,
		RemainingSeconds:     duration,
		TotalSeconds:         duration,
		CrewRequired:         1,
		StartedAt:            now,
		Source:               state.SourceBuildingUpgrade,
		AssociatedBuildingID: b.ID,
	})
	e.logEvent(now, "construction", "Upgrade Started", def.Name+" upgrade initiated.")
	e.refreshDerived(now)
	return true
}

func (e *Engine) StartContract(contractID string) bool {
	if e.ContractBlockReason(contractID) != "" {
		return false
	}
	def, _ := e.cat.Contract(contractID)
	now := e.clock.Now()
	fs := e.st.FactionStates[def.FactionID]
	fs.ActiveContracts = append(fs.ActiveContracts, state.ContractInstance{
		ID:               e.st.NewID(),
		ContractID:       def.ID,
		FactionID:        def.FactionID,
		RemainingSeconds: def.DurationSeconds,
	})
	e.st.FactionStates[def.FactionID] = fs
	e.logEvent(now, "contract", "Contract Initiated", def.Name)
	e.refreshDerived(now)
	return true
}

func (e *Engine) StartDispatch(dispatchID string) bool {
	if e.DispatchBlockReason(dispatchID) != "" {
		return false
	}
	def, _ := e.cat.Dispatch(dispatchID)
	now := e.clock.Now()
	e.st.Dispatches = append(e.st.Dispatches, state.DispatchInstance{
		ID:               e.st.NewID(),
		DispatchID:       def.ID,
		RemainingSeconds: def.DurationSeconds,
		StartedAt:        now,
		Status:           state.DispatchActive,
	})
	e.logEvent(now, "dispatch", "Dispatch Started", def.Name)
	e.refreshDerived(now)
	return true
}

// CollectDispatch banks the rewards of a finished dispatch, halved when it
// failed, and removes it. Rewards are capped by storage without waste.
func (e *Engine) CollectDispatch(instanceID string) bool {
	d, ok := e.st.Dispatch(instanceID)
	if !ok || d.Status == state.DispatchActive {
		return false
	}
	now := e.clock.Now()
	status := d.Status
	name := d.DispatchID
	if def, ok := e.cat.Dispatch(d.DispatchID); ok {
		name = def.Name
		mult := 1.0
		if status == state.DispatchFailed {
			mult = failedRewardShare
		}
		for _, id := range def.Rewards.IDs() {
			r, ok := e.st.Resources[id]
			if !ok {
				continue
			}
			gained := def.Rewards[id] * mult
			r.Amount = math.Min(r.Cap, r.Amount+gained)
			e.st.Resources[id] = r
			e.st.Stats.TotalProduced.Add(id, gained)
			e.st.Stats.DispatchRewards.Add(id, gained)
		}
	}
	if status == state.DispatchReady {
		e.st.Stats.DispatchesCompleted++
	}
	e.removeDispatch(instanceID)
	e.logEvent(now, "dispatch", "Dispatch Collected", name)
	e.refreshDerived(now)
	return true
}

// CollectCache moves the collector buffer into storage. Anything above cap
// is wasted. Collecting an empty cache changes nothing.
func (e *Engine) CollectCache() bool {
	c := &e.st.Collector
	collected := false
	for _, res := range e.cat.Resources() {
		stored := c.StoredByResource.Get(res.ID)
		if stored <= 0 {
			continue
		}
		r := e.st.Resources[res.ID]
		next := r.Amount + stored
		if waste := next - r.Cap; waste > 0 {
			e.st.Stats.TotalWasted.Add(res.ID, waste)
		}
		r.Amount = math.Min(r.Cap, next)
		e.st.Resources[res.ID] = r
		collected = true
	}
	if !collected {
		return false
	}
	now := e.clock.Now()
	c.LastCollectedAt = now
	for _, id := range c.StoredByResource.Keys() {
		c.StoredByResource[id] = 0
	}
	e.logEvent(now, "system", "Cache Collected", "Resource cache transferred to storage.")
	e.refreshDerived(now)
	return true
}

// ActivateCatalyst boosts one active project for an hour. The catalyst
// recharges faster as its level rises.
func (e *Engine) ActivateCatalyst(projectInstanceID string) bool {
	if e.CatalystBlockReason(projectInstanceID) != "" {
		return false
	}
	now := e.clock.Now()
	until := now.Add(catalystDuration)
	c := &e.st.Catalyst
	c.ActiveProjectID = projectInstanceID
	c.ActiveUntil = &until
	c.AvailableAt = now.Add(catalystCooldown - time.Duration(c.Level)*time.Hour)
	e.logEvent(now, "catalyst", "Catalyst Activated", "A project is being accelerated.")
	return true
}

// UseChronoShard takes one hour off an active project.
func (e *Engine) UseChronoShard(projectInstanceID string) bool {
	if e.ChronoShardBlockReason(projectInstanceID) != "" {
		return false
	}
	p, _ := e.st.ActiveProject(projectInstanceID)
	p.RemainingSeconds = math.Max(0, p.RemainingSeconds-3600)
	e.st.ChronoShards--
	return true
}

// RecruitPerson adds a person to the roster. A refusal is also reported as
// a warning notification.
func (e *Engine) RecruitPerson(personID string) bool {
	now := e.clock.Now()
	if reason := e.RecruitBlockReason(personID); reason != "" {
		e.notify(e.note(reason, StyleWarning, now))
		return false
	}
	def, _ := e.cat.Person(personID)
	e.spend(def.Costs)
	e.st.People.RecruitedIDs = append(e.st.People.RecruitedIDs, def.ID)
	e.logEvent(now, "system", "Recruit Joined", def.Name+" joined your roster.")
	e.refreshDerived(now)
	return true
}

// SetPolicy puts policyID into slot, or clears the slot when policyID is
// empty. Setting a policy starts its cooldown.
func (e *Engine) SetPolicy(slot, policyID string) bool {
	now := e.clock.Now()
	if policyID == "" {
		if _, ok := e.st.Policies.ActiveBySlot[slot]; !ok {
			return false
		}
		delete(e.st.Policies.ActiveBySlot, slot)
		e.refreshDerived(now)
		return true
	}
	if e.policyReason(policyID, now) != "" {
		return false
	}
	def, _ := e.cat.Policy(policyID)
	e.st.Policies.ActiveBySlot.Set(slot, def.ID)
	e.st.Policies.CooldownByPolicy.Set(def.ID, now.Add(durationOf(def.CooldownSeconds)))
	e.refreshDerived(now)
	return true
}
