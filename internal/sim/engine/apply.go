package engine

import (
	"math"
	"time"

	"clay.game/internal/sim/effects"
	"clay.game/internal/sim/state"
)

const gridGrowthPerEra = 10

// UnlockContractFlag is the flag set by an unlock_contract effect.
func UnlockContractFlag(contractID string) string { return "contract:" + contractID }

// applyEffects applies one-shot effects in list order.
func (e *Engine) applyEffects(list effects.List, now time.Time) {
	for _, eff := range list {
		e.applyEffect(eff, now)
	}
}

func (e *Engine) applyEffect(eff effects.Effect, now time.Time) {
	st := e.st
	switch v := eff.(type) {
	case effects.AddResourceCap:
		st.StorageAdditions.Add(v.Resource, v.Amount)
	case effects.AddResourceMultiplier:
		st.ResourceMultipliers.Set(v.Resource, st.ResourceMultipliers.GetOr(v.Resource, 1)*v.Multiplier)
	case effects.AddGlobalMultiplier:
		st.GlobalResourceMultiplier *= v.Multiplier
	case effects.UnlockBuilding:
		st.UnlockBuilding(v.Building)
	case effects.UnlockProject:
		st.UnlockProject(v.Project)
	case effects.UnlockEra:
		e.unlockEra(v.Era, now)
	case effects.UnlockContract:
		st.Flags.Set(UnlockContractFlag(v.Contract), true)
	case effects.GrantResource:
		if _, ok := st.Resources[v.Resource]; ok {
			st.SetAmount(v.Resource, math.Max(0, st.Amount(v.Resource)+v.Amount))
		}
	case effects.AdjustFaction:
		if fs, ok := st.FactionStates[v.Faction]; ok {
			fs.Relationship = clampInt(fs.Relationship+v.Delta, state.MinRelationship, state.MaxRelationship)
			st.FactionStates[v.Faction] = fs
		}
	case effects.AddCrew:
		st.CrewCount += v.Count
		st.MaxCrew = max(st.MaxCrew, st.CrewCount)
	case effects.ProjectSpeedBonus:
		st.ProjectSpeedBonus += v.Amount
	case effects.AddSecurityBonus:
		st.SecurityBonus += v.Amount
	case effects.AddLogisticsCap:
		st.LogisticsBonus += v.Amount
	case effects.AddOfflineCap:
		st.Settings.OfflineCapDays += v.Days
	case effects.AddCollectorCapacityHours:
		st.Collector.CapacityHours = math.Max(0, st.Collector.CapacityHours+v.Hours)
	case effects.UnlockCatalyst:
		if st.Catalyst.AvailableAt.After(now) {
			st.Catalyst.AvailableAt = now
		}
	case effects.GrantChronoShards:
		st.ChronoShards += v.Count
	case effects.SetFlag:
		st.Flags.Set(v.Flag, true)
	case effects.AdjustMetahumanAffinity:
		e.adjustAffinity(v.Metahuman, v.Delta, now)
	case effects.Noop:
	}
}

func (e *Engine) unlockEra(eraID string, now time.Time) {
	era, ok := e.cat.Era(eraID)
	if !ok || e.st.EraID == eraID {
		return
	}
	e.st.EraID = eraID
	for _, id := range era.UnlocksBuildingIDs {
		e.st.UnlockBuilding(id)
	}
	for _, id := range era.UnlocksProjectIDs {
		e.st.UnlockProject(id)
	}
	e.st.GridSize += gridGrowthPerEra
	e.logEvent(now, "era", "Era Advanced", "Entered "+era.Name+" era.")
}

// adjustAffinity moves a metahuman's affinity and mirrors the resulting
// disposition into the ally and enemy flags.
func (e *Engine) adjustAffinity(id string, delta int, now time.Time) {
	def, ok := e.cat.Metahuman(id)
	if !ok {
		return
	}
	ms := e.st.Metahumans[id]
	prev := ms.Disposition
	if prev == "" {
		prev = state.Neutral
	}
	ms.Affinity = clampInt(ms.Affinity+delta, state.MinAffinity, state.MaxAffinity)
	at := now
	ms.LastEncounterAt = &at
	ms.Disposition = state.DispositionFor(ms.Affinity)
	e.st.Metahumans[id] = ms
	e.st.Flags.Set(state.AllyFlag(id), ms.Disposition == state.Ally)
	e.st.Flags.Set(state.EnemyFlag(id), ms.Disposition == state.Enemy)
	if ms.Disposition == prev {
		return
	}
	switch ms.Disposition {
	case state.Ally:
		e.logEvent(now, "metahuman", "Metahuman Allied", def.Name+" is now supporting your cause.")
	case state.Enemy:
		e.logEvent(now, "metahuman", "Metahuman Hostile", def.Name+" has turned against you.")
	default:
		e.logEvent(now, "metahuman", "Metahuman Neutral", def.Name+" is now undecided.")
	}
}
