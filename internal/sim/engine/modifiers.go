package engine

import (
	"time"

	"clay.game/internal/sim/effects"
	"clay.game/internal/sim/state"
)

// Modifiers are the transient bonuses from active policies, metahuman
// passives and recruited people. They are recomputed on demand and never saved.
type Modifiers struct {
	ResourceMultipliers state.Amounts
	GlobalMultiplier    float64
	ProjectSpeedBonus   float64
	SecurityBonus       float64
	LogisticsBonus      float64
	StorageAdditions    state.Amounts
}

func (m *Modifiers) resourceMultiplier(id string) float64 {
	return m.ResourceMultipliers.GetOr(id, 1)
}

// resolveModifiers collects passives active at now. A policy whose cooldown
// has not yet elapsed contributes nothing.
func (e *Engine) resolveModifiers(now time.Time) Modifiers {
	m := Modifiers{GlobalMultiplier: 1}
	for _, slot := range e.st.Policies.ActiveBySlot.Keys() {
		policyID := e.st.Policies.ActiveBySlot[slot]
		if e.st.Policies.CooldownByPolicy.ActiveAt(policyID, now) {
			continue
		}
		p, ok := e.cat.Policy(policyID)
		if !ok {
			continue
		}
		m.apply(p.Effects)
	}
	for _, meta := range e.cat.Metahumans() {
		ms, ok := e.st.Metahumans[meta.ID]
		if !ok {
			continue
		}
		switch ms.Disposition {
		case state.Ally:
			m.apply(meta.AllyPassiveEffects)
		case state.Enemy:
			m.apply(meta.EnemyPassiveEffects)
		}
	}
	for _, id := range e.st.People.RecruitedIDs {
		if p, ok := e.cat.Person(id); ok {
			m.apply(p.Effects)
		}
	}
	return m
}

// apply folds the passive-capable effect kinds; the rest only make sense as
// one-shot effects and are ignored here.
func (m *Modifiers) apply(list effects.List) {
	for _, eff := range list {
		switch v := eff.(type) {
		case effects.AddResourceMultiplier:
			m.ResourceMultipliers.Set(v.Resource, m.resourceMultiplier(v.Resource)*v.Multiplier)
		case effects.AddGlobalMultiplier:
			m.GlobalMultiplier *= v.Multiplier
		case effects.ProjectSpeedBonus:
			m.ProjectSpeedBonus += v.Amount
		case effects.AddSecurityBonus:
			m.SecurityBonus += v.Amount
		case effects.AddLogisticsCap:
			m.LogisticsBonus += v.Amount
		case effects.AddResourceCap:
			m.StorageAdditions.Add(v.Resource, v.Amount)
		}
	}
}
