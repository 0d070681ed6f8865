package engine

import (
	"fmt"
	"math"
	"time"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/state"
)

const (
	eventIntervalMin      = 4800.0
	eventIntervalMax      = 12000.0
	raidAvertedBelow      = 0.02
	raidLossShare         = 0.08
	raidMaxMitigation     = 0.7
	resourceAtCapShare    = 0.95
	infrastructureOutage  = 30 * time.Minute
	marketShockDrop       = 0.1
	creditsResourceID     = "credits"
	energyResourceID      = "energy"
	typeIIICompleteFlagID = "type_iii_complete"
)

// Event ids with effects beyond their log message.
const (
	eventMarketShock           = "market_shock"
	eventDiplomaticPressure    = "diplomatic_pressure"
	eventDiscovery             = "discovery"
	eventInfrastructureFailure = "infrastructure_failure"
	eventRaid                  = "raid"
)

// processEvents fires due events. A pending chain blocks all firing, and a
// chain that becomes pending ends the loop.
func (e *Engine) processEvents(elapsed float64, now time.Time, offline bool, mods Modifiers) {
	e.st.NextEventInSeconds -= elapsed
	if e.st.EventChains.PendingChainID != "" {
		return
	}
	limit := e.tun.MaxEventsLive
	if offline {
		limit = e.tun.MaxEventsOffline
	}
	count := 0
	for e.st.NextEventInSeconds <= 0 && count < limit {
		chained := e.triggerEventChain(now)
		if !chained {
			e.fireRandomEvent(now, mods)
		}
		count++
		e.st.NextEventInSeconds += e.rng.Uniform(eventIntervalMin, eventIntervalMax)
		if chained {
			break
		}
	}
	if offline && count >= limit && limit > 0 {
		e.logEvent(now, "system", "While You Were Away",
			"Multiple events occurred while you were offline. Check Intel for details.")
	}
}

// triggerEventChain picks one eligible chain uniformly and makes it pending.
func (e *Engine) triggerEventChain(now time.Time) bool {
	var eligible []*catalogs.EventChainDef
	for i := range e.cat.EventChains() {
		c := &e.cat.EventChains()[i]
		if e.chainEligible(c, now) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return false
	}
	chain := eligible[e.rng.IntN(len(eligible))]
	e.st.EventChains.PendingChainID = chain.ID
	e.applyEffects(chain.Effects, now)
	e.logEvent(now, "decision", chain.Title, chain.Description)
	return true
}

func (e *Engine) chainEligible(c *catalogs.EventChainDef, now time.Time) bool {
	if c.UniqueFlagID != "" && e.st.Flags.Has(c.UniqueFlagID) {
		return false
	}
	if e.st.EventChains.CooldownByChain.ActiveAt(c.ID, now) {
		return false
	}
	t := c.Trigger
	risk := e.st.Risk
	if t.MinExposure != nil && risk.Exposure < *t.MinExposure {
		return false
	}
	if t.MinSecurity != nil && risk.Security < *t.MinSecurity {
		return false
	}
	if t.MinHostility != nil && risk.Hostility < *t.MinHostility {
		return false
	}
	if t.MinRaidChance != nil && risk.RaidChancePerHour < *t.MinRaidChance {
		return false
	}
	if t.ResourceAtCapID != "" {
		r := e.st.Resources[t.ResourceAtCapID]
		if r.Cap <= 0 || r.Amount < resourceAtCapShare*r.Cap {
			return false
		}
	}
	if t.RequiresEraID != "" && !e.eraReached(t.RequiresEraID) {
		return false
	}
	if t.RequiresContractID != "" && !e.st.HasActiveContract(t.RequiresContractID) {
		return false
	}
	if t.RequiresFlag != "" && !e.st.Flags.Has(t.RequiresFlag) {
		return false
	}
	if t.RequiresFlagNotSet != "" && e.st.Flags.Has(t.RequiresFlagNotSet) {
		return false
	}
	if t.RequiresLogisticsBelow != nil && e.st.Logistics.Factor > *t.RequiresLogisticsBelow {
		return false
	}
	return true
}

// eraReached reports whether the current era is at or past eraID.
func (e *Engine) eraReached(eraID string) bool {
	want, ok := e.cat.Era(eraID)
	if !ok {
		return false
	}
	cur, ok := e.cat.Era(e.st.EraID)
	return ok && cur.SortOrder >= want.SortOrder
}

// fireRandomEvent makes one weighted draw over the catalog events.
func (e *Engine) fireRandomEvent(now time.Time, mods Modifiers) {
	events := e.cat.Events()
	total := 0.0
	for _, ev := range events {
		total += math.Max(0, ev.Weight)
	}
	if total <= 0 {
		return
	}
	roll := e.rng.Float64() * total
	var picked *catalogs.EventDef
	cum := 0.0
	for i := range events {
		if events[i].Weight <= 0 {
			continue
		}
		picked = &events[i]
		cum += events[i].Weight
		if roll <= cum {
			break
		}
	}
	e.resolveEvent(picked, now, mods)
}

func (e *Engine) resolveEvent(ev *catalogs.EventDef, now time.Time, mods Modifiers) {
	switch ev.ID {
	case eventMarketShock:
		idx := e.st.Market.PriceIndex(creditsResourceID)
		e.st.Market.PriceIndexByResource.Set(creditsResourceID, math.Max(state.MinPriceIndex, idx-marketShockDrop))
		e.logEvent(now, "market", ev.Title, "Markets contract briefly. Credit indices reduced for a time.")
	case eventDiplomaticPressure:
		if fs, ok := e.st.FactionStates[state.RaidersFactionID]; ok {
			fs.Relationship = clampInt(fs.Relationship-1, state.MinRelationship, state.MaxRelationship)
			e.st.FactionStates[state.RaidersFactionID] = fs
		}
		e.logEvent(now, "diplomacy", ev.Title, "Hostility rises. Defensive readiness advised.")
	case eventDiscovery:
		e.st.ChronoShards++
		e.logEvent(now, "discovery", ev.Title, "A Chrono Shard has been recovered.")
	case eventInfrastructureFailure:
		if len(e.st.Buildings) == 0 {
			return
		}
		b := &e.st.Buildings[e.rng.IntN(len(e.st.Buildings))]
		until := now.Add(infrastructureOutage)
		if b.DisabledUntil == nil || b.DisabledUntil.Before(until) {
			b.DisabledUntil = &until
		}
		e.logEvent(now, "infrastructure", ev.Title, "One facility is temporarily offline.")
	case eventRaid:
		e.resolveRaid(now, mods)
	default:
		e.logEvent(now, ev.Category, ev.Title, ev.Description)
	}
}

// resolveRaid re-derives risk; a low enough chance averts the raid.
func (e *Engine) resolveRaid(now time.Time, mods Modifiers) {
	risk := e.computeRisk(mods, e.computeCaps(mods))
	if risk.RaidChancePerHour < raidAvertedBelow {
		e.logEvent(now, "raid", "Raid Averted", "Security posture deterred an attempted raid.")
		return
	}
	raidAt := now
	e.st.Stats.LastRaidAt = &raidAt
	share := raidLossShare * (1 - math.Min(raidMaxMitigation, risk.Security))
	total := 0.0
	for _, res := range e.cat.Resources() {
		amt := e.st.Amount(res.ID)
		loss := amt * share
		if loss <= 0 {
			continue
		}
		e.st.SetAmount(res.ID, amt-loss)
		e.st.Stats.TotalRaidLoss.Add(res.ID, loss)
		total += loss
	}
	e.logEvent(now, "raid", "Raid", fmt.Sprintf("Raiders breached outer stores. Estimated losses: %d.", int(total)))
}

// ResolveEventChoice applies a choice of the pending chain. The chain's
// cooldown starts and its unique flag is set; the choice's next chain, if
// it exists, becomes pending.
func (e *Engine) ResolveEventChoice(chainID, choiceID string) bool {
	if e.st.EventChains.PendingChainID != chainID {
		return false
	}
	chain, ok := e.cat.EventChain(chainID)
	if !ok {
		return false
	}
	choice, ok := chain.Choice(choiceID)
	if !ok {
		return false
	}
	now := e.clock.Now()
	e.applyEffects(choice.Effects, now)
	e.logEvent(now, "decision", chain.Title, choice.Description)
	e.st.EventChains.CooldownByChain.Set(chain.ID, now.Add(durationOf(chain.CooldownSeconds)))
	if chain.UniqueFlagID != "" {
		e.st.Flags.Set(chain.UniqueFlagID, true)
	}
	e.st.EventChains.PendingChainID = ""
	if _, ok := e.cat.EventChain(choice.NextID); ok {
		e.st.EventChains.PendingChainID = choice.NextID
	}
	e.refreshDerived(now)
	return true
}
