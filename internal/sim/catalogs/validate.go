package catalogs

import (
	"fmt"
	"strings"

	"clay.game/internal/sim/effects"
)

// ValidationError collects every cross-reference problem found in a pack.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "content validation failed:\n" + strings.Join(e.Problems, "\n")
}

// Validate checks referential integrity. The engine trusts a catalog that
// passed this check and never re-validates at runtime.
func (c *Catalog) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	checkAmounts := func(ctx string, a Amounts) {
		for _, id := range a.IDs() {
			if _, ok := c.resources[id]; !ok {
				add("%s references missing resource %s", ctx, id)
			}
		}
	}
	checkEra := func(ctx, id string) {
		if id == "" {
			return
		}
		if _, ok := c.eras[id]; !ok {
			add("%s references missing era %s", ctx, id)
		}
	}
	checkEffects := func(ctx string, list effects.List) {
		for _, e := range list {
			switch v := e.(type) {
			case effects.AddResourceCap:
				c.requireResource(add, ctx, v.Resource)
			case effects.AddResourceMultiplier:
				c.requireResource(add, ctx, v.Resource)
			case effects.GrantResource:
				c.requireResource(add, ctx, v.Resource)
			case effects.UnlockBuilding:
				if _, ok := c.buildings[v.Building]; !ok {
					add("%s references missing building %s", ctx, v.Building)
				}
			case effects.UnlockProject:
				if _, ok := c.projects[v.Project]; !ok {
					add("%s references missing project %s", ctx, v.Project)
				}
			case effects.UnlockEra:
				checkEra(ctx, v.Era)
			case effects.UnlockContract:
				if _, ok := c.contracts[v.Contract]; !ok {
					add("%s references missing contract %s", ctx, v.Contract)
				}
			case effects.AdjustFaction:
				if _, ok := c.factions[v.Faction]; !ok {
					add("%s references missing faction %s", ctx, v.Faction)
				}
			case effects.AdjustMetahumanAffinity:
				if _, ok := c.metahumans[v.Metahuman]; !ok {
					add("%s references missing metahuman %s", ctx, v.Metahuman)
				}
			}
		}
	}

	if len(c.Pack.Resources) == 0 {
		add("content has no resources")
	}
	if len(c.Pack.Eras) == 0 {
		add("content has no eras")
	}
	for _, b := range c.Pack.Buildings {
		ctx := "Building " + b.ID
		checkEra(ctx, b.Era)
		if b.MaxLevel < 1 {
			add("%s has max level below 1", ctx)
		}
		checkAmounts(ctx, b.BaseCost)
		checkAmounts(ctx, b.ProductionPerHour)
		checkAmounts(ctx, b.ConsumptionPerHour)
		checkAmounts(ctx, b.MaintenancePerHour)
		checkAmounts(ctx, b.StorageCapAdd)
		if b.AdjacencyBonus != nil {
			if _, ok := c.buildings[b.AdjacencyBonus.RequiresBuildingID]; !ok {
				add("%s adjacency references missing building %s", ctx, b.AdjacencyBonus.RequiresBuildingID)
			}
		}
	}
	for _, p := range c.Pack.Projects {
		ctx := "Project " + p.ID
		checkEra(ctx, p.Era)
		checkAmounts(ctx, p.Costs)
		checkEffects(ctx, p.Effects)
	}
	for _, e := range c.Pack.Eras {
		for _, k := range e.Keystones() {
			if _, ok := c.projects[k]; !ok {
				add("Era %s references missing keystone project %s", e.ID, k)
			}
		}
		for _, b := range e.UnlocksBuildingIDs {
			if _, ok := c.buildings[b]; !ok {
				add("Era %s unlocks missing building %s", e.ID, b)
			}
		}
		for _, p := range e.UnlocksProjectIDs {
			if _, ok := c.projects[p]; !ok {
				add("Era %s unlocks missing project %s", e.ID, p)
			}
		}
	}
	for _, ct := range c.Pack.Contracts {
		ctx := "Contract " + ct.ID
		if _, ok := c.factions[ct.FactionID]; !ok {
			add("%s references missing faction %s", ctx, ct.FactionID)
		}
		checkAmounts(ctx, ct.UpkeepPerHour)
		checkAmounts(ctx, ct.EffectsPerHour)
		checkAmounts(ctx, ct.Multipliers)
		checkEffects(ctx, ct.PenaltyEffects)
	}
	for _, e := range c.Pack.Events {
		if e.Weight < 0 {
			add("Event %s has negative weight", e.ID)
		}
	}
	for _, p := range c.Pack.Policies {
		ctx := "Policy " + p.ID
		checkEra(ctx, p.Era)
		checkEffects(ctx, p.Effects)
	}
	for _, ch := range c.Pack.EventChains {
		ctx := "Event chain " + ch.ID
		checkEffects(ctx, ch.Effects)
		for _, next := range ch.NextIDs {
			if _, ok := c.chains[next]; !ok {
				add("%s references missing next chain %s", ctx, next)
			}
		}
		for _, choice := range ch.Choices {
			checkEffects(ctx+" choice "+choice.ID, choice.Effects)
			if choice.NextID != "" {
				if _, ok := c.chains[choice.NextID]; !ok {
					add("%s choice %s references missing next chain %s", ctx, choice.ID, choice.NextID)
				}
			}
		}
		if id := ch.Trigger.ResourceAtCapID; id != "" {
			c.requireResource(add, ctx, id)
		}
		if id := ch.Trigger.RequiresEraID; id != "" {
			checkEra(ctx, id)
		}
	}
	for _, u := range c.Pack.LegacyUpgrades {
		checkEffects("Legacy upgrade "+u.ID, u.Effects)
	}
	for _, m := range c.Pack.Metahumans {
		checkEffects("Metahuman "+m.ID, m.AllyPassiveEffects)
		checkEffects("Metahuman "+m.ID, m.EnemyPassiveEffects)
	}
	for _, p := range c.Pack.People {
		ctx := "Person " + p.ID
		checkEra(ctx, p.Era)
		checkAmounts(ctx, p.Costs)
		checkEffects(ctx, p.Effects)
	}
	for _, d := range c.Pack.Domains {
		for _, t := range d.Tiers {
			checkEffects(fmt.Sprintf("Domain %s tier %d", d.ID, t.Tier), t.Effects)
		}
	}
	for _, d := range c.Pack.Dispatches {
		ctx := "Dispatch " + d.ID
		checkEra(ctx, d.Era)
		checkAmounts(ctx, d.Rewards)
		if d.RiskChance < 0 || d.RiskChance > 1 {
			add("%s risk chance outside [0,1]", ctx)
		}
	}
	for _, f := range c.Pack.MegaprojectFamilies {
		for _, choice := range f.Choices {
			if _, ok := c.projects[choice]; !ok {
				add("Megaproject family %s references missing project %s", f.FamilyID, choice)
			}
		}
	}
	for _, a := range c.Pack.Achievements {
		ctx := "Achievement " + a.ID
		checkEffects(ctx, a.Effects)
		if id := a.Condition.DomainID; id != "" {
			if _, ok := c.domains[id]; !ok {
				add("%s references missing domain %s", ctx, id)
			}
		}
	}
	if c.Pack.Collector.CapacityHours <= 0 {
		add("Collector capacity_hours must be positive")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (c *Catalog) requireResource(add func(string, ...any), ctx, id string) {
	if _, ok := c.resources[id]; !ok {
		add("%s references missing resource %s", ctx, id)
	}
}
