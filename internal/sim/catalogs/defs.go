package catalogs

import (
	"encoding/json"
	"sort"

	"clay.game/internal/sim/effects"
)

// Amounts maps resource id to a quantity (cost, rate, reward).
type Amounts map[string]float64

// IDs returns the keys in lexical order.
func (a Amounts) IDs() []string {
	ids := make([]string, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (a Amounts) Sum() float64 {
	total := 0.0
	for _, id := range a.IDs() {
		total += a[id]
	}
	return total
}

// Scaled returns a copy with every amount multiplied by m.
func (a Amounts) Scaled(m float64) Amounts {
	out := make(Amounts, len(a))
	for id, v := range a {
		out[id] = v * m
	}
	return out
}

type ResourceDef struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	SortOrder      int     `json:"sort_order"`
	StartingAmount float64 `json:"starting_amount"`
	BaseCap        float64 `json:"base_cap"`
}

type AdjacencyBonus struct {
	RequiresBuildingID string  `json:"requires_building_id"`
	Multiplier         float64 `json:"multiplier"`
}

type BuildingDef struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Era                string          `json:"era"`
	Category           string          `json:"category"`
	MaxLevel           int             `json:"max_level"`
	BaseCost           Amounts         `json:"base_cost"`
	CostGrowth         float64         `json:"cost_growth"`
	BuildTimeSeconds   float64         `json:"build_time_seconds"`
	ProductionPerHour  Amounts         `json:"production_per_hour"`
	ConsumptionPerHour Amounts         `json:"consumption_per_hour"`
	StorageCapAdd      Amounts         `json:"storage_cap_add"`
	DefenseScore       float64         `json:"defense_score"`
	ProjectSpeedBonus  float64         `json:"project_speed_bonus"`
	AdjacencyBonus     *AdjacencyBonus `json:"adjacency_bonus,omitempty"`
	LogisticsCapAdd    float64         `json:"logistics_cap_add"`
	DistrictTag        string          `json:"district_tag,omitempty"`
	DistrictBonus      float64         `json:"district_bonus"`
	MaintenancePerHour Amounts         `json:"maintenance_per_hour"`
	EfficiencyFloor    float64         `json:"efficiency_floor"`
}

func (b *BuildingDef) UnmarshalJSON(data []byte) error {
	type alias BuildingDef
	v := alias{DistrictBonus: 1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = BuildingDef(v)
	return nil
}

// HasInputs reports whether production is gated by consumed or maintained resources.
func (b *BuildingDef) HasInputs() bool {
	return len(b.ConsumptionPerHour) > 0 || len(b.MaintenancePerHour) > 0
}

type ProjectDef struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Era             string       `json:"era"`
	Category        string       `json:"category"`
	DurationSeconds float64      `json:"duration_seconds"`
	CrewRequired    int          `json:"crew_required"`
	Costs           Amounts      `json:"costs"`
	Effects         effects.List `json:"effects"`
	Description     string       `json:"description"`
	Tags            []string     `json:"tags,omitempty"`
}

type EraDef struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	SortOrder          int      `json:"sort_order"`
	KeystoneProjectID  string   `json:"keystone_project_id"`
	KeystoneProjectIDs []string `json:"keystone_project_ids,omitempty"`
	UnlocksBuildingIDs []string `json:"unlocks_building_ids"`
	UnlocksProjectIDs  []string `json:"unlocks_project_ids"`
	Description        string   `json:"description"`
}

// Keystones lists the projects any one of which completes the era.
func (e *EraDef) Keystones() []string {
	if len(e.KeystoneProjectIDs) > 0 {
		return e.KeystoneProjectIDs
	}
	if e.KeystoneProjectID == "" {
		return nil
	}
	return []string{e.KeystoneProjectID}
}

type FactionDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ContractDef struct {
	ID                   string       `json:"id"`
	Name                 string       `json:"name"`
	FactionID            string       `json:"faction_id"`
	RequiredRelationship int          `json:"required_relationship"`
	DurationSeconds      float64      `json:"duration_seconds"`
	UpkeepPerHour        Amounts      `json:"upkeep_per_hour"`
	EffectsPerHour       Amounts      `json:"effects_per_hour"`
	Multipliers          Amounts      `json:"multipliers"`
	SecurityBonus        float64      `json:"security_bonus"`
	Description          string       `json:"description"`
	PriceIndexMultiplier float64      `json:"price_index_multiplier"`
	Renewable            bool         `json:"renewable"`
	PenaltyEffects       effects.List `json:"penalty_effects,omitempty"`
}

func (c *ContractDef) UnmarshalJSON(data []byte) error {
	type alias ContractDef
	v := alias{PriceIndexMultiplier: 1}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = ContractDef(v)
	return nil
}

type EventDef struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
}

type PolicyDef struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Slot            string       `json:"slot"`
	Era             string       `json:"era"`
	Effects         effects.List `json:"effects"`
	CooldownSeconds float64      `json:"cooldown_seconds"`
	Description     string       `json:"description"`
}

// EventTrigger conditions are all optional; unset means "no constraint".
type EventTrigger struct {
	MinExposure            *float64 `json:"min_exposure,omitempty"`
	MinSecurity            *float64 `json:"min_security,omitempty"`
	MinHostility           *float64 `json:"min_hostility,omitempty"`
	MinRaidChance          *float64 `json:"min_raid_chance,omitempty"`
	ResourceAtCapID        string   `json:"resource_at_cap_id,omitempty"`
	RequiresEraID          string   `json:"requires_era_id,omitempty"`
	RequiresContractID     string   `json:"requires_contract_id,omitempty"`
	RequiresFlag           string   `json:"requires_flag,omitempty"`
	RequiresFlagNotSet     string   `json:"requires_flag_not_set,omitempty"`
	RequiresLogisticsBelow *float64 `json:"requires_logistics_below,omitempty"`
}

type EventChoice struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Effects     effects.List `json:"effects"`
	NextID      string       `json:"next_id,omitempty"`
}

type EventChainDef struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Trigger         EventTrigger  `json:"trigger"`
	Choices         []EventChoice `json:"choices"`
	Effects         effects.List  `json:"effects,omitempty"`
	NextIDs         []string      `json:"next_ids,omitempty"`
	CooldownSeconds float64       `json:"cooldown_seconds"`
	UniqueFlagID    string        `json:"unique_flag_id,omitempty"`
}

func (c *EventChainDef) Choice(id string) (*EventChoice, bool) {
	for i := range c.Choices {
		if c.Choices[i].ID == id {
			return &c.Choices[i], true
		}
	}
	return nil, false
}

type MetahumanDef struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name"`
	Description         string       `json:"description"`
	Role                string       `json:"role"`
	AllyPassiveEffects  effects.List `json:"ally_passive_effects"`
	EnemyPassiveEffects effects.List `json:"enemy_passive_effects"`
}

type LegacyUpgradeDef struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Cost        int          `json:"cost"`
	Effects     effects.List `json:"effects"`
	Description string       `json:"description"`
}

type DomainTier struct {
	Tier           int          `json:"tier"`
	RequiredPoints int          `json:"required_points"`
	Effects        effects.List `json:"effects"`
}

type DomainDef struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	Tiers       []DomainTier `json:"tiers"`
}

type DispatchDef struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	DurationSeconds    float64  `json:"duration_seconds"`
	RequiredCrew       int      `json:"required_crew"`
	Rewards            Amounts  `json:"rewards"`
	RiskChance         float64  `json:"risk_chance"`
	Era                string   `json:"era"`
	Tags               []string `json:"tags,omitempty"`
	RequiresFlag       string   `json:"requires_flag,omitempty"`
	RequiresFlagNotSet string   `json:"requires_flag_not_set,omitempty"`
}

type MegaprojectFamilyDef struct {
	FamilyID    string   `json:"family_id"`
	Choices     []string `json:"choices"`
	Exclusive   bool     `json:"exclusive"`
	Description string   `json:"description"`
}

func (f *MegaprojectFamilyDef) Has(projectID string) bool {
	for _, c := range f.Choices {
		if c == projectID {
			return true
		}
	}
	return false
}

type ConditionKind string

const (
	ConditionResourceRate  ConditionKind = "resource_rate"
	ConditionResourceTotal ConditionKind = "resource_total"
	ConditionDomainTier    ConditionKind = "domain_tier"
	ConditionRaidFreeDays  ConditionKind = "raid_free_days"
	ConditionFlag          ConditionKind = "flag"
)

type AchievementCondition struct {
	Type          ConditionKind `json:"type"`
	ResourceID    string        `json:"resource_id,omitempty"`
	Amount        *float64      `json:"amount,omitempty"`
	DurationHours *float64      `json:"duration_hours,omitempty"`
	DomainID      string        `json:"domain_id,omitempty"`
	Tier          *int          `json:"tier,omitempty"`
	FlagID        string        `json:"flag_id,omitempty"`
}

type AchievementDef struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Condition   AchievementCondition `json:"condition"`
	Effects     effects.List         `json:"effects"`
}

type PersonDef struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Era         string       `json:"era"`
	Role        string       `json:"role"`
	Costs       Amounts      `json:"costs"`
	Effects     effects.List `json:"effects"`
	Rarity      string       `json:"rarity,omitempty"`
}

type CollectorDef struct {
	CapacityHours float64 `json:"capacity_hours"`
}

// Pack is the on-disk content document.
type Pack struct {
	Resources           []ResourceDef          `json:"resources"`
	Buildings           []BuildingDef          `json:"buildings"`
	Projects            []ProjectDef           `json:"projects"`
	Eras                []EraDef               `json:"eras"`
	Factions            []FactionDef           `json:"factions"`
	Contracts           []ContractDef          `json:"contracts"`
	Events              []EventDef             `json:"events"`
	Policies            []PolicyDef            `json:"policies"`
	EventChains         []EventChainDef        `json:"event_chains"`
	LegacyUpgrades      []LegacyUpgradeDef     `json:"legacy_upgrades"`
	Metahumans          []MetahumanDef         `json:"metahumans"`
	People              []PersonDef            `json:"people"`
	Domains             []DomainDef            `json:"domains"`
	Dispatches          []DispatchDef          `json:"dispatches"`
	MegaprojectFamilies []MegaprojectFamilyDef `json:"megaproject_families"`
	Achievements        []AchievementDef       `json:"achievements"`
	Collector           CollectorDef           `json:"collector"`
}
