// Package state holds the persisted game aggregate. Only the engine mutates it.
package state

import "time"

// CurrentVersion is the save version written by this build; see Migrate.
const CurrentVersion = 7

type ResourceState struct {
	Amount float64 `json:"amount"`
	Cap    float64 `json:"cap"`
}

type BuildingInstance struct {
	ID            string     `json:"id"`
	BuildingID    string     `json:"building_id"`
	Level         int        `json:"level"`
	X             int        `json:"x"`
	Y             int        `json:"y"`
	DisabledUntil *time.Time `json:"disabled_until,omitempty"`
}

// DisabledAt reports whether the building is under construction or upgrade at now.
func (b *BuildingInstance) DisabledAt(now time.Time) bool {
	return b.DisabledUntil != nil && b.DisabledUntil.After(now)
}

type ProjectSource string

const (
	SourceResearch             ProjectSource = "research"
	SourceBuildingConstruction ProjectSource = "building_construction"
	SourceBuildingUpgrade      ProjectSource = "building_upgrade"
	SourceAccelerator          ProjectSource = "accelerator"
	SourceMegaproject          ProjectSource = "megaproject"
)

// Synthetic project id prefixes for construction and upgrades.
const (
	BuildPrefix   = "build:"
	UpgradePrefix = "upgrade:"
)

type ProjectInstance struct {
	ID                   string        `json:"id"`
	ProjectID            string        `json:"project_id"`
	RemainingSeconds     float64       `json:"remaining_seconds"`
	TotalSeconds         float64       `json:"total_seconds"`
	CrewRequired         int           `json:"crew_required"`
	StartedAt            time.Time     `json:"started_at"`
	Source               ProjectSource `json:"source"`
	AssociatedBuildingID string        `json:"associated_building_id,omitempty"`
}

type QueuedProject struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"project_id"`
	QueuedAt  time.Time     `json:"queued_at"`
	Source    ProjectSource `json:"source"`
}

type ContractInstance struct {
	ID               string  `json:"id"`
	ContractID       string  `json:"contract_id"`
	FactionID        string  `json:"faction_id"`
	RemainingSeconds float64 `json:"remaining_seconds"`
	UpkeepMissed     bool    `json:"upkeep_missed"`
}

// Relationship bounds for factions.
const (
	MinRelationship = -2
	MaxRelationship = 2
)

type FactionState struct {
	Relationship    int                `json:"relationship"`
	ActiveContracts []ContractInstance `json:"active_contracts"`
}

type CatalystState struct {
	AvailableAt     time.Time  `json:"available_at"`
	ActiveProjectID string     `json:"active_project_id,omitempty"`
	ActiveUntil     *time.Time `json:"active_until,omitempty"`
	Level           int        `json:"level"`
}

// Price index bounds.
const (
	MinPriceIndex = 0.6
	MaxPriceIndex = 1.4
)

type MarketState struct {
	PriceIndexByResource Amounts   `json:"price_index_by_resource"`
	LastUpdatedAt        time.Time `json:"last_updated_at"`
}

// PriceIndex defaults to 1 for resources without a recorded index.
func (m *MarketState) PriceIndex(id string) float64 {
	return m.PriceIndexByResource.GetOr(id, 1)
}

type LogisticsState struct {
	Capacity float64 `json:"logistics_capacity"`
	Demand   float64 `json:"logistics_demand"`
	Factor   float64 `json:"logistics_factor"`
}

type PolicyState struct {
	ActiveBySlot     Strings `json:"active_policies_by_slot"`
	CooldownByPolicy Times   `json:"cooldowns_by_policy_id"`
}

type DomainState struct {
	Points        Counts `json:"points_by_domain"`
	UnlockedTiers Counts `json:"unlocked_tiers_by_domain"`
}

type DispatchStatus string

const (
	DispatchActive DispatchStatus = "active"
	DispatchReady  DispatchStatus = "ready"
	DispatchFailed DispatchStatus = "failed"
)

type DispatchInstance struct {
	ID               string         `json:"id"`
	DispatchID       string         `json:"dispatch_id"`
	RemainingSeconds float64        `json:"remaining_seconds"`
	StartedAt        time.Time      `json:"started_at"`
	Status           DispatchStatus `json:"status"`
}

type CollectorState struct {
	StoredByResource Amounts   `json:"stored_by_resource"`
	CapacityHours    float64   `json:"capacity_hours"`
	LastCollectedAt  time.Time `json:"last_collected_at"`
	LastUpdatedAt    time.Time `json:"last_updated_at"`
}

type AutoPlanRules struct {
	Enabled            bool     `json:"enabled"`
	PriorityTags       []string `json:"priority_tags"`
	AutoRenewContracts bool     `json:"auto_renew_contracts"`
}

type PrestigeState struct {
	LegacyPoints   int        `json:"legacy_points"`
	LegacyUpgrades []string   `json:"legacy_upgrades"`
	LastPrestigeAt *time.Time `json:"last_prestige_at,omitempty"`
}

func (p *PrestigeState) Owns(id string) bool { return contains(p.LegacyUpgrades, id) }

type StatsState struct {
	TotalProduced       Amounts    `json:"total_produced_by_resource"`
	TotalWasted         Amounts    `json:"total_wasted_by_resource"`
	TotalRaidLoss       Amounts    `json:"total_raid_loss_by_resource"`
	LastEfficiency      float64    `json:"last_efficiency"`
	LastRaidAt          *time.Time `json:"last_raid_at,omitempty"`
	DispatchesCompleted int        `json:"dispatches_completed"`
	DispatchRewards     Amounts    `json:"dispatch_rewards_by_resource"`
}

type EventChainState struct {
	PendingChainID  string `json:"pending_event_chain_id,omitempty"`
	CooldownByChain Times  `json:"cooldowns_by_chain_id"`
}

type AlertState struct {
	LastTriggeredAt Times `json:"last_triggered_at_by_id"`
}

type SettingsState struct {
	OfflineCapDays       int  `json:"offline_cap_days"`
	NotificationsEnabled bool `json:"notifications_enabled"`
}

type RiskState struct {
	Exposure          float64 `json:"exposure"`
	Security          float64 `json:"security"`
	Hostility         float64 `json:"hostility"`
	RaidChancePerHour float64 `json:"raid_chance_per_hour"`
}

type Disposition string

const (
	Neutral Disposition = "neutral"
	Ally    Disposition = "ally"
	Enemy   Disposition = "enemy"
)

// Affinity bounds for metahumans.
const (
	MinAffinity = -3
	MaxAffinity = 3
)

// DispositionFor derives the disposition from an affinity score.
func DispositionFor(affinity int) Disposition {
	switch {
	case affinity >= 2:
		return Ally
	case affinity <= -2:
		return Enemy
	}
	return Neutral
}

type MetahumanState struct {
	Affinity        int         `json:"affinity"`
	Disposition     Disposition `json:"disposition"`
	LastEncounterAt *time.Time  `json:"last_encounter_at,omitempty"`
}

func AllyFlag(metahumanID string) string  { return "metahuman:" + metahumanID + ":ally" }
func EnemyFlag(metahumanID string) string { return "metahuman:" + metahumanID + ":enemy" }

type PeopleState struct {
	RecruitedIDs []string `json:"recruited_ids"`
	MaxRoster    int      `json:"max_roster"`
}

func (p *PeopleState) Recruited(id string) bool { return contains(p.RecruitedIDs, id) }

type EventLogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  int       `json:"severity"`
}

type GameState struct {
	SaveVersion int       `json:"save_version"`
	LastSavedAt time.Time `json:"last_saved_at"`
	LastTickAt  time.Time `json:"last_tick_at"`

	// NextSerial feeds NewID; it survives ascension so ids never repeat.
	NextSerial uint64 `json:"next_serial"`

	Resources map[string]ResourceState `json:"resources"`

	UnlockedBuildingIDs []string `json:"unlocked_building_ids"`
	UnlockedProjectIDs  []string `json:"unlocked_project_ids"`
	CompletedProjectIDs []string `json:"completed_project_ids"`

	ActiveProjects []ProjectInstance `json:"active_projects"`
	QueuedProjects []QueuedProject   `json:"queued_projects"`

	CrewCount int    `json:"crew_count"`
	MaxCrew   int    `json:"max_crew"`
	EraID     string `json:"era_id"`
	Flags     Flags  `json:"flags"`

	Buildings     []BuildingInstance      `json:"buildings"`
	FactionStates map[string]FactionState `json:"faction_states"`
	Events        []EventLogEntry         `json:"events"`

	Catalyst     CatalystState `json:"catalyst"`
	ChronoShards int           `json:"chrono_shards"`

	ProjectSpeedBonus        float64 `json:"project_speed_multiplier"`
	ResourceMultipliers      Amounts `json:"resource_multipliers"`
	GlobalResourceMultiplier float64 `json:"global_resource_multiplier"`
	StorageAdditions         Amounts `json:"storage_additions"`
	SecurityBonus            float64 `json:"security_bonus"`
	LogisticsBonus           float64 `json:"logistics_bonus"`

	Risk      RiskState      `json:"risk"`
	Market    MarketState    `json:"market"`
	Logistics LogisticsState `json:"logistics"`
	Policies  PolicyState    `json:"policy_state"`
	Domains   DomainState    `json:"domain_state"`

	Dispatches []DispatchInstance `json:"dispatches"`
	Collector  CollectorState     `json:"collector"`

	ChosenMegaprojectFamily Strings  `json:"chosen_megaproject_family"`
	AchievementsUnlocked    []string `json:"achievements_unlocked"`

	AutoPlan   AutoPlanRules             `json:"auto_plan_rules"`
	Prestige   PrestigeState             `json:"prestige"`
	Stats      StatsState                `json:"stats"`
	Metahumans map[string]MetahumanState `json:"metahumans"`
	People     PeopleState               `json:"people"`

	EventChains EventChainState `json:"event_chains"`
	Alerts      AlertState      `json:"alerts"`

	NextEventInSeconds float64 `json:"next_event_in_seconds"`
	GridSize           int     `json:"grid_size"`

	PendingTimeTravelWarning bool       `json:"pending_time_travel_warning"`
	TimeTravelClampUntil     *time.Time `json:"time_travel_clamp_until,omitempty"`

	Settings SettingsState `json:"settings"`
}

func (s *GameState) Amount(resourceID string) float64 { return s.Resources[resourceID].Amount }

// SetAmount keeps the recorded cap and only writes resources that exist.
func (s *GameState) SetAmount(resourceID string, v float64) {
	r, ok := s.Resources[resourceID]
	if !ok {
		return
	}
	r.Amount = v
	s.Resources[resourceID] = r
}

func (s *GameState) IsBuildingUnlocked(id string) bool { return contains(s.UnlockedBuildingIDs, id) }
func (s *GameState) IsProjectUnlocked(id string) bool  { return contains(s.UnlockedProjectIDs, id) }
func (s *GameState) IsProjectCompleted(id string) bool { return contains(s.CompletedProjectIDs, id) }
func (s *GameState) HasAchievement(id string) bool     { return contains(s.AchievementsUnlocked, id) }

func (s *GameState) UnlockBuilding(id string) {
	if !s.IsBuildingUnlocked(id) {
		s.UnlockedBuildingIDs = append(s.UnlockedBuildingIDs, id)
	}
}

func (s *GameState) UnlockProject(id string) {
	if !s.IsProjectUnlocked(id) {
		s.UnlockedProjectIDs = append(s.UnlockedProjectIDs, id)
	}
}

func (s *GameState) IsProjectActive(id string) bool {
	for i := range s.ActiveProjects {
		if s.ActiveProjects[i].ProjectID == id {
			return true
		}
	}
	return false
}

func (s *GameState) IsProjectQueued(id string) bool {
	for i := range s.QueuedProjects {
		if s.QueuedProjects[i].ProjectID == id {
			return true
		}
	}
	return false
}

func (s *GameState) ActiveProject(instanceID string) (*ProjectInstance, bool) {
	for i := range s.ActiveProjects {
		if s.ActiveProjects[i].ID == instanceID {
			return &s.ActiveProjects[i], true
		}
	}
	return nil, false
}

func (s *GameState) Building(instanceID string) (*BuildingInstance, bool) {
	for i := range s.Buildings {
		if s.Buildings[i].ID == instanceID {
			return &s.Buildings[i], true
		}
	}
	return nil, false
}

func (s *GameState) Dispatch(instanceID string) (*DispatchInstance, bool) {
	for i := range s.Dispatches {
		if s.Dispatches[i].ID == instanceID {
			return &s.Dispatches[i], true
		}
	}
	return nil, false
}

// HasActiveContract reports whether any faction currently runs contractID.
func (s *GameState) HasActiveContract(contractID string) bool {
	for _, f := range s.FactionStates {
		for _, c := range f.ActiveContracts {
			if c.ContractID == contractID {
				return true
			}
		}
	}
	return false
}

// Relationship returns 0 for factions without state.
func (s *GameState) Relationship(factionID string) int {
	return s.FactionStates[factionID].Relationship
}
