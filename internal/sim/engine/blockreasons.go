package engine

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clay.game/internal/sim/catalogs"
)

// Block reasons are shown to the player verbatim. An empty string means the
// action would go through.
const (
	ReasonNoCrew          = "No available crews"
	ReasonInsufficient    = "Insufficient resources"
	ReasonProjectLocked   = "Project locked"
	ReasonProjectDone     = "Project already completed"
	ReasonProjectActive   = "Project already active"
	ReasonProjectQueued   = "Project already queued"
	ReasonOtherPathChosen = "Another Type II path already chosen"
	ReasonBuildingLocked  = "Building locked"
	ReasonCellOccupied    = "Cell occupied"
	ReasonOutsideGrid     = "Outside grid"
	ReasonUpgradeLocked   = "Upgrade locked"
	ReasonMaxLevel        = "Max level reached"
	ReasonRelationship    = "Relationship too low"
	ReasonContractActive  = "Contract already active"
	ReasonDispatchLocked  = "Dispatch locked"
	ReasonDispatchActive  = "Dispatch already active"
	ReasonSelectProject   = "Select an active project"
	ReasonCatalystCooling = "Catalyst on cooldown"
	ReasonNoShards        = "No Chrono Shards"
	ReasonPolicyLocked    = "Policy locked by era"
	ReasonPolicyCooling   = "Policy on cooldown"
	ReasonAlreadyOwned    = "Already purchased"
	ReasonLegacyPoints    = "Not enough legacy points"
	ReasonRecruited       = "Already recruited"
	ReasonRosterFull      = "Roster full"
	ReasonEraLocked       = "Locked by era"
	ReasonUnknown         = "Unknown"
)

// missingResourceMessage names the first unaffordable cost in id order.
func (e *Engine) missingResourceMessage(costs catalogs.Amounts) string {
	for _, id := range costs.IDs() {
		if e.st.Amount(id) >= costs[id] {
			continue
		}
		name, ok := e.cat.ResourceName(id)
		if !ok {
			name = cases.Title(language.English).String(id)
		}
		if name == "" {
			return ReasonInsufficient
		}
		return "Insufficient " + name
	}
	return ""
}

// eraAllows reports whether content gated on eraID is available. Content
// without an era is always available.
func (e *Engine) eraAllows(eraID string) bool {
	return eraID == "" || e.eraReached(eraID)
}

func (e *Engine) megaprojectReason(projectID string) string {
	fam, ok := e.cat.FamilyOf(projectID)
	if !ok || !fam.Exclusive {
		return ""
	}
	if !e.st.IsProjectUnlocked(projectID) {
		return "Locked by " + fam.Description
	}
	if chosen := e.st.ChosenMegaprojectFamily[fam.FamilyID]; chosen != "" && chosen != projectID {
		return ReasonOtherPathChosen
	}
	for _, other := range fam.Choices {
		if other == projectID {
			continue
		}
		if e.st.IsProjectCompleted(other) || e.st.IsProjectActive(other) || e.st.IsProjectQueued(other) {
			return ReasonOtherPathChosen
		}
	}
	return ""
}

// MegaprojectBlockReason explains why an exclusive family member cannot be taken.
func (e *Engine) MegaprojectBlockReason(projectID string) string {
	return e.megaprojectReason(projectID)
}

func (e *Engine) ProjectBlockReason(projectID string) string {
	def, ok := e.cat.Project(projectID)
	if !ok {
		return ReasonUnknown
	}
	if !e.st.IsProjectUnlocked(def.ID) {
		return ReasonProjectLocked
	}
	if r := e.megaprojectReason(def.ID); r != "" {
		return r
	}
	if e.st.IsProjectCompleted(def.ID) {
		return ReasonProjectDone
	}
	if e.st.IsProjectActive(def.ID) {
		return ReasonProjectActive
	}
	if e.availableCrew() < def.CrewRequired {
		return ReasonNoCrew
	}
	return e.missingResourceMessage(def.Costs)
}

func (e *Engine) QueueBlockReason(projectID string) string {
	def, ok := e.cat.Project(projectID)
	if !ok {
		return ReasonUnknown
	}
	if r := e.megaprojectReason(def.ID); r != "" {
		return r
	}
	switch {
	case e.st.IsProjectCompleted(def.ID):
		return ReasonProjectDone
	case e.st.IsProjectActive(def.ID):
		return ReasonProjectActive
	case e.st.IsProjectQueued(def.ID):
		return ReasonProjectQueued
	case !e.st.IsProjectUnlocked(def.ID):
		return ReasonProjectLocked
	}
	return ""
}

func (e *Engine) BuildingBlockReason(buildingID string, x, y int) string {
	def, ok := e.cat.Building(buildingID)
	if !ok {
		return ReasonUnknown
	}
	if !e.st.IsBuildingUnlocked(def.ID) {
		return ReasonBuildingLocked
	}
	if x < 0 || y < 0 || x >= e.st.GridSize || y >= e.st.GridSize {
		return ReasonOutsideGrid
	}
	if e.GridOccupied(x, y) {
		return ReasonCellOccupied
	}
	if e.availableCrew() < 1 {
		return ReasonNoCrew
	}
	return e.missingResourceMessage(def.BaseCost)
}

func (e *Engine) UpgradeBlockReason(instanceID string) string {
	b, ok := e.st.Building(instanceID)
	if !ok {
		return ReasonUnknown
	}
	def, ok := e.cat.Building(b.BuildingID)
	if !ok {
		return ReasonUnknown
	}
	if b.DisabledAt(e.clock.Now()) {
		return ReasonUpgradeLocked
	}
	if b.Level >= def.MaxLevel {
		return ReasonMaxLevel
	}
	if e.availableCrew() < 1 {
		return ReasonNoCrew
	}
	return e.missingResourceMessage(upgradeCost(def, b.Level))
}

func (e *Engine) ContractBlockReason(contractID string) string {
	def, ok := e.cat.Contract(contractID)
	if !ok {
		return ReasonUnknown
	}
	if _, ok := e.st.FactionStates[def.FactionID]; !ok {
		return ReasonUnknown
	}
	if e.st.Relationship(def.FactionID) < def.RequiredRelationship {
		return ReasonRelationship
	}
	if e.st.HasActiveContract(def.ID) {
		return ReasonContractActive
	}
	return ""
}

func (e *Engine) DispatchBlockReason(dispatchID string) string {
	def, ok := e.cat.Dispatch(dispatchID)
	if !ok {
		return ReasonUnknown
	}
	if !e.eraAllows(def.Era) {
		return ReasonDispatchLocked
	}
	if def.RequiresFlag != "" && !e.st.Flags.Has(def.RequiresFlag) {
		return ReasonDispatchLocked
	}
	if def.RequiresFlagNotSet != "" && e.st.Flags.Has(def.RequiresFlagNotSet) {
		return ReasonDispatchLocked
	}
	if e.availableCrew() < def.RequiredCrew {
		return ReasonNoCrew
	}
	for _, d := range e.st.Dispatches {
		if d.DispatchID == def.ID {
			return ReasonDispatchActive
		}
	}
	return ""
}

func (e *Engine) CatalystBlockReason(projectInstanceID string) string {
	if _, ok := e.st.ActiveProject(projectInstanceID); !ok {
		return ReasonSelectProject
	}
	if e.clock.Now().Before(e.st.Catalyst.AvailableAt) {
		return ReasonCatalystCooling
	}
	return ""
}

func (e *Engine) ChronoShardBlockReason(projectInstanceID string) string {
	if _, ok := e.st.ActiveProject(projectInstanceID); !ok {
		return ReasonSelectProject
	}
	if e.st.ChronoShards <= 0 {
		return ReasonNoShards
	}
	return ""
}

func (e *Engine) PolicyBlockReason(policyID string) string {
	return e.policyReason(policyID, e.clock.Now())
}

func (e *Engine) policyReason(policyID string, now time.Time) string {
	def, ok := e.cat.Policy(policyID)
	if !ok {
		return ReasonUnknown
	}
	if e.st.Policies.CooldownByPolicy.ActiveAt(def.ID, now) {
		return ReasonPolicyCooling
	}
	if !e.eraAllows(def.Era) {
		return ReasonPolicyLocked
	}
	return ""
}

func (e *Engine) LegacyUpgradeBlockReason(upgradeID string) string {
	def, ok := e.cat.LegacyUpgrade(upgradeID)
	if !ok {
		return ReasonUnknown
	}
	if e.st.Prestige.Owns(def.ID) {
		return ReasonAlreadyOwned
	}
	if e.st.Prestige.LegacyPoints < def.Cost {
		return ReasonLegacyPoints
	}
	return ""
}

func (e *Engine) RecruitBlockReason(personID string) string {
	def, ok := e.cat.Person(personID)
	if !ok {
		return ReasonUnknown
	}
	if e.st.People.Recruited(def.ID) {
		return ReasonRecruited
	}
	if len(e.st.People.RecruitedIDs) >= e.st.People.MaxRoster {
		return ReasonRosterFull
	}
	if !e.eraAllows(def.Era) {
		return ReasonEraLocked
	}
	return e.missingResourceMessage(def.Costs)
}
