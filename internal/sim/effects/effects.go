package effects

import (
	"encoding/json"
	"fmt"
)

// Kind is the wire name of an effect in content packs.
type Kind string

const (
	KindAddResourceCap            Kind = "add_resource_cap"
	KindAddResourceMultiplier     Kind = "add_resource_multiplier"
	KindAddGlobalMultiplier       Kind = "add_global_multiplier"
	KindUnlockBuilding            Kind = "unlock_building"
	KindUnlockProject             Kind = "unlock_project"
	KindUnlockEra                 Kind = "unlock_era"
	KindUnlockContract            Kind = "unlock_contract"
	KindGrantResource             Kind = "grant_resource"
	KindAdjustFaction             Kind = "adjust_faction"
	KindAddCrew                   Kind = "add_crew"
	KindProjectSpeedBonus         Kind = "project_speed_bonus"
	KindAddSecurityBonus          Kind = "add_security_bonus"
	KindAddLogisticsCap           Kind = "add_logistics_cap"
	KindAddOfflineCap             Kind = "add_offline_cap"
	KindAddCollectorCapacityHours Kind = "add_collector_capacity_hours"
	KindUnlockCatalyst            Kind = "unlock_catalyst"
	KindGrantChronoShards         Kind = "grant_chrono_shards"
	KindSetFlag                   Kind = "set_flag"
	KindAdjustMetahumanAffinity   Kind = "adjust_metahuman_affinity"
)

// Effect is a closed set: only the types in this file implement it.
type Effect interface {
	Kind() Kind
	sealed()
}

type AddResourceCap struct {
	Resource string
	Amount   float64
}

type AddResourceMultiplier struct {
	Resource   string
	Multiplier float64
}

type AddGlobalMultiplier struct{ Multiplier float64 }

type UnlockBuilding struct{ Building string }

type UnlockProject struct{ Project string }

type UnlockEra struct{ Era string }

type UnlockContract struct{ Contract string }

// GrantResource adds to the current amount; the result is floored at 0 but not capped.
type GrantResource struct {
	Resource string
	Amount   float64
}

type AdjustFaction struct {
	Faction string
	Delta   int
}

type AddCrew struct{ Count int }

type ProjectSpeedBonus struct{ Amount float64 }

type AddSecurityBonus struct{ Amount float64 }

type AddLogisticsCap struct{ Amount float64 }

type AddOfflineCap struct{ Days int }

type AddCollectorCapacityHours struct{ Hours float64 }

type UnlockCatalyst struct{}

type GrantChronoShards struct{ Count int }

type SetFlag struct{ Flag string }

type AdjustMetahumanAffinity struct {
	Metahuman string
	Delta     int
}

// Noop stands in for unknown kinds and for known kinds missing their payload.
type Noop struct{ Raw Raw }

func (AddResourceCap) Kind() Kind            { return KindAddResourceCap }
func (AddResourceMultiplier) Kind() Kind     { return KindAddResourceMultiplier }
func (AddGlobalMultiplier) Kind() Kind       { return KindAddGlobalMultiplier }
func (UnlockBuilding) Kind() Kind            { return KindUnlockBuilding }
func (UnlockProject) Kind() Kind             { return KindUnlockProject }
func (UnlockEra) Kind() Kind                 { return KindUnlockEra }
func (UnlockContract) Kind() Kind            { return KindUnlockContract }
func (GrantResource) Kind() Kind             { return KindGrantResource }
func (AdjustFaction) Kind() Kind             { return KindAdjustFaction }
func (AddCrew) Kind() Kind                   { return KindAddCrew }
func (ProjectSpeedBonus) Kind() Kind         { return KindProjectSpeedBonus }
func (AddSecurityBonus) Kind() Kind          { return KindAddSecurityBonus }
func (AddLogisticsCap) Kind() Kind           { return KindAddLogisticsCap }
func (AddOfflineCap) Kind() Kind             { return KindAddOfflineCap }
func (AddCollectorCapacityHours) Kind() Kind { return KindAddCollectorCapacityHours }
func (UnlockCatalyst) Kind() Kind            { return KindUnlockCatalyst }
func (GrantChronoShards) Kind() Kind         { return KindGrantChronoShards }
func (SetFlag) Kind() Kind                   { return KindSetFlag }
func (AdjustMetahumanAffinity) Kind() Kind   { return KindAdjustMetahumanAffinity }
func (n Noop) Kind() Kind                    { return Kind(n.Raw.Type) }

func (AddResourceCap) sealed()            {}
func (AddResourceMultiplier) sealed()     {}
func (AddGlobalMultiplier) sealed()       {}
func (UnlockBuilding) sealed()            {}
func (UnlockProject) sealed()             {}
func (UnlockEra) sealed()                 {}
func (UnlockContract) sealed()            {}
func (GrantResource) sealed()             {}
func (AdjustFaction) sealed()             {}
func (AddCrew) sealed()                   {}
func (ProjectSpeedBonus) sealed()         {}
func (AddSecurityBonus) sealed()          {}
func (AddLogisticsCap) sealed()           {}
func (AddOfflineCap) sealed()             {}
func (AddCollectorCapacityHours) sealed() {}
func (UnlockCatalyst) sealed()            {}
func (GrantChronoShards) sealed()         {}
func (SetFlag) sealed()                   {}
func (AdjustMetahumanAffinity) sealed()   {}
func (Noop) sealed()                      {}

// Raw is the content-pack encoding of an effect.
type Raw struct {
	Type        string   `json:"type"`
	ResourceID  *string  `json:"resource_id,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	Multiplier  *float64 `json:"multiplier,omitempty"`
	BuildingID  *string  `json:"building_id,omitempty"`
	ProjectID   *string  `json:"project_id,omitempty"`
	EraID       *string  `json:"era_id,omitempty"`
	CrewCount   *int     `json:"crew_count,omitempty"`
	FlagID      *string  `json:"flag_id,omitempty"`
	ContractID  *string  `json:"contract_id,omitempty"`
	FactionID   *string  `json:"faction_id,omitempty"`
	MetahumanID *string  `json:"metahuman_id,omitempty"`
}

// Decode maps a raw effect onto its typed variant. It never fails: anything it
// cannot type becomes Noop.
func Decode(r Raw) Effect {
	switch Kind(r.Type) {
	case KindAddResourceCap:
		if r.ResourceID != nil && r.Amount != nil {
			return AddResourceCap{Resource: *r.ResourceID, Amount: *r.Amount}
		}
	case KindAddResourceMultiplier:
		if r.ResourceID != nil && r.Multiplier != nil {
			return AddResourceMultiplier{Resource: *r.ResourceID, Multiplier: *r.Multiplier}
		}
	case KindAddGlobalMultiplier:
		if r.Multiplier != nil {
			return AddGlobalMultiplier{Multiplier: *r.Multiplier}
		}
	case KindUnlockBuilding:
		if r.BuildingID != nil {
			return UnlockBuilding{Building: *r.BuildingID}
		}
	case KindUnlockProject:
		if r.ProjectID != nil {
			return UnlockProject{Project: *r.ProjectID}
		}
	case KindUnlockEra:
		if r.EraID != nil {
			return UnlockEra{Era: *r.EraID}
		}
	case KindUnlockContract:
		if r.ContractID != nil {
			return UnlockContract{Contract: *r.ContractID}
		}
	case KindGrantResource:
		if r.ResourceID != nil && r.Amount != nil {
			return GrantResource{Resource: *r.ResourceID, Amount: *r.Amount}
		}
	case KindAdjustFaction:
		if r.FactionID != nil && r.Amount != nil {
			return AdjustFaction{Faction: *r.FactionID, Delta: int(*r.Amount)}
		}
	case KindAddCrew:
		if r.CrewCount != nil {
			return AddCrew{Count: *r.CrewCount}
		}
	case KindProjectSpeedBonus:
		if r.Amount != nil {
			return ProjectSpeedBonus{Amount: *r.Amount}
		}
	case KindAddSecurityBonus:
		if r.Amount != nil {
			return AddSecurityBonus{Amount: *r.Amount}
		}
	case KindAddLogisticsCap:
		if r.Amount != nil {
			return AddLogisticsCap{Amount: *r.Amount}
		}
	case KindAddOfflineCap:
		if r.Amount != nil {
			return AddOfflineCap{Days: int(*r.Amount)}
		}
	case KindAddCollectorCapacityHours:
		if r.Amount != nil {
			return AddCollectorCapacityHours{Hours: *r.Amount}
		}
	case KindUnlockCatalyst:
		return UnlockCatalyst{}
	case KindGrantChronoShards:
		if r.Amount != nil {
			return GrantChronoShards{Count: int(*r.Amount)}
		}
	case KindSetFlag:
		if r.FlagID != nil {
			return SetFlag{Flag: *r.FlagID}
		}
	case KindAdjustMetahumanAffinity:
		if r.MetahumanID != nil && r.Amount != nil {
			return AdjustMetahumanAffinity{Metahuman: *r.MetahumanID, Delta: int(*r.Amount)}
		}
	}
	return Noop{Raw: r}
}

// Encode is the inverse of Decode for typed variants.
func Encode(e Effect) Raw {
	r := Raw{Type: string(e.Kind())}
	switch v := e.(type) {
	case AddResourceCap:
		r.ResourceID, r.Amount = str(v.Resource), num(v.Amount)
	case AddResourceMultiplier:
		r.ResourceID, r.Multiplier = str(v.Resource), num(v.Multiplier)
	case AddGlobalMultiplier:
		r.Multiplier = num(v.Multiplier)
	case UnlockBuilding:
		r.BuildingID = str(v.Building)
	case UnlockProject:
		r.ProjectID = str(v.Project)
	case UnlockEra:
		r.EraID = str(v.Era)
	case UnlockContract:
		r.ContractID = str(v.Contract)
	case GrantResource:
		r.ResourceID, r.Amount = str(v.Resource), num(v.Amount)
	case AdjustFaction:
		r.FactionID, r.Amount = str(v.Faction), num(float64(v.Delta))
	case AddCrew:
		n := v.Count
		r.CrewCount = &n
	case ProjectSpeedBonus:
		r.Amount = num(v.Amount)
	case AddSecurityBonus:
		r.Amount = num(v.Amount)
	case AddLogisticsCap:
		r.Amount = num(v.Amount)
	case AddOfflineCap:
		r.Amount = num(float64(v.Days))
	case AddCollectorCapacityHours:
		r.Amount = num(v.Hours)
	case GrantChronoShards:
		r.Amount = num(float64(v.Count))
	case SetFlag:
		r.FlagID = str(v.Flag)
	case AdjustMetahumanAffinity:
		r.MetahumanID, r.Amount = str(v.Metahuman), num(float64(v.Delta))
	case Noop:
		return v.Raw
	}
	return r
}

func str(s string) *string   { return &s }
func num(f float64) *float64 { return &f }

// List decodes from and encodes to the content-pack form.
type List []Effect

func (l *List) UnmarshalJSON(b []byte) error {
	var raws []Raw
	if err := json.Unmarshal(b, &raws); err != nil {
		return fmt.Errorf("effects: %w", err)
	}
	out := make(List, 0, len(raws))
	for _, r := range raws {
		out = append(out, Decode(r))
	}
	*l = out
	return nil
}

func (l List) MarshalJSON() ([]byte, error) {
	raws := make([]Raw, 0, len(l))
	for _, e := range l {
		raws = append(raws, Encode(e))
	}
	return json.Marshal(raws)
}
