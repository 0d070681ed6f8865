package observer

import (
	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/state"
)

// Version is the observer protocol version.
const Version = "1.0"

// StateResponse is the body of GET /v1/state.
type StateResponse struct {
	ProtocolVersion string           `json:"protocol_version"`
	CatalogDigest   string           `json:"catalog_digest"`
	State           *state.GameState `json:"state"`
	Derived         engine.Derived   `json:"derived"`
	Advisors        Advisors         `json:"advisors"`
}

type Advisors struct {
	Project     string `json:"project,omitempty"`
	Partnership string `json:"partnership,omitempty"`
}

// Server -> Client. Sent for every engine notification.
type NotifyMsg struct {
	Type            string              `json:"type"`
	ProtocolVersion string              `json:"protocol_version"`
	Notification    engine.Notification `json:"notification"`
}

// Server -> Client. Sent after every advance.
type AdvanceMsg struct {
	Type            string               `json:"type"`
	ProtocolVersion string               `json:"protocol_version"`
	Report          engine.AdvanceReport `json:"report"`
}

// Client -> Server. Args carries only the fields the action reads.
type ActMsg struct {
	Type   string  `json:"type"`
	ID     string  `json:"id,omitempty"`
	Action string  `json:"action"`
	Args   ActArgs `json:"args"`
}

type ActArgs struct {
	ProjectID  string `json:"project_id,omitempty"`
	QueueID    string `json:"queue_id,omitempty"`
	BuildingID string `json:"building_id,omitempty"`
	InstanceID string `json:"instance_id,omitempty"`
	X          int    `json:"x,omitempty"`
	Y          int    `json:"y,omitempty"`
	ContractID string `json:"contract_id,omitempty"`
	DispatchID string `json:"dispatch_id,omitempty"`
	UpgradeID  string `json:"upgrade_id,omitempty"`
	ChainID    string `json:"chain_id,omitempty"`
	ChoiceID   string `json:"choice_id,omitempty"`
	PersonID   string `json:"person_id,omitempty"`
	Slot       string `json:"slot,omitempty"`
	PolicyID   string `json:"policy_id,omitempty"`
	Allow      bool   `json:"allow,omitempty"`
}

// Server -> Client. Answers one ActMsg.
type ActResultMsg struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Action string `json:"action"`
	OK     bool   `json:"ok"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
	// Value carries an action's numeric result (legacy points from ascend).
	Value int `json:"value,omitempty"`
}
