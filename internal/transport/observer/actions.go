package observer

import (
	"clay.game/internal/sim/engine"
)

const reasonRefused = "Refused"

// apply runs one ACT against the engine. It must be called on the driver
// goroutine. A refused action reports the matching block reason.
func apply(e *engine.Engine, act ActMsg) ActResultMsg {
	res := ActResultMsg{Type: "ACT_RESULT", ID: act.ID, Action: act.Action}
	a := act.Args
	var ok bool
	var reason func() string

	switch act.Action {
	case "start_project":
		ok = e.StartProject(a.ProjectID)
		reason = func() string { return e.ProjectBlockReason(a.ProjectID) }
	case "queue_project":
		ok = e.QueueProject(a.ProjectID)
		reason = func() string { return e.QueueBlockReason(a.ProjectID) }
	case "unqueue_project":
		ok = e.UnqueueProject(a.QueueID)
	case "start_building":
		ok = e.StartBuilding(a.BuildingID, a.X, a.Y)
		reason = func() string { return e.BuildingBlockReason(a.BuildingID, a.X, a.Y) }
	case "upgrade_building":
		ok = e.UpgradeBuilding(a.InstanceID)
		reason = func() string { return e.UpgradeBlockReason(a.InstanceID) }
	case "start_contract":
		ok = e.StartContract(a.ContractID)
		reason = func() string { return e.ContractBlockReason(a.ContractID) }
	case "start_dispatch":
		ok = e.StartDispatch(a.DispatchID)
		reason = func() string { return e.DispatchBlockReason(a.DispatchID) }
	case "collect_dispatch":
		ok = e.CollectDispatch(a.InstanceID)
	case "collect_cache":
		ok = e.CollectCache()
	case "purchase_legacy_upgrade":
		ok = e.PurchaseLegacyUpgrade(a.UpgradeID)
		reason = func() string { return e.LegacyUpgradeBlockReason(a.UpgradeID) }
	case "ascend":
		res.Value = e.Ascend()
		ok = true
	case "resolve_event_choice":
		ok = e.ResolveEventChoice(a.ChainID, a.ChoiceID)
	case "activate_catalyst":
		ok = e.ActivateCatalyst(a.InstanceID)
		reason = func() string { return e.CatalystBlockReason(a.InstanceID) }
	case "use_chrono_shard":
		ok = e.UseChronoShard(a.InstanceID)
		reason = func() string { return e.ChronoShardBlockReason(a.InstanceID) }
	case "recruit_person":
		ok = e.RecruitPerson(a.PersonID)
		reason = func() string { return e.RecruitBlockReason(a.PersonID) }
	case "set_policy":
		ok = e.SetPolicy(a.Slot, a.PolicyID)
		reason = func() string { return e.PolicyBlockReason(a.PolicyID) }
	case "resolve_time_travel":
		st := e.State()
		if !st.PendingTimeTravelWarning && st.TimeTravelClampUntil == nil {
			res.Code = ErrStale
			res.Reason = "No time travel pending"
			return res
		}
		e.ResolveTimeTravel(a.Allow, e.Now())
		ok = true
	default:
		res.Code = ErrBadRequest
		res.Reason = "unknown action"
		return res
	}

	res.OK = ok
	if !ok {
		res.Code = ErrBlocked
		if reason != nil {
			res.Reason = reason()
		}
		if res.Reason == "" {
			res.Reason = reasonRefused
		}
	}
	return res
}
