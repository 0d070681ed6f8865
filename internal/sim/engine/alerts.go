package engine

import (
	"time"

	"clay.game/internal/sim/state"
)

const (
	alertCapShare    = 0.9
	alertRaidChance  = 0.15
	alertRaidID      = "risk:raid"
	alertCollectorID = "collector:ready"
)

// emitAlerts raises live notifications, each id at most once per cooldown.
func (e *Engine) emitAlerts(now time.Time) {
	if !e.st.Settings.NotificationsEnabled {
		return
	}
	for _, res := range e.cat.Resources() {
		r := e.st.Resources[res.ID]
		if r.Cap > 0 && r.Amount >= alertCapShare*r.Cap {
			e.alert("cap:"+res.ID, res.Name+" storage nearing cap", StyleWarning, now)
		}
	}
	e.eachContract(func(_ string, c *state.ContractInstance) {
		if c.RemainingSeconds > expiringSoonSeconds {
			return
		}
		name := c.ContractID
		if def, ok := e.cat.Contract(c.ContractID); ok {
			name = def.Name
		}
		e.alert("contract:"+c.ContractID, "Contract expiring soon: "+name, StyleInfo, now)
	})
	if e.st.Risk.RaidChancePerHour > alertRaidChance {
		e.alert(alertRaidID, "Raid risk elevated. Consider defenses or pacts.", StyleWarning, now)
	}
	for _, id := range e.st.Collector.StoredByResource.Keys() {
		if e.st.Collector.StoredByResource[id] > 0 {
			e.alert(alertCollectorID, "Resource cache ready to collect.", StyleInfo, now)
			break
		}
	}
}

func (e *Engine) alert(id, message string, style Style, now time.Time) {
	if last, ok := e.st.Alerts.LastTriggeredAt.Get(id); ok && now.Sub(last).Seconds() < e.tun.AlertCooldownSeconds {
		return
	}
	e.st.Alerts.LastTriggeredAt.Set(id, now)
	e.notify(e.note(message, style, now))
}
