package engine

import "sort"

func (e *Engine) SetOfflineCapDays(days int) {
	e.st.Settings.OfflineCapDays = max(0, days)
}

func (e *Engine) SetNotificationsEnabled(on bool) {
	e.st.Settings.NotificationsEnabled = on
}

func (e *Engine) SetAutoPlannerEnabled(on bool) {
	e.st.AutoPlan.Enabled = on
}

// SetAutoPlanTag adds or removes a priority tag. Tags stay sorted.
func (e *Engine) SetAutoPlanTag(tag string, enabled bool) {
	tags := make([]string, 0, len(e.st.AutoPlan.PriorityTags)+1)
	for _, t := range e.st.AutoPlan.PriorityTags {
		if t != tag {
			tags = append(tags, t)
		}
	}
	if enabled {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	e.st.AutoPlan.PriorityTags = tags
}

func (e *Engine) SetAutoRenewContracts(on bool) {
	e.st.AutoPlan.AutoRenewContracts = on
}
