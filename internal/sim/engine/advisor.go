package engine

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	advisorLogisticsBelow = 0.7
	advisorCreditsRate    = 1.0
)

// ProjectAdvisorMessage suggests the most pressing economic fix, or "".
func (e *Engine) ProjectAdvisorMessage() string {
	if e.st.Logistics.Factor < advisorLogisticsBelow {
		return "Logistics bottleneck detected. Consider building a Logistics Hub."
	}
	caser := cases.Title(language.English)
	for _, res := range e.cat.Resources() {
		r := e.st.Resources[res.ID]
		if r.Cap > 0 && r.Amount >= alertCapShare*r.Cap {
			return caser.String(res.ID) + " nearing cap. Invest in storage or spend resources."
		}
	}
	worst, worstRate := "", 0.0
	for _, res := range e.cat.Resources() {
		if rate := e.derived.RatesPerHour.Get(res.ID); rate < worstRate {
			worst, worstRate = res.ID, rate
		}
	}
	if worst != "" {
		return "Net " + caser.String(worst) + " is negative. Boost production or reduce upkeep."
	}
	return ""
}

// PartnershipAdvisorMessage suggests a faction deal, or "".
func (e *Engine) PartnershipAdvisorMessage() string {
	if e.st.Risk.RaidChancePerHour > alertRaidChance {
		return "Raid risk is elevated. Consider a Security Pact."
	}
	if _, ok := e.cat.Resource(creditsResourceID); ok && e.derived.RatesPerHour.Get(creditsResourceID) < advisorCreditsRate {
		return "Credits are tight. Export surplus via trade contracts."
	}
	return ""
}
