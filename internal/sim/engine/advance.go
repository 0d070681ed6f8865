package engine

import (
	"fmt"
	"math"
	"time"
)

// Advance runs one pass of the simulation pipeline over elapsedSeconds ending
// at asOf. Offline passes skip the auto-planner, auto-renewal and alerts and
// use the offline event cap. Non-positive durations are ignored.
func (e *Engine) Advance(elapsedSeconds float64, asOf time.Time, offline bool) {
	if elapsedSeconds <= 0 || math.IsNaN(elapsedSeconds) {
		return
	}
	mods := e.resolveModifiers(asOf)

	e.updateMarket(asOf)
	e.st.Logistics = e.computeLogistics(mods, newGrid(e.st.Buildings))
	e.progressProjects(elapsedSeconds, asOf, mods)
	e.progressDispatches(elapsedSeconds, asOf)
	e.progressContracts(elapsedSeconds, asOf)
	e.applyResourceDelta(elapsedSeconds, asOf, mods, e.computeCaps(mods))
	e.processEvents(elapsedSeconds, asOf, offline, mods)
	e.processQueued(asOf, mods)
	if !offline {
		e.runAutoPlanner(asOf, mods)
		e.autoRenewContracts(asOf)
	}
	e.st.LastTickAt = asOf

	e.refreshDerived(asOf)
	e.evaluateAchievements(asOf)
	if !offline {
		e.emitAlerts(asOf)
	}
	e.reportAdvance(AdvanceReport{
		ElapsedSeconds: elapsedSeconds,
		AsOf:           asOf,
		Offline:        offline,
		NewEntries:     e.drainEntries(),
		Derived:        e.derived.Clone(),
	})
}

// Simulate advances by seconds from the last tick, independent of the clock.
func (e *Engine) Simulate(seconds float64, offline bool) {
	asOf := e.st.LastTickAt.Add(durationOf(seconds))
	e.Advance(seconds, asOf, offline)
}

// Tick is the live entry point. While a time-travel clamp is in force and now
// is before it, only the last tick marker moves.
func (e *Engine) Tick(now time.Time) {
	if c := e.st.TimeTravelClampUntil; c != nil {
		if now.Before(*c) {
			e.st.LastTickAt = now
			return
		}
		e.st.TimeTravelClampUntil = nil
	}
	delta := now.Sub(e.st.LastTickAt).Seconds()
	if delta > 0 {
		e.Advance(delta, now, false)
	}
}

// ReconcileOffline catches up after a load. A clock that moved backwards past
// the tolerance freezes the game until ResolveTimeTravel or the clock passes
// the last save; otherwise elapsed time is capped at the offline limit.
func (e *Engine) ReconcileOffline(now time.Time) {
	elapsed := now.Sub(e.st.LastSavedAt).Seconds()
	if elapsed < -e.tun.TimeTravelToleranceSeconds {
		e.st.PendingTimeTravelWarning = true
		clampAt := e.st.LastSavedAt
		e.st.TimeTravelClampUntil = &clampAt
		e.st.LastTickAt = now
		e.notify(e.note("Clock moved backwards. Progress is paused until it catches up.", StyleWarning, now))
		return
	}
	maxSeconds := float64(e.st.Settings.OfflineCapDays) * 86400
	clamped := clamp(elapsed, 0, math.Max(0, maxSeconds))
	if elapsed > maxSeconds {
		e.logEvent(now, "system", "Offline Cap Reached",
			fmt.Sprintf("Offline progress capped at %d days.", e.st.Settings.OfflineCapDays))
	}
	e.Advance(clamped, now, true)
	if clamped <= 0 {
		e.st.LastTickAt = now
	}
}

// ResolveTimeTravel dismisses the warning. When allow is set the clamp is
// lifted and the save time is reset to now.
func (e *Engine) ResolveTimeTravel(allow bool, now time.Time) {
	e.st.PendingTimeTravelWarning = false
	if allow {
		e.st.TimeTravelClampUntil = nil
		e.st.LastSavedAt = now
		e.st.LastTickAt = now
	}
}

func durationOf(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
