package engine

import (
	"math"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/state"
)

const previewEpsilon = 0.0001

// UpgradePreview describes what upgrading a building one level would cost
// and change. Deltas are per hour for rates and absolute for capacities.
type UpgradePreview struct {
	Cost              catalogs.Amounts `json:"cost"`
	DurationSeconds   float64          `json:"duration_seconds"`
	ProductionDelta   state.Amounts    `json:"production_delta"`
	ConsumptionDelta  state.Amounts    `json:"consumption_delta"`
	StorageDelta      state.Amounts    `json:"storage_delta"`
	LogisticsDelta    float64          `json:"logistics_delta"`
	ProjectSpeedDelta float64          `json:"project_speed_delta"`
}

func (e *Engine) UpgradePreview(instanceID string) (UpgradePreview, bool) {
	b, ok := e.st.Building(instanceID)
	if !ok {
		return UpgradePreview{}, false
	}
	def, ok := e.cat.Building(b.BuildingID)
	if !ok || b.Level >= def.MaxLevel {
		return UpgradePreview{}, false
	}
	mods := e.resolveModifiers(e.clock.Now())
	g := newGrid(e.st.Buildings)
	place := e.adjacency(b, def, g) * e.district(b, def, g)
	step := func(base float64) float64 {
		return levelCurve(base, b.Level+1) - levelCurve(base, b.Level)
	}
	return UpgradePreview{
		Cost:              upgradeCost(def, b.Level),
		DurationSeconds:   def.BuildTimeSeconds * math.Pow(upgradeTimeGrowth, float64(b.Level)) / math.Max(minProjectSpeed, e.projectSpeed(mods)),
		ProductionDelta:   scaleDelta(def.ProductionPerHour, step(productionGrowth)*place),
		ConsumptionDelta:  scaleDelta(def.ConsumptionPerHour, step(productionGrowth)*place),
		StorageDelta:      scaleDelta(def.StorageCapAdd, step(storageGrowth)),
		LogisticsDelta:    def.LogisticsCapAdd * step(logisticsGrowth) * place,
		ProjectSpeedDelta: def.ProjectSpeedBonus,
	}, true
}

// scaleDelta keeps only changes large enough to display.
func scaleDelta(rates catalogs.Amounts, m float64) state.Amounts {
	out := state.Amounts{}
	for _, id := range rates.IDs() {
		if d := rates[id] * m; math.Abs(d) > previewEpsilon {
			out[id] = d
		}
	}
	return out
}
