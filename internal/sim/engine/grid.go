package engine

import (
	"math"

	"clay.game/internal/sim/catalogs"
	"clay.game/internal/sim/state"
)

type cell struct{ x, y int }

var neighbourOffsets = [4]cell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// grid indexes building positions for adjacency and district lookups.
type grid struct {
	byCell map[cell]*state.BuildingInstance
}

func newGrid(buildings []state.BuildingInstance) grid {
	g := grid{byCell: make(map[cell]*state.BuildingInstance, len(buildings))}
	for i := range buildings {
		b := &buildings[i]
		g.byCell[cell{b.X, b.Y}] = b
	}
	return g
}

func (g grid) at(x, y int) (*state.BuildingInstance, bool) {
	b, ok := g.byCell[cell{x, y}]
	return b, ok
}

// adjacency returns the definition's bonus when a required building sits on
// an orthogonal neighbour.
func (e *Engine) adjacency(b *state.BuildingInstance, def *catalogs.BuildingDef, g grid) float64 {
	bonus := def.AdjacencyBonus
	if bonus == nil {
		return 1
	}
	for _, o := range neighbourOffsets {
		if n, ok := g.at(b.X+o.x, b.Y+o.y); ok && n.BuildingID == bonus.RequiresBuildingID {
			return bonus.Multiplier
		}
	}
	return 1
}

// district returns the district bonus when at least two orthogonal
// neighbours share the building's district tag.
func (e *Engine) district(b *state.BuildingInstance, def *catalogs.BuildingDef, g grid) float64 {
	if def.DistrictTag == "" {
		return 1
	}
	matches := 0
	for _, o := range neighbourOffsets {
		n, ok := g.at(b.X+o.x, b.Y+o.y)
		if !ok {
			continue
		}
		if nd, ok := e.cat.Building(n.BuildingID); ok && nd.DistrictTag == def.DistrictTag {
			matches++
		}
	}
	if matches >= 2 {
		return def.DistrictBonus
	}
	return 1
}

// Level curves.
const (
	productionGrowth  = 1.15
	storageGrowth     = 1.12
	logisticsGrowth   = 1.1
	upgradeTimeGrowth = 1.3
)

func levelCurve(base float64, level int) float64 {
	return math.Pow(base, float64(level-1))
}

// outputMultiplier scales production and consumption.
func (e *Engine) outputMultiplier(b *state.BuildingInstance, def *catalogs.BuildingDef, g grid) float64 {
	return levelCurve(productionGrowth, b.Level) * e.adjacency(b, def, g) * e.district(b, def, g)
}

func (e *Engine) GridOccupied(x, y int) bool {
	_, ok := e.BuildingAt(x, y)
	return ok
}

func (e *Engine) BuildingAt(x, y int) (state.BuildingInstance, bool) {
	for _, b := range e.st.Buildings {
		if b.X == x && b.Y == y {
			return b, true
		}
	}
	return state.BuildingInstance{}, false
}
