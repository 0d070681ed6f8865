package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clay.game/internal/sim/catalogs"
)

func loadContent(t *testing.T) *catalogs.Catalog {
	t.Helper()
	cat, err := catalogs.LoadFile("../../configs/content.json", "../../schemas/content.schema.json")
	require.NoError(t, err)
	return cat
}

func TestRunBalance_Deterministic(t *testing.T) {
	cat := loadContent(t)
	a := runBalance(cat, simConfig{Days: 2, Seed: 7})
	b := runBalance(cat, simConfig{Days: 2, Seed: 7})
	assert.Equal(t, a, b)
}

func TestRunBalance_KeepsDispatchesRunning(t *testing.T) {
	s := runBalance(loadContent(t), simConfig{Days: 3, Seed: 42})
	assert.Equal(t, 3, s.Days)
	assert.Greater(t, s.DispatchesCompleted, 0)
	assert.GreaterOrEqual(t, s.WastePct, 0.0)
	assert.GreaterOrEqual(t, s.CrewIdlePct, 0.0)
	assert.LessOrEqual(t, s.CrewIdlePct, 100.0)
}

func TestRunBalance_ClampsDays(t *testing.T) {
	s := runBalance(loadContent(t), simConfig{Days: 0, Seed: 1})
	assert.Equal(t, 1, s.Days)
}

func TestWriteJSON_SortedKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, Summary{Days: 1, Seed: 3, TimeToEraHours: map[string]int{"stone": 1}}))
	out := buf.String()

	keys := []string{"cacheCollects", "crewIdlePct", "days", "dispatchesCompleted", "domainPoints",
		"domainTiers", "energyProduced", "raidRatePerDay", "seed", "timeToEraHours", "wastePct"}
	last := -1
	for _, k := range keys {
		i := strings.Index(out, `"`+k+`"`)
		require.GreaterOrEqual(t, i, 0, k)
		assert.Greater(t, i, last, k)
		last = i
	}
}

func TestWriteReport(t *testing.T) {
	cat := loadContent(t)
	var buf bytes.Buffer
	writeReport(&buf, cat, Summary{Days: 2, Seed: 9, EnergyProduced: 12.5, TimeToEraHours: map[string]int{"bronze": 36}})
	out := buf.String()
	assert.Contains(t, out, "2 days (seed 9)")
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "1.50")
}
