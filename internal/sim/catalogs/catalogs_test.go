package catalogs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clay.game/internal/sim/effects"
)

const (
	contentPath = "../../../configs/content.json"
	schemaPath  = "../../../schemas/content.schema.json"
)

func TestLoadFile_DefaultContent(t *testing.T) {
	c, err := LoadFile(contentPath, schemaPath)
	require.NoError(t, err)

	assert.NotEmpty(t, c.Digest)
	eras := c.Eras()
	require.NotEmpty(t, eras)
	assert.Equal(t, "stone", eras[0].ID)
	assert.Equal(t, "galactic", eras[len(eras)-1].ID)

	_, ok := c.Faction("raiders")
	assert.True(t, ok)
	for _, id := range []string{"raid", "market_shock", "diplomatic_pressure", "discovery", "infrastructure_failure"} {
		_, ok := c.Event(id)
		assert.True(t, ok, id)
	}

	f, ok := c.FamilyOf("dyson_swarm")
	require.True(t, ok)
	assert.True(t, f.Exclusive)
	assert.True(t, f.Has("orbital_ring"))
}

func TestLoadFile_DigestIsStable(t *testing.T) {
	a, err := LoadFile(contentPath, "")
	require.NoError(t, err)
	b, err := LoadFile(contentPath, "")
	require.NoError(t, err)
	assert.Equal(t, a.Digest, b.Digest)
}

func TestLoadFile_SchemaRejectsBadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"resources":[],"eras":[],"collector":{"capacity_hours":0}}`), 0o644))

	_, err := LoadFile(path, schemaPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content.json")
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`{"resources":[{"id":"food","name":"Food","colour":"red"}]}`))
	require.Error(t, err)
}

func TestNew_RejectsDuplicateAndEmptyIDs(t *testing.T) {
	_, err := New(Pack{Resources: []ResourceDef{{ID: "food"}, {ID: "food"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate resource id "food"`)

	_, err = New(Pack{Buildings: []BuildingDef{{Name: "Nameless"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty id")
}

func TestNew_SortsResourcesAndEras(t *testing.T) {
	c, err := New(Pack{
		Resources: []ResourceDef{{ID: "credits", SortOrder: 3}, {ID: "food", SortOrder: 0}, {ID: "materials", SortOrder: 1}},
		Eras:      []EraDef{{ID: "bronze", SortOrder: 1}, {ID: "stone", SortOrder: 0}},
	})
	require.NoError(t, err)

	var ids []string
	for _, r := range c.Resources() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"food", "materials", "credits"}, ids)
	assert.Equal(t, "stone", c.Eras()[0].ID)

	name, ok := c.ResourceName("plasma")
	assert.False(t, ok)
	assert.Equal(t, "plasma", name)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	c, err := New(Pack{
		Resources: []ResourceDef{{ID: "food"}},
		Eras:      []EraDef{{ID: "stone", KeystoneProjectID: "missing_key"}},
		Buildings: []BuildingDef{{ID: "farm", Era: "iron", MaxLevel: 0, BaseCost: Amounts{"gold": 1}}},
		Projects: []ProjectDef{{ID: "fire", Effects: effects.List{
			effects.UnlockBuilding{Building: "tower"},
			effects.AdjustFaction{Faction: "elves", Delta: 1},
		}}},
		Dispatches: []DispatchDef{{ID: "scout", RiskChance: 1.5}},
	})
	require.NoError(t, err)

	err = c.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.ElementsMatch(t, []string{
		"Building farm references missing era iron",
		"Building farm has max level below 1",
		"Building farm references missing resource gold",
		"Project fire references missing building tower",
		"Project fire references missing faction elves",
		"Era stone references missing keystone project missing_key",
		"Dispatch scout risk chance outside [0,1]",
		"Collector capacity_hours must be positive",
	}, verr.Problems)
}

func TestValidate_EralessContentIsAllowed(t *testing.T) {
	c, err := New(Pack{
		Resources: []ResourceDef{{ID: "food"}},
		Eras:      []EraDef{{ID: "stone"}},
		Buildings: []BuildingDef{{ID: "farm", MaxLevel: 1}},
		Collector: CollectorDef{CapacityHours: 8},
	})
	require.NoError(t, err)
	assert.NoError(t, c.Validate())
}
