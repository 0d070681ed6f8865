package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Catalog is the immutable content the engine runs against. Slices keep
// declaration order, which is the iteration order everywhere in the engine.
type Catalog struct {
	Pack   Pack
	Digest string

	resources      map[string]*ResourceDef
	buildings      map[string]*BuildingDef
	projects       map[string]*ProjectDef
	eras           map[string]*EraDef
	factions       map[string]*FactionDef
	contracts      map[string]*ContractDef
	events         map[string]*EventDef
	policies       map[string]*PolicyDef
	chains         map[string]*EventChainDef
	legacyUpgrades map[string]*LegacyUpgradeDef
	metahumans     map[string]*MetahumanDef
	people         map[string]*PersonDef
	domains        map[string]*DomainDef
	dispatches     map[string]*DispatchDef
	families       map[string]*MegaprojectFamilyDef
	achievements   map[string]*AchievementDef

	erasBySort []*EraDef
	familyOf   map[string]*MegaprojectFamilyDef
}

// New indexes a pack. It rejects empty and duplicate ids but does not check
// cross references; see Validate.
func New(p Pack) (*Catalog, error) {
	c := &Catalog{Pack: p}
	c.Pack.Resources = append([]ResourceDef(nil), p.Resources...)
	sort.SliceStable(c.Pack.Resources, func(i, j int) bool { return c.Pack.Resources[i].SortOrder < c.Pack.Resources[j].SortOrder })
	var err error
	if c.resources, err = index("resource", c.Pack.Resources, func(d *ResourceDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.buildings, err = index("building", c.Pack.Buildings, func(d *BuildingDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.projects, err = index("project", c.Pack.Projects, func(d *ProjectDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.eras, err = index("era", c.Pack.Eras, func(d *EraDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.factions, err = index("faction", c.Pack.Factions, func(d *FactionDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.contracts, err = index("contract", c.Pack.Contracts, func(d *ContractDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.events, err = index("event", c.Pack.Events, func(d *EventDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.policies, err = index("policy", c.Pack.Policies, func(d *PolicyDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.chains, err = index("event chain", c.Pack.EventChains, func(d *EventChainDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.legacyUpgrades, err = index("legacy upgrade", c.Pack.LegacyUpgrades, func(d *LegacyUpgradeDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.metahumans, err = index("metahuman", c.Pack.Metahumans, func(d *MetahumanDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.people, err = index("person", c.Pack.People, func(d *PersonDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.domains, err = index("domain", c.Pack.Domains, func(d *DomainDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.dispatches, err = index("dispatch", c.Pack.Dispatches, func(d *DispatchDef) string { return d.ID }); err != nil {
		return nil, err
	}
	if c.families, err = index("megaproject family", c.Pack.MegaprojectFamilies, func(d *MegaprojectFamilyDef) string { return d.FamilyID }); err != nil {
		return nil, err
	}
	if c.achievements, err = index("achievement", c.Pack.Achievements, func(d *AchievementDef) string { return d.ID }); err != nil {
		return nil, err
	}

	c.erasBySort = make([]*EraDef, 0, len(p.Eras))
	for i := range c.Pack.Eras {
		c.erasBySort = append(c.erasBySort, &c.Pack.Eras[i])
	}
	sort.SliceStable(c.erasBySort, func(i, j int) bool { return c.erasBySort[i].SortOrder < c.erasBySort[j].SortOrder })

	c.familyOf = map[string]*MegaprojectFamilyDef{}
	for i := range c.Pack.MegaprojectFamilies {
		f := &c.Pack.MegaprojectFamilies[i]
		for _, pid := range f.Choices {
			if _, ok := c.familyOf[pid]; !ok {
				c.familyOf[pid] = f
			}
		}
	}

	b, _ := json.Marshal(c.Pack)
	c.Digest = sha256Hex(b)
	return c, nil
}

func index[T any](kind string, defs []T, id func(*T) string) (map[string]*T, error) {
	out := make(map[string]*T, len(defs))
	for i := range defs {
		d := &defs[i]
		k := id(d)
		if k == "" {
			return nil, fmt.Errorf("content.json: %s #%d: empty id", kind, i)
		}
		if _, dup := out[k]; dup {
			return nil, fmt.Errorf("content.json: duplicate %s id %q", kind, k)
		}
		out[k] = d
	}
	return out, nil
}

// Parse decodes and indexes a content document.
func Parse(raw []byte) (*Catalog, error) {
	var p Pack
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("content.json: %w", err)
	}
	return New(p)
}

// LoadFile reads a content pack, validates it against schemaPath when given,
// and checks cross references.
func LoadFile(path, schemaPath string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if schemaPath != "" {
		if err := validateSchema(schemaPath, raw); err != nil {
			return nil, err
		}
	}
	c, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func validateSchema(schemaPath string, raw []byte) error {
	schema, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return fmt.Errorf("content schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("content.json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("content.json: %w", err)
	}
	return nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (c *Catalog) Resources() []ResourceDef           { return c.Pack.Resources }
func (c *Catalog) Buildings() []BuildingDef           { return c.Pack.Buildings }
func (c *Catalog) Projects() []ProjectDef             { return c.Pack.Projects }
func (c *Catalog) Factions() []FactionDef             { return c.Pack.Factions }
func (c *Catalog) Contracts() []ContractDef           { return c.Pack.Contracts }
func (c *Catalog) Events() []EventDef                 { return c.Pack.Events }
func (c *Catalog) Policies() []PolicyDef              { return c.Pack.Policies }
func (c *Catalog) EventChains() []EventChainDef       { return c.Pack.EventChains }
func (c *Catalog) LegacyUpgrades() []LegacyUpgradeDef { return c.Pack.LegacyUpgrades }
func (c *Catalog) Metahumans() []MetahumanDef         { return c.Pack.Metahumans }
func (c *Catalog) People() []PersonDef                { return c.Pack.People }
func (c *Catalog) Domains() []DomainDef               { return c.Pack.Domains }
func (c *Catalog) Dispatches() []DispatchDef          { return c.Pack.Dispatches }
func (c *Catalog) Achievements() []AchievementDef     { return c.Pack.Achievements }
func (c *Catalog) Collector() CollectorDef            { return c.Pack.Collector }

// Eras returns eras ordered by sort order.
func (c *Catalog) Eras() []*EraDef { return c.erasBySort }

func (c *Catalog) Resource(id string) (*ResourceDef, bool) {
	d, ok := c.resources[id]
	return d, ok
}

func (c *Catalog) Building(id string) (*BuildingDef, bool) {
	d, ok := c.buildings[id]
	return d, ok
}

func (c *Catalog) Project(id string) (*ProjectDef, bool) {
	d, ok := c.projects[id]
	return d, ok
}

func (c *Catalog) Era(id string) (*EraDef, bool) {
	d, ok := c.eras[id]
	return d, ok
}

func (c *Catalog) Faction(id string) (*FactionDef, bool) {
	d, ok := c.factions[id]
	return d, ok
}

func (c *Catalog) Contract(id string) (*ContractDef, bool) {
	d, ok := c.contracts[id]
	return d, ok
}

func (c *Catalog) Event(id string) (*EventDef, bool) {
	d, ok := c.events[id]
	return d, ok
}

func (c *Catalog) Policy(id string) (*PolicyDef, bool) {
	d, ok := c.policies[id]
	return d, ok
}

func (c *Catalog) EventChain(id string) (*EventChainDef, bool) {
	d, ok := c.chains[id]
	return d, ok
}

func (c *Catalog) LegacyUpgrade(id string) (*LegacyUpgradeDef, bool) {
	d, ok := c.legacyUpgrades[id]
	return d, ok
}

func (c *Catalog) Metahuman(id string) (*MetahumanDef, bool) {
	d, ok := c.metahumans[id]
	return d, ok
}

func (c *Catalog) Person(id string) (*PersonDef, bool) {
	d, ok := c.people[id]
	return d, ok
}

func (c *Catalog) Domain(id string) (*DomainDef, bool) {
	d, ok := c.domains[id]
	return d, ok
}

func (c *Catalog) Dispatch(id string) (*DispatchDef, bool) {
	d, ok := c.dispatches[id]
	return d, ok
}

func (c *Catalog) Achievement(id string) (*AchievementDef, bool) {
	d, ok := c.achievements[id]
	return d, ok
}

// FamilyOf returns the first megaproject family listing projectID as a choice.
func (c *Catalog) FamilyOf(projectID string) (*MegaprojectFamilyDef, bool) {
	f, ok := c.familyOf[projectID]
	return f, ok
}

// ResourceName falls back to the id when the resource is unknown.
func (c *Catalog) ResourceName(id string) (string, bool) {
	if d, ok := c.resources[id]; ok {
		return d.Name, true
	}
	return id, false
}
