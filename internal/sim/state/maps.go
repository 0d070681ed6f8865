package state

import (
	"sort"
	"time"
)

// The map types below are total: a missing key reads as the zero value (or
// the documented default) and writers allocate on first use. Nil and empty
// maps are therefore interchangeable everywhere in the engine.

// Amounts holds per-resource quantities; a missing key is 0.
type Amounts map[string]float64

func (a Amounts) Get(id string) float64 { return a[id] }

// GetOr returns def when id is absent, not when it is zero.
func (a Amounts) GetOr(id string, def float64) float64 {
	if v, ok := a[id]; ok {
		return v
	}
	return def
}

func (a *Amounts) Set(id string, v float64) {
	if *a == nil {
		*a = Amounts{}
	}
	(*a)[id] = v
}

func (a *Amounts) Add(id string, v float64) {
	a.Set(id, a.Get(id)+v)
}

func (a Amounts) Keys() []string { return sortedKeys(a) }

func (a Amounts) Clone() Amounts {
	if a == nil {
		return nil
	}
	out := make(Amounts, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Counts holds per-id integers (domain points, tiers); a missing key is 0.
type Counts map[string]int

func (c Counts) Get(id string) int { return c[id] }

func (c *Counts) Set(id string, v int) {
	if *c == nil {
		*c = Counts{}
	}
	(*c)[id] = v
}

func (c *Counts) Add(id string, v int) { c.Set(id, c.Get(id)+v) }

func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

func (c Counts) Clone() Counts {
	if c == nil {
		return nil
	}
	out := make(Counts, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Flags is a set of named booleans; a missing key is unset.
type Flags map[string]bool

func (f Flags) Has(id string) bool { return f[id] }

func (f *Flags) Set(id string, v bool) {
	if *f == nil {
		*f = Flags{}
	}
	(*f)[id] = v
}

func (f Flags) Clone() Flags {
	if f == nil {
		return nil
	}
	out := make(Flags, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Times maps ids to instants (cooldowns, alert marks).
type Times map[string]time.Time

func (t Times) Get(id string) (time.Time, bool) {
	v, ok := t[id]
	return v, ok
}

// ActiveAt reports whether id has a recorded instant strictly after now.
func (t Times) ActiveAt(id string, now time.Time) bool {
	v, ok := t[id]
	return ok && v.After(now)
}

func (t *Times) Set(id string, v time.Time) {
	if *t == nil {
		*t = Times{}
	}
	(*t)[id] = v
}

func (t Times) Clone() Times {
	if t == nil {
		return nil
	}
	out := make(Times, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Strings maps slot ids to definition ids.
type Strings map[string]string

func (s *Strings) Set(id, v string) {
	if *s == nil {
		*s = Strings{}
	}
	(*s)[id] = v
}

func (s Strings) Keys() []string { return sortedKeys(s) }

func (s Strings) Clone() Strings {
	if s == nil {
		return nil
	}
	out := make(Strings, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
