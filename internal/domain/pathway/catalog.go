// Package pathway represents curated pathway catalogs: named sets of
// molecule identifiers, their display names, and coverage accounting against
// measured omics columns.
package pathway

import (
	"github.com/turtacn/OmicsPath-Intelligence/pkg/errors"
)

// Entry is one pathway definition: a stable identifier, a human-readable
// display name, and the molecule identifiers the pathway contains.
type Entry struct {
	ID        string
	Name      string
	Molecules []string
}

// Catalog is an ordered, immutable pathway-to-molecule mapping.
type Catalog struct {
	ids       []string
	names     map[string]string
	molecules map[string][]string
}

// FromEntries builds a Catalog preserving entry order.  Duplicate pathway
// identifiers are rejected.  Molecule identifiers need not appear in any
// omics table; coverage may legitimately be zero.
func FromEntries(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		ids:       make([]string, 0, len(entries)),
		names:     make(map[string]string, len(entries)),
		molecules: make(map[string][]string, len(entries)),
	}
	for _, e := range entries {
		if e.ID == "" {
			return nil, errors.New(errors.ErrCodeValidation, "pathway entry has an empty identifier")
		}
		if _, ok := c.names[e.ID]; ok {
			return nil, errors.New(errors.ErrCodeValidation, "duplicate pathway identifier").WithDetail(e.ID)
		}
		c.ids = append(c.ids, e.ID)
		c.names[e.ID] = e.Name
		c.molecules[e.ID] = append([]string(nil), e.Molecules...)
	}
	return c, nil
}

// Len returns the number of pathways.
func (c *Catalog) Len() int { return len(c.ids) }

// IDs returns the pathway identifiers in catalog order.
func (c *Catalog) IDs() []string { return append([]string(nil), c.ids...) }

// Has reports whether the catalog contains the pathway.
func (c *Catalog) Has(id string) bool {
	_, ok := c.names[id]
	return ok
}

// Name returns the display name of the pathway, falling back to the
// identifier itself when no name is recorded.
func (c *Catalog) Name(id string) string {
	if n, ok := c.names[id]; ok && n != "" {
		return n
	}
	return id
}

// Molecules returns a copy of the molecule identifiers of the pathway.
func (c *Catalog) Molecules(id string) []string {
	return append([]string(nil), c.molecules[id]...)
}

// MoleculeUnion resolves the deduplicated union of molecule identifiers of
// the designated pathways, preserving first-occurrence order.  An unknown
// pathway identifier fails with ErrCodePathwayNotFound.
func (c *Catalog) MoleculeUnion(ids []string) ([]string, error) {
	seen := make(map[string]struct{})
	union := make([]string, 0)
	for _, id := range ids {
		mols, ok := c.molecules[id]
		if !ok {
			return nil, errors.New(errors.ErrCodePathwayNotFound,
				"designated pathway is absent from the catalog").WithDetail(id)
		}
		for _, m := range mols {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			union = append(union, m)
		}
	}
	return union, nil
}

// Coverage maps pathway identifier to the count of distinct molecules, over
// all supplied column sets combined, that belong to the pathway.
type Coverage map[string]int

// Coverage counts, for every pathway, the distinct molecules present in the
// union of the supplied column sets.  A pathway with no measured molecule
// has coverage 0.
func (c *Catalog) Coverage(columnSets ...[]string) Coverage {
	measured := make(map[string]struct{})
	for _, cols := range columnSets {
		for _, col := range cols {
			measured[col] = struct{}{}
		}
	}
	cov := make(Coverage, len(c.ids))
	for _, id := range c.ids {
		n := 0
		seen := make(map[string]struct{})
		for _, m := range c.molecules[id] {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			if _, ok := measured[m]; ok {
				n++
			}
		}
		cov[id] = n
	}
	return cov
}
