// Package battle resolves fights between a user and catalog opponents and
// feeds the outcome into the RC economy.
package battle

import (
	"fmt"
	"sort"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// OPPONENT CATALOG
// Reference data loaded at startup. Immutable for the process lifetime; a
// failed load disables battles rather than crashing the engine.
// ══════════════════════════════════════════════════════════════════════════════

// OpponentDefinition is a single fightable opponent.
type OpponentDefinition struct {
	ID    shared.OpponentID
	Name  string
	Rank  shared.Rank
	Power int64
	Speed int64

	// RCMin and RCMax bound the base win reward before the rank bonus.
	RCMin int64
	RCMax int64
}

// Validate checks definition integrity at catalog load time.
func (o OpponentDefinition) Validate() error {
	if o.ID.IsEmpty() {
		return shared.NewDomainError("battle", "Validate", shared.ErrEmptyValue, "opponent id is required")
	}
	if o.Name == "" {
		return shared.NewDomainError("battle", "Validate", shared.ErrEmptyValue, "opponent name is required")
	}
	if !o.Rank.IsValid() {
		return shared.NewDomainError("battle", "Validate", shared.ErrInvalidInput,
			fmt.Sprintf("unknown rank %q for opponent %s", o.Rank, o.ID))
	}
	if o.Power < 0 || o.Speed < 0 {
		return shared.NewDomainError("battle", "Validate", shared.ErrValueOutOfRange, "stats must be non-negative")
	}
	if o.RCMin < 0 || o.RCMax < o.RCMin {
		return shared.NewDomainError("battle", "Validate", shared.ErrValueOutOfRange, "reward range is inverted")
	}
	return nil
}

// Catalog is the validated, immutable set of opponents.
type Catalog struct {
	byID    map[shared.OpponentID]OpponentDefinition
	ordered []OpponentDefinition
}

// NewCatalog validates the definitions and indexes them. Ordering is by rank
// then power so listings read easiest-first.
func NewCatalog(defs []OpponentDefinition) (*Catalog, error) {
	c := &Catalog{
		byID:    make(map[shared.OpponentID]OpponentDefinition, len(defs)),
		ordered: make([]OpponentDefinition, 0, len(defs)),
	}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, shared.NewDomainError("battle", "NewCatalog", shared.ErrAlreadyExists,
				fmt.Sprintf("duplicate opponent id %s", def.ID))
		}
		c.byID[def.ID] = def
		c.ordered = append(c.ordered, def)
	}
	sort.SliceStable(c.ordered, func(i, j int) bool {
		ri, rj := c.ordered[i].Rank.Order(), c.ordered[j].Rank.Order()
		if ri != rj {
			return ri < rj
		}
		return c.ordered[i].Power < c.ordered[j].Power
	})
	return c, nil
}

// Get returns the opponent definition for id.
func (c *Catalog) Get(id shared.OpponentID) (OpponentDefinition, error) {
	def, ok := c.byID[id]
	if !ok {
		return OpponentDefinition{}, shared.ErrOpponentNotFound
	}
	return def, nil
}

// All returns the opponents in listing order. The returned slice is shared;
// callers must not modify it.
func (c *Catalog) All() []OpponentDefinition {
	return c.ordered
}

// Len returns the number of opponents.
func (c *Catalog) Len() int {
	return len(c.byID)
}
