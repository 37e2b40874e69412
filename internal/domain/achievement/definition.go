// Package achievement contains the achievement reference catalog and the
// evaluator that unlocks achievements at most once per user.
package achievement

import (
	"sort"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT DEFINITIONS (reference data, immutable)
// ══════════════════════════════════════════════════════════════════════════════

// Definition describes one achievement: a threshold on a lifetime counter and
// the reward granted when a user crosses it. Definitions are loaded once at
// startup and never mutated by user actions.
type Definition struct {
	ID          shared.AchievementID
	Name        string
	Description string
	Icon        string
	Category    string

	// Metric - the counter this achievement tracks.
	Metric shared.Metric

	// Threshold - counter value at which the achievement unlocks. Always > 0.
	Threshold int64

	// RewardRC - RC cells granted on unlock (may be zero).
	RewardRC int64

	// RewardXP - XP granted on unlock (may be zero).
	RewardXP int64
}

// Validate checks the definition invariants.
func (d Definition) Validate() error {
	if d.ID.IsEmpty() {
		return shared.NewDomainError("achievement", "Validate", shared.ErrEmptyValue, "achievement ID is required")
	}
	if !d.Metric.IsValid() && !d.Metric.IsDerived() {
		return shared.NewDomainError("achievement", "Validate", shared.ErrInvalidInput, "unknown metric "+d.Metric.String())
	}
	if d.Threshold <= 0 {
		return shared.NewDomainError("achievement", "Validate", shared.ErrValueOutOfRange, "threshold must be positive")
	}
	if d.RewardRC < 0 || d.RewardXP < 0 {
		return shared.NewDomainError("achievement", "Validate", shared.ErrNegativeValue, "rewards cannot be negative")
	}
	return nil
}

// Qualifies reports whether a counter value meets this achievement's threshold.
func (d Definition) Qualifies(value int64) bool {
	return value >= d.Threshold
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// Catalog is the immutable lookup table of achievement definitions, indexed
// by ID and by metric. Built once; read-only thereafter.
type Catalog struct {
	byID     map[shared.AchievementID]Definition
	byMetric map[shared.Metric][]Definition
}

// NewCatalog builds a catalog from definitions. Invalid definitions are
// rejected so a bad seed cannot poison evaluation.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		byID:     make(map[shared.AchievementID]Definition, len(defs)),
		byMetric: make(map[shared.Metric][]Definition),
	}
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, exists := c.byID[def.ID]; exists {
			return nil, shared.NewDomainError("achievement", "NewCatalog", shared.ErrAlreadyExists, "duplicate achievement ID "+def.ID.String())
		}
		c.byID[def.ID] = def
		c.byMetric[def.Metric] = append(c.byMetric[def.Metric], def)
	}
	// Evaluate lowest thresholds first so unlock order is deterministic.
	for metric := range c.byMetric {
		defs := c.byMetric[metric]
		sort.Slice(defs, func(i, j int) bool { return defs[i].Threshold < defs[j].Threshold })
	}
	return c, nil
}

// Get returns a definition by ID.
func (c *Catalog) Get(id shared.AchievementID) (Definition, bool) {
	def, ok := c.byID[id]
	return def, ok
}

// ByMetric returns all definitions tracking a metric, lowest threshold first.
func (c *Catalog) ByMetric(metric shared.Metric) []Definition {
	return c.byMetric[metric]
}

// All returns every definition keyed by ID.
func (c *Catalog) All() map[shared.AchievementID]Definition {
	out := make(map[shared.AchievementID]Definition, len(c.byID))
	for id, def := range c.byID {
		out[id] = def
	}
	return out
}

// Len returns the number of definitions in the catalog.
func (c *Catalog) Len() int {
	return len(c.byID)
}
