package postgres

import (
	"context"
	"fmt"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/achievement"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository loads the reference catalogs. Catalogs are read once at
// startup; a load failure is reported to the caller, which degrades the
// feature instead of crashing.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// LoadAchievements reads and validates the achievement catalog.
func (r *CatalogRepository) LoadAchievements(ctx context.Context) (*achievement.Catalog, error) {
	query := `
		SELECT id, name, description, icon, category, metric, threshold, reward_rc, reward_xp
		FROM achievement_catalog
		ORDER BY metric, threshold
	`
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: achievements: %v", shared.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	defs := make([]achievement.Definition, 0)
	for rows.Next() {
		var (
			def    achievement.Definition
			id     string
			metric string
		)
		err := rows.Scan(&id, &def.Name, &def.Description, &def.Icon, &def.Category,
			&metric, &def.Threshold, &def.RewardRC, &def.RewardXP)
		if err != nil {
			return nil, fmt.Errorf("%w: achievements: %v", shared.ErrCatalogUnavailable, err)
		}
		def.ID = shared.AchievementID(id)
		def.Metric = shared.Metric(metric)
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: achievements: %v", shared.ErrCatalogUnavailable, err)
	}

	return achievement.NewCatalog(defs)
}

// LoadOpponents reads and validates the opponent catalog.
func (r *CatalogRepository) LoadOpponents(ctx context.Context) (*battle.Catalog, error) {
	query := `
		SELECT id, name, rank, power, speed, rc_min, rc_max
		FROM opponent_catalog
		ORDER BY id
	`
	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: opponents: %v", shared.ErrCatalogUnavailable, err)
	}
	defer rows.Close()

	defs := make([]battle.OpponentDefinition, 0)
	for rows.Next() {
		var (
			def  battle.OpponentDefinition
			id   string
			rank string
		)
		if err := rows.Scan(&id, &def.Name, &rank, &def.Power, &def.Speed, &def.RCMin, &def.RCMax); err != nil {
			return nil, fmt.Errorf("%w: opponents: %v", shared.ErrCatalogUnavailable, err)
		}
		def.ID = shared.OpponentID(id)
		def.Rank = shared.Rank(rank)
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: opponents: %v", shared.ErrCatalogUnavailable, err)
	}

	return battle.NewCatalog(defs)
}
