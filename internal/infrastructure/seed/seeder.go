package seed

import (
	"context"
	"fmt"

	"github.com/blackreaper-app/blackreaper-engine/internal/infrastructure/persistence/postgres"
	"github.com/blackreaper-app/blackreaper-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DATABASE SEEDER
// ══════════════════════════════════════════════════════════════════════════════

// Seeder installs the built-in catalogs into the database. Inserts use
// ON CONFLICT DO NOTHING, so running the seeder on every startup is safe and
// operator edits to existing rows survive.
type Seeder struct {
	conn *postgres.Connection
	log  *logger.Logger
}

// NewSeeder creates a catalog seeder.
func NewSeeder(conn *postgres.Connection, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Default()
	}
	return &Seeder{
		conn: conn,
		log:  log.With(logger.String("component", "seeder")),
	}
}

// Run installs both catalogs. It stops at the first error; partially seeded
// catalogs are harmless because a rerun completes the rest.
func (s *Seeder) Run(ctx context.Context) error {
	inserted, err := s.seedAchievements(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed achievement catalog: %w", err)
	}
	s.log.Info("achievement catalog seeded", logger.Int64("inserted", inserted))

	inserted, err = s.seedOpponents(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed opponent catalog: %w", err)
	}
	s.log.Info("opponent catalog seeded", logger.Int64("inserted", inserted))

	return nil
}

func (s *Seeder) seedAchievements(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO achievement_catalog
			(id, name, description, icon, category, metric, threshold, reward_rc, reward_xp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	var inserted int64
	for _, def := range DefaultAchievements() {
		tag, err := s.conn.Exec(ctx, query,
			def.ID.String(), def.Name, def.Description, def.Icon, def.Category,
			def.Metric.String(), def.Threshold, def.RewardRC, def.RewardXP,
		)
		if err != nil {
			return inserted, fmt.Errorf("achievement %s: %w", def.ID.String(), err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func (s *Seeder) seedOpponents(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO opponent_catalog
			(id, name, rank, power, speed, rc_min, rc_max)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	var inserted int64
	for _, def := range DefaultOpponents() {
		tag, err := s.conn.Exec(ctx, query,
			def.ID.String(), def.Name, def.Rank.String(), def.Power, def.Speed, def.RCMin, def.RCMax,
		)
		if err != nil {
			return inserted, fmt.Errorf("opponent %s: %w", def.ID.String(), err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
