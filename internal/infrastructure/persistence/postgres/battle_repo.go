package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackreaper-app/blackreaper-engine/internal/domain/battle"
	"github.com/blackreaper-app/blackreaper-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BATTLE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// BattleRepository implements battle.Repository for PostgreSQL.
type BattleRepository struct {
	conn *Connection
}

// NewBattleRepository creates a new BattleRepository.
func NewBattleRepository(conn *Connection) *BattleRepository {
	return &BattleRepository{conn: conn}
}

// Append stores a freshly resolved battle record.
func (r *BattleRepository) Append(ctx context.Context, record battle.Record) error {
	query := `
		INSERT INTO battle_history (
			id, user_id, opponent_id, opponent_name, result, rc_delta,
			win_probability, player_power, player_speed, opponent_power,
			opponent_speed, fought_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.conn.Exec(ctx, query,
		record.ID,
		record.UserID.String(),
		record.OpponentID.String(),
		record.OpponentName,
		string(record.Result),
		record.RCDelta,
		record.WinProbability,
		record.PlayerPower,
		record.PlayerSpeed,
		record.OpponentPower,
		record.OpponentSpeed,
		record.FoughtAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append battle record: %w", err)
	}
	return nil
}

// ListByUser returns the user's most recent battles, newest first.
func (r *BattleRepository) ListByUser(ctx context.Context, userID shared.UserID, limit int) ([]battle.Record, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, opponent_id, opponent_name, result, rc_delta, win_probability,
			   player_power, player_speed, opponent_power, opponent_speed, fought_at
		FROM battle_history
		WHERE user_id = $1
		ORDER BY fought_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list battles for %s: %w", userID, err)
	}
	defer rows.Close()

	records := make([]battle.Record, 0, limit)
	for rows.Next() {
		var (
			record     battle.Record
			id         uuid.UUID
			opponentID string
			result     string
			foughtAt   time.Time
		)
		err := rows.Scan(
			&id, &opponentID, &record.OpponentName, &result, &record.RCDelta,
			&record.WinProbability, &record.PlayerPower, &record.PlayerSpeed,
			&record.OpponentPower, &record.OpponentSpeed, &foughtAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan battle row: %w", err)
		}
		record.ID = id
		record.UserID = userID
		record.OpponentID = shared.OpponentID(opponentID)
		record.Result = battle.Result(result)
		record.FoughtAt = foughtAt
		records = append(records, record)
	}
	return records, rows.Err()
}

// CountByUser returns the total number of battles the user has fought.
func (r *BattleRepository) CountByUser(ctx context.Context, userID shared.UserID) (int64, error) {
	var count int64
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM battle_history WHERE user_id = $1`,
		userID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count battles for %s: %w", userID, err)
	}
	return count, nil
}
