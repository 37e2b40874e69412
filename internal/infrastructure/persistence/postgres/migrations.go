// Package postgres implements the PostgreSQL persistence layer for the
// BlackReaper engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USER PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create user progress ledger
-- Version: 001

-- One row per user. The version column is the optimistic concurrency token:
-- every committed transaction increments it, and a commit only lands when
-- the version it read is still current. Level and rank are derived from the
-- balance on read and deliberately have no columns here.
CREATE TABLE IF NOT EXISTS user_progress (
    user_id UUID PRIMARY KEY,
    balance BIGINT NOT NULL DEFAULT 0,
    counters JSONB NOT NULL DEFAULT '{}'::jsonb,
    last_login_at TIMESTAMP WITH TIME ZONE,
    version BIGINT NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_balance CHECK (balance >= 0),
    CONSTRAINT valid_version CHECK (version >= 0)
);

CREATE INDEX IF NOT EXISTS idx_user_progress_balance ON user_progress(balance DESC);
CREATE INDEX IF NOT EXISTS idx_user_progress_updated_at ON user_progress(updated_at);
`

const migration001Down = `
DROP TABLE IF EXISTS user_progress;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE ACHIEVEMENT UNLOCKS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create achievement unlocks
-- Version: 002

-- Write-once unlock records. The primary key makes the insert the
-- at-most-once primitive: concurrent evaluations racing on the same
-- threshold resolve to exactly one inserted row via ON CONFLICT DO NOTHING.
CREATE TABLE IF NOT EXISTS achievement_unlocks (
    user_id UUID NOT NULL,
    achievement_id VARCHAR(100) NOT NULL,
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    PRIMARY KEY (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_achievement_unlocks_user ON achievement_unlocks(user_id, unlocked_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS achievement_unlocks;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE BATTLE HISTORY
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create battle history
-- Version: 003

-- Append-only. Rows are inserted at resolution and never updated or
-- deleted; they back the history view and analytics only.
CREATE TABLE IF NOT EXISTS battle_history (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    opponent_id VARCHAR(100) NOT NULL,
    opponent_name VARCHAR(100) NOT NULL,
    result VARCHAR(10) NOT NULL,
    rc_delta BIGINT NOT NULL,
    win_probability DOUBLE PRECISION NOT NULL,
    player_power DOUBLE PRECISION NOT NULL,
    player_speed DOUBLE PRECISION NOT NULL,
    opponent_power BIGINT NOT NULL,
    opponent_speed BIGINT NOT NULL,
    fought_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_result CHECK (result IN ('win', 'loss', 'draw')),
    CONSTRAINT valid_rc_delta CHECK (rc_delta >= 0),
    CONSTRAINT valid_win_probability CHECK (win_probability >= 0 AND win_probability <= 1)
);

CREATE INDEX IF NOT EXISTS idx_battle_history_user ON battle_history(user_id, fought_at DESC);
CREATE INDEX IF NOT EXISTS idx_battle_history_opponent ON battle_history(opponent_id);
`

const migration003Down = `
DROP TABLE IF EXISTS battle_history;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE ACTIVITY FEED
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create activity feed
-- Version: 004

-- Append-only feed entries rendered in the UI and aggregated into daily
-- digests. Detail carries event-specific fields as JSONB.
CREATE TABLE IF NOT EXISTS activity_feed (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    kind VARCHAR(20) NOT NULL,
    source VARCHAR(20) NOT NULL,
    message TEXT NOT NULL,
    delta_rc BIGINT NOT NULL DEFAULT 0,
    detail JSONB,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_kind CHECK (kind IN ('reward', 'level_up', 'achievement', 'battle', 'login'))
);

CREATE INDEX IF NOT EXISTS idx_activity_feed_user ON activity_feed(user_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_activity_feed_kind ON activity_feed(kind);
`

const migration004Down = `
DROP TABLE IF EXISTS activity_feed;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 005: CREATE CATALOGS
// ══════════════════════════════════════════════════════════════════════════════

const migration005Up = `
-- Migration: Create reference catalogs
-- Version: 005

-- Mutable only by operators. The engine reads both tables once at startup;
-- a failed read degrades the feature rather than crashing.
CREATE TABLE IF NOT EXISTS achievement_catalog (
    id VARCHAR(100) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    icon VARCHAR(50) NOT NULL DEFAULT '',
    category VARCHAR(50) NOT NULL DEFAULT '',
    metric VARCHAR(50) NOT NULL,
    threshold BIGINT NOT NULL,
    reward_rc BIGINT NOT NULL DEFAULT 0,
    reward_xp BIGINT NOT NULL DEFAULT 0,

    CONSTRAINT valid_threshold CHECK (threshold > 0),
    CONSTRAINT valid_rewards CHECK (reward_rc >= 0 AND reward_xp >= 0)
);

CREATE INDEX IF NOT EXISTS idx_achievement_catalog_metric ON achievement_catalog(metric, threshold);

CREATE TABLE IF NOT EXISTS opponent_catalog (
    id VARCHAR(100) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    rank VARCHAR(5) NOT NULL,
    power BIGINT NOT NULL,
    speed BIGINT NOT NULL,
    rc_min BIGINT NOT NULL,
    rc_max BIGINT NOT NULL,

    CONSTRAINT valid_stats CHECK (power >= 0 AND speed >= 0),
    CONSTRAINT valid_reward_range CHECK (rc_min >= 0 AND rc_max >= rc_min)
);
`

const migration005Down = `
DROP TABLE IF EXISTS opponent_catalog;
DROP TABLE IF EXISTS achievement_catalog;
`
