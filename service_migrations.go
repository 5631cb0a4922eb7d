package memberkit

import (
	"context"
	"fmt"

	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required by memberkit.
// Use service.Migrate(ctx) or db.Migrate(ctx, service.Migrations()) to run them.
func (s *Service) Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "memberkit-001",
			Description: "Create user_roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS user_roles (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    user_id TEXT NOT NULL,
                    role TEXT NOT NULL,
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    UNIQUE (user_id, role)
                )`,
		},
		{
			ID:          "memberkit-002",
			Description: "Create members table",
			SQL: `
                CREATE TABLE IF NOT EXISTS members (
                    user_id TEXT PRIMARY KEY,
                    email TEXT NOT NULL,
                    registration_status TEXT NOT NULL DEFAULT 'pending',
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    updated_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "memberkit-003",
			Description: "Create role_audit_log table",
			SQL: `
                CREATE TABLE IF NOT EXISTS role_audit_log (
                    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
                    timestamp TIMESTAMPTZ NOT NULL DEFAULT current_timestamp,
                    actor_id TEXT NOT NULL,
                    action TEXT NOT NULL,
                    target_user_id TEXT NOT NULL,
                    role TEXT,
                    status TEXT,
                    actor_roles TEXT[],
                    previous_roles TEXT[],
                    new_roles TEXT[],
                    ip_address TEXT,
                    user_agent TEXT,
                    request_id TEXT
                )`,
		},
		{
			ID:          "memberkit-004",
			Description: "Create indexes",
			SQL: `
                CREATE INDEX IF NOT EXISTS idx_members_status ON members (registration_status);
                CREATE INDEX IF NOT EXISTS idx_audit_target ON role_audit_log (target_user_id, timestamp DESC);
                CREATE INDEX IF NOT EXISTS idx_audit_actor ON role_audit_log (actor_id, timestamp DESC)`,
		},
	}
}

// Migrate applies pending migrations and returns the IDs it applied.
func (s *Service) Migrate(ctx context.Context) ([]string, error) {
	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return nil, fmt.Errorf("migrations require a dbkit.DBKit instance")
	}

	result, err := db.Migrate(ctx, s.Migrations())
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	applied := make([]string, 0, len(result.Applied))
	for _, migration := range result.Applied {
		applied = append(applied, migration.ID)
		s.logger.Info().Str("migration", migration.ID).Msg("applied migration")
	}
	return applied, nil
}
