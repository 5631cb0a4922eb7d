package memberkit

import (
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpenConnections    int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
	ConnectionMaxIdleTime time.Duration
}

// DefaultPoolConfig returns pool settings suited to a single API instance.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConnections:    25,
		MaxIdleConnections:    5,
		ConnectionMaxLifetime: 30 * time.Minute,
		ConnectionMaxIdleTime: 5 * time.Minute,
	}
}

// Validate checks the settings are usable.
func (c PoolConfig) Validate() error {
	if c.MaxOpenConnections <= 0 {
		return fmt.Errorf("max open connections must be positive, got %d", c.MaxOpenConnections)
	}
	if c.MaxIdleConnections < 0 || c.MaxIdleConnections > c.MaxOpenConnections {
		return fmt.Errorf("max idle connections must be between 0 and %d, got %d",
			c.MaxOpenConnections, c.MaxIdleConnections)
	}
	return nil
}

// ConfigurePool updates the database connection pool settings.
func (s *Service) ConfigurePool(config PoolConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	db, ok := s.db.(*dbkit.DBKit)
	if !ok {
		return fmt.Errorf("connection pool configuration requires a dbkit.DBKit instance")
	}
	bunDB := db.Bun()
	if bunDB == nil {
		return fmt.Errorf("database instance not available")
	}

	bunDB.SetMaxOpenConns(config.MaxOpenConnections)
	bunDB.SetMaxIdleConns(config.MaxIdleConnections)
	bunDB.SetConnMaxLifetime(config.ConnectionMaxLifetime)
	bunDB.SetConnMaxIdleTime(config.ConnectionMaxIdleTime)

	s.logger.Info().
		Int("max_open", config.MaxOpenConnections).
		Int("max_idle", config.MaxIdleConnections).
		Dur("max_lifetime", config.ConnectionMaxLifetime).
		Dur("max_idle_time", config.ConnectionMaxIdleTime).
		Msg("connection pool configured")

	return nil
}
