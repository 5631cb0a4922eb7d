package memberkit

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// Transaction executes fn within a database transaction with automatic commit/rollback.
// fn receives a Service bound to the transaction; use it for every statement that
// must commit or roll back together.
//
// Example:
//
//	err := service.Transaction(ctx, func(ctx context.Context, tx *memberkit.Service) error {
//	    if err := tx.AssignRole(ctx, "user1", memberkit.RoleEventsAdmin); err != nil {
//	        return err // This will cause a rollback
//	    }
//	    return tx.SetRegistrationStatus(ctx, "user1", memberkit.StatusApproved)
//	})
func (s *Service) Transaction(ctx context.Context, fn func(ctx context.Context, tx *Service) error) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		// Already in a transaction, use a savepoint
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.withDB(tx))
		})
	case *dbkit.DBKit:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, s.withDB(tx))
		})
	default:
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	result := "commit"
	if err != nil {
		result = "rollback"
	}
	TransactionDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())

	return err
}
