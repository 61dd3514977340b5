package persistence

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/fieldcrm/backend/internal/domain/shared"
)

// contentionMarkers identify transient lock and serialization failures
// across the supported drivers (postgres error codes, sqlite busy states).
// Matching on message text is deliberate: the gorm drivers do not expose
// a common typed error for these.
var contentionMarkers = []string{
	"SQLSTATE 40001", // serialization_failure
	"SQLSTATE 40P01", // deadlock_detected
	"SQLSTATE 55P03", // lock_not_available
	"database is locked",
	"database table is locked",
}

// classifyWriteError maps driver errors onto domain errors so callers can
// distinguish retryable contention from permanent failures
func classifyWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	msg := err.Error()
	for _, marker := range contentionMarkers {
		if strings.Contains(msg, marker) {
			return shared.ErrConcurrencyConflict
		}
	}
	if strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed") {
		return shared.ErrAlreadyExists
	}
	return err
}
