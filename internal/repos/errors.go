package repos

import (
	"errors"

	"gorm.io/gorm"
)

// notFound reports whether err is gorm's missing-row sentinel. Single-row
// getters map missing rows to a nil result so callers can branch on absence
// without importing gorm.
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
