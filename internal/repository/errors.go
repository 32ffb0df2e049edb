package repository

import (
	"errors"
	"fmt"
	"learnboard_backend/internal/util"

	"gorm.io/gorm"
)

// storeError translates gorm errors into the domain taxonomy. Anything that
// is not an absence or a unique violation is a store failure.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return util.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, util.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w: %w", op, util.ErrStoreUnavailable, err)
	}
}
