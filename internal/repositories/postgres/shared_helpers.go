package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

// AutoMigrate creates or updates the tables owned by this package
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&userRow{}, &credentialRow{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// handleDBError maps gorm errors onto repository sentinels
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s failed: %w", operation, repositories.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s failed: %w", operation, repositories.ErrAlreadyExists)
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}

// unionAppend appends v unless an equal element is already present
func unionAppend[T comparable](list []T, v T) ([]T, bool) {
	for _, existing := range list {
		if existing == v {
			return list, false
		}
	}
	return append(list, v), true
}
