package services

import (
	"errors"
	"roadtrip-planner/internal/domain"
)

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
