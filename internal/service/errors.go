package service

import (
	"errors"
	"fmt"

	"github.com/godilite/freshness-server/internal/repository"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrLocationNotFound = errors.New("location not found")
	ErrStorageFailure   = errors.New("storage failure")
)

// ledgerError maps repository errors onto service sentinels.
func ledgerError(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrLocationNotFound):
		return fmt.Errorf("%s: %w", op, ErrLocationNotFound)
	case errors.Is(err, repository.ErrInvalidScore), errors.Is(err, repository.ErrInvalidCoordinate):
		return fmt.Errorf("%s: %w: %v", op, ErrValidation, err)
	default:
		return fmt.Errorf("%s: %w: %v", op, ErrStorageFailure, err)
	}
}
