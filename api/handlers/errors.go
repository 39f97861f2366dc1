package handlers

import (
	"example.com/coldchain/internal/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// isNotFound reports whether an error means the target record is missing
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}
