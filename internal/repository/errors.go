package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
)

// isDuplicateKey recognizes unique-constraint violations. gorm translates
// them when TranslateError is on; the message check covers connections
// opened without it.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "Error 1062")
}

// notFound turns gorm.ErrRecordNotFound into svcErr.ErrNotFound.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, svcErr.ErrNotFound)
	}
	return err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
