package department

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

const (
	minNameLength = 3
	maxNameLength = 100
)

// ValidateName trims name and checks its length.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < minNameLength {
		return "", apperr.Validation("name", fmt.Sprintf("name must be at least %d characters", minNameLength))
	}
	if n > maxNameLength {
		return "", apperr.Validation("name", fmt.Sprintf("name exceeds %d characters", maxNameLength))
	}
	return name, nil
}
