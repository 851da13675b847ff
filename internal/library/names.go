package library

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/folio/internal/apperr"
)

var nameRules = []validation.Rule{
	validation.Required,
	validation.Length(1, 255),
	validation.By(func(value interface{}) error {
		s, _ := value.(string)
		switch {
		case s == "." || s == "..":
			return errors.New("must not be a relative path element")
		case strings.ContainsAny(s, `/\`):
			return errors.New("must not contain path separators")
		case strings.ContainsRune(s, 0):
			return errors.New("must not contain NUL")
		case strings.TrimSpace(s) != s:
			return errors.New("must not start or end with whitespace")
		}
		return nil
	}),
}

// ValidateName checks that name is usable as a single path element for a
// directory, a document title or an imported file name.
func ValidateName(name string) error {
	if err := validation.Validate(name, nameRules...); err != nil {
		return fmt.Errorf("%w: %q: %v", apperr.ErrInvalidName, name, err)
	}
	return nil
}
