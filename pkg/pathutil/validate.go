// Package pathutil provides volume name validation for volinit.
package pathutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/volinit-project/volinit/pkg/errclass"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateVolumeName checks that a candidate volume basename is safe to
// operate on. Anything outside the expected shape is treated the same as a
// structural violation.
func ValidateVolumeName(name string) error {
	if name == "" {
		return errclass.ErrNameInvalid.WithMessage("volume name must not be empty")
	}

	// NFC normalize
	name = norm.NFC.String(name)

	if name == ".." || strings.Contains(name, "..") {
		return errclass.ErrNameInvalid.WithMessagef("volume name must not contain '..': %s", name)
	}

	if strings.ContainsAny(name, "/\\") {
		return errclass.ErrNameInvalid.WithMessagef("volume name must not contain separators: %s", name)
	}

	// Check for control characters
	for _, r := range name {
		if unicode.IsControl(r) {
			return errclass.ErrNameInvalid.WithMessagef("volume name must not contain control characters: %q", name)
		}
	}

	if !nameRegex.MatchString(name) {
		return errclass.ErrNameInvalid.WithMessagef("volume name must match [a-zA-Z0-9._-]+: %s", name)
	}

	return nil
}
