package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewOrderNumber returns a unique human-facing order reference of the form
// TIL-XXXXXXXXXXXX, built from a fresh UUID. The TIL prefix matches the
// order references printed on invoices ("tilaus").
func NewOrderNumber() string {
	u := uuid.New()
	compact := strings.ToUpper(strings.ReplaceAll(u.String(), "-", ""))
	return "TIL-" + compact[:12]
}

// NewConfirmationToken returns the single-use random token embedded in the
// confirmation email link. 32 bytes of entropy, 64 hex characters; long
// enough that guessing is not a concern and safe to place in a URL path.
func NewConfirmationToken() (string, error) {
	return RandomHex(32)
}
