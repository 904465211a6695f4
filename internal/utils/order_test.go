package utils

import (
	"regexp"
	"testing"
)

func TestNewOrderNumberFormat(t *testing.T) {
	re := regexp.MustCompile(`^TIL-[0-9A-F]{12}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		if !re.MatchString(n) {
			t.Fatalf("order number %q does not match TIL-XXXXXXXXXXXX", n)
		}
		if seen[n] {
			t.Fatalf("duplicate order number %q", n)
		}
		seen[n] = true
	}
}

func TestNewConfirmationToken(t *testing.T) {
	a, err := NewConfirmationToken()
	if err != nil {
		t.Fatalf("NewConfirmationToken: %v", err)
	}
	b, err := NewConfirmationToken()
	if err != nil {
		t.Fatalf("NewConfirmationToken: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("two tokens should never collide")
	}
}
