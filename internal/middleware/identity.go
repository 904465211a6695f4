package middleware

// identity.go defines helper functions shared across middleware files. It
// provides a userID extraction function used by rate-limit key building:
// it pulls the user_id value stored by JWTAuth, falling back to "guest"
// for unauthenticated requests.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// userID extracts a user identifier from the context. It returns "guest"
// when no user is authenticated.
func userID(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "guest"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	case int64:
		return fmt.Sprintf("%d", t)
	}
	return "guest"
}
