package middleware

// identity.go holds helpers shared by the cache and rate-limit
// middleware for attributing a request to a caller.

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID renders the authenticated user as a string for use in
// Redis keys.  JWT numeric claims arrive as float64; unauthenticated
// requests attribute to "anon".
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%.0f", v)
	case uint64:
		return fmt.Sprintf("%d", v)
	}
	return "anon"
}
