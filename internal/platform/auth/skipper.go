package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists URL paths that bypass authentication: health checks for
// the load balancer, and the SMS gateway delivery callback, which is
// authenticated out of band by an IP allowlist at the edge.
var publicPaths = map[string]bool{
	"/health":                           true,
	"/health/db":                        true,
	"/api/v1/reminders/delivery-report": true,
}

// AuthSkipper returns true for requests whose path should skip bearer-token
// authentication. JWTMiddleware consults it before demanding a token.
func AuthSkipper(c echo.Context) bool {
	return publicPaths[c.Path()]
}

// IsPublicPath reports whether the given path is a public infrastructure
// endpoint that bypasses auth.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
