// requestid.go tags every request with an identifier so page renders, API
// calls, and docs downloads can be correlated across log entries.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates the request identifier to and from clients.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key holding the request ID string.
	RequestIDKey = "request_id"

	// maxRequestIDLen caps inbound identifiers; anything longer is replaced.
	maxRequestIDLen = 128
)

// RequestIDMiddleware ensures every request carries an identifier. A
// well-formed inbound X-Request-ID (from a load balancer or gateway) is
// reused so traces stay continuous across hops; anything else gets a fresh
// UUID. The ID is stored under RequestIDKey for the logging middleware and
// echoed in the response header for the client.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

// validRequestID accepts identifiers of bounded length built from URL-safe
// characters. Inbound values end up in response headers and log records, so
// control characters and separators are never passed through.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch c := id[i]; {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
