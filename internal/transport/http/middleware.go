package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/dmrelay/internal/auth"
	"github.com/vovakirdan/dmrelay/internal/core"
	"github.com/vovakirdan/dmrelay/internal/metrics"
	"github.com/vovakirdan/dmrelay/internal/proto"
)

// ContextKeyIdentity is the gin context key holding the admitted core.Identity.
const ContextKeyIdentity = "identity"

// AdmissionMiddleware verifies the connection credential before the websocket upgrade.
// The token comes from the "token" query parameter, or an Authorization bearer header.
func AdmissionMiddleware(verifier *auth.Verifier, m *metrics.Metrics, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := verifier.Verify(tokenFromRequest(c))
		if err != nil {
			m.AuthFailed()
			logger.Debug().Err(err).Str("remote_addr", c.ClientIP()).Msg("connection refused")
			c.AbortWithStatusJSON(http.StatusUnauthorized, proto.Error{Error: "Authentication error"})
			return
		}

		c.Set(ContextKeyIdentity, identity)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func identityFromContext(c *gin.Context) (core.Identity, bool) {
	v, ok := c.Get(ContextKeyIdentity)
	if !ok {
		return core.Identity{}, false
	}
	identity, ok := v.(core.Identity)
	return identity, ok
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request
		c.Next()

		// Log after request
		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
