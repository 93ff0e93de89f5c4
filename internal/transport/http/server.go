package http

import (
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/dmrelay/internal/auth"
	"github.com/vovakirdan/dmrelay/internal/config"
	"github.com/vovakirdan/dmrelay/internal/core"
	"github.com/vovakirdan/dmrelay/internal/metrics"
	"github.com/vovakirdan/dmrelay/internal/proto"
)

// NewServer builds the HTTP server: liveness, metrics and the websocket endpoint.
func NewServer(hub *core.Hub, verifier *auth.Verifier, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	ws := NewWSHandler(hub, cfg, m, logger)
	router.GET("/ws", AdmissionMiddleware(verifier, m, logger), ws.Handle)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, proto.Health{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
