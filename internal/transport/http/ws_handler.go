package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/dmrelay/internal/config"
	"github.com/vovakirdan/dmrelay/internal/core"
	"github.com/vovakirdan/dmrelay/internal/metrics"
	"github.com/vovakirdan/dmrelay/internal/proto"
)

var errQueueClosed = errors.New("outbound queue closed")

// WSHandler upgrades admitted HTTP connections and bridges them to a core.Session.
type WSHandler struct {
	hub     *core.Hub
	metrics *metrics.Metrics
	log     *zerolog.Logger

	origins         []string
	maxMessageBytes int64
	writeTimeout    time.Duration
	rateLimit       int
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, cfg *config.Config, m *metrics.Metrics, logger *zerolog.Logger) *WSHandler {
	wsLog := logger.With().Str("component", "ws").Logger()
	return &WSHandler{
		hub:             hub,
		metrics:         m,
		log:             &wsLog,
		origins:         cfg.AllowedOrigins,
		maxMessageBytes: cfg.MaxMessageBytes,
		writeTimeout:    cfg.WriteTimeout,
		rateLimit:       cfg.RateLimitPerMinute,
	}
}

func (h *WSHandler) acceptOptions() *websocket.AcceptOptions {
	if len(h.origins) == 0 {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: h.origins}
}

// rawWriter returns the net/http writer under gin's wrapper. websocket.Accept writes
// the 101 header before hijacking, and gin refuses to hijack an already written response.
func rawWriter(w gin.ResponseWriter) stdhttp.ResponseWriter {
	if u, ok := w.(interface{ Unwrap() stdhttp.ResponseWriter }); ok {
		return u.Unwrap()
	}
	return w
}

// Handle runs one connection from upgrade to close.
func (h *WSHandler) Handle(c *gin.Context) {
	identity, ok := identityFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(stdhttp.StatusUnauthorized, proto.Error{Error: "Authentication error"})
		return
	}

	conn, err := websocket.Accept(rawWriter(c.Writer), c.Request, h.acceptOptions())
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	if h.maxMessageBytes > 0 {
		conn.SetReadLimit(h.maxMessageBytes)
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	session, err := h.hub.Open(ctx, identity)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", identity.ID).Msg("open session")
		conn.Close(websocket.StatusTryAgainLater, "server unavailable")
		return
	}
	log := h.log.With().
		Str("user_id", identity.ID).
		Str("conn_id", session.Conn().ID).
		Logger()

	limiter := newRateLimiter(h.rateLimit)
	stop := make(chan struct{})
	limiter.startReset(stop)
	defer close(stop)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session, limiter, &log)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session.Conn(), &log)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	session.Close()

	status := websocket.StatusNormalClosure
	reason := "closing"
	if errors.Is(err, errQueueClosed) {
		status = websocket.StatusGoingAway
		reason = "server shutting down"
		err = nil
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	log.Info().Str("email", identity.Email).Str("reason", reason).Msg("disconnected")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session, limiter *rateLimiter, log *zerolog.Logger) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		if !limiter.allow() {
			h.metrics.EventDropped(metrics.ReasonRateLimit)
			log.Debug().Msg("inbound event dropped: rate limit")
			continue
		}

		var inbound proto.Inbound
		if typ != websocket.MessageText {
			h.metrics.EventDropped(metrics.ReasonDecode)
			log.Debug().Msg("inbound event dropped: binary frame")
			continue
		}
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.metrics.EventDropped(metrics.ReasonDecode)
			log.Debug().Err(err).Msg("inbound event dropped: malformed frame")
			continue
		}

		cmd, err := inboundToCommand(inbound)
		if err != nil {
			h.metrics.EventDropped(metrics.ReasonDecode)
			log.Debug().Err(err).Str("event", inbound.Event).Msg("inbound event dropped")
			continue
		}

		switch err := session.Handle(ctx, cmd); {
		case err == nil:
		case errors.Is(err, core.ErrSessionClosed):
			return nil
		case errors.Is(err, core.ErrValidation):
			log.Debug().Err(err).Str("event", inbound.Event).Msg("inbound event rejected")
		default:
			log.Error().Err(err).Str("event", inbound.Event).Msg("handle inbound event")
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, c *core.Conn, log *zerolog.Logger) error {
	events := c.Events()
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return errQueueClosed
			}
			if err := h.write(ctx, conn, outboundFromEvent(event)); err != nil {
				log.Error().Err(err).Str("event", event.Kind.String()).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) write(ctx context.Context, conn *websocket.Conn, out proto.Outbound) error {
	if h.writeTimeout <= 0 {
		return wsjson.Write(ctx, conn, out)
	}
	writeCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, out)
}
