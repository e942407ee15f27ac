package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizi-backend/internal/model"
	"github.com/stemsi/quizi-backend/internal/response"
	"github.com/stemsi/quizi-backend/internal/service"
	ws "github.com/stemsi/quizi-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the countdown of a quiz session.
type WSHandler struct {
	quizService *service.QuizSessionService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
	interval    time.Duration
	now         func() time.Time
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(quizService *service.QuizSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		quizService: quizService,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
		interval:    time.Second,
		now:         time.Now,
	}
}

// SessionClock godoc
// WS /ws/v1/sessions/:session_id/clock
// Pushes the remaining seconds once per interval, then an expired event.
// The stream is informational; submissions are accepted after expiry.
func (h *WSHandler) SessionClock(c *gin.Context) {
	sessionID := c.Param("session_id")
	expiresAt, err := h.quizService.Expiry(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
			return
		}
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Load session expiry")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID).Logger()
	wsLog.Debug().Msg("Clock connected")

	// The reader forwards pings and notices disconnects. All writes stay on
	// this goroutine.
	pongs := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				select {
				case pongs <- struct{}{}:
				default:
				}
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		now := h.now()
		if !now.Before(expiresAt) {
			_ = ws.WriteTyped(conn, ws.ExpiredResponse{
				Event:     ws.EventExpired,
				SessionID: sessionID,
				ExpiresAt: expiresAt,
			})
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "expired"),
				time.Now().Add(time.Second))
			return
		}

		err := ws.WriteTyped(conn, ws.TickResponse{
			Event:            ws.EventTick,
			SessionID:        sessionID,
			RemainingSeconds: ws.RemainingSeconds(now, expiresAt),
			ExpiresAt:        expiresAt,
		})
		if err != nil {
			wsLog.Debug().Err(err).Msg("Clock write failed")
			return
		}

		select {
		case <-done:
			return
		case <-pongs:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				return
			}
			// Wait for the next tick after answering.
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		case <-ticker.C:
		}
	}
}
