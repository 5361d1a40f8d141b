package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vitos/crypto_trade_zones/internal/domain"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 10 * time.Second

// handleZonesWS pushes the latest stored run for a symbol on connect and
// again whenever a run with a new ID appears.
func (s *Server) handleZonesWS(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	interval := s.interval(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := s.logger.With(zap.String("symbol", symbol), zap.String("interval", interval))
	log.Debug("Websocket client connected")

	// Reads only detect the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := r.Context()
	var lastID string
	push := func() bool {
		run, err := s.service.Latest(ctx, symbol, interval)
		if errors.Is(err, domain.ErrRunNotFound) {
			return true
		}
		if err != nil {
			log.Error("Failed to load zones for websocket", zap.Error(err))
			return true
		}
		if run.ID == lastID {
			return true
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(run); err != nil {
			log.Debug("Websocket write failed", zap.Error(err))
			return false
		}
		lastID = run.ID
		return true
	}

	if !push() {
		return
	}

	ticker := time.NewTicker(s.wsPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !push() {
				return
			}
		case <-closed:
			log.Debug("Websocket client disconnected")
			return
		}
	}
}
