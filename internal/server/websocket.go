package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/atikulmunna/logsift/internal/matcher"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket streams a fresh report every time the log source reloads.
// The filter is validated before the upgrade so syntax errors get a plain 400.
func (s *Server) handleWebSocket(c *gin.Context) {
	tokens := tokensFromQuery(c)
	if _, err := matcher.NewGrouping(tokens); err != nil {
		writeFilterError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	snaps, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	// Read pump: detect client disconnect.
	go func() {
		defer unsubscribe()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Write pump: one report per snapshot.
	for snap := range snaps {
		report, err := s.runner.Apply(snap, tokens)
		if err != nil {
			_ = conn.WriteJSON(gin.H{"error": err.Error()})
			return
		}
		if report.Lines == nil {
			report.Lines = []string{}
		}
		if err := conn.WriteJSON(report); err != nil {
			slog.Debug("websocket write failed", "err", err)
			return
		}
	}
}
