package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chalkydri/chalkydri-cfg/internal/logging"
	"github.com/chalkydri/chalkydri-cfg/internal/monitor"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// handleWebSocket streams monitor snapshots to the client. The current
// snapshot is sent immediately, then every new one as the monitor ticks.
// Snapshots a slow client misses are dropped.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("Failed to upgrade to WebSocket",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	remoteAddr := conn.RemoteAddr().String()
	s.wg.Add(1)
	defer s.wg.Done()

	s.track(remoteAddr, conn)
	defer func() {
		s.untrack(remoteAddr)
		_ = conn.Close()
		logging.Debug("WebSocket observer disconnected", zap.String("remote_addr", remoteAddr))
	}()
	logging.Debug("WebSocket observer connected", zap.String("remote_addr", remoteAddr))

	states, unsubscribe := s.monitor.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go readPump(conn, closed)

	if err := writeState(conn, s.monitor.State()); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case state, ok := <-states:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			if err := writeState(conn, state); err != nil {
				logging.Debug("Failed to write state",
					zap.String("remote_addr", remoteAddr),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeState(conn *websocket.Conn, state monitor.State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(state)
}

// readPump discards client messages and closes closed when the peer goes away.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}
