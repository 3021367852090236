package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The API already serves CORS allow-all; the socket follows suit.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const wsWriteTimeout = 10 * time.Second

// wsObserver adapts one WebSocket connection to the hub. Broadcasts
// and the initial push can race, so writes serialize on a mutex.
type wsObserver struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (o *wsObserver) Send(snap domain.LiveSnapshot) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return o.conn.WriteJSON(snap)
}

// handleWS upgrades the connection and registers it with the hub. The
// channel is server-push only: inbound frames are read and discarded,
// serving purely as liveness; the first read error tears the observer
// down.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Logger.Warn("ws_upgrade_failed", zap.Error(err))
		return
	}

	obs := &wsObserver{conn: conn}
	s.Hub.Register(obs)
	s.Logger.Info("ws_connected", zap.String("remote", r.RemoteAddr))

	defer func() {
		s.Hub.Unregister(obs)
		conn.Close()
		s.Logger.Info("ws_disconnected", zap.String("remote", r.RemoteAddr))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
