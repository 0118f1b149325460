package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/racer/internal/core/observability/log"
)

type client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
}

func (s *Spectator) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", log.Error(err))
		return
	}

	c := &client{
		conn:   conn,
		remote: conn.RemoteAddr().String(),
		send:   make(chan []byte, s.config.SendBuffer),
	}

	s.mu.Lock()
	if len(s.clients) >= s.config.MaxClients {
		s.mu.Unlock()
		msg := websocket.FormatCloseMessage(websocket.CloseTryAgainLater, ErrMaxClientsReached.Error())
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.config.WriteTimeout))
		_ = conn.Close()
		s.logger.Warn("spectator rejected", log.String("remote", c.remote), log.Error(ErrMaxClientsReached))
		return
	}
	s.clients[c] = struct{}{}
	if s.latest != nil {
		c.send <- s.latest
	}
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Info("spectator connected", log.String("remote", c.remote), log.Int("clients", count))

	go s.writePump(c)
	s.readPump(c)
}

// readPump discards inbound traffic; it only exists to notice disconnects
// and answer control frames.
func (s *Spectator) readPump(c *client) {
	defer s.drop(c)
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Spectator) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug("spectator write failed", log.String("remote", c.remote), log.Error(err))
			s.drop(c)
			return
		}
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(s.config.WriteTimeout))
}

func (s *Spectator) drop(c *client) {
	s.mu.Lock()
	s.dropLocked(c)
	s.mu.Unlock()
}

// dropLocked unregisters c and closes its send queue once. s.mu must be held.
func (s *Spectator) dropLocked(c *client) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	s.logger.Info("spectator disconnected", log.String("remote", c.remote), log.Int("clients", len(s.clients)))
}
