package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Session is the per-connection state handed to every handler. A zero
// SettlementID means the connection is not logged in.
type Session struct {
	ConnID       string
	SettlementID string
	Username     string
}

func (s *Session) Bind(settlementID, username string) {
	s.SettlementID = settlementID
	s.Username = username
}

func (s *Session) Clear() {
	s.SettlementID = ""
	s.Username = ""
}

type Sender interface {
	Send(msg any) error
}

// connSender serialises writes; gorilla connections allow one writer at a time.
type connSender struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func (c *connSender) Send(msg any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteJSON(msg)
}
