package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Connection wraps a gorilla websocket with a write lock; gorilla allows
// only one concurrent writer per connection.
type Connection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func NewConnection(conn *websocket.Conn) *Connection {
	return &Connection{conn: conn}
}

func (c *Connection) Send(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) Close() error {
	return c.conn.Close()
}
