package websocket

import (
	"encoding/json"
	"sync"

	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

// ConnectionManager tracks live viewers per item and fans price updates
// out to them. Connections are read-only subscribers; bids travel over
// the HTTP API.
type ConnectionManager struct {
	connections map[int64]map[*Connection]struct{} // itemID -> connections
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[int64]map[*Connection]struct{}),
		log:         log,
	}
}

func (cm *ConnectionManager) Register(itemID int64, conn *Connection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[itemID] == nil {
		cm.connections[itemID] = make(map[*Connection]struct{})
	}
	cm.connections[itemID][conn] = struct{}{}

	cm.log.Info("viewer connected", "item_id", itemID, "viewers", len(cm.connections[itemID]))
}

func (cm *ConnectionManager) Unregister(itemID int64, conn *Connection) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if itemConns, exists := cm.connections[itemID]; exists {
		delete(itemConns, conn)
		if len(itemConns) == 0 {
			delete(cm.connections, itemID)
		}
	}

	cm.log.Info("viewer disconnected", "item_id", itemID)
}

// BroadcastToItem sends message to every viewer of the item. Send
// failures are logged and skipped; live updates are best-effort.
func (cm *ConnectionManager) BroadcastToItem(itemID int64, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	cm.mutex.RLock()
	conns := make([]*Connection, 0, len(cm.connections[itemID]))
	for conn := range cm.connections[itemID] {
		conns = append(conns, conn)
	}
	cm.mutex.RUnlock()

	for _, conn := range conns {
		if err := conn.Send(payload); err != nil {
			cm.log.Error("failed to send price update", "item_id", itemID, "error", err)
		}
	}

	return nil
}

func (cm *ConnectionManager) CloseAll() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for itemID, itemConns := range cm.connections {
		for conn := range itemConns {
			if err := conn.Close(); err != nil {
				cm.log.Error("failed to close connection", "item_id", itemID, "error", err)
			}
		}
		delete(cm.connections, itemID)
	}
}
