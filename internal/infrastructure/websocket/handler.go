package websocket

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/sanjayvanan/IntelliBid/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Handler upgrades viewers onto the live price feed for an item.
type Handler struct {
	connManager *ConnectionManager
	log         logger.Logger
}

func NewHandler(connManager *ConnectionManager, log logger.Logger) *Handler {
	return &Handler{
		connManager: connManager,
		log:         log,
	}
}

func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	itemID, err := strconv.ParseInt(vars["itemID"], 10, 64)
	if err != nil {
		http.Error(w, "invalid item id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewConnection(conn)
	h.connManager.Register(itemID, wsConn)

	go h.drain(wsConn, itemID)
}

// drain keeps the read side alive so close frames are processed; inbound
// messages are ignored, bids come in over HTTP.
func (h *Handler) drain(conn *Connection, itemID int64) {
	defer func() {
		h.connManager.Unregister(itemID, conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.conn.ReadMessage(); err != nil {
			return
		}
	}
}
