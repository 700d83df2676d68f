package websocket

import (
	"encoding/json"
	"sync"

	"auction-engine/pkg/logger"

	"github.com/gorilla/websocket"
)

// conn wraps a websocket connection with a write lock; gorilla connections
// support one concurrent writer only.
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *conn) close() error {
	return c.ws.Close()
}

// ConnectionManager tracks websocket subscribers per auction and fans
// auction events out to them.
type ConnectionManager struct {
	connections map[string]map[*conn]struct{} // auctionID -> connections
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[*conn]struct{}),
		log:         log,
	}
}

func (cm *ConnectionManager) register(auctionID string, c *conn) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[auctionID] == nil {
		cm.connections[auctionID] = make(map[*conn]struct{})
	}
	cm.connections[auctionID][c] = struct{}{}

	cm.log.Info("Subscriber registered", "auction_id", auctionID,
		"subscribers", len(cm.connections[auctionID]))
}

func (cm *ConnectionManager) unregister(auctionID string, c *conn) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if subscribers, exists := cm.connections[auctionID]; exists {
		delete(subscribers, c)
		if len(subscribers) == 0 {
			delete(cm.connections, auctionID)
		}
	}

	cm.log.Info("Subscriber unregistered", "auction_id", auctionID)
}

// BroadcastToAuction sends message to every subscriber of an auction.
// Failed connections are dropped, the rest keep receiving.
func (cm *ConnectionManager) BroadcastToAuction(auctionID string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return err
	}

	cm.mutex.RLock()
	subscribers := make([]*conn, 0, len(cm.connections[auctionID]))
	for c := range cm.connections[auctionID] {
		subscribers = append(subscribers, c)
	}
	cm.mutex.RUnlock()

	for _, c := range subscribers {
		if err := c.send(payload); err != nil {
			cm.log.Error("Failed to send to subscriber", "auction_id", auctionID, "error", err)
			cm.unregister(auctionID, c)
			c.close()
		}
	}
	return nil
}
