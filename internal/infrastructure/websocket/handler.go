package websocket

import (
	"net/http"

	"auction-engine/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to websocket subscriptions on an auction.
type Handler struct {
	manager  *ConnectionManager
	upgrader websocket.Upgrader
	log      logger.Logger
}

func NewHandler(manager *ConnectionManager, log logger.Logger) *Handler {
	return &Handler{
		manager: manager,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: log,
	}
}

// ServeAuction handles GET /ws/auctions/{id}: the client receives
// bid_accepted and auction_finalized frames for that auction until it
// disconnects. Inbound messages are discarded; this is a one-way feed.
func (h *Handler) ServeAuction(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["id"]
	if auctionID == "" {
		http.Error(w, "auction id required", http.StatusBadRequest)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed", "auction_id", auctionID, "error", err)
		return
	}

	c := &conn{ws: ws}
	h.manager.register(auctionID, c)

	go func() {
		defer func() {
			h.manager.unregister(auctionID, c)
			c.close()
		}()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
