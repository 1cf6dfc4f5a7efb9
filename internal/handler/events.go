package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"alarmserver/internal/logger"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventHub accepts event stream connections.
type EventHub interface {
	Register(client *websocket.Conn) bool
	Unregister(client *websocket.Conn)
}

// EventsWebsocketHandler upgrades the connection and keeps it registered in
// the hub until the viewer disconnects. Viewers only receive; incoming
// messages are discarded.
func EventsWebsocketHandler(hub EventHub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		if !hub.Register(connection) {
			connection.Close()
			return
		}
		defer hub.Unregister(connection)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Event viewer disconnected normally")
				} else {
					logger.Warning("Event viewer disconnected: %v", err)
				}
				return
			}
		}
	}
}
