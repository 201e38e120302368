package handlers

import (
	"net/http"
	"time"

	"nuttally/internal/logger"
	"nuttally/internal/services/websocket"

	gorilla "github.com/gorilla/websocket"
)

var (
	viewerReadTimeout = 60 * time.Second
	viewerWriteWait   = 10 * time.Second
)

var Upgrader = gorilla.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// LiveWebsocketHandler streams every completed tally to the connected viewer.
// Viewers only listen, so the server pings them to keep the read deadline alive.
func LiveWebsocketHandler(hub *websocket.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		readTimeout := viewerReadTimeout
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(readTimeout))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(readTimeout))
			return nil
		})

		hub.Register(connection)
		defer hub.Unregister(connection)

		done := make(chan struct{})
		defer close(done)
		go pingViewer(connection, readTimeout*9/10, done, logger)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				logger.Info("Viewer disconnected: %v", err)
				break
			}
		}
	}
}

// pingViewer sends a ping every interval until done is closed.
// WriteControl may run concurrently with the hub's writes.
func pingViewer(connection *gorilla.Conn, interval time.Duration, done <-chan struct{}, logger *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := connection.WriteControl(gorilla.PingMessage, nil, time.Now().Add(viewerWriteWait)); err != nil {
				logger.Warning("Failed to ping viewer: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
