package websocket

import (
	"fastpai-be/internal/pkg/logger"
	"fastpai-be/internal/service"
)

// ServeWs opens a session for the connection and blocks until it ends.
func ServeWs(hub *Hub, svc service.IAssistantService, conn Conn, log logger.ILogger) {
	sess, welcome := svc.OpenSession()
	client := newClient(hub, conn, sess, svc, log)

	if !hub.Register(client) {
		svc.CloseSession(sess)
		conn.Close()
		return
	}
	client.enqueue(welcome)

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
