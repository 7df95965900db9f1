package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs streams progress for draftId until the peer goes away.
func ServeWs(hub *Hub, c *websocket.Conn, draftId string) {
	client := &Client{Hub: hub, Conn: c, DraftId: draftId, Send: make(chan []byte, 256)}
	if !hub.Register(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
