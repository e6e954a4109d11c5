package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/LuckysHorizon/SmartReminder/internal/shared/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Single-user local service; pages connect from anywhere
		return true
	},
}

// MessageHandler processes messages a page context sends to the worker
type MessageHandler interface {
	HandleMessage(ctx context.Context, raw []byte) error
}

// Client is one attached page context
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	handler MessageHandler
	log     *logger.Logger
}

// ServeWS upgrades an HTTP request to a page-context websocket connection
func ServeWS(hub *Hub, handler MessageHandler, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Error("Websocket upgrade failed", "error", err)
			return
		}

		client := &Client{
			hub:     hub,
			conn:    conn,
			send:    make(chan []byte, 32),
			handler: handler,
			log:     log,
		}
		hub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// readPump relays page messages to the worker until the connection drops
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Page connection closed unexpectedly", "error", err)
			}
			return
		}
		if err := c.handler.HandleMessage(context.Background(), message); err != nil {
			c.log.Warn("Failed to handle page message", "error", err)
		}
	}
}

// writePump pushes worker messages and pings to the page
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
