// Package realtime pushes ingestion events (new trades, alert sends)
// to connected dashboard clients over websockets.
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	models "insider-tracker/database/models_pkg"
)

// Event is one broadcast message.
type Event struct {
	Type    string      `json:"type"` // trade_ingested / alert_sent
	Payload interface{} `json:"payload"`
	Time    string      `json:"time"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 45 * time.Second
	clientBacklog  = 16
	brokerBacklog  = 64
)

// Broker fans events out to websocket subscribers. Slow clients drop
// events rather than blocking the poller.
type Broker struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	upgrader   websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewBroker creates a broker; call Run in a goroutine before serving.
func NewBroker() *Broker {
	return &Broker{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, brokerBacklog),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from arbitrary origins in dev.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Run drives the hub loop.
func (b *Broker) Run() {
	for {
		select {
		case c := <-b.register:
			b.clients[c] = true
			log.Printf("🔌 Realtime client connected (%d active)", len(b.clients))
		case c := <-b.unregister:
			if b.clients[c] {
				delete(b.clients, c)
				close(c.send)
			}
		case event := <-b.broadcast:
			for c := range b.clients {
				select {
				case c.send <- event:
				default:
					// Slow consumer: drop it rather than stall.
					delete(b.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// PublishTrade broadcasts a newly ingested trade.
func (b *Broker) PublishTrade(trade *models.Trade) {
	b.publish(Event{Type: "trade_ingested", Payload: trade, Time: models.NowISO()})
}

// PublishAlert broadcasts an alert-log entry.
func (b *Broker) PublishAlert(entry *models.AlertLog) {
	b.publish(Event{Type: "alert_sent", Payload: entry, Time: models.NowISO()})
}

func (b *Broker) publish(event Event) {
	select {
	case b.broadcast <- event:
	default:
		// Backlog full; events are advisory, dropping is fine.
	}
}

// ServeHTTP upgrades the request and attaches the client to the hub.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️  Websocket upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, clientBacklog)}
	b.register <- c

	go c.writePump()
	go c.readPump(b)
}

// readPump discards client messages and detects disconnects.
func (c *client) readPump(b *Broker) {
	defer func() {
		b.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
