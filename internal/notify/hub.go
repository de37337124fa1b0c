package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vietanh2810/coffeeshop-api/internal/metrics"
)

const (
	EventOrderUpdate   = "orderUpdate"
	EventPaymentUpdate = "paymentUpdate"
	EventNewOrder      = "newOrder"

	AdminRoom = "admin"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 512
)

func OrderRoom(orderID string) string {
	return "order_" + orderID
}

// Message is the frame pushed to browsers.
type Message struct {
	Event string `json:"event"`
	Room  string `json:"room"`
	Data  any    `json:"data"`
}

// command is what browsers send to pick the rooms they listen to.
type command struct {
	Type    string `json:"type"`
	OrderID string `json:"order_id"`
}

type subscription struct {
	client *Client
	room   string
}

type roomMessage struct {
	room    string
	payload []byte
}

type clientMessage struct {
	client  *Client
	payload []byte
}

type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	admin bool
}

// Hub fans messages out to the sockets joined to a room. It only knows about
// the sockets of this process; see RedisRelay for multiple instances.
type Hub struct {
	rooms      map[string]map[*Client]bool
	clients    map[*Client]bool
	roomsMutex sync.RWMutex

	register   chan *Client
	unregister chan *Client
	join       chan subscription
	leave      chan subscription
	broadcast  chan roomMessage
	direct     chan clientMessage
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		join:       make(chan subscription),
		leave:      make(chan subscription),
		broadcast:  make(chan roomMessage, 256),
		direct:     make(chan clientMessage, 64),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.roomsMutex.Lock()
			for client := range h.clients {
				close(client.send)
			}
			metrics.WebsocketClients.Sub(float64(len(h.clients)))
			h.clients = make(map[*Client]bool)
			h.rooms = make(map[string]map[*Client]bool)
			h.roomsMutex.Unlock()
			return
		case client := <-h.register:
			h.roomsMutex.Lock()
			h.clients[client] = true
			h.roomsMutex.Unlock()
			metrics.WebsocketClients.Inc()
		case client := <-h.unregister:
			h.remove(client)
		case sub := <-h.join:
			h.roomsMutex.Lock()
			if h.clients[sub.client] {
				if h.rooms[sub.room] == nil {
					h.rooms[sub.room] = make(map[*Client]bool)
				}
				h.rooms[sub.room][sub.client] = true
			}
			h.roomsMutex.Unlock()
			h.deliver(sub.client, encode("joined", "", sub.room))
		case sub := <-h.leave:
			h.roomsMutex.Lock()
			h.leaveRoom(sub.client, sub.room)
			h.roomsMutex.Unlock()
		case msg := <-h.direct:
			h.deliver(msg.client, msg.payload)
		case msg := <-h.broadcast:
			var slow []*Client
			h.roomsMutex.RLock()
			for client := range h.rooms[msg.room] {
				select {
				case client.send <- msg.payload:
				default:
					slow = append(slow, client)
				}
			}
			h.roomsMutex.RUnlock()
			for _, client := range slow {
				h.remove(client)
			}
		}
	}
}

// Broadcast queues a raw frame for every socket in room.
func (h *Hub) Broadcast(room string, payload []byte) {
	select {
	case h.broadcast <- roomMessage{room: room, payload: payload}:
	case <-h.done:
	}
}

// Notify encodes data as a Message and broadcasts it locally.
func (h *Hub) Notify(_ context.Context, room, event string, data any) error {
	payload, err := json.Marshal(Message{Event: event, Room: room, Data: data})
	if err != nil {
		return err
	}

	h.Broadcast(room, payload)

	return nil
}

// RoomSize reports how many sockets listen to room.
func (h *Hub) RoomSize(room string) int {
	h.roomsMutex.RLock()
	defer h.roomsMutex.RUnlock()

	return len(h.rooms[room])
}

// Serve attaches an upgraded connection to the hub and blocks until the
// connection is registered. Admin sockets may join the admin room.
func (h *Hub) Serve(conn *websocket.Conn, admin bool) {
	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, 64),
		admin: admin,
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// deliver must only be called from Run, the sole writer and closer of send.
func (h *Hub) deliver(client *Client, payload []byte) {
	h.roomsMutex.RLock()
	registered := h.clients[client]
	h.roomsMutex.RUnlock()
	if !registered || payload == nil {
		return
	}

	select {
	case client.send <- payload:
	default:
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.roomsMutex.Lock()
	defer h.roomsMutex.Unlock()

	if !h.clients[client] {
		return
	}

	delete(h.clients, client)
	for room := range h.rooms {
		h.leaveRoom(client, room)
	}
	close(client.send)
	metrics.WebsocketClients.Dec()
}

func (h *Hub) leaveRoom(client *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}

	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

func (h *Hub) subscribe(ch chan subscription, sub subscription) {
	select {
	case ch <- sub:
	case <-h.done:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("websocket closed unexpectedly", zap.Error(err))
			}
			return
		}

		var cmd command
		if err = json.Unmarshal(raw, &cmd); err != nil {
			c.reply("error", "malformed message")
			continue
		}

		switch cmd.Type {
		case "joinOrder":
			if cmd.OrderID == "" {
				c.reply("error", "order_id is required")
				continue
			}
			c.hub.subscribe(c.hub.join, subscription{client: c, room: OrderRoom(cmd.OrderID)})
		case "leaveOrder":
			c.hub.subscribe(c.hub.leave, subscription{client: c, room: OrderRoom(cmd.OrderID)})
		case "joinAdmin":
			if !c.admin {
				c.reply("error", "admin login required")
				continue
			}
			c.hub.subscribe(c.hub.join, subscription{client: c, room: AdminRoom})
		default:
			c.reply("error", "unknown message type")
		}
	}
}

func (c *Client) reply(event string, data any) {
	select {
	case c.hub.direct <- clientMessage{client: c, payload: encode(event, "", data)}:
	case <-c.hub.done:
	}
}

func encode(event, room string, data any) []byte {
	payload, err := json.Marshal(Message{Event: event, Room: room, Data: data})
	if err != nil {
		zap.L().Error("encode websocket message", zap.String("event", event), zap.Error(err))
		return nil
	}

	return payload
}
