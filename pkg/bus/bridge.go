package bus

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/tigerbot-team/tigerbot/nav-controller/internal/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// Envelope is the wire form of a bus message on the websocket.
type Envelope struct {
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// Decoder turns an inbound payload into the value published on the bus.
type Decoder func(raw json.RawMessage) (interface{}, error)

// JSONDecoder decodes payloads into a T.
func JSONDecoder[T any]() Decoder {
	return func(raw json.RawMessage) (interface{}, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Bridge exposes part of a Bus over websockets. Messages on the forwarded
// channels go out to every client; inbound envelopes are published locally
// if a decoder is registered for their channel.
type Bridge struct {
	bus      *Bus
	forward  []string
	decoders map[string]Decoder
	upgrader websocket.Upgrader
}

func NewBridge(b *Bus, forward []string, decoders map[string]Decoder) *Bridge {
	if decoders == nil {
		decoders = map[string]Decoder{}
	}
	return &Bridge{
		bus:      b,
		forward:  append([]string(nil), forward...),
		decoders: decoders,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (br *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := br.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	log.Info("Bridge client connected", "remote", r.RemoteAddr)
	c := &client{
		bridge:   br,
		conn:     conn,
		send:     make(chan Envelope, sendBuffer),
		done:     make(chan struct{}),
		writerUp: make(chan struct{}),
	}
	c.run()
	log.Info("Bridge client disconnected", "remote", r.RemoteAddr)
}

type client struct {
	bridge   *Bridge
	conn     *websocket.Conn
	send     chan Envelope
	done     chan struct{}
	writerUp chan struct{}
}

func (c *client) run() {
	var wg sync.WaitGroup
	var ids []string
	for _, name := range c.bridge.forward {
		id, ch := c.bridge.bus.Subscribe(name)
		ids = append(ids, id)
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.forward(ch)
		}()
	}

	go c.writePump()
	c.readPump()

	close(c.done)
	<-c.writerUp
	for _, id := range ids {
		c.bridge.bus.Unsubscribe(id)
	}
	wg.Wait()
	c.conn.Close()
}

func (c *client) forward(ch <-chan Message) {
	for msg := range ch {
		payload, err := json.Marshal(msg.Payload)
		if err != nil {
			log.Warn("Failed to encode bus message", "channel", msg.Channel, "error", err)
			continue
		}
		select {
		case c.send <- Envelope{Channel: msg.Channel, Payload: payload}:
		case <-c.done:
		}
	}
}

// readPump owns all reads from the connection and returns once it fails.
func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("Bridge read failed", "error", err)
			}
			return
		}
		if err := c.bridge.deliver(data); err != nil {
			log.Warn("Dropping inbound message", "error", err)
		}
	}
}

// writePump owns all writes to the connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.writerUp)
	}()

	for {
		select {
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case env := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

func (br *Bridge) deliver(data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "bad envelope")
	}
	decode, ok := br.decoders[env.Channel]
	if !ok {
		return errors.Errorf("no decoder for channel %q", env.Channel)
	}
	v, err := decode(env.Payload)
	if err != nil {
		return errors.Wrapf(err, "bad payload on %q", env.Channel)
	}
	return br.bus.Publish(env.Channel, v)
}
