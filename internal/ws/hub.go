package ws

const broadcastQueueDepth = 16

// Subscriber abstracts a streaming client. Send must not block; a false
// return signals the subscriber cannot keep up and will be dropped from the
// stream.
type Subscriber interface {
	Send(payload []byte) bool
	Close()
}

// Hub fans the live tally out to subscribed result watchers. Delivery is
// best effort: subscribers that fall behind are evicted, and a saturated
// hub drops the update rather than stall the caller. The next committed
// vote broadcasts a complete, fresher tally anyway.
type Hub struct {
	clients   map[Subscriber]struct{}
	register  chan Subscriber
	unreg     chan Subscriber
	broadcast chan []byte
}

// NewHub creates an initialized Hub.
func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[Subscriber]struct{}),
		register:  make(chan Subscriber),
		unreg:     make(chan Subscriber),
		broadcast: make(chan []byte, broadcastQueueDepth),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unreg:
			delete(h.clients, client)
		case payload := <-h.broadcast:
			for c := range h.clients {
				if !c.Send(payload) {
					c.Close()
					delete(h.clients, c)
				}
			}
		}
	}
}

// Register adds a client to the tally stream.
func (h *Hub) Register(client Subscriber) {
	h.register <- client
}

// Unregister removes a client.
func (h *Hub) Unregister(client Subscriber) {
	h.unreg <- client
}

// Broadcast queues payload for every subscribed client. It never blocks the
// caller.
func (h *Hub) Broadcast(payload []byte) {
	select {
	case h.broadcast <- payload:
	default:
	}
}
