package stream

import (
	"fmt"
	"sync"
	"time"

	"bookpulse/internal/types"

	log "github.com/sirupsen/logrus"
)

// Sink is the live output handle events are written to. A failed write means
// the peer is gone; the registry treats it as an implicit disconnect. The
// transport owns the underlying socket, the registry only owns the mapping.
type Sink interface {
	Write(frame []byte) error
}

// ControlWriter is implemented by sink decorators that must let protocol
// frames (connected, ping) through untouched. Control frames are routed
// structurally via WriteControl, never by sniffing the payload's type field —
// a published event is free to carry any type value without gaining a bypass.
type ControlWriter interface {
	WriteControl(frame []byte) error
}

// WriteControl writes a protocol frame to s, bypassing decorators that
// implement ControlWriter.
func WriteControl(s Sink, frame []byte) error {
	if cw, ok := s.(ControlWriter); ok {
		return cw.WriteControl(frame)
	}
	return s.Write(frame)
}

// Connection is one open one-way stream, subscribed to exactly one topic.
type Connection struct {
	ID         string
	Topic      string
	Subject    string
	sink       Sink
	OpenedAt   time.Time
	LastPingAt time.Time
}

// Registry tracks open connections grouped by topic and fans published frames
// out to them. Delivery is best-effort, at-most-once, no backlog for late
// joiners. Callers authorize subjects before registering; the registry assumes
// every connection it receives is allowed on its topic.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	topics map[string]map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[string]*Connection),
		topics: make(map[string]map[string]*Connection),
	}
}

// ConnectionID builds a collision-free id: the open instant disambiguates
// repeated reconnects by the same subject on the same topic.
func ConnectionID(subject, topic string) string {
	return fmt.Sprintf("%s:%s:%d", subject, topic, time.Now().UnixNano())
}

// Add registers a new open connection. A duplicate id is reported to the
// caller only; nothing else is touched.
func (r *Registry) Add(id, subject, topic string, sink Sink) error {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.conns[id]; exists {
		return types.Err(types.ErrDuplicateConnection, nil, "id %q", id)
	}
	c := &Connection{
		ID:         id,
		Topic:      topic,
		Subject:    subject,
		sink:       sink,
		OpenedAt:   now,
		LastPingAt: now,
	}
	r.conns[id] = c
	set, ok := r.topics[topic]
	if !ok {
		set = make(map[string]*Connection)
		r.topics[topic] = set
	}
	set[id] = c
	return nil
}

// Remove is idempotent: network disconnects and handler cleanup can race and
// both call it. Returns whether a connection was actually removed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	delete(r.conns, id)
	if set, ok := r.topics[c.Topic]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.topics, c.Topic)
		}
	}
	return true
}

// Publish delivers frame to every open connection on topic, in no particular
// order, and returns the number delivered. A write failure on one connection
// removes that connection and never aborts delivery to the rest.
func (r *Registry) Publish(topic string, frame []byte) int {
	r.mu.RLock()
	set := r.topics[topic]
	targets := make([]*Connection, 0, len(set))
	for _, c := range set {
		targets = append(targets, c)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		if err := c.sink.Write(frame); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"connectionID": c.ID,
				"topic":        topic,
			}).Info("dropping connection on failed write")
			r.Remove(c.ID)
			continue
		}
		delivered++
	}
	return delivered
}

// Ping writes a keep-alive frame to one connection. A failed ping removes the
// connection, same as a failed publish.
func (r *Registry) Ping(id string) error {
	r.mu.RLock()
	c, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return types.Err(types.ErrNotFound, nil, "connection %q", id)
	}
	if err := WriteControl(c.sink, PingFrame); err != nil {
		log.WithError(err).WithField("connectionID", id).Info("dropping connection on failed ping")
		r.Remove(id)
		return types.Err(types.ErrSinkClosed, err, "ping %q", id)
	}
	r.mu.Lock()
	if cur, ok := r.conns[id]; ok {
		cur.LastPingAt = time.Now()
	}
	r.mu.Unlock()
	return nil
}

// ActiveConnections reports how many open connections are subscribed to topic.
func (r *Registry) ActiveConnections(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics[topic])
}

// TopicCounts is an observability snapshot: topic -> open connection count.
func (r *Registry) TopicCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int, len(r.topics))
	for t, set := range r.topics {
		out[t] = len(set)
	}
	return out
}

// Publish renders a typed event and fans it out to topic.
func Publish[T any](r *Registry, topic string, ev Event[T]) (int, error) {
	frame, err := ev.Frame()
	if err != nil {
		return 0, err
	}
	return r.Publish(topic, frame), nil
}
