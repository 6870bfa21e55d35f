package api

import (
	"net/http"
	"sync"
)

// sseSink adapts an open HTTP response into a stream.Sink. Publishes and the
// per-connection ping loop write concurrently, so writes are serialized here.
// A write error means the peer is gone; the registry turns that into removal.
type sseSink struct {
	mu sync.Mutex
	w  http.ResponseWriter
	f  http.Flusher
}

func newSSESink(w http.ResponseWriter, f http.Flusher) *sseSink {
	return &sseSink{w: w, f: f}
}

func (s *sseSink) Write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
