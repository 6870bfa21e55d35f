package stream

import (
	"errors"
	"sync"
	"testing"

	"bookpulse/internal/types"

	"github.com/stretchr/testify/suite"
)

type recordSink struct {
	mu     sync.Mutex
	frames [][]byte
}

func (s *recordSink) Write(frame []byte) error {
	s.mu.Lock()
	s.frames = append(s.frames, frame)
	s.mu.Unlock()
	return nil
}

func (s *recordSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

type failSink struct{}

func (failSink) Write([]byte) error { return errors.New("broken pipe") }

type RegistryTestSuite struct {
	suite.Suite

	reg *Registry
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) SetupTest() {
	s.reg = NewRegistry()
}

func (s *RegistryTestSuite) TestAddAndCount() {
	s.Require().NoError(s.reg.Add("c1", "alice", "booking-42", &recordSink{}))
	s.Equal(1, s.reg.ActiveConnections("booking-42"))
	s.Equal(0, s.reg.ActiveConnections("booking-99"))
}

func (s *RegistryTestSuite) TestDuplicateAdd() {
	s.Require().NoError(s.reg.Add("c1", "alice", "booking-42", &recordSink{}))
	err := s.reg.Add("c1", "alice", "booking-42", &recordSink{})
	s.ErrorIs(err, types.ErrDuplicateConnection)
	s.Equal(1, s.reg.ActiveConnections("booking-42"))
}

func (s *RegistryTestSuite) TestRemoveIdempotent() {
	s.Require().NoError(s.reg.Add("c1", "alice", "booking-42", &recordSink{}))
	s.True(s.reg.Remove("c1"))
	s.False(s.reg.Remove("c1"))
	s.False(s.reg.Remove("never-added"))
	s.Equal(0, s.reg.ActiveConnections("booking-42"))
}

func (s *RegistryTestSuite) TestFanOut() {
	a, b, c := &recordSink{}, &recordSink{}, &recordSink{}
	other := &recordSink{}
	s.Require().NoError(s.reg.Add("a", "alice", "booking-42", a))
	s.Require().NoError(s.reg.Add("b", "bob", "booking-42", b))
	s.Require().NoError(s.reg.Add("c", "carol", "booking-42", c))
	s.Require().NoError(s.reg.Add("d", "dave", "booking-99", other))

	frame, err := Frame(map[string]any{"type": "message", "text": "hi"})
	s.Require().NoError(err)
	delivered := s.reg.Publish("booking-42", frame)

	s.Equal(3, delivered)
	s.Equal(1, a.count())
	s.Equal(1, b.count())
	s.Equal(1, c.count())
	s.Equal(0, other.count())
}

func (s *RegistryTestSuite) TestPublishFaultIsolation() {
	a, b := &recordSink{}, &recordSink{}
	s.Require().NoError(s.reg.Add("a", "alice", "booking-42", a))
	s.Require().NoError(s.reg.Add("bad", "bob", "booking-42", failSink{}))
	s.Require().NoError(s.reg.Add("c", "carol", "booking-42", b))

	frame, err := Frame(map[string]any{"type": "message", "text": "hi"})
	s.Require().NoError(err)
	delivered := s.reg.Publish("booking-42", frame)

	s.Equal(2, delivered)
	s.Equal(1, a.count())
	s.Equal(1, b.count())
	// The failing connection was dropped.
	s.Equal(2, s.reg.ActiveConnections("booking-42"))
	s.False(s.reg.Remove("bad"))
}

func (s *RegistryTestSuite) TestPublishUnknownTopic() {
	frame, err := Frame(map[string]any{"type": "message"})
	s.Require().NoError(err)
	s.Equal(0, s.reg.Publish("no-such-topic", frame))
}

func (s *RegistryTestSuite) TestPing() {
	sink := &recordSink{}
	s.Require().NoError(s.reg.Add("c1", "alice", "booking-42", sink))
	s.Require().NoError(s.reg.Ping("c1"))
	s.Equal(1, sink.count())
}

func (s *RegistryTestSuite) TestPingUnknown() {
	s.ErrorIs(s.reg.Ping("ghost"), types.ErrNotFound)
}

func (s *RegistryTestSuite) TestPingFailureRemoves() {
	s.Require().NoError(s.reg.Add("bad", "bob", "booking-42", failSink{}))
	s.ErrorIs(s.reg.Ping("bad"), types.ErrSinkClosed)
	s.Equal(0, s.reg.ActiveConnections("booking-42"))
}

func (s *RegistryTestSuite) TestTypedPublish() {
	sink := &recordSink{}
	s.Require().NoError(s.reg.Add("c1", "alice", "booking-42", sink))

	type messageData struct {
		Text string `json:"text"`
	}
	delivered, err := Publish(s.reg, "booking-42", Event[messageData]{
		Type: "message",
		Data: messageData{Text: "hi"},
	})
	s.Require().NoError(err)
	s.Equal(1, delivered)
	s.Contains(string(sink.frames[0]), `"type":"message"`)
}

func (s *RegistryTestSuite) TestTopicCounts() {
	s.Require().NoError(s.reg.Add("a", "alice", "booking-42", &recordSink{}))
	s.Require().NoError(s.reg.Add("b", "bob", "booking-42", &recordSink{}))
	s.Require().NoError(s.reg.Add("c", "carol", "booking-99", &recordSink{}))
	s.Equal(map[string]int{"booking-42": 2, "booking-99": 1}, s.reg.TopicCounts())
}

func (s *RegistryTestSuite) TestConnectionIDUniqueAcrossReconnects() {
	id1 := ConnectionID("alice", "booking-42")
	id2 := ConnectionID("alice", "booking-42")
	s.NotEqual(id1, id2)
}
