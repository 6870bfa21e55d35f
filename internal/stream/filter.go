package stream

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"
)

// Filter decides whether an event payload should reach a subscriber. Built
// from a JMESPath expression that must evaluate to a boolean; anything else
// counts as no match.
type Filter func(payload map[string]any) bool

// CompileFilter compiles expr into a Filter. An invalid expression is the
// subscriber's mistake and is reported at subscribe time, not at publish time.
func CompileFilter(expr string) (Filter, error) {
	compiled, err := jmespath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("jmespath: %w", err)
	}
	return func(payload map[string]any) bool {
		v, err := compiled.Search(payload)
		if err != nil {
			return false
		}
		matched, ok := v.(bool)
		return ok && matched
	}, nil
}

var framePrefix = []byte("data: ")

// FilteredSink decorates a sink with a subscriber filter. Published frames
// whose payload does not match are dropped without an error, which the
// registry counts as delivered. Protocol frames arrive through WriteControl
// and are never filtered; the payload's type field carries no special meaning
// here.
type FilteredSink struct {
	next  Sink
	match Filter
}

func NewFilteredSink(next Sink, match Filter) *FilteredSink {
	return &FilteredSink{next: next, match: match}
}

func (f *FilteredSink) Write(frame []byte) error {
	payload, ok := decodeFrame(frame)
	if ok && !f.match(payload) {
		return nil
	}
	return f.next.Write(frame)
}

func (f *FilteredSink) WriteControl(frame []byte) error {
	return WriteControl(f.next, frame)
}

func decodeFrame(frame []byte) (map[string]any, bool) {
	body := bytes.TrimPrefix(frame, framePrefix)
	body = bytes.TrimRight(body, "\n")
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, false
	}
	return payload, true
}
