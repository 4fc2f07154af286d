package connection

import (
	"encoding/json"
	"sync"
)

// Event is one message captured by a RecordingSender.
type Event struct {
	Name    string
	Payload json.RawMessage
}

// RecordingSender is an in-memory Sender that keeps everything emitted to it.
// It backs tests of every package that pushes events to clients.
type RecordingSender struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func NewRecordingSender() *RecordingSender {
	return &RecordingSender{}
}

func (s *RecordingSender) Emit(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.events = append(s.events, Event{Name: event, Payload: data})
	s.mu.Unlock()
	return nil
}

func (s *RecordingSender) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *RecordingSender) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *RecordingSender) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Named returns the captured events with the given name, oldest first.
func (s *RecordingSender) Named(name string) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Last decodes the most recent event with the given name into v.
func (s *RecordingSender) Last(name string, v any) bool {
	events := s.Named(name)
	if len(events) == 0 {
		return false
	}
	return json.Unmarshal(events[len(events)-1].Payload, v) == nil
}

func (s *RecordingSender) Reset() {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()
}
