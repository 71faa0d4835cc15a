package hub

import (
	"encoding/json"
	"errors"
)

// mockConn is an in-memory Conn for handler tests. Inbound events are
// injected with receive/receiveBinary and disconnects with drop; outbound
// traffic is recorded for assertions.
type mockConn struct {
	id string

	handlers    map[string]func(json.RawMessage)
	binary      func([]byte)
	disconnects []func()

	sent     []sentMessage
	failSend bool
}

type sentMessage struct {
	event string
	data  json.RawMessage
}

func newMockConn(id string) *mockConn {
	return &mockConn{
		id:       id,
		handlers: make(map[string]func(json.RawMessage)),
	}
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Emit(event string, v interface{}) error {
	if m.failSend {
		return errors.New("send failed")
	}
	var data json.RawMessage
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		data = b
	}
	m.sent = append(m.sent, sentMessage{event: event, data: data})
	return nil
}

func (m *mockConn) On(event string, fn func(json.RawMessage)) {
	m.handlers[event] = fn
}

func (m *mockConn) OnBinary(fn func([]byte)) {
	m.binary = fn
}

func (m *mockConn) OnDisconnect(fn func()) {
	m.disconnects = append(m.disconnects, fn)
}

// receive simulates an inbound event from the peer.
func (m *mockConn) receive(event string, data string) {
	if fn, ok := m.handlers[event]; ok {
		fn(json.RawMessage(data))
	}
}

// receiveBinary simulates an inbound binary frame.
func (m *mockConn) receiveBinary(frame []byte) {
	if m.binary != nil {
		m.binary(frame)
	}
}

// drop simulates the transport's disconnect notification.
func (m *mockConn) drop() {
	for _, fn := range m.disconnects {
		fn()
	}
}

// lastSent returns the most recent message with the given event name, nil
// if none was sent.
func (m *mockConn) lastSent(event string) *sentMessage {
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].event == event {
			return &m.sent[i]
		}
	}
	return nil
}

// countSent returns how many messages with the given event name went out.
func (m *mockConn) countSent(event string) int {
	n := 0
	for _, s := range m.sent {
		if s.event == event {
			n++
		}
	}
	return n
}
