package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
)

// startChannel serves one channel on a test server and reports every
// accepted Conn.
func startChannel(t *testing.T, channel string, onConnect func(*Conn)) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(Handler(channel, onConnect))
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *gws.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestAcceptAssignsChannelPrefixedID(t *testing.T) {
	accepted := make(chan *Conn, 1)
	ts := startChannel(t, "/player", func(c *Conn) { accepted <- c })

	dial(t, ts)

	select {
	case c := <-accepted:
		if !strings.HasPrefix(c.ID(), "/player#") {
			t.Errorf("Conn id = %q, want /player# prefix", c.ID())
		}
		if c.Channel() != "/player" {
			t.Errorf("Conn channel = %q", c.Channel())
		}
		if len(c.ID()) <= len("/player#") {
			t.Error("Conn id has no unique suffix")
		}
	case <-time.After(time.Second):
		t.Fatal("Accept callback never fired")
	}
}

func TestDistinctIDsPerConnection(t *testing.T) {
	accepted := make(chan *Conn, 2)
	ts := startChannel(t, "/player", func(c *Conn) { accepted <- c })

	dial(t, ts)
	dial(t, ts)

	first := <-accepted
	second := <-accepted
	if first.ID() == second.ID() {
		t.Errorf("Two connections share id %q", first.ID())
	}
}

func TestEventDispatch(t *testing.T) {
	received := make(chan json.RawMessage, 1)
	ts := startChannel(t, "/player", func(c *Conn) {
		c.On("login", func(data json.RawMessage) { received <- data })
	})

	client := dial(t, ts)
	frame, _ := json.Marshal(Envelope{Event: "login", Data: json.RawMessage(`{"name":"Ann"}`)})
	if err := client.WriteMessage(gws.TextMessage, frame); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case data := <-received:
		if string(data) != `{"name":"Ann"}` {
			t.Errorf("Handler got %s", data)
		}
	case <-time.After(time.Second):
		t.Fatal("Event handler never fired")
	}
}

func TestUnknownEventIgnored(t *testing.T) {
	received := make(chan json.RawMessage, 1)
	ts := startChannel(t, "/player", func(c *Conn) {
		c.On("login", func(data json.RawMessage) { received <- data })
	})

	client := dial(t, ts)
	frame, _ := json.Marshal(Envelope{Event: "mystery", Data: json.RawMessage(`{}`)})
	client.WriteMessage(gws.TextMessage, frame)

	// A malformed frame must not kill the connection either.
	client.WriteMessage(gws.TextMessage, []byte(`not json`))

	frame, _ = json.Marshal(Envelope{Event: "login", Data: json.RawMessage(`{"ok":true}`)})
	client.WriteMessage(gws.TextMessage, frame)

	select {
	case data := <-received:
		if string(data) != `{"ok":true}` {
			t.Errorf("Handler got %s", data)
		}
	case <-time.After(time.Second):
		t.Fatal("Connection did not survive unknown/malformed frames")
	}
}

func TestBinaryDispatch(t *testing.T) {
	received := make(chan []byte, 1)
	ts := startChannel(t, "/server", func(c *Conn) {
		c.OnBinary(func(data []byte) { received <- data })
	})

	client := dial(t, ts)
	payload := []byte{0x01, 0x02, 0x03}
	if err := client.WriteMessage(gws.BinaryMessage, payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case data := <-received:
		if len(data) != 3 || data[0] != 0x01 {
			t.Errorf("Binary handler got %v", data)
		}
	case <-time.After(time.Second):
		t.Fatal("Binary handler never fired")
	}
}

func TestEmitDeliversEnvelope(t *testing.T) {
	accepted := make(chan *Conn, 1)
	ts := startChannel(t, "/player", func(c *Conn) { accepted <- c })

	client := dial(t, ts)
	server := <-accepted

	if err := server.Emit("game", map[string]string{"map": "arena1"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(time.Second))
	_, message, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if env.Event != "game" || string(env.Data) != `{"map":"arena1"}` {
		t.Errorf("Envelope = %q %s", env.Event, env.Data)
	}
}

func TestEmitNilPayload(t *testing.T) {
	accepted := make(chan *Conn, 1)
	ts := startChannel(t, "/player", func(c *Conn) { accepted <- c })

	client := dial(t, ts)
	server := <-accepted

	if err := server.Emit("start", nil); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(time.Second))
	_, message, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(message) != `{"event":"start"}` {
		t.Errorf("Frame = %s", message)
	}
}

func TestDisconnectCallbackFiresOnce(t *testing.T) {
	fired := make(chan string, 4)
	ts := startChannel(t, "/player", func(c *Conn) {
		c.OnDisconnect(func() { fired <- "first" })
		c.OnDisconnect(func() { fired <- "second" })
	})

	client := dial(t, ts)
	client.Close()

	// Both callbacks, in registration order, exactly once.
	for _, want := range []string{"first", "second"} {
		select {
		case got := <-fired:
			if got != want {
				t.Errorf("Disconnect callback order: got %q, want %q", got, want)
			}
		case <-time.After(time.Second):
			t.Fatal("Disconnect callback never fired")
		}
	}

	select {
	case got := <-fired:
		t.Errorf("Disconnect callback fired again: %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEmitAfterCloseReturnsError(t *testing.T) {
	accepted := make(chan *Conn, 1)
	disconnected := make(chan struct{})
	ts := startChannel(t, "/player", func(c *Conn) {
		c.OnDisconnect(func() { close(disconnected) })
		accepted <- c
	})

	client := dial(t, ts)
	server := <-accepted

	client.Close()
	<-disconnected

	if err := server.Emit("game", nil); err != ErrConnClosed {
		t.Errorf("Emit after close = %v, want ErrConnClosed", err)
	}
}
