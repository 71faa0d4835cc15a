// Command smoke runs a scripted end-to-end pass against a running relay
// hub: it connects as the presentation server, an admin, a player, and a
// controller, then drives a full create → login → start → button → end
// round and checks every frame it gets back.
//
// It is meant for poking a freshly deployed hub from the command line:
//
//	smoke -addr localhost:8080
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/thebelin/cosmic-orbiters/transport/websocket"
)

var addr = flag.String("addr", "localhost:8080", "host:port of the relay hub")

func main() {
	flag.Parse()

	if err := run("http://" + *addr); err != nil {
		fmt.Printf("❌ Smoke test failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ Smoke test passed")
}

// client wraps one websocket connection to a hub channel.
type client struct {
	name string
	conn *gws.Conn
}

func dialChannel(baseURL, channel string) (*client, error) {
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + channel
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", channel, err)
	}
	return &client{name: channel, conn: conn}, nil
}

func (c *client) close() {
	c.conn.Close()
}

// send writes one event envelope.
func (c *client) send(event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(websocket.Envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	if err := c.conn.WriteMessage(gws.TextMessage, frame); err != nil {
		return fmt.Errorf("%s send %s: %w", c.name, event, err)
	}
	return nil
}

// expect reads the next frame and checks its event name.
func (c *client) expect(event string) (json.RawMessage, error) {
	c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, message, err := c.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("%s waiting for %s: %w", c.name, event, err)
	}

	var env websocket.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		return nil, fmt.Errorf("%s waiting for %s: bad frame %s", c.name, event, message)
	}
	if env.Event != event {
		return nil, fmt.Errorf("%s got event %q, want %q", c.name, env.Event, event)
	}
	return env.Data, nil
}

// waitForCount polls /api/status until the role shows the wanted number of
// connections, so the script does not race the hub's accept callbacks.
func waitForCount(baseURL, role string, want int) error {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/api/status")
		if err == nil {
			var snap struct {
				Counts map[string]int `json:"connections"`
			}
			json.NewDecoder(resp.Body).Decode(&snap)
			resp.Body.Close()
			if snap.Counts[role] == want {
				return nil
			}
		}
		time.Sleep(25 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for %d %s connections", want, role)
}

// run drives the whole scripted round against the hub at baseURL.
func run(baseURL string) error {
	server, err := dialChannel(baseURL, "/server")
	if err != nil {
		return err
	}
	defer server.close()
	if err := waitForCount(baseURL, "server", 1); err != nil {
		return err
	}
	fmt.Println("connected as presentation server")

	admin, err := dialChannel(baseURL, "/secure")
	if err != nil {
		return err
	}
	defer admin.close()

	// The admin's join snapshot: current server count, then game config.
	if _, err := admin.expect("connection"); err != nil {
		return err
	}
	if _, err := admin.expect("game"); err != nil {
		return err
	}
	fmt.Println("connected as admin")

	player, err := dialChannel(baseURL, "/player")
	if err != nil {
		return err
	}
	defer player.close()

	// The player's join snapshot: game config, then roster.
	if _, err := player.expect("game"); err != nil {
		return err
	}
	if _, err := player.expect("players"); err != nil {
		return err
	}
	if err := waitForCount(baseURL, "player", 1); err != nil {
		return err
	}
	fmt.Println("connected as player")

	// Admin creates a game; the server and player roles both hear it.
	config := map[string]interface{}{"name": "Smoke", "maxPlayers": 4}
	if err := admin.send("create", config); err != nil {
		return err
	}
	if _, err := server.expect("create"); err != nil {
		return err
	}
	if _, err := player.expect("create"); err != nil {
		return err
	}
	fmt.Println("create reached server and player")

	// Player logs in; the server hears it with the player's id attached
	// and the roster goes back out to players.
	if err := player.send("login", map[string]string{"name": "Smoke", "color": "#ff5050"}); err != nil {
		return err
	}
	login, err := server.expect("login")
	if err != nil {
		return err
	}
	var fwd struct {
		I string `json:"i"`
	}
	json.Unmarshal(login, &fwd)
	if fwd.I == "" || strings.Contains(fwd.I, "#") {
		return fmt.Errorf("forwarded login id = %q, want normalized id", fwd.I)
	}
	if _, err := player.expect("players"); err != nil {
		return err
	}
	fmt.Printf("login forwarded with id %s\n", fwd.I)

	// Admin starts the round.
	if err := admin.send("start", map[string]string{}); err != nil {
		return err
	}
	if _, err := server.expect("start"); err != nil {
		return err
	}
	if _, err := player.expect("start"); err != nil {
		return err
	}
	fmt.Println("start reached server and player")

	// A controller presses a button; the server hears it.
	controls, err := dialChannel(baseURL, "/controls")
	if err != nil {
		return err
	}
	defer controls.close()
	if err := controls.send("button", map[string]string{"action": "fire"}); err != nil {
		return err
	}
	button, err := server.expect("button")
	if err != nil {
		return err
	}
	fmt.Printf("button forwarded: %s\n", button)

	// Admin ends the round.
	if err := admin.send("end", map[string]string{}); err != nil {
		return err
	}
	if _, err := server.expect("end"); err != nil {
		return err
	}
	if _, err := player.expect("end"); err != nil {
		return err
	}
	fmt.Println("end reached server and player")

	return nil
}
