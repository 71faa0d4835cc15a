package websocket

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Party-game clients connect from phones on arbitrary origins.
		return true
	},
}

// Handler returns an http.HandlerFunc that upgrades requests to WebSocket
// connections on the named channel and hands each accepted Conn to
// onConnect. The accept callback is the only place event handlers may be
// registered; frames are not read until it returns.
func Handler(channel string, onConnect func(*Conn)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed on %s: %v", channel, err)
			return
		}

		conn := &Conn{
			id:       channel + "#" + uuid.NewString(),
			channel:  channel,
			ws:       ws,
			send:     make(chan []byte, sendBufferSize),
			handlers: make(map[string]func(json.RawMessage)),
		}

		if onConnect != nil {
			onConnect(conn)
		}

		go conn.writePump()
		go conn.readPump()
	}
}
