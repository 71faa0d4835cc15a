package hub

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		channel string
		rawID   string
		want    string
	}{
		{ChannelPlayer, "/player#abc-123", "abc-123"},
		{ChannelControls, "/controls#abc-123", "abc-123"},
		{ChannelServer, "/server#s-1", "s-1"},
		{ChannelAdmin, "/secure#adm", "adm"},
		{ChannelPlayer, "already-bare", "already-bare"},
		{ChannelPlayer, "/controls#other-channel", "/controls#other-channel"},
	}

	for _, tt := range tests {
		if got := normalizeID(tt.channel, tt.rawID); got != tt.want {
			t.Errorf("normalizeID(%q, %q) = %q, want %q", tt.channel, tt.rawID, got, tt.want)
		}
	}

	// Idempotent: normalizing an already-normalized id changes nothing.
	once := normalizeID(ChannelPlayer, "/player#abc")
	if normalizeID(ChannelPlayer, once) != once {
		t.Error("normalizeID is not idempotent")
	}
}

func TestServerCreateScenario(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	player1 := newMockConn("/player#p1")
	player2 := newMockConn("/player#p2")
	admin := newMockConn("/secure#a1")

	h.AttachServer(server)
	h.AttachPlayer(player1)
	h.AttachPlayer(player2)
	h.AttachAdmin(admin)

	// The presentation server sends its config JSON-encoded in a string.
	server.receive("create", `"{\"map\":\"arena1\"}"`)

	if h.session.Status() != "created" {
		t.Errorf("Expected status created, got %q", h.session.Status())
	}
	if string(h.session.Config()) != `{"map":"arena1"}` {
		t.Errorf("Config not stored, got %s", h.session.Config())
	}

	for _, p := range []*mockConn{player1, player2} {
		if msg := p.lastSent("players"); msg == nil || string(msg.data) != `[]` {
			t.Errorf("Player %s roster snapshot = %v, want []", p.id, msg)
		}
		if msg := p.lastSent("game"); msg == nil || string(msg.data) != `{"map":"arena1"}` {
			t.Errorf("Player %s game snapshot wrong: %v", p.id, msg)
		}
	}

	if msg := admin.lastSent("game"); msg == nil || string(msg.data) != `{"map":"arena1"}` {
		t.Errorf("Admin game snapshot wrong: %v", msg)
	}
}

func TestServerCreateDiscardsRoster(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	player := newMockConn("/player#p1")
	h.AttachServer(server)
	h.AttachPlayer(player)

	player.receive("login", `{"name":"Ann"}`)
	if h.roster.Len() != 1 {
		t.Fatalf("Login did not reach the roster, len=%d", h.roster.Len())
	}

	server.receive("create", `{"map":"arena2"}`)

	if h.roster.Len() != 0 {
		t.Errorf("Create must discard prior logins, roster len=%d", h.roster.Len())
	}
}

func TestMalformedCreateLeavesStateIntact(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	player := newMockConn("/player#p1")
	h.AttachServer(server)
	h.AttachPlayer(player)

	server.receive("create", `{"map":"arena1"}`)
	player.receive("login", `{"name":"Ann"}`)
	sentBefore := len(player.sent)

	server.receive("create", `"{\"map\": garbage`)

	if string(h.session.Config()) != `{"map":"arena1"}` {
		t.Errorf("Malformed create corrupted config: %s", h.session.Config())
	}
	if h.roster.Len() != 1 {
		t.Error("Malformed create reset the roster")
	}
	if len(player.sent) != sentBefore {
		t.Error("Malformed create produced side-effect broadcasts")
	}
}

func TestLoginRoundTrip(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	player := newMockConn("/player#X")
	other := newMockConn("/player#Y")

	h.AttachServer(server)
	h.AttachPlayer(player)
	h.AttachPlayer(other)

	player.receive("login", `{"name":"Ann","color":"red"}`)

	msg := server.lastSent("login")
	if msg == nil {
		t.Fatal("Server did not receive the login")
	}
	var fwd struct {
		I     string `json:"i"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := json.Unmarshal(msg.data, &fwd); err != nil {
		t.Fatalf("Forwarded login unparsable: %v", err)
	}
	if fwd.I != "X" || fwd.Name != "Ann" || fwd.Color != "red" {
		t.Errorf("Forwarded login = %+v", fwd)
	}

	for _, p := range []*mockConn{player, other} {
		rosterMsg := p.lastSent("players")
		if rosterMsg == nil {
			t.Fatalf("Player %s missed the roster broadcast", p.id)
		}
		var logins []json.RawMessage
		if err := json.Unmarshal(rosterMsg.data, &logins); err != nil {
			t.Fatalf("Roster unparsable: %v", err)
		}
		if len(logins) != 1 || string(logins[0]) != `{"name":"Ann","color":"red"}` {
			t.Errorf("Player %s roster = %s", p.id, rosterMsg.data)
		}
	}

	// The game has not started; no start signal yet.
	if player.countSent("start") != 0 {
		t.Error("Player received a premature start signal")
	}
}

func TestLoginIDCannotBeSpoofed(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	player := newMockConn("/player#X")

	h.AttachServer(server)
	h.AttachPlayer(player)

	// A client-sent "i" loses to the hub-assigned id.
	player.receive("login", `{"i":"spoof","name":"Ann"}`)

	msg := server.lastSent("login")
	if msg == nil {
		t.Fatal("Server did not receive the login")
	}
	var fwd struct {
		I    string `json:"i"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(msg.data, &fwd); err != nil {
		t.Fatalf("Forwarded login unparsable: %v", err)
	}
	if fwd.I != "X" {
		t.Errorf("Forwarded id = %q, want the hub-assigned %q", fwd.I, "X")
	}
	if fwd.Name != "Ann" {
		t.Errorf("Forwarded name = %q", fwd.Name)
	}
}

func TestLoginDuringStartedGameGetsStart(t *testing.T) {
	h := New()
	admin := newMockConn("/secure#a1")
	h.AttachAdmin(admin)

	admin.receive("create", `{"preset":"classic"}`)
	admin.receive("start", `{}`)

	late := newMockConn("/player#late")
	h.AttachPlayer(late)
	late.receive("login", `{"name":"Late"}`)

	if late.countSent("start") != 1 {
		t.Errorf("Late login during started game got %d start signals, want 1", late.countSent("start"))
	}
}

func TestAdminLifecycle(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	player := newMockConn("/player#p1")
	admin := newMockConn("/secure#a1")

	h.AttachServer(server)
	h.AttachPlayer(player)
	h.AttachAdmin(admin)

	if h.session.Status() != "" {
		t.Fatalf("Expected initial status NONE, got %q", h.session.Status())
	}

	admin.receive("create", `{"preset":"classic"}`)
	if h.session.Status() != "created" {
		t.Errorf("After admin create, status = %q", h.session.Status())
	}
	for _, c := range []*mockConn{server, player} {
		if msg := c.lastSent("create"); msg == nil || string(msg.data) != `{"preset":"classic"}` {
			t.Errorf("%s create forward = %v", c.id, msg)
		}
	}
	// Admin create never touches the stored config.
	if h.session.Config() != nil {
		t.Errorf("Admin create replaced stored config: %s", h.session.Config())
	}

	admin.receive("start", `{"countdown":3}`)
	if h.session.Status() != "started" {
		t.Errorf("After admin start, status = %q", h.session.Status())
	}
	for _, c := range []*mockConn{server, player} {
		if msg := c.lastSent("start"); msg == nil || string(msg.data) != `{"countdown":3}` {
			t.Errorf("%s start forward = %v", c.id, msg)
		}
	}

	admin.receive("end", `{"reason":"timeout"}`)
	if h.session.Status() != "created" {
		t.Errorf("After admin end, status = %q (end returns to created)", h.session.Status())
	}
	for _, c := range []*mockConn{server, player} {
		if msg := c.lastSent("end"); msg == nil || string(msg.data) != `{"reason":"timeout"}` {
			t.Errorf("%s end forward = %v", c.id, msg)
		}
	}
}

func TestPlayerSnapshotOnJoin(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	first := newMockConn("/player#first")
	h.AttachServer(server)
	h.AttachPlayer(first)

	server.receive("create", `{"map":"arena1"}`)
	first.receive("login", `{"name":"Ann"}`)

	late := newMockConn("/player#late")
	h.AttachPlayer(late)

	if msg := late.lastSent("game"); msg == nil || string(msg.data) != `{"map":"arena1"}` {
		t.Errorf("Late joiner game snapshot = %v", msg)
	}
	rosterMsg := late.lastSent("players")
	if rosterMsg == nil || string(rosterMsg.data) != `[{"name":"Ann"}]` {
		t.Errorf("Late joiner roster snapshot = %v", rosterMsg)
	}
}

func TestAdminSnapshotOnJoin(t *testing.T) {
	h := New()
	h.AttachServer(newMockConn("/server#s1"))
	h.AttachServer(newMockConn("/server#s2"))

	server := h.registry.Connections(RoleServer)[0].(*mockConn)
	server.receive("create", `{"map":"arena1"}`)

	admin := newMockConn("/secure#a1")
	h.AttachAdmin(admin)

	if msg := admin.lastSent("connection"); msg == nil || string(msg.data) != `2` {
		t.Errorf("Admin connection count = %v, want 2", msg)
	}
	if msg := admin.lastSent("game"); msg == nil || string(msg.data) != `{"map":"arena1"}` {
		t.Errorf("Admin game snapshot = %v", msg)
	}
}

func TestAdminNotifiedOfNewServer(t *testing.T) {
	h := New()
	admin := newMockConn("/secure#a1")
	h.AttachAdmin(admin)

	h.AttachServer(newMockConn("/server#s1"))

	if msg := admin.lastSent("connection"); msg == nil || string(msg.data) != `1` {
		t.Errorf("Admin was not told about the new server: %v", msg)
	}
}

func TestPlayerDisconnect(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	leaving := newMockConn("/player#gone")
	staying := newMockConn("/player#stay")

	h.AttachServer(server)
	h.AttachPlayer(leaving)
	h.AttachPlayer(staying)

	leaving.receive("login", `{"name":"Ann"}`)
	staying.receive("login", `{"name":"Bob"}`)

	leaving.drop()

	if msg := server.lastSent("playerDisconnect"); msg == nil || string(msg.data) != `"gone"` {
		t.Errorf("Server playerDisconnect = %v", msg)
	}
	if msg := server.lastSent("disconnection"); msg == nil || string(msg.data) != `"gone"` {
		t.Errorf("Server disconnection = %v", msg)
	}
	if h.registry.Count(RolePlayer) != 1 {
		t.Errorf("Registry still holds %d players", h.registry.Count(RolePlayer))
	}
	if h.roster.Get("gone") != nil {
		t.Error("Roster entry survived the disconnect")
	}

	rosterMsg := staying.lastSent("players")
	if rosterMsg == nil || string(rosterMsg.data) != `[{"name":"Bob"}]` {
		t.Errorf("Remaining player roster = %v", rosterMsg)
	}
}

func TestServerDisconnectResyncsPlayers(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	player := newMockConn("/player#p1")

	h.AttachServer(server)
	h.AttachPlayer(player)
	server.receive("create", `{"map":"arena1"}`)

	server.drop()

	if h.registry.Count(RoleServer) != 0 {
		t.Error("Server connection not removed from registry")
	}
	if msg := player.lastSent("game"); msg == nil || string(msg.data) != `{"map":"arena1"}` {
		t.Errorf("Player re-sync after server loss = %v", msg)
	}
}

func TestButtonForwarding(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	controls := newMockConn("/controls#X")

	h.AttachServer(server)
	h.AttachControls(controls)

	controls.receive("button", `{"button":"fire"}`)

	msg := server.lastSent("button")
	if msg == nil {
		t.Fatal("Server did not receive the button press")
	}
	var press struct {
		I      string `json:"i"`
		Button string `json:"button"`
	}
	if err := json.Unmarshal(msg.data, &press); err != nil {
		t.Fatalf("Button payload unparsable: %v", err)
	}
	if press.I != "X" || press.Button != "fire" {
		t.Errorf("Button forward = %+v", press)
	}
}

func TestScreenFrameToStream(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	viewer := newMockConn("/stream#v1")
	player := newMockConn("/player#p1")

	h.AttachServer(server)
	h.AttachStream(viewer)
	h.AttachPlayer(player)

	frame := []byte{0x89, 0x50, 0x4e, 0x47}
	server.receiveBinary(frame)

	msg := viewer.lastSent("screen")
	if msg == nil {
		t.Fatal("Stream viewer did not receive the frame")
	}
	var wrapped ScreenFrame
	if err := json.Unmarshal(msg.data, &wrapped); err != nil {
		t.Fatalf("Screen frame unparsable: %v", err)
	}
	if !wrapped.Image {
		t.Error("Screen frame not flagged as image")
	}
	if wrapped.Buffer != base64.StdEncoding.EncodeToString(frame) {
		t.Errorf("Screen frame buffer = %q", wrapped.Buffer)
	}

	if player.countSent("screen") != 0 {
		t.Error("Screen frame leaked to the player role")
	}
}

func TestServerEventAddressesOnePlayer(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	target := newMockConn("/player#T")
	bystander := newMockConn("/player#B")

	h.AttachServer(server)
	h.AttachPlayer(target)
	h.AttachPlayer(bystander)
	target.receive("login", `{"name":"Ann"}`)
	bystander.receive("login", `{"name":"Bob"}`)

	server.receive("event", `{"playerId":"T","eventType":"boost","eventData":{"amount":3}}`)

	msg := target.lastSent("event")
	if msg == nil {
		t.Fatal("Target player did not receive the event")
	}
	var ev PlayerEvent
	if err := json.Unmarshal(msg.data, &ev); err != nil {
		t.Fatalf("Event unparsable: %v", err)
	}
	if ev.EventType != "boost" || string(ev.EventData) != `{"amount":3}` {
		t.Errorf("Event = %+v", ev)
	}

	if bystander.countSent("event") != 0 {
		t.Error("Addressed event leaked to another player")
	}

	// Unknown id: silent no-op, nothing delivered anywhere.
	server.receive("event", `{"playerId":"ghost","eventType":"boost"}`)
	if target.countSent("event") != 1 {
		t.Error("Event for unknown id reached the wrong player")
	}
}

func TestKickForwardedVerbatim(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	admin := newMockConn("/secure#a1")
	player := newMockConn("/player#p1")

	h.AttachServer(server)
	h.AttachAdmin(admin)
	h.AttachPlayer(player)
	player.receive("login", `{"name":"Ann"}`)

	admin.receive("kick", `{"i":"p1","reason":"afk"}`)

	if msg := server.lastSent("kick"); msg == nil || string(msg.data) != `{"i":"p1","reason":"afk"}` {
		t.Errorf("Kick forward = %v", msg)
	}
	// Kick mutates no roster state; the server owns the disconnect.
	if h.roster.Len() != 1 {
		t.Error("Kick touched the roster")
	}
}

func TestHubStateSnapshot(t *testing.T) {
	h := New()
	server := newMockConn("/server#s1")
	player := newMockConn("/player#p1")
	h.AttachServer(server)
	h.AttachPlayer(player)
	h.AttachStream(newMockConn("/stream#v1"))

	server.receive("create", `{"map":"arena1"}`)
	player.receive("login", `{"name":"Ann"}`)

	snap := h.State()

	if snap.Status != "created" {
		t.Errorf("Snapshot status = %q", snap.Status)
	}
	if string(snap.Config) != `{"map":"arena1"}` {
		t.Errorf("Snapshot config = %s", snap.Config)
	}
	if len(snap.Players) != 1 || string(snap.Players[0]) != `{"name":"Ann"}` {
		t.Errorf("Snapshot players = %v", snap.Players)
	}
	if snap.Counts["server"] != 1 || snap.Counts["player"] != 1 || snap.Counts["stream"] != 1 || snap.Counts["admin"] != 0 {
		t.Errorf("Snapshot counts = %v", snap.Counts)
	}
}

func TestAdminDisconnectCleansRegistry(t *testing.T) {
	h := New()
	admin := newMockConn("/secure#a1")
	h.AttachAdmin(admin)

	admin.drop()

	if h.registry.Count(RoleAdmin) != 0 {
		t.Errorf("Admin registry count = %d after disconnect", h.registry.Count(RoleAdmin))
	}
}
