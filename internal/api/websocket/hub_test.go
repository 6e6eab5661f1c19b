package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	hub.Broadcast(NewSwitchEventMessage(5, "pressed", 0))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var msg struct {
		Type MessageType     `json:"type"`
		Data SwitchEventData `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg.Type != MessageTypeSwitchEvent || msg.Data.Switch != 5 || msg.Data.Kind != "pressed" {
		t.Errorf("message = %+v", msg)
	}
}

func TestHub_ClientLeaves(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	conn.Close()
	waitFor(t, func() bool { return hub.GetClientCount() == 0 })
}

func TestHub_BroadcastWithoutRunDrops(t *testing.T) {
	hub := NewHub(zap.NewNop())

	for i := 0; i < 300; i++ {
		hub.Broadcast(NewPageMessage(1, 0))
	}
	if len(hub.broadcast) != cap(hub.broadcast) {
		t.Errorf("queued = %d, want a full buffer of %d", len(hub.broadcast), cap(hub.broadcast))
	}
}

func TestHub_TypeFilter(t *testing.T) {
	hub := NewHub(zap.NewNop())
	go hub.Run()
	defer hub.Stop()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, w, r)
	}))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?types=page_changed"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	hub.Broadcast(NewSwitchEventMessage(1, "pressed", 0))
	hub.Broadcast(NewPageMessage(3, 0))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg.Type != MessageTypePageChanged {
		t.Errorf("first message type = %s, want %s", msg.Type, MessageTypePageChanged)
	}
}

func TestParseTypes(t *testing.T) {
	if got := parseTypes(""); got != nil {
		t.Errorf("parseTypes(\"\") = %v, want nil", got)
	}

	got := parseTypes("switch_event, device_lost,,")
	if len(got) != 2 || !got[MessageTypeSwitchEvent] || !got[MessageTypeDeviceLost] {
		t.Errorf("parseTypes() = %v", got)
	}

	c := &Client{types: got}
	if c.wants(MessageTypePageChanged) || !c.wants(MessageTypeDeviceLost) {
		t.Error("wants() ignores the filter")
	}
	if !(&Client{}).wants(MessageTypePageChanged) {
		t.Error("client without filter misses messages")
	}
}
