package websocket

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nuttally/internal/logger"

	"github.com/gorilla/websocket"
)

func TestHub_BroadcastReachesViewer(t *testing.T) {
	hub := NewHubService(logger.NewWithWriter(&bytes.Buffer{}))
	go hub.Run()
	defer hub.Stop()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		hub.Register(conn)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast([]byte(`{"total":4}`))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(msg) != `{"total":4}` {
		t.Errorf("unexpected message %s", msg)
	}
}

func TestHub_BroadcastDoesNotBlockWithoutRun(t *testing.T) {
	var logs bytes.Buffer
	hub := NewHubService(logger.NewWithWriter(&logs))

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastBuffer+5; i++ {
			hub.Broadcast([]byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked")
	}
	if !strings.Contains(logs.String(), "dropping") {
		t.Errorf("expected a drop warning, got %q", logs.String())
	}
}
