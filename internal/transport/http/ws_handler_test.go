package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hunt-event-service/internal/app"
	"hunt-event-service/internal/domain"
)

func TestClearFeedPushesBoards(t *testing.T) {
	ctx := context.Background()
	api := newMemoryAPI(t)
	_ = api.store.CreateGroup(ctx, domain.Group{GroupID: "g1", Name: "Owls", WasCleared: "0", SnackState: "0"})
	_ = api.store.CreateChallenge(ctx, domain.Challenge{
		ChallengeID: "c1", GroupID: "g1", Difficulty: 1, RoomID: "Web",
		State: domain.StatePending, StartTime: time.Now().Add(-time.Minute),
	})

	server := httptest.NewServer(api.router)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/cleartimes?difficulty=1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the current (empty) board first.
	msgType, payload := readNext(conn, t)
	if msgType != "board" {
		t.Fatalf("expected board, got %s", msgType)
	}
	if entries, _ := payload["entries"].([]any); len(entries) != 0 {
		t.Fatalf("expected empty board, got %v", entries)
	}

	if err := conn.WriteJSON(map[string]any{"type": "hello"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if msgType, _ = readNext(conn, t); msgType != "error" {
		t.Fatalf("expected error for client message, got %s", msgType)
	}

	if _, err := api.svc.Finisher.Finish(ctx, app.FinishCommand{RoomCode: "Web", Result: domain.StateCleared}); err != nil {
		t.Fatalf("finish: %v", err)
	}

	msgType, payload = readNext(conn, t)
	if msgType != "board" {
		t.Fatalf("expected board update, got %s", msgType)
	}
	entries, _ := payload["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %v", payload)
	}
	if name := entries[0].(map[string]any)["groupName"]; name != "Owls" {
		t.Fatalf("expected Owls, got %v", name)
	}
}

func TestClearFeedRejectsBadDifficulty(t *testing.T) {
	api := newMemoryAPI(t)
	server := httptest.NewServer(api.router)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/cleartimes?difficulty=abc"
	_, resp, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}

func readNext(conn *websocket.Conn, t *testing.T) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg.Type, msg.Payload
}
