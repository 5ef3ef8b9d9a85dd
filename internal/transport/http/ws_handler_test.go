package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"formbuilder-service/internal/app"
	"formbuilder-service/internal/catalog"
	"formbuilder-service/internal/domain"
	"formbuilder-service/internal/infra/memory"
)

type message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	for i, typeID := range []domain.QuestionType{domain.TypeName, domain.TypeEmail, domain.TypePhone} {
		q := domain.QuestionInstance{ID: "q" + string(rune('1'+i)), FormID: "form-1", Type: typeID, Order: i + 1}
		if err := store.SaveQuestion(context.Background(), q); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	// hijacked connections outlive the test, so nothing may log to t
	log := zap.NewNop()
	service := app.NewFormService(store, memory.NewSessionStore(), catalog.Default(),
		app.WithLogger(log), app.WithPolicy(catalog.DefaultPolicy()))
	wsHandler := NewWSHandler(service, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, editorID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?formId=form-1&editorId=" + editorID + "&name=Alice"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/ws?formId=form-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestWebSocketMoveBroadcastsLayout(t *testing.T) {
	server := newTestServer(t)
	alice := dial(t, server, "ed-1")
	readNext(t, alice, "joined")
	bob := dial(t, server, "ed-2")
	joined := readNext(t, bob, "joined")
	if editors, _ := joined.Payload["editors"].([]any); len(editors) != 2 {
		t.Fatalf("expected 2 editors, got %v", joined.Payload["editors"])
	}

	send(t, alice, "moveQuestion", map[string]any{"questionId": "q1", "direction": "down"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := readNext(t, conn, "layout")
		if got := questionIDs(t, msg.Payload); got != "q2,q1,q3" {
			t.Fatalf("expected q2,q1,q3, got %s", got)
		}
	}

	send(t, alice, "moveQuestion", map[string]any{"questionId": "q2", "direction": "up"})
	noop := readNext(t, alice, "layout")
	if noop.Payload["noop"] != "question is already first" {
		t.Fatalf("expected noop reason, got %v", noop.Payload["noop"])
	}
}

func TestWebSocketReportsErrorKinds(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "ed-1")
	readNext(t, conn, "joined")

	send(t, conn, "deleteQuestion", map[string]any{"questionId": "q1"})
	msg := readNext(t, conn, "error")
	if msg.Payload["kind"] != domain.KindEssential {
		t.Fatalf("expected essential error, got %v", msg.Payload)
	}

	send(t, conn, "moveBreak", map[string]any{"breakId": "missing", "direction": "up"})
	msg = readNext(t, conn, "error")
	if msg.Payload["kind"] != domain.KindNotFound {
		t.Fatalf("expected not_found error, got %v", msg.Payload)
	}

	send(t, conn, "commitSetup", nil)
	msg = readNext(t, conn, "error")
	if msg.Payload["kind"] != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", msg.Payload)
	}

	send(t, conn, "shuffle", nil)
	readNext(t, conn, "error")
}

func TestWebSocketSetupFlow(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "ed-1")
	readNext(t, conn, "joined")

	send(t, conn, "beginSetup", map[string]any{"type": "customText", "after": 3})
	msg := readNext(t, conn, "setup")
	if msg.Payload["canCommit"] != false {
		t.Fatalf("empty setup must not be committable: %v", msg.Payload)
	}

	send(t, conn, "commitSetup", nil)
	readNext(t, conn, "error")

	send(t, conn, "setupAction", map[string]any{"action": "set", "id": "label", "value": "Favourite suburb"})
	send(t, conn, "setupAction", map[string]any{"action": "set", "id": "multiline", "value": "short"})
	readNext(t, conn, "setup")
	msg = readNext(t, conn, "setup")
	if msg.Payload["canCommit"] != true {
		t.Fatalf("expected committable setup, got %v", msg.Payload["validation"])
	}

	send(t, conn, "commitSetup", nil)
	seen := map[string]message{}
	for len(seen) < 2 {
		msg := readNext(t, conn, "")
		seen[msg.Type] = msg
	}
	committed, ok := seen["committed"]
	if !ok {
		t.Fatalf("expected committed, got %v", seen)
	}
	layout, _ := committed.Payload["layout"].(map[string]any)
	if got := questionIDs(t, layout); !strings.HasPrefix(got, "q1,q2,q3,") {
		t.Fatalf("expected new question appended, got %s", got)
	}
	if _, ok := seen["layout"]; !ok {
		t.Fatalf("expected layout broadcast, got %v", seen)
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) message {
	t.Helper()
	var msg message
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg
}

func questionIDs(t *testing.T, payload map[string]any) string {
	t.Helper()
	layout := payload
	if inner, ok := payload["layout"].(map[string]any); ok {
		layout = inner
	}
	questions, ok := layout["questions"].([]any)
	if !ok {
		t.Fatalf("payload has no questions: %v", payload)
	}
	out := ""
	for i, q := range questions {
		if i > 0 {
			out += ","
		}
		out += q.(map[string]any)["id"].(string)
	}
	return out
}
