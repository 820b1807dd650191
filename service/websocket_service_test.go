package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tieubaoca/pdfchat-be/types"
)

type denyAfter struct{ n int }

func (d *denyAfter) Allow(ctx context.Context, key string) (bool, error) {
	d.n--
	return d.n >= 0, nil
}

type wsFrame struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}

func dialChat(t *testing.T, ws *WebSocketService) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.HandleChat(w, r, "U1")
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, req interface{}) wsFrame {
	t.Helper()
	if err := conn.WriteJSON(req); err != nil {
		t.Fatal(err)
	}
	var res wsFrame
	if err := conn.ReadJSON(&res); err != nil {
		t.Fatal(err)
	}
	return res
}

func TestWebSocketChat(t *testing.T) {
	f := newChatFixture(t)
	conn := dialChat(t, NewWebSocketService(f.svc, nil, nil))

	res := roundTrip(t, conn, types.WebsocketRequest{
		Type:    types.TypeWebsocketChat,
		Payload: types.SendMessageRequest{DocumentID: "D1", Message: "What is this about?"},
	})
	if res.Type != types.TypeWebsocketChat || res.Payload["message"] != "It is about X." {
		t.Errorf("unexpected reply: %+v", res)
	}

	res = roundTrip(t, conn, types.WebsocketRequest{
		Type:    types.TypeWebsocketChat,
		Payload: types.SendMessageRequest{DocumentID: "someone-elses", Message: "hi"},
	})
	if res.Type != types.TypeWebsocketError || res.Payload["status"] != float64(http.StatusNotFound) {
		t.Errorf("expected not found error frame: %+v", res)
	}

	res = roundTrip(t, conn, types.WebsocketRequest{Type: types.TypeWebsocketPing})
	if res.Type != types.TypeWebsocketPong {
		t.Errorf("expected pong: %+v", res)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	var bad wsFrame
	conn.ReadJSON(&bad)
	if bad.Type != types.TypeWebsocketError || bad.Payload["status"] != float64(http.StatusBadRequest) {
		t.Errorf("expected bad request frame: %+v", bad)
	}
}

func TestWebSocketChatRateLimited(t *testing.T) {
	f := newChatFixture(t)
	conn := dialChat(t, NewWebSocketService(f.svc, &denyAfter{n: 1}, nil))
	req := types.WebsocketRequest{
		Type:    types.TypeWebsocketChat,
		Payload: types.SendMessageRequest{DocumentID: "D1", Message: "hello"},
	}

	if res := roundTrip(t, conn, req); res.Type != types.TypeWebsocketChat {
		t.Fatalf("first message should pass: %+v", res)
	}
	res := roundTrip(t, conn, req)
	if res.Type != types.TypeWebsocketError || res.Payload["status"] != float64(http.StatusTooManyRequests) {
		t.Errorf("expected rate limit frame: %+v", res)
	}
	if f.completer.calls() != 1 {
		t.Errorf("completer called %d times", f.completer.calls())
	}
}
