package irisfast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// bridgeServer pushes greeting to every client and forwards the frames it
// reads to replies.
func bridgeServer(t *testing.T, greeting Message, replies chan<- ReplyRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.CloseNow()
		ctx := r.Context()
		if err := wsjson.Write(ctx, conn, greeting); err != nil {
			return
		}
		for {
			var req ReplyRequest
			if err := wsjson.Read(ctx, conn, &req); err != nil {
				return
			}
			replies <- req
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestListenerDeliversMessagesAndWrites(t *testing.T) {
	sender := "Mina"
	replies := make(chan ReplyRequest, 4)
	srv := bridgeServer(t, Message{Msg: "!ng start", Room: "room-1", Sender: &sender}, replies)
	defer srv.Close()

	ws := NewListener(wsURL(srv), 0, WithListenerLogger(zaptest.NewLogger(t)))
	got := make(chan *Message, 1)
	ws.OnMessage(func(m *Message) { got <- m })
	var states []WebSocketState
	ws.OnStateChange(func(s WebSocketState) { states = append(states, s) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ws.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if ws.State() != WSStateConnected {
		t.Fatalf("expected connected, got %s", ws.State())
	}

	select {
	case m := <-got:
		if m.Msg != "!ng start" || m.Room != "room-1" || m.SenderName() != "Mina" {
			t.Fatalf("unexpected message: %+v", m)
		}
	case <-ctx.Done():
		t.Fatalf("no message delivered")
	}

	egress := NewEgress(EgressWS, false, nil, ws, nil)
	if err := egress.SendText(ctx, "room-1", "🎯 New round"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	select {
	case r := <-replies:
		if r != (ReplyRequest{Type: "text", Room: "room-1", Data: "🎯 New round"}) {
			t.Fatalf("unexpected frame: %+v", r)
		}
	case <-ctx.Done():
		t.Fatalf("no frame received")
	}

	if err := ws.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ws.State() != WSStateDisconnected {
		t.Fatalf("expected disconnected after close, got %s", ws.State())
	}
	if len(states) < 2 || states[0] != WSStateConnecting || states[1] != WSStateConnected {
		t.Fatalf("unexpected state sequence: %v", states)
	}
}

func TestListenerWriteWithoutConnection(t *testing.T) {
	ws := NewListener("ws://127.0.0.1:1", 0)
	if err := ws.WriteJSON(context.Background(), ReplyRequest{}); err != ErrNotConnected {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}
}

func TestListenerConnectFailure(t *testing.T) {
	ws := NewListener("ws://127.0.0.1:1", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ws.Connect(ctx); err == nil {
		t.Fatalf("expected dial error")
	}
	if ws.State() != WSStateFailed {
		t.Fatalf("expected failed state, got %s", ws.State())
	}
}

func TestRemoveMessageCallback(t *testing.T) {
	ws := NewListener("ws://unused", 0)
	a := ws.OnMessage(func(*Message) {})
	b := ws.OnMessage(func(*Message) {})
	if a == b {
		t.Fatalf("callback ids must be unique")
	}
	ws.RemoveMessageCallback(a)
	if len(ws.msgCbs) != 1 || ws.msgCbs[0].id != b {
		t.Fatalf("unexpected callbacks after removal: %+v", ws.msgCbs)
	}
}

func TestAutoEgressFallsBackToHTTP(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ws := NewListener("ws://127.0.0.1:1", 0)
	e := NewEgress(EgressAuto, false, NewClient(srv.URL), ws, nil)
	if err := e.SendText(context.Background(), "r", "hi"); err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if err := e.SendImage(context.Background(), "r", "aGk="); err != nil {
		t.Fatalf("SendImage: %v", err)
	}
	if n := posts.Load(); n != 2 {
		t.Fatalf("expected 2 http posts, got %d", n)
	}
}

func TestDryRunEgress(t *testing.T) {
	e := NewEgress(EgressWS, true, nil, NewListener("ws://unused", 0), nil)
	if err := e.SendText(context.Background(), "r", "hi"); err != nil {
		t.Fatalf("dryrun should not fail: %v", err)
	}
	if err := NewEgress(EgressHTTP, false, nil, nil, nil).SendText(context.Background(), "r", "hi"); err == nil {
		t.Fatalf("expected error without client")
	}
}
