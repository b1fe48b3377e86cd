package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

// mockUpstream is a stand-in for the vendor realtime endpoint. It records
// the authorization header and query of every dial and echoes frames back
// prefixed with "echo:".
type mockUpstream struct {
	mu    sync.Mutex
	dials int
	auth  string
	query map[string]string

	srv *httptest.Server
}

func newMockUpstream(t *testing.T) *mockUpstream {
	t.Helper()
	m := &mockUpstream{}
	m.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.dials++
		m.auth = r.Header.Get("Authorization")
		m.query = map[string]string{}
		for k, v := range r.URL.Query() {
			m.query[k] = v[0]
		}
		m.mu.Unlock()

		ws, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := context.Background()
		for {
			typ, data, err := ws.Read(ctx)
			if err != nil {
				return
			}
			if err := ws.Write(ctx, typ, append([]byte("echo:"), data...)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(m.srv.Close)
	return m
}

func (m *mockUpstream) wsURL() string {
	return "ws" + strings.TrimPrefix(m.srv.URL, "http")
}

func (m *mockUpstream) dialCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dials
}

func newTestRelay(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	httpSrv := httptest.NewServer(srv.Handler())
	t.Cleanup(httpSrv.Close)
	return srv, httpSrv
}

func dialRelay(t *testing.T, httpSrv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/?" + query
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		t.Fatalf("dial relay: %v", err)
	}
	return ws
}

func TestHealthEndpoint(t *testing.T) {
	upstream := newMockUpstream(t)
	_, httpSrv := newTestRelay(t, Config{UpstreamURL: upstream.wsURL()})

	resp, err := http.Get(httpSrv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestMissingCredentialClosesWith4001(t *testing.T) {
	upstream := newMockUpstream(t)
	_, httpSrv := newTestRelay(t, Config{UpstreamURL: upstream.wsURL()})

	ws := dialRelay(t, httpSrv, "")
	defer ws.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := ws.Read(ctx)
	if err == nil {
		t.Fatal("read succeeded, want close")
	}
	if code := websocket.CloseStatus(err); code != CloseMissingCredential {
		t.Errorf("close code = %d, want %d", code, CloseMissingCredential)
	}
	var ce websocket.CloseError
	if errors.As(err, &ce) && ce.Reason != "Missing API Key" {
		t.Errorf("close reason = %q, want Missing API Key", ce.Reason)
	}

	// The rejection happens before any upstream dial.
	if n := upstream.dialCount(); n != 0 {
		t.Errorf("upstream dials = %d for unauthenticated client, want 0", n)
	}
}

func TestCredentialInjectedUpstream(t *testing.T) {
	upstream := newMockUpstream(t)
	_, httpSrv := newTestRelay(t, Config{
		UpstreamURL:  upstream.wsURL(),
		DefaultModel: "default-model",
	})

	ws := dialRelay(t, httpSrv, "api_key=client-secret")
	defer ws.Close(websocket.StatusNormalClosure, "")

	readReady(t, ws)

	upstream.mu.Lock()
	auth, model := upstream.auth, upstream.query["model"]
	upstream.mu.Unlock()
	if auth != "Bearer client-secret" {
		t.Errorf("upstream auth = %q, want Bearer client-secret", auth)
	}
	if model != "default-model" {
		t.Errorf("upstream model = %q, want default-model", model)
	}
}

func TestClientModelOverridesDefault(t *testing.T) {
	upstream := newMockUpstream(t)
	_, httpSrv := newTestRelay(t, Config{
		UpstreamURL:  upstream.wsURL(),
		DefaultModel: "default-model",
	})

	ws := dialRelay(t, httpSrv, "api_key=k&model=custom-model")
	defer ws.Close(websocket.StatusNormalClosure, "")
	readReady(t, ws)

	upstream.mu.Lock()
	model := upstream.query["model"]
	upstream.mu.Unlock()
	if model != "custom-model" {
		t.Errorf("upstream model = %q, want custom-model", model)
	}
}

func TestForwardingIsTransparent(t *testing.T) {
	upstream := newMockUpstream(t)
	srv, httpSrv := newTestRelay(t, Config{UpstreamURL: upstream.wsURL()})

	ws := dialRelay(t, httpSrv, "api_key=k")
	defer ws.Close(websocket.StatusNormalClosure, "")
	readReady(t, ws)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload := `{"type":"input_audio_buffer.commit"}`
	if err := ws.Write(ctx, websocket.MessageText, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, data, err := ws.Read(ctx)
	if err != nil {
		t.Fatalf("read echo: %v", err)
	}
	if string(data) != "echo:"+payload {
		t.Errorf("echo = %q, frames must pass through unmodified", data)
	}

	if n := srv.ActiveSessions(); n != 1 {
		t.Errorf("ActiveSessions = %d, want 1", n)
	}
}

func TestProxyConnectedPrecedesForwarding(t *testing.T) {
	upstream := newMockUpstream(t)
	_, httpSrv := newTestRelay(t, Config{UpstreamURL: upstream.wsURL()})

	ws := dialRelay(t, httpSrv, "api_key=k")
	defer ws.Close(websocket.StatusNormalClosure, "")

	// The first frame a client ever sees is the readiness marker.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := ws.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "proxy.connected" {
		t.Errorf("first frame = %q, want proxy.connected", data)
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	upstream := newMockUpstream(t)
	srv, httpSrv := newTestRelay(t, Config{UpstreamURL: upstream.wsURL()})

	ws := dialRelay(t, httpSrv, "api_key=k")
	defer ws.Close(websocket.StatusNormalClosure, "")
	readReady(t, ws)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)

	readCtx, readCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer readCancel()
	if _, _, err := ws.Read(readCtx); err == nil {
		t.Error("session still open after Shutdown")
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.ActiveSessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("ActiveSessions = %d after shutdown, want 0", srv.ActiveSessions())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func readReady(t *testing.T, ws *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := ws.Read(ctx)
	if err != nil {
		t.Fatalf("read readiness frame: %v", err)
	}
	if !strings.Contains(string(data), "proxy.connected") {
		t.Fatalf("first frame = %q, want proxy.connected", data)
	}
}

