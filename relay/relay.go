// Package relay implements the credential-injecting websocket relay that
// sits between browser or app clients and the upstream realtime endpoint.
// Clients connect without long-lived secrets; the relay validates the
// credential carried in the query string, dials upstream with the real API
// key in an Authorization header, announces readiness with a
// proxy.connected message, and then forwards frames byte for byte in both
// directions.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// CloseMissingCredential is the close code sent when a client connects
// without an api_key or token query parameter.
const CloseMissingCredential websocket.StatusCode = 4001

// Config holds relay settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// UpstreamURL is the realtime endpoint to dial, ws:// or wss://.
	UpstreamURL string
	// APIKey is the upstream credential used for token-authenticated
	// clients, which never see the real key. Required when TokenSecret is
	// set.
	APIKey string
	// TokenSecret enables ephemeral token issuance and validation when set.
	TokenSecret string
	// TokenTTL bounds issued token lifetime. Defaults to 5 minutes.
	TokenTTL time.Duration
	// DefaultModel is appended upstream when the client names none.
	DefaultModel string
	// Logger receives relay logs. Nil disables logging.
	Logger Logger
}

// Logger is the minimal logging surface the relay needs.
type Logger interface {
	Info(event string, fields map[string]any)
	Warn(event string, fields map[string]any)
	Error(event string, fields map[string]any)
}

// Server relays websocket sessions and tracks them for graceful shutdown.
type Server struct {
	cfg Config
	log Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	done  bool
}

// New validates cfg and builds a Server.
func New(cfg Config) (*Server, error) {
	if cfg.UpstreamURL == "" {
		return nil, errors.New("relay: upstream URL is required")
	}
	if cfg.TokenSecret != "" && cfg.APIKey == "" {
		return nil, errors.New("relay: token auth requires an upstream API key")
	}
	if _, err := url.Parse(cfg.UpstreamURL); err != nil {
		return nil, fmt.Errorf("relay: invalid upstream URL: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = defaultLogger{}
	}
	return &Server{
		cfg:   cfg,
		log:   cfg.Logger,
		conns: make(map[*websocket.Conn]struct{}),
	}, nil
}

// Handler returns the relay's HTTP mux: websocket sessions at /, liveness
// at /health, and ephemeral token issuance at /token when a secret is
// configured.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	if s.cfg.TokenSecret != "" {
		mux.HandleFunc("/token", s.handleToken)
	}
	mux.HandleFunc("/", s.handleSession)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleSession upgrades the client, checks its credential, dials upstream
// and pumps frames until either side closes.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	client, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn("accept_failed", map[string]any{"error": err.Error()})
		return
	}

	cred, key, err := s.authorize(r)
	if err != nil {
		// The handshake already succeeded, so the rejection travels as a
		// close frame the client can inspect.
		s.log.Warn("unauthorized", map[string]any{"remote": r.RemoteAddr, "error": err.Error()})
		_ = client.Close(CloseMissingCredential, "Missing API Key")
		return
	}

	model := r.URL.Query().Get("model")
	if model == "" {
		model = s.cfg.DefaultModel
	}

	ctx := r.Context()
	upstream, err := s.dialUpstream(ctx, model, key)
	if err != nil {
		s.log.Error("upstream_dial_failed", map[string]any{"error": err.Error()})
		_ = client.Close(websocket.StatusBadGateway, "upstream unavailable")
		return
	}

	s.track(client)
	defer s.untrack(client)

	// Readiness marker: the client holds all traffic until it sees this.
	ready, _ := json.Marshal(map[string]string{"type": "proxy.connected"})
	if err := client.Write(ctx, websocket.MessageText, ready); err != nil {
		_ = upstream.Close(websocket.StatusGoingAway, "client gone")
		return
	}

	s.log.Info("session_open", map[string]any{"remote": r.RemoteAddr, "credential": cred, "model": model})
	s.pump(ctx, client, upstream)
	s.log.Info("session_closed", map[string]any{"remote": r.RemoteAddr})
}

// authorize checks the query-string credential and returns the form used
// plus the key to inject upstream. Clients either present their own
// api_key, which travels upstream as the bearer credential, or an
// ephemeral token the relay exchanges for its configured key.
func (s *Server) authorize(r *http.Request) (form, key string, err error) {
	q := r.URL.Query()
	if token := q.Get("token"); token != "" {
		if s.cfg.TokenSecret == "" {
			return "", "", errors.New("token auth not enabled")
		}
		if err := s.ValidateToken(token); err != nil {
			return "", "", err
		}
		return "token", s.cfg.APIKey, nil
	}
	if apiKey := q.Get("api_key"); apiKey != "" {
		return "api_key", apiKey, nil
	}
	return "", "", errors.New("no credential supplied")
}

func (s *Server) dialUpstream(ctx context.Context, model, apiKey string) (*websocket.Conn, error) {
	target := s.cfg.UpstreamURL
	if model != "" {
		u, err := url.Parse(target)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("model", model)
		u.RawQuery = q.Encode()
		target = u.String()
	}

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+apiKey)
	conn, _, err := websocket.Dial(dialCtx, target, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(16 << 20)
	return conn, nil
}

// pump forwards frames both ways without inspecting them, preserving the
// message type. When one side closes, its close code is propagated to the
// other.
func (s *Server) pump(ctx context.Context, client, upstream *websocket.Conn) {
	client.SetReadLimit(16 << 20)

	errc := make(chan error, 2)
	go func() { errc <- forward(ctx, client, upstream) }()
	go func() { errc <- forward(ctx, upstream, client) }()

	err := <-errc
	code := websocket.StatusNormalClosure
	reason := ""
	if got := websocket.CloseStatus(err); got != -1 {
		code = got
		var ce websocket.CloseError
		if errors.As(err, &ce) {
			reason = ce.Reason
		}
	}
	_ = client.Close(code, reason)
	_ = upstream.Close(code, reason)
	<-errc
}

func forward(ctx context.Context, src, dst *websocket.Conn) error {
	for {
		typ, data, err := src.Read(ctx)
		if err != nil {
			return err
		}
		if err := dst.Write(ctx, typ, data); err != nil {
			return err
		}
	}
}

func (s *Server) track(conn *websocket.Conn) {
	s.mu.Lock()
	if !s.done {
		s.conns[conn] = struct{}{}
	}
	s.mu.Unlock()
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// ActiveSessions reports the number of relayed sessions currently open.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Shutdown closes every live session with a going-away frame. Call it
// after the HTTP server has stopped accepting new connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.done = true
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.Close(websocket.StatusGoingAway, "relay shutting down")
	}
	return ctx.Err()
}

// defaultLogger writes nothing; callers wanting output supply their own.
type defaultLogger struct{}

func (defaultLogger) Info(string, map[string]any)  {}
func (defaultLogger) Warn(string, map[string]any)  {}
func (defaultLogger) Error(string, map[string]any) {}
