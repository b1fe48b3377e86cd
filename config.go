package realtime

import "time"

// Defaults applied by Config.withDefaults. The heartbeat interval must stay
// strictly below the server's 120 second idle-timeout window.
const (
	DefaultDialTimeout       = 15 * time.Second
	DefaultHeartbeatInterval = 60 * time.Second
	DefaultReconnectDelay    = 2 * time.Second
	DefaultReconnectAttempts = 3
)

// Config holds all configuration options for creating a realtime client.
// RelayURL plus one credential (APIKey or Token) are required; everything
// else has a sensible default.
type Config struct {
	// RelayURL is the base URL of the relay process, e.g. "ws://localhost:8080".
	// Plain http/https schemes are accepted and rewritten to ws/wss.
	// Required: Yes
	RelayURL string

	// APIKey is the vendor credential, forwarded to the relay as the api_key
	// query parameter. The relay injects it as an authorization header on the
	// upstream leg (browsers cannot set headers on a socket upgrade, and the
	// same relay serves this client).
	// Required: APIKey or Token
	APIKey string

	// Token is an ephemeral relay credential minted by the relay's /token
	// endpoint. When set it is sent instead of APIKey, so the vendor key never
	// leaves the relay host.
	// Required: APIKey or Token
	Token string

	// Model selects the upstream model. Empty means the relay's default.
	Model string

	// Voice selects the assistant voice, sent in the session-initialization
	// update once the connection is ready.
	Voice string

	// Instructions provide system-level guidance to the assistant.
	Instructions string

	// Temperature controls sampling randomness for assistant responses.
	// Zero means the endpoint default. Valid range: 0.0-2.0.
	Temperature float64

	// DialTimeout bounds WebSocket connection establishment.
	// Zero means DefaultDialTimeout.
	DialTimeout time.Duration

	// HeartbeatInterval is the cadence of keep-alive no-op events once the
	// session is ready. Zero means DefaultHeartbeatInterval.
	HeartbeatInterval time.Duration

	// ReconnectDelay is the fixed pause between reconnect attempts after an
	// unexpected close. Zero means DefaultReconnectDelay. There is no backoff
	// growth: the relay is typically co-located, so a bounded simple policy
	// is enough.
	ReconnectDelay time.Duration

	// MaxReconnectAttempts bounds consecutive reconnect attempts before the
	// session is terminally disconnected. Zero means DefaultReconnectAttempts.
	MaxReconnectAttempts int

	// Logger receives operational events. Nil disables logging.
	Logger *Logger
}

// withDefaults returns a copy of cfg with zero-valued tunables filled in.
func (cfg Config) withDefaults() Config {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.MaxReconnectAttempts == 0 {
		cfg.MaxReconnectAttempts = DefaultReconnectAttempts
	}
	return cfg
}
