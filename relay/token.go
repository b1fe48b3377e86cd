package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssueToken mints a short-lived HS256 token a client can present as the
// token query parameter instead of an API key.
func (s *Server) IssueToken(subject string) (string, time.Time, error) {
	if s.cfg.TokenSecret == "" {
		return "", time.Time{}, fmt.Errorf("relay: token secret not configured")
	}
	now := time.Now()
	expires := now.Add(s.cfg.TokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		Issuer:    "voicechat-relay",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// ValidateToken checks signature, algorithm and expiry of an ephemeral
// token.
func (s *Server) ValidateToken(tokenStr string) error {
	_, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.TokenSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	return nil
}

// handleToken issues an ephemeral token over HTTP. The endpoint is only
// registered when a token secret is configured; deployments front it with
// their own user auth.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		subject = "anonymous"
	}
	token, expires, err := s.IssueToken(subject)
	if err != nil {
		s.log.Error("token_issue_failed", map[string]any{"error": err.Error()})
		http.Error(w, "token issuance failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}
