package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid is returned for malformed or tampered tokens.
	ErrTokenInvalid = errors.New("storage: invalid download token")
	// ErrTokenExpired is returned once a token's lifetime has passed.
	ErrTokenExpired = errors.New("storage: download token expired")
)

// DownloadClaims identifies the file a token grants access to.
type DownloadClaims struct {
	SurveyID  string `json:"sid"`
	OwnerID   string `json:"uid"`
	File      string `json:"f"`
	ExpiresAt int64  `json:"exp"`
}

// TokenSigner issues and checks expiring download tokens. A token is the
// base64url JSON claims followed by a hex HMAC-SHA256 over them.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner builds a signer; ttl defaults to one hour.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token for claims, stamping its expiry.
func (s *TokenSigner) Sign(claims DownloadClaims) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("storage: signing secret missing")
	}
	if claims.File == "" {
		return "", time.Time{}, errors.New("storage: file is required")
	}
	expiresAt := s.now().Add(s.ttl).UTC()
	claims.ExpiresAt = expiresAt.Unix()
	raw, err := json.Marshal(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode claims: %w", err)
	}
	body := base64.RawURLEncoding.EncodeToString(raw)
	return body + "." + s.mac(body), expiresAt, nil
}

// Verify checks the signature and expiry and returns the claims.
func (s *TokenSigner) Verify(token string) (DownloadClaims, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok || body == "" || sig == "" {
		return DownloadClaims{}, ErrTokenInvalid
	}
	if !hmac.Equal([]byte(s.mac(body)), []byte(strings.ToLower(sig))) {
		return DownloadClaims{}, ErrTokenInvalid
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return DownloadClaims{}, ErrTokenInvalid
	}
	var claims DownloadClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return DownloadClaims{}, ErrTokenInvalid
	}
	if s.now().Unix() > claims.ExpiresAt {
		return claims, ErrTokenExpired
	}
	return claims, nil
}

func (s *TokenSigner) mac(body string) string {
	m := hmac.New(sha256.New, s.secret)
	_, _ = m.Write([]byte(body))
	return hex.EncodeToString(m.Sum(nil))
}
