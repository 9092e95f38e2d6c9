package auth

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/akash12888/note-taking-app/pkg/crypto"
)

var (
	errStateExpired = errors.New("oauth state: expired")
	errStateInvalid = errors.New("oauth state: invalid")
)

// StateCodec encodes and decodes the opaque state parameter carried through
// the federated sign-in redirect handshake.
type StateCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// StatePayload captures data required to validate the callback and finish the flow.
type StatePayload struct {
	Nonce    string    `json:"n"`
	PKCE     string    `json:"k"`
	IssuedAt time.Time `json:"iat"`
}

// NewStateCodec constructs a StateCodec. The key is derived from an arbitrary
// secret; the ttl bounds how long a redirect may stay outstanding.
func NewStateCodec(secret string, ttl time.Duration, now func() time.Time) (*StateCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("oauth state: secret is required")
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &StateCodec{
		key: crypto.DeriveKey(secret),
		ttl: ttl,
		now: now,
	}, nil
}

// Encode encrypts the supplied payload into a compact state string.
func (c *StateCodec) Encode(payload StatePayload) (string, error) {
	if payload.Nonce == "" || payload.PKCE == "" {
		return "", errors.New("oauth state: nonce and pkce are required")
	}
	payload.IssuedAt = c.now().UTC()

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	return crypto.Encrypt(raw, c.key)
}

// Decode decrypts the state string back into a payload while enforcing expiry.
func (c *StateCodec) Decode(token string) (StatePayload, error) {
	var payload StatePayload
	if strings.TrimSpace(token) == "" {
		return payload, errStateInvalid
	}

	raw, err := crypto.Decrypt(token, c.key)
	if err != nil {
		return payload, errStateInvalid
	}

	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, errStateInvalid
	}

	if payload.Nonce == "" || payload.PKCE == "" || payload.IssuedAt.IsZero() {
		return payload, errStateInvalid
	}

	if c.now().UTC().After(payload.IssuedAt.Add(c.ttl)) {
		return payload, errStateExpired
	}

	return payload, nil
}
