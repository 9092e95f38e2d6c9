package auth

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/akash12888/note-taking-app/pkg/crypto"
)

// PKCE holds the verifier kept server side and the challenge sent along
// with the authorization request.
type PKCE struct {
	Verifier  string
	Challenge string
	Method    string
}

// GeneratePKCE produces a fresh verifier and its S256 challenge.
func GeneratePKCE() (PKCE, error) {
	verifier, err := crypto.GenerateToken(64)
	if err != nil {
		return PKCE{}, err
	}

	sum := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(sum[:])

	return PKCE{
		Verifier:  verifier,
		Challenge: challenge,
		Method:    "S256",
	}, nil
}
