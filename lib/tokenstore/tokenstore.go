package tokenstore

import (
	"crypto/rand"
	"encoding/base64"

	"karesis-backend/lib/scrapers/karesis"
)

// Store maps an issued bearer token to the live portal client it
// authorizes. Implementations must tolerate concurrent Put (login) and
// Get (data call) from in-flight requests.
type Store interface {
	Get(token string) (*karesis.Client, bool)
	Put(token string, client *karesis.Client)
	Delete(token string)
}

// NewToken generates a fresh opaque bearer token. Collisions are not
// handled beyond the size of the random space.
func NewToken() (string, error) {
	nonce := make([]byte, 32)
	_, err := rand.Read(nonce)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(nonce), nil
}
