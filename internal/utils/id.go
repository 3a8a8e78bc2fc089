package utils

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

// GenerateSecureToken creates a cryptographically secure random token.
func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

const seedAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomSeed returns a short lowercase alphanumeric seed, e.g. for avatar
// generation URLs.
func RandomSeed(length int) string {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(seedAlphabet))))
		if err != nil {
			b[i] = 'x'
			continue
		}
		b[i] = seedAlphabet[n.Int64()]
	}
	return string(b)
}
