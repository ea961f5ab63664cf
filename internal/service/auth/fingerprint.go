package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Fingerprinter computes the one-way digest of a raw credential. The digest
// is what the credential store keeps in place of the raw refresh token, so a
// store compromise never yields a usable session token.
type Fingerprinter interface {
	// Fingerprint returns a deterministic, one-way digest of the raw token.
	Fingerprint(rawToken string) string
}

// HMACFingerprinter implements Fingerprinter using HMAC-SHA256 with a
// server-side secret, hex encoded. Keying the digest means an attacker with
// read access to the store cannot verify guesses offline.
type HMACFingerprinter struct {
	secret []byte
}

// NewHMACFingerprinter creates a new HMACFingerprinter with the given secret.
func NewHMACFingerprinter(secret string) (*HMACFingerprinter, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("fingerprint secret must be at least 32 characters")
	}
	return &HMACFingerprinter{secret: []byte(secret)}, nil
}

// Fingerprint implements the Fingerprinter interface.
func (f *HMACFingerprinter) Fingerprint(rawToken string) string {
	mac := hmac.New(sha256.New, f.secret)
	mac.Write([]byte(rawToken))
	return hex.EncodeToString(mac.Sum(nil))
}
