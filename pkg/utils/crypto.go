package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

var ErrSealedTooShort = errors.New("sealed value too short")

// Sealer encrypts small values with AES-256-GCM under a key derived from a
// passphrase. The additional data must match between Seal and Open.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("sealer secret is empty")
	}
	key := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns base64(nonce || ciphertext).
func (s *Sealer) Seal(plaintext, additionalData []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("error generating nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(s.aead.Seal(nonce, nonce, plaintext, additionalData)), nil
}

func (s *Sealer) Open(sealed string, additionalData []byte) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("error decoding sealed value: %w", err)
	}

	n := s.aead.NonceSize()
	if len(data) < n+s.aead.Overhead() {
		return nil, ErrSealedTooShort
	}
	return s.aead.Open(nil, data[:n], data[n:], additionalData)
}
