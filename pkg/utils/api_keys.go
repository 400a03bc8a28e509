package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	apiKeyPrefix    = "sf_"
	apiKeyShownSize = 8
)

func GenerateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NewAPIKey returns a fresh key and the short prefix that identifies it in
// listings once the full key is no longer shown.
func NewAPIKey() (key, shown string, err error) {
	random, err := GenerateRandomKey(24)
	if err != nil {
		return "", "", err
	}
	key = apiKeyPrefix + random
	return key, key[:len(apiKeyPrefix)+apiKeyShownSize], nil
}

// HashAPIKey is the form an API key is stored and looked up in.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// NewStateToken returns an unguessable value for the OAuth state parameter.
func NewStateToken() (string, error) {
	return gonanoid.New(32)
}

// NewObjectKey builds an object store key under prefix, keeping the
// extension of fileName when it has one.
func NewObjectKey(prefix, fileName string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(path.Ext(fileName))
	if prefix == "" {
		return id + ext, nil
	}
	return fmt.Sprintf("%s/%s%s", strings.TrimSuffix(prefix, "/"), id, ext), nil
}
