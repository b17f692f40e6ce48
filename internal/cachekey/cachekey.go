// Package cachekey derives deterministic storage keys from query text.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
)

// DefaultNamespace is the key prefix used when none is configured.
const DefaultNamespace = "cache"

// Derive returns the storage key for text: "<namespace>:<sha256 hex>".
// The exact input text is hashed; no normalization is applied, so texts that
// differ only in case or whitespace get different keys.
func Derive(namespace, text string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	hash := sha256.Sum256([]byte(text))
	return namespace + ":" + hex.EncodeToString(hash[:])
}

// IndexKey returns the name of the set that holds every entry key of namespace.
func IndexKey(namespace string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return namespace + ":keys"
}
