// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the deterministic cache key for a request from
// its method, fully resolved URL and encoded body. Identical requests
// collide; distinct requests do not, modulo hash collision.
func Fingerprint(method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
