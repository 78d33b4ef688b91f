// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package fingerprint computes the content fingerprints used for optimistic
// concurrency control on wiki pages. The digest is over exact bytes: any
// edit, including whitespace, produces a different fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the lowercase hex SHA-256 digest of content.
func Sum(content string) string {
	h := sha256.Sum256([]byte(content))
	return hex.EncodeToString(h[:])
}

// Matches reports whether content hashes to the given fingerprint.
func Matches(content, sum string) bool {
	return Sum(content) == sum
}
