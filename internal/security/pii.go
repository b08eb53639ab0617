// Package security provides PII masking for log output and HMAC
// verification for inbound webhooks.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MaskEmail masks the local part of an email address for logging.
// "jane.doe@example.com" becomes "ja***@example.com".
func MaskEmail(email string) string {
	if email == "" || !strings.Contains(email, "@") {
		return "***"
	}

	parts := strings.SplitN(email, "@", 2)
	local, domain := parts[0], parts[1]

	var masked string
	if len(local) <= 2 {
		masked = strings.Repeat("*", len(local))
	} else {
		masked = local[:2] + "***"
	}

	return masked + "@" + domain
}

// HashIdentifier returns the first 8 hex characters of the SHA-256 of an
// identifier, so employee ids can be correlated in logs without exposure.
func HashIdentifier(identifier string) string {
	if identifier == "" {
		return "***"
	}

	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:])[:8]
}

// MaskName keeps only the first letter of a personal name.
func MaskName(name string) string {
	if name == "" {
		return "***"
	}
	return name[:1] + "***"
}
