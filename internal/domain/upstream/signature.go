package upstream

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// maxTimestampDrift is the accepted clock skew for signed webhooks, in seconds.
const maxTimestampDrift = 300

// Signature signs and verifies order store webhooks with HMAC-SHA256.
type Signature struct {
	secret string
}

// NewSignature creates a Signature for the shared webhook secret.
func NewSignature(secret string) *Signature {
	return &Signature{secret: secret}
}

// Enabled reports whether a secret is configured.
func (s *Signature) Enabled() bool {
	return s != nil && s.secret != ""
}

// Sign returns the hex signature of body.
// With a non-zero timestamp the signed string is "<timestamp>.<body>".
func (s *Signature) Sign(timestamp int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(s.secret))
	if timestamp != 0 {
		h.Write([]byte(strconv.FormatInt(timestamp, 10)))
		h.Write([]byte("."))
	}
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks a provided signature, with or without a "sha256=" prefix.
func (s *Signature) Verify(timestamp int64, body []byte, provided string) bool {
	provided = strings.TrimPrefix(strings.TrimSpace(provided), "sha256=")
	if provided == "" {
		return false
	}
	expected := s.Sign(timestamp, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(provided)))
}

// ValidateTimestamp checks that timestamp is within five minutes of serverTimestamp.
func ValidateTimestamp(timestamp, serverTimestamp int64) bool {
	diff := serverTimestamp - timestamp
	if diff < 0 {
		diff = -diff
	}
	return diff <= maxTimestampDrift
}
