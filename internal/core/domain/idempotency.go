package domain

import "strings"

// MaxIdempotencyKeyLength bounds caller-supplied keys.
const MaxIdempotencyKeyLength = 64

// IdempotencyKey is a caller-supplied opaque token identifying one logical
// capture request. Keys are trimmed on construction and restricted to
// [A-Za-z0-9-_:./].
type IdempotencyKey string

// NewIdempotencyKey normalizes and validates a raw key.
func NewIdempotencyKey(raw string) (IdempotencyKey, error) {
	normalized := strings.TrimSpace(raw)

	if normalized == "" {
		return "", NewInvalidIdempotencyKeyError("idempotency key cannot be empty")
	}
	if len(normalized) > MaxIdempotencyKeyLength {
		return "", NewInvalidIdempotencyKeyError("idempotency key cannot exceed 64 characters")
	}
	for _, ch := range normalized {
		if !isAllowedKeyChar(ch) {
			return "", NewInvalidIdempotencyKeyError("idempotency key contains invalid characters; allowed: [A-Za-z0-9-_:./]")
		}
	}

	return IdempotencyKey(normalized), nil
}

func (k IdempotencyKey) String() string {
	return string(k)
}

func isAllowedKeyChar(ch rune) bool {
	switch {
	case ch >= 'a' && ch <= 'z':
		return true
	case ch >= 'A' && ch <= 'Z':
		return true
	case ch >= '0' && ch <= '9':
		return true
	case ch == '-' || ch == '_' || ch == ':' || ch == '.' || ch == '/':
		return true
	default:
		return false
	}
}
