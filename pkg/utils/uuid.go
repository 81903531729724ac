package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewUUID generates a new UUID
func NewUUID() uuid.UUID {
	return uuid.New()
}

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(s))
}

// NewRequestID returns a short correlation ID for logs
func NewRequestID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
