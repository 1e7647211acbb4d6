package utils

import "github.com/google/uuid"

// ParseUUID parses a path or query parameter into a UUID.
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}
