package utils

import "github.com/google/uuid"

// NewID returns a random identifier for log correlation.
func NewID() string {
	return uuid.NewString()
}
