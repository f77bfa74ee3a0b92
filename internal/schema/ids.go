package schema

import "github.com/google/uuid"

// NewID returns a new globally unique entity id.
func NewID() string {
	return uuid.NewString()
}

// IsValidID reports whether value parses as a UUID.
func IsValidID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
