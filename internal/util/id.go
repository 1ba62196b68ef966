package util

import "github.com/google/uuid"

// NewID returns a new UUID string used for session and turn correlation ids.
func NewID() string { return uuid.NewString() }
