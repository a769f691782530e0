package utils

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	UserIDPrefix    = "usr"
	AccountIDPrefix = "acc"
)

// GenerateID generates a unique ID with the given prefix
func GenerateID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString())
}
