// Package uuid provides run ID generation helpers.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator mints time-ordered UUID v7 strings for search runs.
type Generator struct{}

// New creates a new Generator.
func New() *Generator {
	return &Generator{}
}

// NewID returns a UUID7 string.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}
