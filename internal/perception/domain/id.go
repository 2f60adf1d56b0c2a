package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID generates a unique identifier for turn briefs and domain events.
func NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return id.String(), nil
}
