package httpapi

import (
	"errors"

	"github.com/google/uuid"
)

var errEmptySignal = errors.New("g must be a non-empty signal vector")

// parseOrGenerateUserID parses raw as a UUID; an empty string gets a fresh
// random identifier, matching the spec's "opaque 128-bit identifier"
// framing (the client is not required to supply one).
func parseOrGenerateUserID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, errors.New("user_id must be a valid UUID")
	}
	return id, nil
}
