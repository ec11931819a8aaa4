// internal/interaction/payload.go
package interaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"cobuilder/internal/models"
)

var (
	ErrMissingPayload = errors.New("MISSING_PAYLOAD")
	ErrInvalidPayload = errors.New("INVALID_PAYLOAD")
)

// ParsePayload decodes an interaction request body. Form bodies carry the
// envelope as JSON in the "payload" field; JSON bodies (the Events API
// handshake) are decoded directly.
func ParsePayload(contentType string, body []byte) (*models.InteractionPayload, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)

	raw := body
	if mediaType != "application/json" {
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingPayload, err)
		}
		value := form.Get("payload")
		if strings.TrimSpace(value) == "" {
			return nil, ErrMissingPayload
		}
		raw = []byte(value)
	}

	var payload models.InteractionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &payload, nil
}
