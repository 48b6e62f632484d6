package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	svcErr "github.com/onikinet/oniki-match/internal/errors"
)

// Cursor is the opaque pagination state we encode/decode.
// CreatedUnix (in millis) + ID of the last row establish a stable cursor
// for lists ordered by created_at DESC, id DESC.
type Cursor struct {
	ID          string `json:"id"`
	CreatedUnix int64  `json:"created_unix,omitempty"`
}

// IsZero reports whether c points at the first page.
func (c Cursor) IsZero() bool {
	return c.ID == "" || c.CreatedUnix == 0
}

// Encode converts a Cursor into a Base64 string.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 string into a Cursor.
// Empty token → empty cursor (first page).
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token: %w", svcErr.ErrInvalidInput)
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token: %w", svcErr.ErrInvalidInput)
	}
	return c, nil
}
