// Package session persists the session fields bound to one browser profile.
package session

import (
	"context"
	"strings"

	"github.com/medrex/portal-gate/pkg/types"
)

// Persisted field names
const (
	FieldToken   = "sessionToken"
	FieldRole    = "userRole"
	FieldAddress = "loggedInAddress"
)

// Store owns the session fields of a single profile.
// Read returns nil when the session is absent or only partially present.
type Store interface {
	Read(ctx context.Context) (*types.Session, error)
	Write(ctx context.Context, s types.Session) error
	Clear(ctx context.Context) error
}

// Backend hands out per-profile stores over one storage medium
type Backend interface {
	ForProfile(profileID string) Store
	Ping(ctx context.Context) error
}

// prepare validates s and returns the field map to persist
func prepare(s types.Session) (map[string]string, error) {
	if !s.Complete() {
		return nil, types.NewInvalidInputError("session requires token, role and address", nil)
	}
	if !s.Role.Valid() {
		return nil, types.NewInvalidInputError("invalid session role", map[string]interface{}{
			"role": string(s.Role),
		})
	}
	return map[string]string{
		FieldToken:   s.Token,
		FieldRole:    string(s.Role),
		FieldAddress: strings.ToLower(strings.TrimSpace(s.Address)),
	}, nil
}

// decode turns stored fields into a session; nil unless all three are present
func decode(fields map[string]string) *types.Session {
	token, role, address := fields[FieldToken], fields[FieldRole], fields[FieldAddress]
	if token == "" || role == "" || address == "" {
		return nil
	}
	return &types.Session{
		Token:   token,
		Role:    types.Role(role),
		Address: address,
	}
}
