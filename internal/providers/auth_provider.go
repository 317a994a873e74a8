package providers

import (
	"net/http"
	"strings"

	"regenwasi/internal/models"
)

// AuthProviderInterface resolves the storage namespace for a request.
// The actual authentication happens upstream; this only trusts the
// forwarded identity header and falls back to the guest namespace.
type AuthProviderInterface interface {
	ResolveUserID(r *http.Request) string
	IsAuthenticated(r *http.Request) bool
}

const identityHeader = "X-User-Id"

type AuthProvider struct{}

func NewAuthProvider() AuthProviderInterface {
	return &AuthProvider{}
}

func (ap *AuthProvider) ResolveUserID(r *http.Request) string {
	id := sanitizeUserID(r.Header.Get(identityHeader))
	if id == "" {
		return models.GuestUserID
	}
	return id
}

func (ap *AuthProvider) IsAuthenticated(r *http.Request) bool {
	return sanitizeUserID(r.Header.Get(identityHeader)) != ""
}

// sanitizeUserID keeps identities usable as storage keys.
func sanitizeUserID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 64 {
		id = id[:64]
	}
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == ':', r == '.':
			b.WriteRune(r)
		}
	}
	return b.String()
}
