package security

import (
	"context"
	"errors"
	"fmt"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
	"github.com/ryu-qqq/AuthHub-sub012/internal/repository"
)

// CredentialSource looks up stored credentials for an identifier. Lookups for
// unknown identifiers return repository.ErrNotFound.
type CredentialSource interface {
	Lookup(ctx context.Context, identifier string) (userID, passwordHash string, roles []string, err error)
	Roles(ctx context.Context, userID string) ([]string, error)
}

// ArgonCredentialVerifier checks presented passwords against Argon2id hashes
// held by a credential source.
type ArgonCredentialVerifier struct {
	source CredentialSource
}

// NewArgonCredentialVerifier constructs an ArgonCredentialVerifier.
func NewArgonCredentialVerifier(source CredentialSource) *ArgonCredentialVerifier {
	return &ArgonCredentialVerifier{source: source}
}

// VerifyCredentials resolves the identifier and compares the password. Unknown
// identifiers and mismatches both map to port.ErrCredentialsRejected so callers
// cannot distinguish the two cases.
func (v *ArgonCredentialVerifier) VerifyCredentials(ctx context.Context, identifier, password string) (string, []string, error) {
	userID, hash, roles, err := v.source.Lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, port.ErrCredentialsRejected
		}
		return "", nil, fmt.Errorf("lookup credentials: %w", err)
	}

	match, err := VerifyPassword(password, hash)
	if err != nil {
		return "", nil, fmt.Errorf("verify password hash: %w", err)
	}
	if !match {
		return "", nil, port.ErrCredentialsRejected
	}

	return userID, roles, nil
}

// RolesFor resolves the current role set for an authenticated user.
func (v *ArgonCredentialVerifier) RolesFor(ctx context.Context, userID string) ([]string, error) {
	roles, err := v.source.Roles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve roles: %w", err)
	}
	return roles, nil
}

var _ port.CredentialVerifier = (*ArgonCredentialVerifier)(nil)
