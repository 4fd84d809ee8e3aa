package auth

import (
	"context"
	"strings"

	"github.com/scrob-fm/scrob/internal/models"
)

// Outcome classifies what a raw Authorization header resolved to. The
// distinction between NoCredential and InvalidCredential exists for
// diagnostics only; both must be rejected identically at the transport
// boundary.
type Outcome int

const (
	// NoCredential means the header was absent or not a well-formed bearer
	// header.
	NoCredential Outcome = iota
	// InvalidCredential means a token was presented but resolved to no user.
	InvalidCredential
	// Authenticated means a user was resolved.
	Authenticated
)

// Identity is the result of resolving one inbound request's credentials.
type Identity struct {
	Outcome Outcome
	User    *models.User
}

// ExtractBearer pulls the token out of an Authorization header value. The
// "Bearer " prefix is matched exactly (case-sensitive, single space); the
// remainder is trimmed of surrounding whitespace.
func ExtractBearer(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// Resolver turns a raw header value into an Identity via the session
// service. Transport-facing but protocol-agnostic: both the REST and the
// GraphQL surface go through here.
type Resolver struct {
	sessions *Service
}

func NewResolver(sessions *Service) *Resolver {
	return &Resolver{sessions: sessions}
}

// ResolveHeader resolves the Authorization header value (or "" when the
// header is absent). A storage fault is the only error; every malformed or
// unknown credential is a normal non-authenticated Identity.
func (r *Resolver) ResolveHeader(ctx context.Context, header string) (Identity, error) {
	if header == "" {
		return Identity{Outcome: NoCredential}, nil
	}
	token, ok := ExtractBearer(header)
	if !ok || token == "" {
		return Identity{Outcome: NoCredential}, nil
	}

	user, err := r.sessions.Resolve(ctx, token)
	if err != nil {
		return Identity{Outcome: InvalidCredential}, err
	}
	if user == nil {
		return Identity{Outcome: InvalidCredential}, nil
	}
	return Identity{Outcome: Authenticated, User: user}, nil
}
