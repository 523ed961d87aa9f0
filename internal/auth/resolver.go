package auth

import (
	"context"
	"errors"
	"fmt"
)

var ErrIdentityRejected = errors.New("identity rejected")

// Credentials is what a websocket client presents in its auth event.
type Credentials struct {
	UserID uint
	Token  string
}

// IdentityResolver turns presented credentials into a verified user id.
type IdentityResolver interface {
	Resolve(ctx context.Context, creds Credentials) (uint, error)
}

// JWTResolver trusts only a valid token. A userId sent next to the token must
// match its subject.
type JWTResolver struct {
	tokens *TokenManager
}

func NewJWTResolver(tokens *TokenManager) *JWTResolver {
	return &JWTResolver{tokens: tokens}
}

func (r *JWTResolver) Resolve(ctx context.Context, creds Credentials) (uint, error) {
	if creds.Token == "" {
		return 0, fmt.Errorf("%w: token missing", ErrIdentityRejected)
	}
	claims, err := r.tokens.ParseToken(creds.Token)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIdentityRejected, err)
	}
	if creds.UserID != 0 && creds.UserID != claims.UserID {
		return 0, fmt.Errorf("%w: user id does not match token", ErrIdentityRejected)
	}
	return claims.UserID, nil
}

// TrustResolver accepts the presented user id as is. Development only.
type TrustResolver struct{}

func (TrustResolver) Resolve(ctx context.Context, creds Credentials) (uint, error) {
	if creds.UserID == 0 {
		return 0, fmt.Errorf("%w: user id missing", ErrIdentityRejected)
	}
	return creds.UserID, nil
}

// NewResolver picks the resolver for websocket.auth_mode.
func NewResolver(mode string, tokens *TokenManager) (IdentityResolver, error) {
	switch mode {
	case "", "jwt":
		return NewJWTResolver(tokens), nil
	case "trust":
		return TrustResolver{}, nil
	}
	return nil, fmt.Errorf("unknown auth mode %q", mode)
}
