package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/types"
)

// Store is where the bearer token lives (the device preferences).
type Store interface {
	Token(ctx context.Context) (string, error)
}

// Source hands out the stored bearer token. The token is opaque to this
// process and is never verified; when it happens to be a JWT with an exp
// claim, an already expired token is reported instead of being sent.
type Source struct {
	store  Store
	leeway time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewSource(store Store, leeway time.Duration) *Source {
	return &Source{
		store:  store,
		leeway: leeway,
		now:    time.Now,
		parser: jwt.NewParser(),
	}
}

func (s *Source) Token(ctx context.Context) (string, error) {
	const op = "TokenSource.Token"

	tok, err := s.store.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	exp, ok := s.expiresAt(tok)
	if ok && s.now().After(exp.Add(s.leeway)) {
		return "", fmt.Errorf("%s: %w (expired at %s)", op, types.ErrTokenExpired, exp.Format(time.RFC3339))
	}

	return tok, nil
}

func (s *Source) expiresAt(tok string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := s.parser.ParseUnverified(tok, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
