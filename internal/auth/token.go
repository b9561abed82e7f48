package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v4"

	"github.com/joao-fontenele/cayocagi/internal/domain"
)

type claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens.
type Tokens struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokens(secret, issuer, audience string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Tokens{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

func (t *Tokens) Issue(u domain.User) (string, time.Time, error) {
	now := t.now().UTC()
	expires := now.Add(t.ttl)
	c := claims{
		Name: u.Username,
		Role: string(u.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify validates signature, expiry, issuer and audience and returns the
// caller identity carried in the claims.
func (t *Tokens) Verify(raw string) (*Identity, error) {
	var c claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if !c.VerifyExpiresAt(t.now(), true) {
		return nil, fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
	}
	if !c.VerifyIssuer(t.issuer, true) || !c.VerifyAudience(t.audience, true) {
		return nil, fmt.Errorf("%w: token issuer or audience mismatch", domain.ErrUnauthenticated)
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: invalid subject", domain.ErrUnauthenticated)
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid role claim", domain.ErrUnauthenticated)
	}
	return &Identity{UserID: userID, Username: c.Name, Role: role}, nil
}
