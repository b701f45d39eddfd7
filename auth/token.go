// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL matches the lifetime the web client has always used
const DefaultTokenTTL = 10 * time.Minute

var (
	ErrMissingCredentials = errors.New("api key and secret are required")
	ErrMissingIdentity    = errors.New("identity and room are required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrNoRoomGrant        = errors.New("token does not grant room join")
)

// VideoGrant is the room permission block of an access token
type VideoGrant struct {
	RoomJoin bool   `json:"roomJoin,omitempty"`
	Room     string `json:"room,omitempty"`
}

// Claims is the payload of an access token. The layout follows LiveKit:
// iss is the API key, sub is the participant identity.
type Claims struct {
	jwt.RegisteredClaims
	Name  string      `json:"name,omitempty"`
	Video *VideoGrant `json:"video,omitempty"`
}

// Identity returns the participant identity the token was issued to
func (c *Claims) Identity() string {
	return c.Subject
}

// Room returns the granted room, or "" without a join grant
func (c *Claims) Room() string {
	if c.Video == nil || !c.Video.RoomJoin {
		return ""
	}
	return c.Video.Room
}

// Issuer signs and verifies room access tokens with an API key pair
type Issuer struct {
	apiKey    string
	apiSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewIssuer returns an Issuer. A zero ttl uses DefaultTokenTTL.
func NewIssuer(apiKey, apiSecret string, ttl time.Duration) (*Issuer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrMissingCredentials
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{
		apiKey:    apiKey,
		apiSecret: []byte(apiSecret),
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

// WithClock returns a copy of the issuer that reads time from now
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// IssueToken signs a token letting identity join room
func (i *Issuer) IssueToken(ctx context.Context, identity, room string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	identity = strings.TrimSpace(identity)
	room = strings.TrimSpace(room)
	if identity == "" || room == "" {
		return "", ErrMissingIdentity
	}

	jti, err := GenerateID(12)
	if err != nil {
		return "", err
	}

	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   identity,
			ID:        jti,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Name:  identity,
		Video: &VideoGrant{RoomJoin: true, Room: room},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.apiSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature, issuer, lifetime and room grant
func (i *Issuer) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.apiSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.apiKey),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Identity() == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if claims.Room() == "" {
		return nil, ErrNoRoomGrant
	}
	return &claims, nil
}

// ExpiresAt reads the exp claim without checking the signature.
// Only for display; never use it to authorize anything.
func ExpiresAt(token string) (time.Time, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	return claims.ExpiresAt.Time, nil
}
