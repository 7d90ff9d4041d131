// Package auth resolves presented credentials into identities.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dkeye/WatchParty/internal/domain"
	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid token")

// Verifier is the identity capability the transport consumes.
type Verifier interface {
	Verify(credential string) (domain.Identity, error)
}

// CustomClaims mirrors what the account service signs into access tokens.
type CustomClaims struct {
	jwt.RegisteredClaims
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	VIP      bool   `json:"vip"`
}

type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(tokenStr string) (domain.Identity, error) {
	if len(v.secret) == 0 {
		return domain.Identity{}, fmt.Errorf("%w: jwt secret not set", ErrInvalidToken)
	}
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	id, err := strconv.ParseInt(claims.ID, 10, 64)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: bad id claim", ErrInvalidToken)
	}
	identity, err := domain.NewIdentity(domain.UserID(id), claims.Username, domain.Role(claims.Role), claims.VIP)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return identity, nil
}

// Sign issues a token for identity. The account service owns issuance in
// production; this exists for tests and local tooling.
func (v *JWTVerifier) Sign(identity domain.Identity, ttl time.Duration) (string, error) {
	if identity.ID == nil {
		return "", errors.New("cannot sign a guest identity")
	}
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		ID:       strconv.FormatInt(int64(*identity.ID), 10),
		Username: identity.Username,
		Role:     string(identity.Role),
		VIP:      identity.VIP,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Resolve never fails: an absent or invalid credential yields the guest identity.
func Resolve(v Verifier, credential string) (domain.Identity, error) {
	if credential == "" || v == nil {
		return domain.Guest(), nil
	}
	identity, err := v.Verify(credential)
	if err != nil {
		return domain.Guest(), err
	}
	return identity, nil
}
