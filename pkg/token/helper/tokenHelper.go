// Package helper signs and verifies the JSON web tokens handed out on sign in.
package helper

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/partyhub/partyhub/pkg/model"
)

// GenerateAccessToken returns an RS256 signed token carrying the user in its "user" claim.
func GenerateAccessToken(user *model.User, key *rsa.PrivateKey, expirationInSeconds int) (string, error) {
	now := time.Now()

	token, err := jwt.NewBuilder().
		IssuedAt(now).
		Expiration(now.Add(time.Duration(expirationInSeconds)*time.Second)).
		Subject(fmt.Sprint(user.ID)).
		Claim("user", accessTokenUser(user)).
		Build()
	if err != nil {
		return "", err
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.RS256, key))
	if err != nil {
		return "", err
	}

	return string(signed), nil
}

// accessTokenUser strips the user down to what handlers need to identify the caller. Group
// membership is only included for display purposes, authorization reads it from the database.
func accessTokenUser(user *model.User) *model.User {
	groups := make([]model.Group, len(user.Groups))
	for i, group := range user.Groups {
		groups[i] = model.Group{Name: group.Name}
	}
	return &model.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Validated:   user.Validated,
		Groups:      groups,
	}
}

type RefreshToken struct {
	SignedString string
	TokenId      string
	ExpiresIn    time.Duration
}

// GenerateRefreshToken returns an HS256 signed token identified by a random token id.
func GenerateRefreshToken(user *model.User, secretKey string, expirationInSeconds int) (*RefreshToken, error) {
	now := time.Now()
	expiresIn := time.Duration(expirationInSeconds) * time.Second
	tokenId := uuid.NewString()

	token, err := jwt.NewBuilder().
		JwtID(tokenId).
		IssuedAt(now).
		Expiration(now.Add(expiresIn)).
		Claim("userId", user.ID).
		Build()
	if err != nil {
		return nil, err
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(secretKey)))
	if err != nil {
		return nil, err
	}

	return &RefreshToken{
		SignedString: string(signed),
		TokenId:      tokenId,
		ExpiresIn:    expiresIn,
	}, nil
}

type RefreshTokenClaims struct {
	UserId    uint
	ID        string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// ValidateRefreshToken verifies the signature and expiration of a refresh token and returns its
// claims.
func ValidateRefreshToken(tokenString string, secretKey string) (*RefreshTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256, []byte(secretKey)),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, err
	}

	userId, ok := token.Get("userId")
	if !ok {
		return nil, errors.New("userId not found in claims")
	}
	id, ok := userId.(float64)
	if !ok {
		return nil, fmt.Errorf("unexpected userId claim: %v", userId)
	}

	if token.JwtID() == "" {
		return nil, fmt.Errorf("%s not found in claims", jwt.JwtIDKey)
	}

	return &RefreshTokenClaims{
		UserId:    uint(id),
		ID:        token.JwtID(),
		ExpiresAt: token.Expiration(),
		IssuedAt:  token.IssuedAt(),
	}, nil
}
