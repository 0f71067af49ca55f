package token

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"time"

	"github.com/partyhub/partyhub/internal/errdef"
	"github.com/partyhub/partyhub/pkg/model"
	"github.com/partyhub/partyhub/pkg/token/helper"
)

// Lifetimes configures how long issued tokens stay valid, in seconds.
type Lifetimes struct {
	AccessToken            int
	RefreshToken           int
	RefreshTokenRememberMe int
}

func (l Lifetimes) refresh(rememberMe bool) int {
	if rememberMe {
		return l.RefreshTokenRememberMe
	}
	return l.RefreshToken
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(logger *slog.Logger, repository repository, privateKey *rsa.PrivateKey, refreshTokenSecret string, lifetimes Lifetimes) *service {
	return &service{
		logger:             logger,
		repository:         repository,
		privateKey:         privateKey,
		refreshTokenSecret: refreshTokenSecret,
		lifetimes:          lifetimes,
	}
}

// repository keeps track of the refresh tokens that haven't been used yet.
type repository interface {
	SetRefreshToken(ctx context.Context, userId uint, tokenId string, expiresIn time.Duration) error
	DeleteRefreshToken(ctx context.Context, userId uint, tokenId string) error
	DeleteRefreshTokens(ctx context.Context, userId uint) error
}

// Tokens returned when signing in or refreshing
// swagger:model
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	TokenType    string `json:"tokenType"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    uint   `json:"expiresIn"`
}

// RefreshTokenData is what a verified refresh token tells about its owner.
type RefreshTokenData struct {
	SignedToken string
	ID          string
	UserId      uint
}

type service struct {
	logger             *slog.Logger
	repository         repository
	privateKey         *rsa.PrivateKey
	refreshTokenSecret string
	lifetimes          Lifetimes
}

// GetTokens issues an access token and a single use refresh token. When refreshing, the refresh
// token presented is consumed before anything is issued so a replayed token is rejected.
func (s service) GetTokens(ctx context.Context, user *model.User, previousRefreshTokenId string, rememberMe bool) (*Tokens, error) {
	if previousRefreshTokenId != "" {
		if err := s.repository.DeleteRefreshToken(ctx, user.ID, previousRefreshTokenId); err != nil {
			s.logger.InfoContext(ctx, "Refresh token already used or expired", "user", user.ID, "error", err)
			return nil, errdef.NewUnauthorized("refresh token is no longer valid")
		}
	}

	accessToken, err := helper.GenerateAccessToken(user, s.privateKey, s.lifetimes.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token for user %d: %v", user.ID, err)
	}

	refreshToken, err := helper.GenerateRefreshToken(user, s.refreshTokenSecret, s.lifetimes.refresh(rememberMe))
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token for user %d: %v", user.ID, err)
	}

	if err := s.repository.SetRefreshToken(ctx, user.ID, refreshToken.TokenId, refreshToken.ExpiresIn); err != nil {
		return nil, err
	}

	return &Tokens{
		AccessToken:  accessToken,
		TokenType:    "bearer",
		RefreshToken: refreshToken.SignedString,
		ExpiresIn:    uint(s.lifetimes.AccessToken),
	}, nil
}

// ValidateRefreshToken verifies the signature and expiry of a refresh token. Whether it was already
// used is only known once GetTokens tries to consume it.
func (s service) ValidateRefreshToken(ctx context.Context, signed string) (*RefreshTokenData, error) {
	claims, err := helper.ValidateRefreshToken(signed, s.refreshTokenSecret)
	if err != nil {
		s.logger.InfoContext(ctx, "Rejected refresh token", "error", err)
		return nil, errdef.NewUnauthorized("unable to verify refresh token")
	}

	return &RefreshTokenData{
		SignedToken: signed,
		ID:          claims.ID,
		UserId:      claims.UserId,
	}, nil
}

// SignOut revokes every refresh token of the user, signing them out on all devices.
func (s service) SignOut(ctx context.Context, userId uint) error {
	return s.repository.DeleteRefreshTokens(ctx, userId)
}
