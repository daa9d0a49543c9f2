package server

import (
	"context"
	"errors"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/module"
	"github.com/sirupsen/logrus"
)

var _ module.TokenService = (*TokenService)(nil)

// TokenService verifies tokens against a fixed token to owner table.
type TokenService struct {
	owners map[string]string
}

func NewTokenService(owners map[string]string) *TokenService {
	return &TokenService{
		owners: owners,
	}
}

func (t TokenService) VerifyToken(ctx context.Context, token string) (string, error) {
	owner, ok := t.owners[token]
	if !ok {
		logrus.Warnf("rejected unknown access token")
		return "", errors.New("unknown access token")
	}

	return owner, nil
}

// NullTokenService trusts every token and uses it as the owner id. It is
// only used in insecure mode.
type NullTokenService struct{}

var _ module.TokenService = NullTokenService{}

func NewNullTokenService() *NullTokenService {
	return &NullTokenService{}
}

func (t NullTokenService) VerifyToken(ctx context.Context, token string) (string, error) {
	logrus.Debugf("null token service: %v", token)
	return token, nil
}
