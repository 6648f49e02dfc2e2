package auth

import (
	"context"
	"strings"
)

// Service verifies access tokens issued by the hosted auth provider. Sessions
// and refresh live with the provider; the API only needs the caller's id.
type Service struct {
	jwt *JWTManager
}

func NewService(jwtManager *JWTManager) *Service {
	return &Service{jwt: jwtManager}
}

func (s *Service) ValidateAccessToken(_ context.Context, raw string) (AccessClaims, error) {
	if s == nil || s.jwt == nil {
		return AccessClaims{}, ErrUnauthorized
	}
	return s.jwt.ParseAccessToken(strings.TrimSpace(strings.TrimPrefix(raw, "Bearer ")))
}
