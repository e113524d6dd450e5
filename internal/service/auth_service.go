package service

import (
	"context"
	"time"

	"installment-platform/internal/core/ports"
	"installment-platform/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuthService authenticates end users for the QR approval flow: a
// correct mobile number + PIN pair yields the JWT the create endpoint
// requires for QR-sourced requests.
type AuthService struct {
	userRepo ports.UserRepository
	hashSvc  ports.HashService
	tokenSvc ports.TokenService
	log      zerolog.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(
	userRepo ports.UserRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{userRepo: userRepo, hashSvc: hashSvc, tokenSvc: tokenSvc, log: log}
}

// Login verifies the PIN and mints a user token. Lookup misses and
// wrong PINs are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, mobileNumber, pin string) (string, time.Time, error) {
	user, err := s.userRepo.GetByMobileNumber(ctx, mobileNumber)
	if err != nil {
		return "", time.Time{}, apperror.Internal(err)
	}
	if user == nil {
		return "", time.Time{}, apperror.ErrTokenInvalid()
	}

	ok, err := s.hashSvc.Verify(pin, user.PINHash)
	if err != nil || !ok {
		return "", time.Time{}, apperror.ErrTokenInvalid()
	}
	if !user.CanTransact() {
		return "", time.Time{}, apperror.ErrUserNotAllowed()
	}

	token, expiry, err := s.tokenSvc.Generate(user.MobileNumber)
	if err != nil {
		return "", time.Time{}, apperror.Internal(err)
	}

	s.log.Info().Str("user", user.ID.String()).Msg("user logged in")
	return token, expiry, nil
}
