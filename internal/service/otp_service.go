package service

import (
	"context"
	"encoding/json"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"
)

// TOTPService implements ports.OTPService using RFC 6238 time-based
// codes. Per-user digit/step overrides win over the platform defaults.
type TOTPService struct {
	digits int
	step   int
	log    zerolog.Logger
}

// NewTOTPService creates the OTP service with platform defaults.
func NewTOTPService(digits, step int, log zerolog.Logger) *TOTPService {
	if digits <= 0 {
		digits = 6
	}
	if step <= 0 {
		step = 30
	}
	return &TOTPService{digits: digits, step: step, log: log}
}

func (s *TOTPService) opts(user *domain.User) totp.ValidateOpts {
	digits := s.digits
	if user.OTP.Digits > 0 {
		digits = user.OTP.Digits
	}
	step := s.step
	if user.OTP.Step > 0 {
		step = user.OTP.Step
	}
	return totp.ValidateOpts{
		Period:    uint(step),
		Skew:      1,
		Digits:    otp.Digits(digits),
		Algorithm: otp.AlgorithmSHA1,
	}
}

// Verify checks a code against the user's secret within the current
// step window (one step of skew either side).
func (s *TOTPService) Verify(user *domain.User, code string) bool {
	if user.OTP.Secret == "" || code == "" {
		return false
	}
	ok, err := totp.ValidateCustom(code, user.OTP.Secret, time.Now().UTC(), s.opts(user))
	if err != nil {
		s.log.Warn().Err(err).Str("user", user.ID.String()).Msg("otp validation error")
		return false
	}
	return ok
}

// Generate produces the current code for the user's secret.
func (s *TOTPService) Generate(user *domain.User) (string, error) {
	return totp.GenerateCodeCustom(user.OTP.Secret, time.Now().UTC(), s.opts(user))
}

type otpMessage struct {
	OTP       string `json:"otp"`
	ExpiresAt string `json:"expires_at"`
}

// Run publishes a fresh code to the user's live channel every step
// interval until ctx is cancelled. The first code is published
// immediately so a subscriber never waits a full interval.
func (s *TOTPService) Run(ctx context.Context, user *domain.User, registry ports.Registry) {
	step := s.step
	if user.OTP.Step > 0 {
		step = user.OTP.Step
	}
	interval := time.Duration(step) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	publish := func() {
		code, err := s.Generate(user)
		if err != nil {
			s.log.Error().Err(err).Str("user", user.ID.String()).Msg("otp generation failed")
			return
		}
		msg, _ := json.Marshal(otpMessage{
			OTP:       code,
			ExpiresAt: time.Now().UTC().Add(interval).Format(time.RFC3339),
		})
		registry.Publish(user.ID.String(), msg)
	}

	publish()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}
