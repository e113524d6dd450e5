package service

import (
	"fmt"
	"time"

	"installment-platform/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
)

// JWTTokenService implements ports.TokenService. Tokens identify the
// end user approving a QR checkout; the mobile number claim is matched
// against the staged transaction's owner.
type JWTTokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewJWTTokenService creates the token service.
func NewJWTTokenService(secret string, expiry time.Duration, issuer string) *JWTTokenService {
	return &JWTTokenService{secret: []byte(secret), expiry: expiry, issuer: issuer}
}

type userClaims struct {
	MobileNumber string `json:"mobile_number"`
	jwt.RegisteredClaims
}

// Generate mints a signed token for the mobile number.
func (s *JWTTokenService) Generate(mobileNumber string) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.expiry)
	claims := userClaims{
		MobileNumber: mobileNumber,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   mobileNumber,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses and verifies a token, returning its claims.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	var claims userClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid || claims.MobileNumber == "" {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &ports.TokenClaims{MobileNumber: claims.MobileNumber}, nil
}
