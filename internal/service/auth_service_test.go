package service

import (
	"context"
	"testing"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthService_Login_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userRepo := mocks.NewMockUserRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	svc := NewAuthService(userRepo, hashSvc, tokenSvc, zerolog.Nop())

	user := &domain.User{
		ID:           uuid.New(),
		MobileNumber: "+628123456789",
		Status:       domain.UserStatusApproved,
		PINHash:      "argon2-hash",
	}
	expiry := time.Now().Add(24 * time.Hour)

	userRepo.EXPECT().GetByMobileNumber(gomock.Any(), "+628123456789").Return(user, nil)
	hashSvc.EXPECT().Verify("1234", "argon2-hash").Return(true, nil)
	tokenSvc.EXPECT().Generate("+628123456789").Return("jwt-token", expiry, nil)

	token, exp, err := svc.Login(context.Background(), "+628123456789", "1234")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", token)
	assert.Equal(t, expiry, exp)
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userRepo := mocks.NewMockUserRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	svc := NewAuthService(userRepo, hashSvc, tokenSvc, zerolog.Nop())

	userRepo.EXPECT().GetByMobileNumber(gomock.Any(), "+628000000000").Return(nil, nil)

	_, _, err := svc.Login(context.Background(), "+628000000000", "1234")
	assertStatus(t, err, domain.StatusTokenInvalid)
}

func TestAuthService_Login_WrongPIN(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userRepo := mocks.NewMockUserRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	svc := NewAuthService(userRepo, hashSvc, tokenSvc, zerolog.Nop())

	user := &domain.User{
		ID:           uuid.New(),
		MobileNumber: "+628123456789",
		Status:       domain.UserStatusApproved,
		PINHash:      "argon2-hash",
	}
	userRepo.EXPECT().GetByMobileNumber(gomock.Any(), "+628123456789").Return(user, nil)
	hashSvc.EXPECT().Verify("9999", "argon2-hash").Return(false, nil)

	_, _, err := svc.Login(context.Background(), "+628123456789", "9999")
	// Indistinguishable from an unknown mobile number.
	assertStatus(t, err, domain.StatusTokenInvalid)
}

func TestAuthService_Login_BlockedUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userRepo := mocks.NewMockUserRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)
	svc := NewAuthService(userRepo, hashSvc, tokenSvc, zerolog.Nop())

	user := &domain.User{
		ID:           uuid.New(),
		MobileNumber: "+628123456789",
		Status:       domain.UserStatusBanned,
		PINHash:      "argon2-hash",
	}
	userRepo.EXPECT().GetByMobileNumber(gomock.Any(), "+628123456789").Return(user, nil)
	hashSvc.EXPECT().Verify("1234", "argon2-hash").Return(true, nil)

	_, _, err := svc.Login(context.Background(), "+628123456789", "1234")
	assertStatus(t, err, domain.StatusUserNotAllowed)
}
