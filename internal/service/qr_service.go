package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"math/rand"
	"strings"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"
	"installment-platform/pkg/apperror"

	"github.com/rs/zerolog"
	qrcode "github.com/yeqown/go-qrcode"
)

// QRGenService implements ports.QRService: it signs the checkout
// tuple, renders the QR image, and persists any per-transaction
// callback rules the merchant supplied via headers.
type QRGenService struct {
	storeRepo    ports.StoreRepository
	merchantRepo ports.MerchantRepository
	notifRepo    ports.NotificationRepository
	sigSvc       ports.SignatureService
	log          zerolog.Logger
}

// NewQRGenService creates the QR service.
func NewQRGenService(
	storeRepo ports.StoreRepository,
	merchantRepo ports.MerchantRepository,
	notifRepo ports.NotificationRepository,
	sigSvc ports.SignatureService,
	log zerolog.Logger,
) *QRGenService {
	return &QRGenService{
		storeRepo:    storeRepo,
		merchantRepo: merchantRepo,
		notifRepo:    notifRepo,
		sigSvc:       sigSvc,
		log:          log,
	}
}

// Generate produces the signed QR for a store checkout.
func (s *QRGenService) Generate(ctx context.Context, req ports.GenerateQRRequest) (*ports.GenerateQRResult, error) {
	if req.Amount <= 0 || req.Number == "" {
		return nil, apperror.Validation("amount and transaction number are required")
	}
	if len(req.Custom) > domain.MaxCustomFields {
		return nil, apperror.Validation("at most 5 custom fields are allowed")
	}

	store, err := s.storeRepo.GetByID(ctx, req.StoreID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if store == nil {
		return nil, apperror.ErrStoreNotFound()
	}
	if !store.Active {
		return nil, apperror.ErrStoreInactive()
	}

	merchant, err := s.merchantRepo.GetByID(ctx, store.MerchantID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if merchant == nil {
		return nil, apperror.ErrStoreNotFound()
	}

	prefix := merchant.Prefix
	if prefix == "" {
		prefix, err = assignMerchantPrefix(ctx, s.merchantRepo, merchant)
		if err != nil {
			return nil, apperror.Internal(err)
		}
	}

	number := domain.PrefixedNumber(prefix, req.Number)
	digest := s.sigSvc.Digest(req.Amount, number, store.ID.String(), store.Salt)

	payload, err := s.sigSvc.EncodeQR(ports.QRPayload{
		StoreID: store.ID.String(),
		Amount:  req.Amount,
		Digest:  digest,
		Number:  number,
		Custom:  req.Custom,
	})
	if err != nil {
		return nil, err
	}

	png, err := renderQR(payload)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if len(req.Override) > 0 || len(req.Append) > 0 {
		rules := &domain.CallbackRules{Number: number, Override: req.Override, Append: req.Append}
		if err := s.notifRepo.SaveCallbackRules(ctx, rules); err != nil {
			// Rules are a delivery preference, not part of the checkout.
			s.log.Warn().Err(err).Str("number", number).Msg("saving callback rules failed")
		}
	}

	return &ports.GenerateQRResult{
		Number:  number,
		Digest:  digest,
		Payload: payload,
		PNG:     png,
	}, nil
}

// assignMerchantPrefix picks a unique short prefix for a merchant that
// has none yet, derived from the merchant name plus random digits.
func assignMerchantPrefix(ctx context.Context, repo ports.MerchantRepository, merchant *domain.Merchant) (string, error) {
	base := strings.ToUpper(domain.SanitizeNumber(strings.ReplaceAll(merchant.Name, " ", "")))
	if len(base) > 4 {
		base = base[:4]
	}
	if base == "" {
		base = "MCH"
	}

	for attempt := 0; attempt < 10; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s%02d", base, rand.Intn(100))
		}
		exists, err := repo.PrefixExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			if err := repo.SetPrefix(ctx, merchant.ID, candidate); err != nil {
				return "", err
			}
			merchant.Prefix = candidate
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free prefix for merchant %s", merchant.ID)
}

func renderQR(content string) (string, error) {
	qrc, err := qrcode.New(content)
	if err != nil {
		return "", fmt.Errorf("building qr: %w", err)
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return "", fmt.Errorf("encoding qr png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
