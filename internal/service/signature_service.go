package service

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"
	"installment-platform/pkg/apperror"
)

// MD5SignatureService implements ports.SignatureService. MD5 is not a
// security boundary here; salt secrecy is. The digest exists so a
// tampered amount or number is rejected before any lookup happens.
type MD5SignatureService struct{}

// NewMD5SignatureService creates the signature service.
func NewMD5SignatureService() *MD5SignatureService {
	return &MD5SignatureService{}
}

// Digest computes the hex MD5 over amount, number, store id and salt,
// concatenated in that order.
func (s *MD5SignatureService) Digest(amount int64, number, storeID, salt string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d%s%s%s", amount, number, storeID, salt)))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest and compares in constant time.
func (s *MD5SignatureService) Verify(amount int64, number, storeID, salt, digest string) bool {
	want := s.Digest(amount, number, storeID, salt)
	got := strings.ToLower(digest)
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}

// EncodeQR renders the pipe-delimited QR content:
// storeId|amount|digest|number[|key:value ...]. At most five custom
// fields are carried; keys are sorted so the payload is stable.
func (s *MD5SignatureService) EncodeQR(p ports.QRPayload) (string, error) {
	if p.StoreID == "" || p.Number == "" || p.Amount <= 0 {
		return "", apperror.Validation("qr payload incomplete")
	}
	parts := []string{p.StoreID, strconv.FormatInt(p.Amount, 10), p.Digest, p.Number}

	keys := make([]string, 0, len(p.Custom))
	for k := range p.Custom {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > domain.MaxCustomFields {
		keys = keys[:domain.MaxCustomFields]
	}
	for _, k := range keys {
		if strings.ContainsAny(k, "|:") || strings.Contains(p.Custom[k], "|") {
			return "", apperror.Validation("custom field contains reserved character")
		}
		parts = append(parts, k+":"+p.Custom[k])
	}
	return strings.Join(parts, "|"), nil
}

// DecodeQR parses the pipe-delimited QR content back into a payload.
func (s *MD5SignatureService) DecodeQR(raw string) (ports.QRPayload, error) {
	parts := strings.Split(raw, "|")
	if len(parts) < 4 {
		return ports.QRPayload{}, apperror.Validation("malformed qr payload")
	}
	amount, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || amount <= 0 {
		return ports.QRPayload{}, apperror.Validation("malformed qr amount")
	}

	p := ports.QRPayload{
		StoreID: parts[0],
		Amount:  amount,
		Digest:  parts[2],
		Number:  parts[3],
	}
	extras := parts[4:]
	if len(extras) > domain.MaxCustomFields {
		extras = extras[:domain.MaxCustomFields]
	}
	for _, kv := range extras {
		k, v, ok := strings.Cut(kv, ":")
		if !ok || k == "" {
			continue
		}
		if p.Custom == nil {
			p.Custom = make(map[string]string, len(extras))
		}
		p.Custom[k] = v
	}
	return p, nil
}
