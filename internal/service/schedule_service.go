package service

import (
	"context"
	"math"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"
	"installment-platform/pkg/apperror"

	"github.com/rs/zerolog"
)

// ScheduleService implements ports.ScheduleBuilder: a fixed 4-term
// schedule where term 1 absorbs the rounding remainder so the terms
// always sum to the total. Terms 2-4 get a deferred virtual-account
// reference from the banking integration.
type ScheduleService struct {
	va  ports.VAIssuer
	log zerolog.Logger
}

// NewScheduleService creates the schedule builder.
func NewScheduleService(va ports.VAIssuer, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{va: va, log: log}
}

// Build produces the ordered terms. VA issuance failures do not abort:
// the affected term is marked VA_UNAVAILABLE and collection retries the
// request out of band.
func (s *ScheduleService) Build(ctx context.Context, req ports.ScheduleRequest) ([]domain.Term, error) {
	if req.Total <= 0 {
		return nil, apperror.Validation("total must be positive")
	}
	if req.TerminDuration != domain.TerminDuration14 && req.TerminDuration != domain.TerminDuration30 {
		return nil, apperror.Validation("termin duration must be 14 or 30")
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	base := int64(math.Round(float64(req.Total) / domain.TermCount))
	first := req.Total - (domain.TermCount-1)*base

	terms := make([]domain.Term, 0, domain.TermCount)
	for i := 1; i <= domain.TermCount; i++ {
		amount := base
		if i == 1 {
			amount = first
		}
		terms = append(terms, domain.Term{
			Number:  i,
			Amount:  amount,
			DueDate: endOfDay(dueDate(now, req.TerminDuration, i)),
		})
	}

	for i := 1; i < domain.TermCount; i++ {
		term := &terms[i]
		res, err := s.va.Issue(ctx, ports.VARequest{
			Number:     req.Number,
			TermNumber: term.Number,
			Amount:     term.Amount,
			DueDate:    term.DueDate,
		})
		if err != nil {
			s.log.Warn().Err(err).
				Str("number", req.Number).
				Int("term", term.Number).
				Msg("va issuance failed, proceeding with placeholder")
			term.Payment.PaymentID = domain.VAUnavailable
			continue
		}
		term.Payment.PaymentID = res.PaymentID
		term.Payment.Method = res.Method
	}

	return terms, nil
}

// dueDate spaces installments per the termin duration: 14-day plans at
// +2, +4, +6 weeks; 30-day plans at +1, +2, +3 calendar months.
func dueDate(now time.Time, terminDuration, term int) time.Time {
	if term == 1 {
		return now
	}
	if terminDuration == domain.TerminDuration14 {
		return now.AddDate(0, 0, 14*(term-1))
	}
	return now.AddDate(0, term-1, 0)
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
