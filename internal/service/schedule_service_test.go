package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubVAIssuer returns deterministic references, or fails when told to.
type stubVAIssuer struct {
	fail   bool
	issued []ports.VARequest
}

func (s *stubVAIssuer) Issue(ctx context.Context, req ports.VARequest) (ports.VAResult, error) {
	if s.fail {
		return ports.VAResult{}, errors.New("va endpoint unreachable")
	}
	s.issued = append(s.issued, req)
	return ports.VAResult{
		PaymentID: fmt.Sprintf("VA-%s-%d", req.Number, req.TermNumber),
		Method:    "vabni",
	}, nil
}

func newSchedule(va ports.VAIssuer) *ScheduleService {
	return NewScheduleService(va, zerolog.Nop())
}

func TestBuild_TermsSumToTotal(t *testing.T) {
	svc := newSchedule(&stubVAIssuer{})

	for _, total := range []int64{40000, 40001, 40002, 40003, 99999, 1, 3, 1000001} {
		terms, err := svc.Build(context.Background(), ports.ScheduleRequest{
			Number: "T.N1", Total: total, TerminDuration: domain.TerminDuration30,
		})
		require.NoError(t, err, "total=%d", total)
		require.Len(t, terms, 4)

		var sum int64
		for _, term := range terms {
			sum += term.Amount
		}
		assert.Equal(t, total, sum, "total=%d", total)

		// Remainder lands in term 1; terms 2-4 are equal.
		assert.Equal(t, terms[1].Amount, terms[2].Amount)
		assert.Equal(t, terms[2].Amount, terms[3].Amount)
	}
}

func TestBuild_DueDates14Day(t *testing.T) {
	svc := newSchedule(&stubVAIssuer{})
	now := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

	terms, err := svc.Build(context.Background(), ports.ScheduleRequest{
		Number: "T.N1", Total: 40000, TerminDuration: domain.TerminDuration14, Now: now,
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC), terms[0].DueDate)
	assert.Equal(t, time.Date(2026, 3, 16, 23, 59, 59, 0, time.UTC), terms[1].DueDate)
	assert.Equal(t, time.Date(2026, 3, 30, 23, 59, 59, 0, time.UTC), terms[2].DueDate)
	assert.Equal(t, time.Date(2026, 4, 13, 23, 59, 59, 0, time.UTC), terms[3].DueDate)
}

func TestBuild_DueDates30Day(t *testing.T) {
	svc := newSchedule(&stubVAIssuer{})
	now := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)

	terms, err := svc.Build(context.Background(), ports.ScheduleRequest{
		Number: "T.N1", Total: 40000, TerminDuration: domain.TerminDuration30, Now: now,
	})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 1, 15, 23, 59, 59, 0, time.UTC), terms[0].DueDate)
	assert.Equal(t, time.Date(2026, 2, 15, 23, 59, 59, 0, time.UTC), terms[1].DueDate)
	assert.Equal(t, time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC), terms[2].DueDate)
	assert.Equal(t, time.Date(2026, 4, 15, 23, 59, 59, 0, time.UTC), terms[3].DueDate)
}

func TestBuild_VATermsSeeded(t *testing.T) {
	va := &stubVAIssuer{}
	svc := newSchedule(va)

	terms, err := svc.Build(context.Background(), ports.ScheduleRequest{
		Number: "T.N1", Total: 40000, TerminDuration: domain.TerminDuration30,
	})
	require.NoError(t, err)

	assert.Empty(t, terms[0].Payment.PaymentID, "term 1 is charged, not VA-seeded")
	for i := 1; i < 4; i++ {
		assert.Equal(t, fmt.Sprintf("VA-T.N1-%d", i+1), terms[i].Payment.PaymentID)
		assert.Equal(t, "vabni", terms[i].Payment.Method)
		assert.False(t, terms[i].Payment.Paid)
	}
	assert.Len(t, va.issued, 3)
}

func TestBuild_VAFailureProceedsWithPlaceholder(t *testing.T) {
	svc := newSchedule(&stubVAIssuer{fail: true})

	terms, err := svc.Build(context.Background(), ports.ScheduleRequest{
		Number: "T.N1", Total: 40000, TerminDuration: domain.TerminDuration30,
	})
	require.NoError(t, err, "va failure must not abort the schedule")

	for i := 1; i < 4; i++ {
		assert.Equal(t, domain.VAUnavailable, terms[i].Payment.PaymentID)
	}
}

func TestBuild_RejectsInvalidInput(t *testing.T) {
	svc := newSchedule(&stubVAIssuer{})

	_, err := svc.Build(context.Background(), ports.ScheduleRequest{Total: 0, TerminDuration: 30})
	assert.Error(t, err)

	_, err = svc.Build(context.Background(), ports.ScheduleRequest{Total: 40000, TerminDuration: 7})
	assert.Error(t, err)
}
