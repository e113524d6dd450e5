package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FanoutService implements ports.NotificationService. It builds the
// merchant callback, email, push and live-broadcast jobs for one
// transaction outcome, persists them, and attempts immediate delivery.
// Everything here is best-effort: a finished charge is never failed or
// rolled back because a notification could not be delivered.
type FanoutService struct {
	notifRepo ports.NotificationRepository
	webhook   ports.WebhookSender
	mailer    ports.Mailer
	pusher    ports.Pusher
	registry  ports.Registry
	log       zerolog.Logger
}

// NewFanoutService creates the notification fan-out service.
func NewFanoutService(
	notifRepo ports.NotificationRepository,
	webhook ports.WebhookSender,
	mailer ports.Mailer,
	pusher ports.Pusher,
	registry ports.Registry,
	log zerolog.Logger,
) *FanoutService {
	return &FanoutService{
		notifRepo: notifRepo,
		webhook:   webhook,
		mailer:    mailer,
		pusher:    pusher,
		registry:  registry,
		log:       log,
	}
}

// Dispatch fans out one outcome. Failures are logged and swallowed;
// unsent jobs stay queued on the notification row for the external
// dispatcher to re-drive.
func (s *FanoutService) Dispatch(ctx context.Context, outcome ports.TransactionOutcome) {
	payload := s.buildCallback(outcome)
	raw, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("number", outcome.Number).Msg("marshaling callback payload")
		return
	}

	notif := &domain.TransactionNotification{
		ID:        uuid.New(),
		Number:    outcome.Number,
		Callbacks: s.buildCallbackJobs(ctx, outcome, raw),
		Emails:    s.buildEmailJobs(outcome),
		Push:      s.buildPushJob(outcome),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	for i := range notif.Callbacks {
		job := &notif.Callbacks[i]
		attempt := s.webhook.Send(ctx, job.URL, job.Payload)
		if attempt != nil {
			job.Responses = append(job.Responses, *attempt)
			job.Sent = attempt.Err == "" && attempt.StatusCode >= 200 && attempt.StatusCode < 300
		}
		if !job.Sent {
			s.log.Warn().Str("number", outcome.Number).Str("url", job.URL).Msg("merchant callback delivery failed")
		}
	}

	for i := range notif.Emails {
		if err := s.mailer.Send(ctx, notif.Emails[i]); err != nil {
			s.log.Warn().Err(err).Str("number", outcome.Number).Msg("email delivery failed")
			continue
		}
		notif.Emails[i].Sent = true
	}

	if notif.Push != nil {
		if err := s.pusher.Push(ctx, *notif.Push); err != nil {
			s.log.Warn().Err(err).Str("number", outcome.Number).Msg("push delivery failed")
		} else {
			notif.Push.Sent = true
		}
	}

	if err := s.notifRepo.Upsert(ctx, notif); err != nil {
		s.log.Error().Err(err).Str("number", outcome.Number).Msg("persisting notification record failed")
	}

	s.broadcast(outcome, raw)
}

func (s *FanoutService) buildCallback(outcome ports.TransactionOutcome) domain.Callback {
	cb := domain.NewCallback(outcome.Number, outcome.Code)
	cb.Custom = outcome.Custom
	if outcome.Transaction != nil {
		cb.TransactionID = outcome.Transaction.ID.String()
	}
	if outcome.Code.Success() {
		gross := outcome.GrossAmount
		credit := outcome.RemainingCredit
		cb.GrossAmount = &gross
		cb.RemainingCredit = &credit
		if outcome.User != nil {
			cb.UserID = outcome.User.ID.String()
		}
	}
	return cb
}

func (s *FanoutService) buildCallbackJobs(ctx context.Context, outcome ports.TransactionOutcome, raw []byte) []domain.CallbackJob {
	storeURL := ""
	if outcome.Store != nil {
		storeURL = outcome.Store.CallbackURL
	}
	rules, err := s.notifRepo.GetCallbackRules(ctx, outcome.Number)
	if err != nil {
		s.log.Warn().Err(err).Str("number", outcome.Number).Msg("loading callback rules failed")
	}

	urls := rules.URLs(storeURL)
	jobs := make([]domain.CallbackJob, 0, len(urls))
	for _, u := range urls {
		jobs = append(jobs, domain.CallbackJob{URL: u, Payload: raw})
	}
	return jobs
}

func (s *FanoutService) buildEmailJobs(outcome ports.TransactionOutcome) []domain.EmailJob {
	if !outcome.Code.Success() {
		return nil
	}
	var jobs []domain.EmailJob
	bare := domain.BareNumber(outcome.Number)

	if outcome.Store != nil && outcome.Store.Email != "" {
		jobs = append(jobs, domain.EmailJob{
			To:      outcome.Store.Email,
			Subject: fmt.Sprintf("Transaction %s approved", bare),
			Body: fmt.Sprintf("Transaction %s for Rp%d has been approved and the first installment charged.",
				bare, outcome.GrossAmount),
		})
	}
	if outcome.User != nil && outcome.User.Email != "" {
		jobs = append(jobs, domain.EmailJob{
			To:      outcome.User.Email,
			Subject: "Your installment plan is active",
			Body: fmt.Sprintf("Hi %s, your purchase %s (Rp%d) is split into 4 installments. The first one was charged today.",
				outcome.User.Name, bare, outcome.GrossAmount),
		})
		if outcome.Voucher != nil {
			jobs = append(jobs, domain.EmailJob{
				To:      outcome.User.Email,
				Subject: "A voucher for your first transaction",
				Body: fmt.Sprintf("Thanks for your first purchase! Voucher %s worth Rp%d is yours, valid until %s.",
					outcome.Voucher.Code, outcome.Voucher.Amount, outcome.Voucher.ExpiresAt.Format("2 January 2006")),
			})
		}
	}
	return jobs
}

func (s *FanoutService) buildPushJob(outcome ports.TransactionOutcome) *domain.PushJob {
	if outcome.User == nil || outcome.User.FCMToken == "" {
		return nil
	}
	bare := domain.BareNumber(outcome.Number)
	if outcome.Code.Success() {
		return &domain.PushJob{
			FCMToken: outcome.User.FCMToken,
			Title:    "Payment successful",
			Body:     fmt.Sprintf("First installment for %s charged. Remaining credit Rp%d.", bare, outcome.RemainingCredit),
		}
	}
	if outcome.Code == domain.StatusChargeFailed {
		return &domain.PushJob{
			FCMToken: outcome.User.FCMToken,
			Title:    "Payment failed",
			Body:     fmt.Sprintf("We could not charge your card for %s. Make sure your card balance covers the first installment, then try again.", bare),
		}
	}
	return nil
}

func (s *FanoutService) broadcast(outcome ports.TransactionOutcome, raw []byte) {
	if s.registry == nil {
		return
	}
	if outcome.Store != nil {
		s.registry.Publish(outcome.Store.ID.String(), raw)
	}
	if outcome.User != nil {
		s.registry.Publish(outcome.User.ID.String(), raw)
	}
}
