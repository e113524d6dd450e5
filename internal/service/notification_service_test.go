package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"installment-platform/internal/core/domain"
	"installment-platform/internal/core/ports"
	"installment-platform/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fanoutTestDeps struct {
	svc       *FanoutService
	notifRepo *mocks.MockNotificationRepository
	webhook   *mocks.MockWebhookSender
	mailer    *mocks.MockMailer
	pusher    *mocks.MockPusher
	registry  *mocks.MockRegistry
	ctrl      *gomock.Controller
}

func setupFanout(t *testing.T) *fanoutTestDeps {
	ctrl := gomock.NewController(t)
	d := &fanoutTestDeps{
		notifRepo: mocks.NewMockNotificationRepository(ctrl),
		webhook:   mocks.NewMockWebhookSender(ctrl),
		mailer:    mocks.NewMockMailer(ctrl),
		pusher:    mocks.NewMockPusher(ctrl),
		registry:  mocks.NewMockRegistry(ctrl),
		ctrl:      ctrl,
	}
	d.svc = NewFanoutService(d.notifRepo, d.webhook, d.mailer, d.pusher, d.registry, zerolog.Nop())
	return d
}

func successOutcome() ports.TransactionOutcome {
	merchant := prefixedMerchant()
	store := activeStore(merchant.ID)
	store.Email = "toko@example.com"
	user := approvedUser(400000)
	user.FCMToken = "fcm-reg-1"
	return ports.TransactionOutcome{
		Transaction: &domain.Transaction{
			ID:     uuid.New(),
			Number: "MCH.TRX100",
			Total:  100000,
		},
		Store:           store,
		User:            user,
		Number:          "MCH.TRX100",
		Code:            domain.StatusSuccess,
		GrossAmount:     100000,
		RemainingCredit: 300000,
		Custom:          map[string]string{"cashier": "jane"},
	}
}

func TestFanout_SuccessDeliversEverything(t *testing.T) {
	d := setupFanout(t)
	defer d.ctrl.Finish()

	outcome := successOutcome()

	d.notifRepo.EXPECT().GetCallbackRules(gomock.Any(), outcome.Number).Return(nil, nil)
	d.webhook.EXPECT().Send(gomock.Any(), outcome.Store.CallbackURL, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload []byte) *domain.CallbackAttempt {
			var cb domain.Callback
			require.NoError(t, json.Unmarshal(payload, &cb))
			assert.True(t, cb.Success)
			assert.Equal(t, "TRX100", cb.TransactionNumber)
			assert.Equal(t, "jane", cb.Custom["cashier"])
			return &domain.CallbackAttempt{At: time.Now(), StatusCode: 200}
		})
	// Store email plus user email.
	d.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	d.pusher.EXPECT().Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job domain.PushJob) error {
			assert.Equal(t, "fcm-reg-1", job.FCMToken)
			assert.Equal(t, "Payment successful", job.Title)
			return nil
		})
	d.notifRepo.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, notif *domain.TransactionNotification) error {
			require.Len(t, notif.Callbacks, 1)
			assert.True(t, notif.Callbacks[0].Sent)
			require.Len(t, notif.Emails, 2)
			assert.True(t, notif.Emails[0].Sent)
			require.NotNil(t, notif.Push)
			assert.True(t, notif.Push.Sent)
			return nil
		})
	d.registry.EXPECT().Publish(outcome.Store.ID.String(), gomock.Any())
	d.registry.EXPECT().Publish(outcome.User.ID.String(), gomock.Any())

	d.svc.Dispatch(context.Background(), outcome)
}

func TestFanout_OverrideRulesReplaceStoreURL(t *testing.T) {
	d := setupFanout(t)
	defer d.ctrl.Finish()

	outcome := successOutcome()
	outcome.User.FCMToken = ""
	outcome.User.Email = ""
	outcome.Store.Email = ""

	rules := &domain.CallbackRules{
		Number:   outcome.Number,
		Override: []string{"https://other.example/hook"},
	}
	d.notifRepo.EXPECT().GetCallbackRules(gomock.Any(), outcome.Number).Return(rules, nil)
	d.webhook.EXPECT().Send(gomock.Any(), "https://other.example/hook", gomock.Any()).
		Return(&domain.CallbackAttempt{At: time.Now(), StatusCode: 200})
	d.notifRepo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	d.registry.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(2)

	d.svc.Dispatch(context.Background(), outcome)
}

func TestFanout_FailedDeliveryStaysQueued(t *testing.T) {
	d := setupFanout(t)
	defer d.ctrl.Finish()

	outcome := successOutcome()
	outcome.User.FCMToken = ""
	outcome.User.Email = ""
	outcome.Store.Email = ""

	d.notifRepo.EXPECT().GetCallbackRules(gomock.Any(), outcome.Number).Return(nil, nil)
	d.webhook.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.CallbackAttempt{At: time.Now(), Err: "connection refused"})
	d.notifRepo.EXPECT().Upsert(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, notif *domain.TransactionNotification) error {
			require.Len(t, notif.Callbacks, 1)
			assert.False(t, notif.Callbacks[0].Sent)
			require.Len(t, notif.Callbacks[0].Responses, 1)
			return nil
		})
	d.registry.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(2)

	d.svc.Dispatch(context.Background(), outcome)
}

func TestFanout_ChargeFailurePushesWarning(t *testing.T) {
	d := setupFanout(t)
	defer d.ctrl.Finish()

	outcome := successOutcome()
	outcome.Transaction = nil
	outcome.Code = domain.StatusChargeFailed
	outcome.Store.Email = ""
	outcome.User.Email = ""

	d.notifRepo.EXPECT().GetCallbackRules(gomock.Any(), outcome.Number).Return(nil, nil)
	d.webhook.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.CallbackAttempt{At: time.Now(), StatusCode: 200})
	d.pusher.EXPECT().Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job domain.PushJob) error {
			assert.Equal(t, "Payment failed", job.Title)
			assert.Contains(t, job.Body, "card balance")
			return nil
		})
	d.notifRepo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	d.registry.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(2)

	d.svc.Dispatch(context.Background(), outcome)
}

func TestFanout_VoucherEmailIncluded(t *testing.T) {
	d := setupFanout(t)
	defer d.ctrl.Finish()

	outcome := successOutcome()
	outcome.User.FCMToken = ""
	outcome.Store.Email = ""
	outcome.Voucher = &domain.Voucher{
		ID:        uuid.New(),
		Code:      "WELCOME-000042",
		UserID:    outcome.User.ID,
		Amount:    25000,
		ExpiresAt: time.Now().AddDate(0, 1, 0),
	}

	d.notifRepo.EXPECT().GetCallbackRules(gomock.Any(), outcome.Number).Return(nil, nil)
	d.webhook.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.CallbackAttempt{At: time.Now(), StatusCode: 200})

	var subjects []string
	d.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, job domain.EmailJob) error {
			subjects = append(subjects, job.Subject)
			return nil
		}).Times(2)
	d.notifRepo.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)
	d.registry.EXPECT().Publish(gomock.Any(), gomock.Any()).Times(2)

	d.svc.Dispatch(context.Background(), outcome)

	assert.Contains(t, subjects, "A voucher for your first transaction")
}
