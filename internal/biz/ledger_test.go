package biz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/constants"
	apperrors "github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventLogRepo 内存版审计日志仓库
type fakeEventLogRepo struct {
	entries []*PaymentEventLog
	addErr  error
	listErr error
}

func (f *fakeEventLogRepo) AddPaymentEventLog(ctx context.Context, entry *PaymentEventLog) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeEventLogRepo) LatestBySubject(ctx context.Context) ([]*PaymentEventLog, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	latest := make(map[string]*PaymentEventLog)
	for _, e := range f.entries {
		latest[e.UID] = e
	}
	out := make([]*PaymentEventLog, 0, len(latest))
	for _, e := range latest {
		out = append(out, e)
	}
	return out, nil
}

func newTestLedgerUsecase(repo QuotaRepo, logRepo EventLogRepo) *LedgerUsecase {
	return NewLedgerUsecase(repo, logRepo, log.NewStdLogger(&testWriter{}))
}

func TestApplyActivatedGrantsPro(t *testing.T) {
	repo := newFakeQuotaRepo()
	logRepo := &fakeEventLogRepo{}
	uc := newTestLedgerUsecase(repo, logRepo)

	err := uc.Apply(context.Background(), &PaymentEvent{
		EventID:                "WH-1",
		EventType:              constants.EventSubscriptionActivated,
		SubjectID:              "u1",
		ProviderSubscriptionID: "P1",
	})
	require.NoError(t, err)

	sub := repo.subs["u1"]
	require.NotNil(t, sub)
	assert.Equal(t, constants.TierPro, sub.Tier)
	assert.Equal(t, constants.StatusActive, sub.Status)
	assert.Equal(t, "P1", sub.PaypalID)
	assert.False(t, sub.UpdatedAt.IsZero())

	require.Len(t, logRepo.entries, 1)
	assert.Equal(t, "WH-1", logRepo.entries[0].EventID)
}

func TestApplyCancelledAndExpiredRevokePro(t *testing.T) {
	cases := []struct {
		eventType  string
		wantStatus string
	}{
		{constants.EventSubscriptionCancelled, constants.StatusCancelled},
		{constants.EventSubscriptionExpired, constants.StatusExpired},
	}

	for _, tc := range cases {
		repo := newFakeQuotaRepo()
		repo.subs["u1"] = &SubscriptionStatus{
			Tier:     constants.TierPro,
			Status:   constants.StatusActive,
			PaypalID: "P1",
		}
		uc := newTestLedgerUsecase(repo, &fakeEventLogRepo{})

		err := uc.Apply(context.Background(), &PaymentEvent{
			EventType: tc.eventType,
			SubjectID: "u1",
		})
		require.NoError(t, err)

		sub := repo.subs["u1"]
		assert.Equal(t, constants.TierFree, sub.Tier, tc.eventType)
		assert.Equal(t, tc.wantStatus, sub.Status, tc.eventType)
		// merge 语义: 未指定的 paypal_id 字段保持不动
		assert.Equal(t, "P1", sub.PaypalID, tc.eventType)
	}
}

func TestApplyUnknownEventIsAcknowledgedNoOp(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.subs["u1"] = &SubscriptionStatus{Tier: constants.TierPro, Status: constants.StatusActive}
	logRepo := &fakeEventLogRepo{}
	uc := newTestLedgerUsecase(repo, logRepo)

	err := uc.Apply(context.Background(), &PaymentEvent{
		EventType: "PAYMENT.SALE.COMPLETED",
		SubjectID: "u1",
	})
	require.NoError(t, err)
	// 订阅文档与审计日志都不变
	assert.Empty(t, repo.subPatches)
	assert.Equal(t, constants.StatusActive, repo.subs["u1"].Status)
	assert.Empty(t, logRepo.entries)
}

func TestApplyMissingSubjectIsShapeError(t *testing.T) {
	repo := newFakeQuotaRepo()
	uc := newTestLedgerUsecase(repo, &fakeEventLogRepo{})

	err := uc.Apply(context.Background(), &PaymentEvent{
		EventType: constants.EventSubscriptionActivated,
		SubjectID: "",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsWebhookShape(err))
	assert.Empty(t, repo.subPatches)
}

func TestApplyStoreWriteFaultIsRetryable(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.writeErr = errors.New("connection refused")
	uc := newTestLedgerUsecase(repo, &fakeEventLogRepo{})

	err := uc.Apply(context.Background(), &PaymentEvent{
		EventType: constants.EventSubscriptionActivated,
		SubjectID: "u1",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ReasonWebhookStorageFailure, kerrors.Reason(err))
}

func TestApplyDuplicateDeliveryIsIdempotent(t *testing.T) {
	repo := newFakeQuotaRepo()
	uc := newTestLedgerUsecase(repo, &fakeEventLogRepo{})

	ev := &PaymentEvent{
		EventID:                "WH-1",
		EventType:              constants.EventSubscriptionActivated,
		SubjectID:              "u1",
		ProviderSubscriptionID: "P1",
	}
	require.NoError(t, uc.Apply(context.Background(), ev))
	require.NoError(t, uc.Apply(context.Background(), ev))

	sub := repo.subs["u1"]
	assert.Equal(t, constants.TierPro, sub.Tier)
	assert.Equal(t, constants.StatusActive, sub.Status)
}

func TestApplyAuditFailureDoesNotFailWebhook(t *testing.T) {
	repo := newFakeQuotaRepo()
	logRepo := &fakeEventLogRepo{addErr: errors.New("db down")}
	uc := newTestLedgerUsecase(repo, logRepo)

	err := uc.Apply(context.Background(), &PaymentEvent{
		EventType: constants.EventSubscriptionActivated,
		SubjectID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.TierPro, repo.subs["u1"].Tier)
}

func TestReconcileRepairsDriftedSubscription(t *testing.T) {
	repo := newFakeQuotaRepo()
	logRepo := &fakeEventLogRepo{entries: []*PaymentEventLog{
		{
			UID:                    "drifted",
			EventType:              constants.EventSubscriptionActivated,
			ProviderSubscriptionID: "P1",
			Tier:                   constants.TierPro,
			Status:                 constants.StatusActive,
			CreatedAt:              time.Now().UTC(),
		},
		{
			UID:       "consistent",
			EventType: constants.EventSubscriptionCancelled,
			Tier:      constants.TierFree,
			Status:    constants.StatusCancelled,
			CreatedAt: time.Now().UTC(),
		},
	}}
	// drifted 的订阅文档与审计日志不一致, consistent 的一致
	repo.subs["consistent"] = &SubscriptionStatus{Tier: constants.TierFree, Status: constants.StatusCancelled}
	uc := newTestLedgerUsecase(repo, logRepo)

	result, err := uc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Repaired)

	sub := repo.subs["drifted"]
	require.NotNil(t, sub)
	assert.Equal(t, constants.TierPro, sub.Tier)
	assert.Equal(t, constants.StatusActive, sub.Status)
	assert.Equal(t, "P1", sub.PaypalID)
}
