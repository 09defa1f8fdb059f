package biz

import (
	"context"
	"time"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/constants"
	apperrors "github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// PaymentEvent 一次 webhook 调用期间持有的支付事件, 不保留
type PaymentEvent struct {
	EventID                string
	EventType              string
	SubjectID              string
	ProviderSubscriptionID string
}

// PaymentEventLog 支付事件审计记录 (追加写, 不做事件去重)
type PaymentEventLog struct {
	ID                     uint64
	EventID                string
	EventType              string
	UID                    string
	ProviderSubscriptionID string
	Tier                   string
	Status                 string
	CreatedAt              time.Time
}

// EventLogRepo 支付事件审计日志接口
type EventLogRepo interface {
	AddPaymentEventLog(ctx context.Context, entry *PaymentEventLog) error
	// LatestBySubject 返回每个用户最近一条已识别事件的审计记录
	LatestBySubject(ctx context.Context) ([]*PaymentEventLog, error)
}

// LedgerUsecase 订阅账本业务逻辑: 支付事件到 tier/status 迁移
type LedgerUsecase struct {
	repo    QuotaRepo
	logRepo EventLogRepo
	log     *log.Helper
}

// NewLedgerUsecase 创建订阅账本用例
func NewLedgerUsecase(repo QuotaRepo, logRepo EventLogRepo, logger log.Logger) *LedgerUsecase {
	return &LedgerUsecase{
		repo:    repo,
		logRepo: logRepo,
		log:     log.NewHelper(logger),
	}
}

// transition 事件类型到订阅状态迁移的映射
// 未识别的事件类型返回 nil (确认收到但不做任何写入)
func transition(ev *PaymentEvent, now time.Time) *SubscriptionPatch {
	switch ev.EventType {
	case constants.EventSubscriptionActivated:
		return &SubscriptionPatch{
			Tier:      constants.TierPro,
			Status:    constants.StatusActive,
			PaypalID:  ev.ProviderSubscriptionID,
			UpdatedAt: now,
		}
	case constants.EventSubscriptionCancelled:
		return &SubscriptionPatch{
			Tier:      constants.TierFree,
			Status:    constants.StatusCancelled,
			UpdatedAt: now,
		}
	case constants.EventSubscriptionExpired:
		return &SubscriptionPatch{
			Tier:      constants.TierFree,
			Status:    constants.StatusExpired,
			UpdatedAt: now,
		}
	default:
		return nil
	}
}

// Apply 应用一条已验证的支付事件
//
// 重复投递的同类事件重复应用等效于一次 (merge 写天然幂等),
// 不按事件 ID 去重。写入故障返回 WebhookStorageError, 由发送方重试;
// 报文结构错误返回 WebhookShapeError, 不可重试。
func (uc *LedgerUsecase) Apply(ctx context.Context, ev *PaymentEvent) error {
	if ev.SubjectID == "" {
		return apperrors.ErrWebhookShape("missing user ID")
	}

	now := time.Now().UTC()
	patch := transition(ev, now)
	if patch == nil {
		uc.log.Infof("Ignoring unhandled payment event type %s for user %s", ev.EventType, ev.SubjectID)
		return nil
	}

	if err := uc.repo.MergeSubscriptionStatus(ctx, ev.SubjectID, patch); err != nil {
		uc.log.Errorf("Failed to apply payment event %s for user %s: %v", ev.EventType, ev.SubjectID, err)
		return apperrors.ErrWebhookStorage("subscription store write failed")
	}

	// 审计记录尽力而为, 失败不影响 webhook 结果
	entry := &PaymentEventLog{
		EventID:                ev.EventID,
		EventType:              ev.EventType,
		UID:                    ev.SubjectID,
		ProviderSubscriptionID: ev.ProviderSubscriptionID,
		Tier:                   patch.Tier,
		Status:                 patch.Status,
		CreatedAt:              now,
	}
	if err := uc.logRepo.AddPaymentEventLog(ctx, entry); err != nil {
		uc.log.Warnf("Failed to record payment event log for user %s: %v", ev.SubjectID, err)
	}

	uc.log.Infof("Applied payment event %s for user %s: tier=%s status=%s",
		ev.EventType, ev.SubjectID, patch.Tier, patch.Status)
	return nil
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	Checked  int
	Repaired int
}

// Reconcile 以审计日志中每个用户最近一条已识别事件为准,
// 校验订阅文档并 merge 修复偏差 (定时任务调用, 需持有分布式锁)
func (uc *LedgerUsecase) Reconcile(ctx context.Context) (*ReconcileResult, error) {
	entries, err := uc.logRepo.LatestBySubject(ctx)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{}
	for _, entry := range entries {
		result.Checked++

		sub, err := uc.repo.GetSubscriptionStatus(ctx, entry.UID)
		if err != nil {
			uc.log.Errorf("Reconcile: failed to read subscription for user %s: %v", entry.UID, err)
			continue
		}
		if sub.Tier == entry.Tier && sub.Status == entry.Status {
			continue
		}

		patch := &SubscriptionPatch{
			Tier:      entry.Tier,
			Status:    entry.Status,
			UpdatedAt: time.Now().UTC(),
		}
		if entry.Tier == constants.TierPro {
			patch.PaypalID = entry.ProviderSubscriptionID
		}
		if err := uc.repo.MergeSubscriptionStatus(ctx, entry.UID, patch); err != nil {
			uc.log.Errorf("Reconcile: failed to repair subscription for user %s: %v", entry.UID, err)
			continue
		}

		uc.log.Infof("Reconcile: repaired subscription for user %s: %s/%s -> %s/%s",
			entry.UID, sub.Tier, sub.Status, entry.Tier, entry.Status)
		result.Repaired++
	}
	return result, nil
}
