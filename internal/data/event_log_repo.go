package data

import (
	"context"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/biz"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
)

// eventLogRepo 支付事件审计日志仓库实现
type eventLogRepo struct {
	data *Data
	log  *log.Helper
}

// NewEventLogRepo 创建支付事件审计日志仓库
func NewEventLogRepo(data *Data, logger log.Logger) biz.EventLogRepo {
	return &eventLogRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// AddPaymentEventLog 追加支付事件审计记录
func (r *eventLogRepo) AddPaymentEventLog(ctx context.Context, entry *biz.PaymentEventLog) error {
	m := &model.PaymentEventLog{
		EventID:                entry.EventID,
		EventType:              entry.EventType,
		UID:                    entry.UID,
		ProviderSubscriptionID: entry.ProviderSubscriptionID,
		Tier:                   entry.Tier,
		Status:                 entry.Status,
		CreatedAt:              entry.CreatedAt,
	}
	if err := r.data.db.WithContext(ctx).Create(m).Error; err != nil {
		r.log.Errorf("Failed to add payment event log for user %s: %v", entry.UID, err)
		return err
	}
	return nil
}

// LatestBySubject 返回每个用户最近一条已识别事件的审计记录
func (r *eventLogRepo) LatestBySubject(ctx context.Context) ([]*biz.PaymentEventLog, error) {
	// 自增主键与写入顺序一致, 取每个 uid 的最大主键即最近一条
	latest := r.data.db.WithContext(ctx).
		Model(&model.PaymentEventLog{}).
		Select("MAX(payment_event_log_id)").
		Group("uid")

	var models []model.PaymentEventLog
	if err := r.data.db.WithContext(ctx).
		Where("payment_event_log_id IN (?)", latest).
		Find(&models).Error; err != nil {
		r.log.Errorf("Failed to query latest payment event logs: %v", err)
		return nil, err
	}

	entries := make([]*biz.PaymentEventLog, len(models))
	for i, m := range models {
		entries[i] = &biz.PaymentEventLog{
			ID:                     m.PaymentEventLogID,
			EventID:                m.EventID,
			EventType:              m.EventType,
			UID:                    m.UID,
			ProviderSubscriptionID: m.ProviderSubscriptionID,
			Tier:                   m.Tier,
			Status:                 m.Status,
			CreatedAt:              m.CreatedAt,
		}
	}
	return entries, nil
}
