package model

import "time"

// PaymentEventLog 支付事件审计模型 (追加写)
type PaymentEventLog struct {
	PaymentEventLogID      uint64    `gorm:"primaryKey;column:payment_event_log_id;autoIncrement"`
	EventID                string    `gorm:"column:event_id;type:varchar(128);index"` // 支付服务商事件ID, 不做唯一约束 (不按事件去重)
	EventType              string    `gorm:"column:event_type;type:varchar(64);index"`
	UID                    string    `gorm:"column:uid;type:varchar(36);index"` // 用户ID（字符串 UUID）
	ProviderSubscriptionID string    `gorm:"column:provider_subscription_id;type:varchar(64)"`
	Tier                   string    `gorm:"column:tier;type:varchar(16)"`
	Status                 string    `gorm:"column:status;type:varchar(16)"`
	CreatedAt              time.Time `gorm:"column:created_at"`
}

func (PaymentEventLog) TableName() string { return "payment_event_log" }
