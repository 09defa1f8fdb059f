package constants

import "time"

// 订阅层级
const (
	TierFree = "free"
	TierPro  = "pro"
)

// 订阅状态
const (
	StatusUnknown   = "unknown"
	StatusActive    = "active"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// 配额相关常量
const (
	// DefaultFreeTierLimit 免费层分析次数默认上限
	DefaultFreeTierLimit = 5
)

// PayPal webhook 事件类型
const (
	EventSubscriptionActivated = "BILLING.SUBSCRIPTION.ACTIVATED"
	EventSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"
	EventSubscriptionExpired   = "BILLING.SUBSCRIPTION.EXPIRED"
)

// 存储文档字段名 (与文档结构保持一致, 勿随意改动)
const (
	FieldTier      = "tier"
	FieldStatus    = "status"
	FieldPaypalID  = "paypal_id"
	FieldUpdatedAt = "updated_at"
	FieldCount     = "count"
	FieldLastUse   = "last_use"
)

// 分布式锁相关常量
const (
	// ReconcileLockName 对账任务锁名
	ReconcileLockName = "ecopredict:cron:reconcile"
	// ReconcileLockExpiration 对账任务锁过期时间
	ReconcileLockExpiration = 10 * time.Minute
	// ReconcileLockRetries 对账任务锁重试次数
	ReconcileLockRetries = 1
)
