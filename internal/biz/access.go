package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/conf"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/constants"
	apperrors "github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
	"golang.org/x/sync/errgroup"
)

// SubscriptionStatus 用户订阅状态文档
// 缺失时按默认值处理: {tier: free, status: unknown}
type SubscriptionStatus struct {
	Tier      string // free, pro
	Status    string // unknown, active, cancelled, expired
	PaypalID  string
	UpdatedAt time.Time
}

// ProActive 判断是否为生效中的 Pro 订阅
// tier=pro 仅在 status=active 时有效, 其余状态一律按非 Pro 处理
func (s *SubscriptionStatus) ProActive() bool {
	return s != nil && s.Tier == constants.TierPro && s.Status == constants.StatusActive
}

// UsageCounter 用户用量计数文档
// 缺失时按默认值处理: {count: 0}
type UsageCounter struct {
	Count   int
	LastUse time.Time
}

// SubscriptionPatch 订阅状态文档的部分更新
// 零值字段不写入 (merge 语义, 不做整文档替换)
type SubscriptionPatch struct {
	Tier      string
	Status    string
	PaypalID  string
	UpdatedAt time.Time
}

// AccessDecision 单次请求的准入判定结果, 不持久化
type AccessDecision struct {
	CanProceed bool
	Reason     string
}

// QuotaRepo 配额文档存储接口 (防腐层)
// 单文档写入是原子的 merge 写; 不提供跨文档事务与 CAS
type QuotaRepo interface {
	GetSubscriptionStatus(ctx context.Context, uid string) (*SubscriptionStatus, error)
	GetUsageCounter(ctx context.Context, uid string) (*UsageCounter, error)
	MergeSubscriptionStatus(ctx context.Context, uid string, patch *SubscriptionPatch) error
	MergeUsageCounter(ctx context.Context, uid string, count int, lastUse time.Time) error
	// ListUsageCounters 遍历所有用量计数文档 (定时任务用)
	ListUsageCounters(ctx context.Context) (map[string]*UsageCounter, error)
}

// AccessUsecase 订阅准入业务逻辑
type AccessUsecase struct {
	repo      QuotaRepo
	freeLimit int
	log       *log.Helper
}

// NewAccessUsecase 创建订阅准入用例
func NewAccessUsecase(repo QuotaRepo, c *conf.Bootstrap, logger log.Logger) *AccessUsecase {
	return &AccessUsecase{
		repo:      repo,
		freeLimit: c.FreeTierLimitOrDefault(constants.DefaultFreeTierLimit),
		log:       log.NewHelper(logger),
	}
}

// FreeTierLimit 返回免费层上限
func (uc *AccessUsecase) FreeTierLimit() int {
	return uc.freeLimit
}

// Evaluate 判定用户本次分析请求是否准入
//
// 策略按顺序生效:
//  1. pro 且 active: 直接放行, 不触碰用量计数
//  2. count < 上限: 计数 +1 并连同服务端时间戳一次 merge 写入, 然后放行;
//     准入与计数耦合, 即使下游 AI 调用失败配额也已消耗
//  3. 其余情况拒绝, 提示升级
//
// 存储故障一律拒绝 (fail closed), 同时返回 StorageError 供上层映射 500;
// 正常的策略拒绝不返回 error, 上层映射 403。
func (uc *AccessUsecase) Evaluate(ctx context.Context, uid string) (*AccessDecision, error) {
	if uid == "" {
		return &AccessDecision{CanProceed: false, Reason: "User ID is required for authorization."}, nil
	}

	// 两个文档由不相交的写路径维护, 无需跨文档事务, 并发读取后汇合
	var (
		sub   *SubscriptionStatus
		usage *UsageCounter
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sub, err = uc.repo.GetSubscriptionStatus(gctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		usage, err = uc.repo.GetUsageCounter(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		uc.log.Errorf("Failed to read quota documents for user %s: %v", uid, err)
		return &AccessDecision{CanProceed: false, Reason: "Internal server error during authorization check."},
			apperrors.ErrStorage("quota store read failed")
	}

	if sub.ProActive() {
		return &AccessDecision{CanProceed: true, Reason: "Pro subscription active."}, nil
	}

	if usage.Count < uc.freeLimit {
		// 读-改-写, 无 CAS: 同一用户并发请求可能丢失一次计数,
		// 与存储层仅保证单文档写原子性的模型一致
		newCount := usage.Count + 1
		if err := uc.repo.MergeUsageCounter(ctx, uid, newCount, time.Now().UTC()); err != nil {
			uc.log.Errorf("Failed to persist usage counter for user %s: %v", uid, err)
			return &AccessDecision{CanProceed: false, Reason: "Internal server error during authorization check."},
				apperrors.ErrStorage("quota store write failed")
		}
		return &AccessDecision{
			CanProceed: true,
			Reason:     fmt.Sprintf("Free tier usage: %d/%d analyses used.", newCount, uc.freeLimit),
		}, nil
	}

	return &AccessDecision{
		CanProceed: false,
		Reason:     fmt.Sprintf("Free tier limit of %d analyses exceeded. Please upgrade to Pro.", uc.freeLimit),
	}, nil
}

// NearLimitEntry 接近免费层上限的用户条目
type NearLimitEntry struct {
	UID     string
	Count   int
	LastUse time.Time
}

// NearLimitUsers 返回用量达到 上限-1 及以上的用户 (定时报表用, 只读)
func (uc *AccessUsecase) NearLimitUsers(ctx context.Context) ([]NearLimitEntry, error) {
	counters, err := uc.repo.ListUsageCounters(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]NearLimitEntry, 0)
	for uid, c := range counters {
		if c.Count >= uc.freeLimit-1 {
			entries = append(entries, NearLimitEntry{UID: uid, Count: c.Count, LastUse: c.LastUse})
		}
	}
	return entries, nil
}
