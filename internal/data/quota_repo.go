package data

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/biz"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/conf"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

// quotaRepo 配额文档仓库实现
// 每个文档对应一个 Redis hash: HGETALL 为读, HSET 为单文档原子 merge 写
type quotaRepo struct {
	data *Data
	ns   string
	log  *log.Helper
}

// NewQuotaRepo 创建配额文档仓库
func NewQuotaRepo(data *Data, c *conf.Bootstrap, logger log.Logger) biz.QuotaRepo {
	ns := ""
	if c != nil && c.Quota != nil {
		ns = c.Quota.Namespace
	}
	return &quotaRepo{
		data: data,
		ns:   ns,
		log:  log.NewHelper(logger),
	}
}

func (r *quotaRepo) subscriptionKey(uid string) string {
	return fmt.Sprintf("%s:users:%s:subscriptions:status", r.ns, uid)
}

func (r *quotaRepo) usageKey(uid string) string {
	return fmt.Sprintf("%s:users:%s:usage:analysis_count", r.ns, uid)
}

// GetSubscriptionStatus 读取订阅状态文档
// 文档缺失返回默认值 {tier: free, status: unknown}, 不返回 nil
func (r *quotaRepo) GetSubscriptionStatus(ctx context.Context, uid string) (*biz.SubscriptionStatus, error) {
	fields, err := r.data.rdb.HGetAll(ctx, r.subscriptionKey(uid)).Result()
	if err != nil {
		r.log.Errorf("Failed to read subscription status for user %s: %v", uid, err)
		return nil, err
	}
	if len(fields) == 0 {
		return &biz.SubscriptionStatus{
			Tier:   constants.TierFree,
			Status: constants.StatusUnknown,
		}, nil
	}

	sub := &biz.SubscriptionStatus{
		Tier:     fields[constants.FieldTier],
		Status:   fields[constants.FieldStatus],
		PaypalID: fields[constants.FieldPaypalID],
	}
	if sub.Tier == "" {
		sub.Tier = constants.TierFree
	}
	if sub.Status == "" {
		sub.Status = constants.StatusUnknown
	}
	if ts := fields[constants.FieldUpdatedAt]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			sub.UpdatedAt = t
		}
	}
	return sub, nil
}

// GetUsageCounter 读取用量计数文档
// 文档缺失返回默认值 {count: 0}, 不返回 nil
func (r *quotaRepo) GetUsageCounter(ctx context.Context, uid string) (*biz.UsageCounter, error) {
	fields, err := r.data.rdb.HGetAll(ctx, r.usageKey(uid)).Result()
	if err != nil {
		r.log.Errorf("Failed to read usage counter for user %s: %v", uid, err)
		return nil, err
	}

	usage := &biz.UsageCounter{}
	if v := fields[constants.FieldCount]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("malformed usage count for user %s: %w", uid, err)
		}
		usage.Count = n
	}
	if ts := fields[constants.FieldLastUse]; ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			usage.LastUse = t
		}
	}
	return usage, nil
}

// MergeSubscriptionStatus 部分更新订阅状态文档, 未指定的字段不动
func (r *quotaRepo) MergeSubscriptionStatus(ctx context.Context, uid string, patch *biz.SubscriptionPatch) error {
	fields := map[string]interface{}{}
	if patch.Tier != "" {
		fields[constants.FieldTier] = patch.Tier
	}
	if patch.Status != "" {
		fields[constants.FieldStatus] = patch.Status
	}
	if patch.PaypalID != "" {
		fields[constants.FieldPaypalID] = patch.PaypalID
	}
	if !patch.UpdatedAt.IsZero() {
		fields[constants.FieldUpdatedAt] = patch.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if len(fields) == 0 {
		return nil
	}

	if err := r.data.rdb.HSet(ctx, r.subscriptionKey(uid), fields).Err(); err != nil {
		r.log.Errorf("Failed to merge subscription status for user %s: %v", uid, err)
		return err
	}
	return nil
}

// MergeUsageCounter 写入新的计数值与服务端时间戳 (单文档原子写)
func (r *quotaRepo) MergeUsageCounter(ctx context.Context, uid string, count int, lastUse time.Time) error {
	fields := map[string]interface{}{
		constants.FieldCount:   strconv.Itoa(count),
		constants.FieldLastUse: lastUse.UTC().Format(time.RFC3339),
	}
	if err := r.data.rdb.HSet(ctx, r.usageKey(uid), fields).Err(); err != nil {
		r.log.Errorf("Failed to merge usage counter for user %s: %v", uid, err)
		return err
	}
	return nil
}

// ListUsageCounters 遍历全部用量计数文档 (SCAN, 定时任务用)
func (r *quotaRepo) ListUsageCounters(ctx context.Context) (map[string]*biz.UsageCounter, error) {
	pattern := fmt.Sprintf("%s:users:*:usage:analysis_count", r.ns)
	prefix := fmt.Sprintf("%s:users:", r.ns)

	counters := make(map[string]*biz.UsageCounter)
	iter := r.data.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		uid := strings.TrimSuffix(strings.TrimPrefix(key, prefix), ":usage:analysis_count")
		if uid == "" || uid == key {
			continue
		}
		usage, err := r.GetUsageCounter(ctx, uid)
		if err != nil {
			return nil, err
		}
		counters[uid] = usage
	}
	if err := iter.Err(); err != nil {
		r.log.Errorf("Failed to scan usage counters: %v", err)
		return nil, err
	}
	return counters, nil
}
