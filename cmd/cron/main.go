package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/biz"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/conf"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/constants"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

// CronApp Cron 应用结构
type CronApp struct {
	ledgerUsecase *biz.LedgerUsecase
	accessUsecase *biz.AccessUsecase
	rs            *redsync.Redsync
}

// newLogger 创建 logger
func newLogger() log.Logger {
	return log.With(log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", "eco-predict-cron",
	)
}

func main() {
	flag.Parse()

	// 初始化配置
	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	// 初始化应用
	app, cleanup, err := wireApp(&bc)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// 创建定时任务调度器（支持秒级调度）
	cronScheduler := cron.New(cron.WithSeconds())

	// 1. 订阅文档对账 - 每天凌晨 2 点执行
	// 以审计日志为准修复订阅文档偏差, 多实例部署时由分布式锁保证单实例执行
	_, err = cronScheduler.AddFunc("0 0 2 * * *", func() {
		stdlog.Println("[CRON] Starting subscription reconciliation...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		mutex := app.rs.NewMutex(constants.ReconcileLockName,
			redsync.WithExpiry(constants.ReconcileLockExpiration),
			redsync.WithTries(constants.ReconcileLockRetries),
		)
		if err := mutex.LockContext(ctx); err != nil {
			stdlog.Printf("[CRON] Reconciliation skipped, lock not acquired: %v", err)
			return
		}
		defer func() {
			if _, err := mutex.UnlockContext(ctx); err != nil {
				stdlog.Printf("[CRON] Failed to release reconciliation lock: %v", err)
			}
		}()

		result, err := app.ledgerUsecase.Reconcile(ctx)
		if err != nil {
			stdlog.Printf("[CRON] Error reconciling subscriptions: %v", err)
		} else {
			stdlog.Printf("[CRON] Reconciliation completed: checked=%d, repaired=%d", result.Checked, result.Repaired)
		}
		stdlog.Println("[CRON] Finished subscription reconciliation")
	})
	if err != nil {
		stdlog.Printf("Failed to add reconciliation job: %v", err)
	}

	// 2. 免费层用量报表 - 每天上午 10 点执行 (只读)
	_, err = cronScheduler.AddFunc("0 0 10 * * *", func() {
		stdlog.Println("[CRON] Starting near-limit usage report...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		entries, err := app.accessUsecase.NearLimitUsers(ctx)
		if err != nil {
			stdlog.Printf("[CRON] Error building near-limit report: %v", err)
			return
		}

		stdlog.Printf("[CRON] Found %d users at or near the free tier limit", len(entries))
		for _, e := range entries {
			stdlog.Printf("[CRON] Near limit: user %s used %d/%d analyses, last use at %s",
				e.UID, e.Count, app.accessUsecase.FreeTierLimit(), e.LastUse.Format("2006-01-02 15:04:05"))
		}
		stdlog.Println("[CRON] Finished near-limit usage report")
	})
	if err != nil {
		stdlog.Printf("Failed to add near-limit report job: %v", err)
	}

	// 启动定时任务
	cronScheduler.Start()
	stdlog.Println("========================================")
	stdlog.Println("Cron jobs started successfully")
	stdlog.Println("Scheduled jobs:")
	stdlog.Println("  - Subscription reconcile: Every day at 02:00")
	stdlog.Println("  - Near-limit report:      Every day at 10:00")
	stdlog.Println("========================================")

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stdlog.Println("Shutting down gracefully...")

	// 停止定时任务
	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		stdlog.Println("Cron jobs stopped gracefully")
	case <-time.After(5 * time.Second):
		stdlog.Println("Cron jobs forced to stop after timeout")
	}
}
