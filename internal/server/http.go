package server

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"time"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/auth"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/conf"
	apperrors "github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/errors"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// HealthChecker 健康检查依赖 (数据层探活)
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// NewHTTPServer new an HTTP server.
func NewHTTPServer(
	c *conf.Bootstrap,
	d HealthChecker,
	analysis *service.AnalysisService,
	webhook *service.WebhookService,
	logger log.Logger,
) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server.Http.Addr != "" {
		opts = append(opts, http.Address(c.Server.Http.Addr))
	}
	if c.Server.Http.Timeout != "" {
		if t, err := time.ParseDuration(c.Server.Http.Timeout); err == nil {
			opts = append(opts, http.Timeout(t))
		}
	}
	srv := http.NewServer(opts...)

	// 注册业务路由
	api := srv.Route("/api")
	api.POST("/analysis", func(ctx http.Context) error {
		token, err := auth.ExtractBearerToken(ctx.Header().Get("Authorization"))
		if err != nil {
			return err
		}

		var req service.AnalyzeRequest
		if err := ctx.Bind(&req); err != nil {
			return apperrors.ErrValidation("Analysis data is required.")
		}

		reply, err := analysis.Analyze(ctx, token, &req)
		if err != nil {
			return err
		}
		return ctx.JSON(stdhttp.StatusOK, reply)
	})

	api.POST("/webhooks/paypal", func(ctx http.Context) error {
		var req service.WebhookRequest
		if err := ctx.Bind(&req); err != nil {
			return apperrors.ErrWebhookShape("malformed webhook payload")
		}

		if err := webhook.HandlePayPalEvent(ctx, &req); err != nil {
			return err
		}
		// 处理成功 (含 no-op 确认) 返回 204, 无响应体
		ctx.Response().WriteHeader(stdhttp.StatusNoContent)
		return nil
	})

	// 注册健康检查端点
	srv.Route("/").GET("/health", func(ctx http.Context) error {
		if err := d.Ping(ctx); err != nil {
			return ctx.JSON(stdhttp.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
		return ctx.JSON(stdhttp.StatusOK, map[string]string{
			"status":  "ok",
			"service": "eco-predict-backend",
		})
	})

	return srv
}

// customErrorEncoder 将组件边界抛出的错误映射为 {"error": message} 响应体
// 内部错误细节不出现在响应中
func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status := stdhttp.StatusInternalServerError
	message := "internal server error"

	if se := kerrors.FromError(err); se != nil && se.Reason != kerrors.UnknownReason {
		if se.Code >= 100 && se.Code < 600 {
			status = int(se.Code)
		}
		if se.Message != "" {
			message = se.Message
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
