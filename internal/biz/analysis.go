package biz

import (
	"context"
	"encoding/json"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/auth"
	apperrors "github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/errors"

	"github.com/go-kratos/kratos/v2/log"
)

// IdentityClient 身份认证服务客户端接口 (防腐层)
// 校验不透明的 bearer 凭证, 返回稳定的用户标识
type IdentityClient interface {
	VerifyToken(ctx context.Context, token string) (uid string, err error)
}

// OracleClient 生成式 AI 服务客户端接口 (防腐层)
// 输入结构化分析请求, 输出结构化 JSON 或失败
type OracleClient interface {
	GenerateAnalysis(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
}

// AnalysisResult 一次分析请求的完整结果
// Message 携带准入原因, 供调用方展示剩余配额
type AnalysisResult struct {
	Message string
	Result  json.RawMessage
}

// AnalysisUsecase 分析请求编排: 身份认证 → 订阅准入 → AI 调用
type AnalysisUsecase struct {
	identity IdentityClient
	gate     *AccessUsecase
	oracle   OracleClient
	log      *log.Helper
}

// NewAnalysisUsecase 创建分析编排用例
func NewAnalysisUsecase(identity IdentityClient, gate *AccessUsecase, oracle OracleClient, logger log.Logger) *AnalysisUsecase {
	return &AnalysisUsecase{
		identity: identity,
		gate:     gate,
		oracle:   oracle,
		log:      log.NewHelper(logger),
	}
}

// Analyze 处理一次分析请求
//
// 失败映射: 参数缺失 400, 凭证无效 401, 准入拒绝 403 (携带拒绝原因),
// 存储故障 500, AI 失败 500 (已消耗的配额不退还)。
func (uc *AnalysisUsecase) Analyze(ctx context.Context, token string, payload json.RawMessage) (*AnalysisResult, error) {
	// 凭证与载荷都齐全之前不触碰身份服务和存储
	if token == "" {
		return nil, apperrors.ErrValidation("Authorization token is required.")
	}
	if len(payload) == 0 {
		return nil, apperrors.ErrValidation("Analysis data is required.")
	}

	uid, err := uc.identity.VerifyToken(ctx, token)
	if err != nil {
		uc.log.Warnf("Token verification failed: %v", err)
		return nil, apperrors.ErrAuthentication("Invalid authentication token.")
	}
	ctx = auth.WithUID(ctx, uid)

	decision, err := uc.gate.Evaluate(ctx, uid)
	if err != nil {
		// 存储故障: 拒绝放行并按 500 上报
		return nil, err
	}
	if !decision.CanProceed {
		return nil, apperrors.ErrAuthorization(decision.Reason)
	}

	result, err := uc.oracle.GenerateAnalysis(ctx, payload)
	if err != nil {
		// 配额按尝试计, AI 失败不回退计数
		uc.log.Errorf("AI analysis failed for user %s: %v", uid, err)
		return nil, apperrors.ErrOracle("Failed to generate AI analysis.")
	}

	return &AnalysisResult{
		Message: decision.Reason,
		Result:  result,
	}, nil
}
