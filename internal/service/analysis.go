package service

import (
	"context"
	"encoding/json"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/biz"
)

// AnalysisService 分析服务
type AnalysisService struct {
	uc *biz.AnalysisUsecase
}

// NewAnalysisService 创建分析服务实例
func NewAnalysisService(uc *biz.AnalysisUsecase) *AnalysisService {
	return &AnalysisService{uc: uc}
}

// AnalyzeRequest 分析请求体
type AnalyzeRequest struct {
	Data json.RawMessage `json:"data"`
}

// AnalyzeReply 分析响应体
type AnalyzeReply struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Analyze 处理一次分析请求
func (s *AnalysisService) Analyze(ctx context.Context, token string, req *AnalyzeRequest) (*AnalyzeReply, error) {
	result, err := s.uc.Analyze(ctx, token, req.Data)
	if err != nil {
		return nil, err
	}
	return &AnalyzeReply{
		Success: true,
		Message: result.Message,
		Result:  result.Result,
	}, nil
}
