package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/auth"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/biz"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

const (
	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
	defaultGeminiModel    = "gemini-1.5-flash"
	defaultOracleTimeout  = 30 * time.Second
)

// analysisPrompt 碳排放分析提示词模板, %s 处填入请求载荷 JSON
const analysisPrompt = `You are a carbon emission analysis assistant. ` +
	`Analyze the following emission data and respond with a single JSON object containing ` +
	`"summary" (string), "total_emission_kg" (number), "breakdown" (array) and "recommendations" (array of strings). ` +
	`Respond with JSON only, no surrounding text.

Emission data:
%s`

// oracleClient 生成式 AI 服务客户端 (防腐层)
type oracleClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	log      *log.Helper
}

// NewOracleClient 创建生成式 AI 服务客户端
func NewOracleClient(c *conf.Bootstrap, logger log.Logger) (biz.OracleClient, error) {
	cfg := c.Client.Gemini

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	// AI 调用必须有界超时, 超时按失败处理
	timeout := defaultOracleTimeout
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid gemini.timeout: %w", err)
		}
		timeout = d
	}

	return &oracleClient{
		endpoint: endpoint,
		apiKey:   cfg.ApiKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
		log:      log.NewHelper(logger),
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType"`
}

type generateContentRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateContentReply struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GenerateAnalysis 调用 generateContent 接口生成结构化分析结果
// 空输出或非法 JSON 一律按失败处理
func (c *oracleClient) GenerateAnalysis(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	reqBody := &generateContentRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: fmt.Sprintf(analysisPrompt, string(payload))}}},
		},
		GenerationConfig: generationConfig{ResponseMimeType: "application/json"},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	if uid, ok := auth.GetUIDFromContext(ctx); ok {
		c.log.Debugf("Requesting AI analysis for user %s", uid)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	var reply generateContentReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("malformed gemini response: %w", err)
	}
	if len(reply.Candidates) == 0 || len(reply.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	text := extractJSON(reply.Candidates[0].Content.Parts[0].Text)
	if text == "" || !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("gemini returned empty or malformed JSON")
	}
	return json.RawMessage(text), nil
}

// extractJSON 去掉模型偶尔包在 JSON 外面的 markdown 代码栅栏
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
	}
	return strings.TrimSpace(text)
}
