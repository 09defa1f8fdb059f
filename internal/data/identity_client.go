package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/biz"
	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/conf"
)

// identityClient 身份认证服务客户端 (防腐层)
// 调用外部身份服务校验不透明 bearer 凭证
type identityClient struct {
	addr   string
	client *http.Client
}

// NewIdentityClient 创建身份认证服务客户端
func NewIdentityClient(c *conf.Bootstrap) (biz.IdentityClient, error) {
	cfg := c.Client.IdentityService

	timeout := 5 * time.Second
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid identity_service.timeout: %w", err)
		}
		timeout = d
	}

	return &identityClient{
		addr:   cfg.Addr,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type verifyTokenRequest struct {
	Token string `json:"token"`
}

type verifyTokenReply struct {
	Valid bool   `json:"valid"`
	UID   string `json:"uid"`
}

// VerifyToken 校验凭证并返回稳定的用户标识
func (c *identityClient) VerifyToken(ctx context.Context, token string) (string, error) {
	body, err := json.Marshal(&verifyTokenRequest{Token: token})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addr+"/v1/tokens:verify", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("identity service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("identity service returned status %d", resp.StatusCode)
	}

	var reply verifyTokenReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("malformed identity service response: %w", err)
	}
	if !reply.Valid || reply.UID == "" {
		return "", fmt.Errorf("token rejected by identity service")
	}
	return reply.UID, nil
}
