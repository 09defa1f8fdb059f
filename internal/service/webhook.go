package service

import (
	"context"

	"github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/biz"
	apperrors "github.com/Nolin2/eco-predict-ai-carborn-emission-AI-Function-Backend/internal/errors"

	"github.com/google/uuid"
)

// WebhookService 支付 webhook 服务
type WebhookService struct {
	uc *biz.LedgerUsecase
}

// NewWebhookService 创建支付 webhook 服务实例
func NewWebhookService(uc *biz.LedgerUsecase) *WebhookService {
	return &WebhookService{uc: uc}
}

// WebhookSubscriber PayPal webhook resource.subscriber 结构
type WebhookSubscriber struct {
	CustomID string `json:"custom_id"`
}

// WebhookResource PayPal webhook resource 结构
// 用户标识有两种已接受的形态: resource.subscriber.custom_id 或 resource.custom_id
type WebhookResource struct {
	ID         string             `json:"id"`
	CustomID   string             `json:"custom_id"`
	Subscriber *WebhookSubscriber `json:"subscriber"`
}

// WebhookRequest PayPal webhook 请求体
// 注意: 签名验证由接入层前置完成, 这里只处理已验证的事件
type WebhookRequest struct {
	ID        string           `json:"id"`
	EventType string           `json:"event_type"`
	Resource  *WebhookResource `json:"resource"`
}

// subjectID 提取用户标识, 两种形态都不存在时返回空串
func (r *WebhookRequest) subjectID() string {
	if r.Resource == nil {
		return ""
	}
	if r.Resource.Subscriber != nil && r.Resource.Subscriber.CustomID != "" {
		return r.Resource.Subscriber.CustomID
	}
	return r.Resource.CustomID
}

// HandlePayPalEvent 处理一条 PayPal webhook 事件
func (s *WebhookService) HandlePayPalEvent(ctx context.Context, req *WebhookRequest) error {
	if req.EventType == "" {
		return apperrors.ErrWebhookShape("missing event type")
	}

	eventID := req.ID
	if eventID == "" {
		eventID = uuid.New().String()
	}

	ev := &biz.PaymentEvent{
		EventID:   eventID,
		EventType: req.EventType,
		SubjectID: req.subjectID(),
	}
	if req.Resource != nil {
		ev.ProviderSubscriptionID = req.Resource.ID
	}

	return s.uc.Apply(ctx, ev)
}
