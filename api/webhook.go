package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"budget/config"
	"budget/service"

	"github.com/gin-gonic/gin"
)

// WebhookHandler 身份提供商 Webhook 处理器
type WebhookHandler struct {
	cfg       *config.Config
	provision *service.ProvisionService
}

// NewWebhookHandler 创建 Webhook 处理器
func NewWebhookHandler(cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{
		cfg:       cfg,
		provision: service.NewProvisionService(),
	}
}

// webhookEvent 身份提供商事件载荷
type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"data"`
}

// HandleIdentityEvent 处理身份提供商事件
// @Summary 身份提供商 Webhook
// @Description 接收身份提供商的用户事件（user.created/user.deleted），验签失败返回 400
// @Tags Webhook
// @Accept json
// @Produce json
// @Param webhook-id header string true "消息ID"
// @Param webhook-timestamp header string true "Unix 时间戳"
// @Param webhook-signature header string true "签名，格式 v1,<base64>"
// @Success 200 {object} Response "处理成功"
// @Failure 400 {object} Response "验签失败或载荷错误"
// @Router /api/v1/webhooks/identity [post]
func (h *WebhookHandler) HandleIdentityEvent(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		BadRequest(c, "读取请求体失败")
		return
	}

	msgID := c.GetHeader("webhook-id")
	timestamp := c.GetHeader("webhook-timestamp")
	signature := c.GetHeader("webhook-signature")

	if err := verifySignature(h.cfg.Webhook, msgID, timestamp, signature, body); err != nil {
		BadRequest(c, "签名验证失败")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		BadRequest(c, "载荷格式错误")
		return
	}

	switch event.Type {
	case "user.created":
		if _, err := h.provision.HandleUserCreated(event.Data.ID, event.Data.Username, event.Data.Email); err != nil {
			ServiceError(c, err)
			return
		}
	case "user.deleted":
		if err := h.provision.HandleUserDeleted(event.Data.ID); err != nil {
			ServiceError(c, err)
			return
		}
	default:
		// 未知事件直接确认，避免提供商无限重试
	}

	SuccessWithMessage(c, "处理成功", nil)
}

// verifySignature 校验 Webhook 签名
// 签名内容为 id.timestamp.body 的 HMAC-SHA256，base64 编码，
// 签名头可含空格分隔的多个 v1,<sig> 候选，时间戳超出容忍窗口视为重放
func verifySignature(cfg config.WebhookConfig, msgID, timestamp, signature string, body []byte) error {
	if cfg.Secret == "" {
		return service.NewValidationError("未配置 Webhook 密钥")
	}
	if msgID == "" || timestamp == "" || signature == "" {
		return service.NewValidationError("缺少签名头")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return service.NewValidationError("时间戳格式错误")
	}
	tolerance := time.Duration(cfg.ToleranceMinutes) * time.Minute
	diff := time.Since(time.Unix(ts, 0))
	if diff > tolerance || diff < -tolerance {
		return service.NewValidationError("时间戳超出容忍窗口")
	}

	secret := strings.TrimPrefix(cfg.Secret, "whsec_")
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		// 密钥非 base64 时按原文使用
		key = []byte(secret)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msgID + "." + timestamp + "."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// 签名头格式: "v1,<sig> v1,<sig> ..."
	for _, candidate := range strings.Split(signature, " ") {
		parts := strings.SplitN(candidate, ",", 2)
		if len(parts) != 2 || parts[0] != "v1" {
			continue
		}
		if hmac.Equal([]byte(parts[1]), []byte(expected)) {
			return nil
		}
	}
	return service.NewValidationError("签名不匹配")
}
