package public

import "github.com/lingqian-app/lingqian/internal/provider"

// Handler 用户侧与回调接口处理器入口
type Handler struct {
	*provider.Container

	// 微信回调的验签步骤单独抽象：验签要下载平台证书，
	// 测试里用桩替换
	wechatVerifier wechatWebhookVerifier
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	h := &Handler{Container: c}
	if c != nil && c.WechatpayClient != nil {
		h.wechatVerifier = c.WechatpayClient
	}
	return h
}
