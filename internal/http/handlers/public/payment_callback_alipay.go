package public

import (
	"net/http"

	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/gin-gonic/gin"
)

// AlipayCallback 支付宝异步通知入口
//
// 应答是字面量 "success"/"failure"：success 表示已受理不再重发，
// failure 让支付宝按退避策略重试。订单不存在时返回 failure，
// 等待订单落库后的下一次重试。
func (h *Handler) AlipayCallback(c *gin.Context) {
	log := requestLog(c)

	if h.AlipayClient == nil {
		log.Errorw("alipay_callback_unconfigured")
		c.String(http.StatusOK, constants.AlipayCallbackFail)
		return
	}

	if err := c.Request.ParseForm(); err != nil {
		log.Warnw("alipay_callback_bad_form", "error", err)
		c.String(http.StatusOK, constants.AlipayCallbackFail)
		return
	}
	form := c.Request.PostForm
	outTradeNo := form.Get("out_trade_no")
	tradeStatus := form.Get("trade_status")
	tradeNo := form.Get("trade_no")

	log.Infow("alipay_callback_received",
		"out_trade_no", outTradeNo,
		"trade_status", tradeStatus,
		"trade_no", tradeNo,
	)

	if err := h.AlipayClient.VerifyCallback(form); err != nil {
		log.Warnw("alipay_callback_bad_signature",
			"out_trade_no", outTradeNo,
			"error", err,
		)
		c.String(http.StatusOK, constants.AlipayCallbackFail)
		return
	}

	// 只有终态成功的通知才入账，其余状态直接确认收到
	if tradeStatus != constants.AlipayTradeStatusSuccess && tradeStatus != constants.AlipayTradeStatusFinished {
		log.Infow("alipay_callback_status_ignored",
			"out_trade_no", outTradeNo,
			"trade_status", tradeStatus,
		)
		c.String(http.StatusOK, constants.AlipayCallbackSuccess)
		return
	}

	payload := models.JSON{}
	for key := range form {
		payload[key] = form.Get(key)
	}

	result, err := h.RechargeService.ProcessPaymentSuccess(service.PaymentSuccessInput{
		Channel:     constants.PaymentChannelAlipay,
		OutTradeNo:  outTradeNo,
		ProviderRef: tradeNo,
		Payload:     payload,
	})
	if err != nil {
		log.Errorw("alipay_callback_process_failed",
			"out_trade_no", outTradeNo,
			"error", err,
		)
		c.String(http.StatusOK, constants.AlipayCallbackFail)
		return
	}
	if result == service.RechargeResultOrderMissing {
		c.String(http.StatusOK, constants.AlipayCallbackFail)
		return
	}

	c.String(http.StatusOK, constants.AlipayCallbackSuccess)
}
