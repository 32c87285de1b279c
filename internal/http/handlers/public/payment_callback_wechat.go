package public

import (
	"context"
	"net/http"

	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/payment/wechatpay"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/gin-gonic/gin"
)

// wechatWebhookVerifier 覆盖微信回调的验签与解密步骤
type wechatWebhookVerifier interface {
	VerifyAndDecodeWebhook(ctx context.Context, req *http.Request) (*wechatpay.WebhookResult, error)
}

type wechatCallbackResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WechatCallback 微信支付 API v3 异步通知入口
//
// 微信以 HTTP 状态码加 {"code","message"} 判断受理结果，
// 非 2xx 或 code=FAIL 都会触发重试。
func (h *Handler) WechatCallback(c *gin.Context) {
	log := requestLog(c)

	if h.wechatVerifier == nil {
		log.Errorw("wechat_callback_unconfigured")
		c.JSON(http.StatusInternalServerError, wechatCallbackResponse{
			Code:    constants.WechatCallbackFail,
			Message: "服务未配置",
		})
		return
	}

	result, err := h.wechatVerifier.VerifyAndDecodeWebhook(c.Request.Context(), c.Request)
	if err != nil {
		log.Warnw("wechat_callback_bad_signature", "error", err)
		c.JSON(http.StatusBadRequest, wechatCallbackResponse{
			Code:    constants.WechatCallbackFail,
			Message: "Invalid signature",
		})
		return
	}

	log.Infow("wechat_callback_received",
		"out_trade_no", result.OutTradeNo,
		"transaction_id", result.TransactionID,
		"trade_state", result.TradeState,
	)

	if result.TradeState != constants.WechatTradeStateSuccess {
		log.Infow("wechat_callback_state_ignored",
			"out_trade_no", result.OutTradeNo,
			"trade_state", result.TradeState,
		)
		c.JSON(http.StatusOK, wechatCallbackResponse{
			Code:    constants.WechatCallbackSuccess,
			Message: "成功",
		})
		return
	}

	outcome, err := h.RechargeService.ProcessPaymentSuccess(service.PaymentSuccessInput{
		Channel:     constants.PaymentChannelWechat,
		OutTradeNo:  result.OutTradeNo,
		ProviderRef: result.TransactionID,
		Payload:     models.JSON(result.Raw),
	})
	if err != nil {
		log.Errorw("wechat_callback_process_failed",
			"out_trade_no", result.OutTradeNo,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, wechatCallbackResponse{
			Code:    constants.WechatCallbackFail,
			Message: "处理失败",
		})
		return
	}
	if outcome == service.RechargeResultOrderMissing {
		c.JSON(http.StatusInternalServerError, wechatCallbackResponse{
			Code:    constants.WechatCallbackFail,
			Message: "订单不存在",
		})
		return
	}

	c.JSON(http.StatusOK, wechatCallbackResponse{
		Code:    constants.WechatCallbackSuccess,
		Message: "成功",
	})
}
