package public

import (
	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/gin-gonic/gin"
)

type genericCallbackRequest struct {
	OutTradeNo  string `json:"out_trade_no" binding:"required"`
	Status      string `json:"status" binding:"required"`
	ProviderRef string `json:"provider_ref"`
}

// GenericCallback 通用回调入口，仅 mock 渠道开关打开时可用
func (h *Handler) GenericCallback(c *gin.Context) {
	log := requestLog(c)

	if !h.Config.Payment.EnableMock {
		response.NotFound(c, "接口不存在")
		return
	}

	var req genericCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数不合法")
		return
	}

	if req.Status != constants.GenericTradeStatusSuccess {
		log.Infow("generic_callback_status_ignored",
			"out_trade_no", req.OutTradeNo,
			"status", req.Status,
		)
		response.Success(c, gin.H{"result": string(service.RechargeResultIgnored)})
		return
	}

	result, err := h.RechargeService.ProcessPaymentSuccess(service.PaymentSuccessInput{
		Channel:     constants.PaymentChannelMock,
		OutTradeNo:  req.OutTradeNo,
		ProviderRef: req.ProviderRef,
		Payload:     models.JSON{"status": req.Status},
	})
	if err != nil {
		log.Errorw("generic_callback_process_failed",
			"out_trade_no", req.OutTradeNo,
			"error", err,
		)
		response.Internal(c, "处理失败")
		return
	}
	if result == service.RechargeResultOrderMissing {
		response.NotFound(c, "充值订单不存在")
		return
	}

	response.Success(c, gin.H{"result": string(result)})
}
