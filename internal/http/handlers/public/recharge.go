package public

import (
	"errors"
	"strconv"

	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/payment/alipay"
	"github.com/lingqian-app/lingqian/internal/payment/wechatpay"
	"github.com/lingqian-app/lingqian/internal/repository"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/gin-gonic/gin"
)

type createRechargeOrderRequest struct {
	Coins   int64  `json:"coins" binding:"required"`
	Channel string `json:"channel" binding:"required"`
}

// CreateRechargeOrder 发起充值订单并向渠道预下单
func (h *Handler) CreateRechargeOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req createRechargeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数不合法")
		return
	}

	order, err := h.RechargeService.CreateOrder(service.CreateRechargeOrderInput{
		UserID:  userID,
		Coins:   req.Coins,
		Channel: req.Channel,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRechargeAmountInvalid):
			response.BadRequest(c, "充值数量不合法")
		case errors.Is(err, service.ErrRechargeChannelDisabled):
			response.BadRequest(c, "支付渠道不可用")
		case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrUserDisabled):
			response.Forbidden(c, "账号状态异常")
		default:
			shared.RespondError(c, response.CodeInternal, "创建充值订单失败", err)
		}
		return
	}

	payInfo, err := h.precreateChannelOrder(c, order)
	if err != nil {
		requestLog(c).Errorw("recharge_precreate_failed",
			"out_trade_no", order.OutTradeNo,
			"channel", order.Channel,
			"error", err,
		)
		response.Error(c, response.CodeInternal, "渠道下单失败，请稍后重试")
		return
	}

	response.Success(c, gin.H{
		"order": gin.H{
			"out_trade_no": order.OutTradeNo,
			"coins":        order.CoinsAmount,
			"amount_cny":   order.AmountCNY,
			"channel":      order.Channel,
			"status":       order.Status,
		},
		"payment": payInfo,
	})
}

// precreateChannelOrder 按渠道向第三方预下单，mock 渠道直接返回空凭据
func (h *Handler) precreateChannelOrder(c *gin.Context, order *models.RechargeOrder) (gin.H, error) {
	subject := "灵币充值"
	switch order.Channel {
	case constants.PaymentChannelAlipay:
		if h.AlipayClient == nil {
			return nil, service.ErrRechargeChannelDisabled
		}
		result, err := h.AlipayClient.Precreate(c.Request.Context(), alipay.PrecreateInput{
			OutTradeNo: order.OutTradeNo,
			Amount:     order.AmountCNY.String(),
			Subject:    subject,
		})
		if err != nil {
			return nil, err
		}
		return gin.H{"qr_code": result.QRCode}, nil
	case constants.PaymentChannelWechat:
		if h.WechatpayClient == nil {
			return nil, service.ErrRechargeChannelDisabled
		}
		result, err := h.WechatpayClient.CreateNativeOrder(c.Request.Context(), wechatpay.PrepayInput{
			OutTradeNo:  order.OutTradeNo,
			Amount:      order.AmountCNY.String(),
			Description: subject,
		})
		if err != nil {
			return nil, err
		}
		return gin.H{"code_url": result.CodeURL}, nil
	case constants.PaymentChannelMock:
		return gin.H{"mock": true}, nil
	default:
		return nil, service.ErrRechargeChannelDisabled
	}
}

// GetRechargeOrder 查询当前用户的充值订单
func (h *Handler) GetRechargeOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	order, err := h.RechargeService.GetOrderForUser(userID, c.Param("out_trade_no"))
	if err != nil {
		if errors.Is(err, service.ErrRechargeOrderNotFound) {
			response.NotFound(c, "充值订单不存在")
			return
		}
		shared.RespondError(c, response.CodeInternal, "查询充值订单失败", err)
		return
	}
	response.Success(c, order)
}

// ListRechargeOrders 查询当前用户的充值订单列表
func (h *Handler) ListRechargeOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	orders, total, err := h.RechargeService.ListOrders(repository.RechargeOrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
	})
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询充值订单失败", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}
