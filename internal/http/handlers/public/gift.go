package public

import (
	"errors"
	"strconv"

	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/repository"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/gin-gonic/gin"
)

type sendGiftRequest struct {
	ReceiverID uint `json:"receiver_id" binding:"required"`
	Quantity   int  `json:"quantity"`
}

// ListGifts 礼物列表（仅上架礼物，按价格升序）
func (h *Handler) ListGifts(c *gin.Context) {
	gifts, err := h.WalletService.ListGifts()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询礼物失败", err)
		return
	}
	response.Success(c, gifts)
}

// SendGift 给占卜师送礼物
func (h *Handler) SendGift(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	giftID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || giftID == 0 {
		response.BadRequest(c, "礼物ID不合法")
		return
	}

	var req sendGiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数不合法")
		return
	}

	record, err := h.WalletService.SendGift(service.SendGiftInput{
		SenderID:   userID,
		ReceiverID: req.ReceiverID,
		GiftID:     uint(giftID),
		Quantity:   req.Quantity,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGiftNotFound):
			response.NotFound(c, "礼物不存在")
		case errors.Is(err, service.ErrGiftInactive):
			response.BadRequest(c, "礼物已下架")
		case errors.Is(err, service.ErrGiftToSelf):
			response.BadRequest(c, "不能给自己送礼物")
		case errors.Is(err, service.ErrGiftQuantity):
			response.BadRequest(c, "礼物数量不合法")
		case errors.Is(err, service.ErrReceiverNotFound):
			response.BadRequest(c, "收礼用户不存在")
		case errors.Is(err, service.ErrInsufficientCoins):
			response.BadRequest(c, "灵币余额不足")
		default:
			shared.RespondError(c, response.CodeInternal, "送礼失败", err)
		}
		return
	}

	requestLog(c).Infow("gift_sent",
		"sender_id", userID,
		"receiver_id", req.ReceiverID,
		"gift_id", giftID,
		"coins", record.Coins,
	)
	response.Success(c, record)
}

// ListGiftRecords 查询当前用户的送礼/收礼记录
func (h *Handler) ListGiftRecords(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.GiftRecordListFilter{
		Page:     page,
		PageSize: pageSize,
	}
	if c.DefaultQuery("direction", "sent") == "received" {
		filter.ReceiverID = userID
	} else {
		filter.SenderID = userID
	}

	records, total, err := h.WalletService.ListGiftRecords(filter)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询送礼记录失败", err)
		return
	}
	response.SuccessWithPage(c, records, response.NewPagination(page, pageSize, total))
}
