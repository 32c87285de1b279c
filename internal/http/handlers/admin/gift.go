package admin

import (
	"strconv"

	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListGiftRecords 查询送礼记录，可按结算状态过滤
func (h *Handler) ListGiftRecords(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.GiftRecordListFilter{
		Page:     page,
		PageSize: pageSize,
	}
	if receiverID, err := strconv.ParseUint(c.Query("receiver_id"), 10, 64); err == nil {
		filter.ReceiverID = uint(receiverID)
	}
	if settledParam := c.Query("settled"); settledParam != "" {
		settled := settledParam == "true" || settledParam == "1"
		filter.Settled = &settled
	}

	records, total, err := h.WalletService.ListGiftRecords(filter)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询送礼记录失败", err)
		return
	}
	response.SuccessWithPage(c, records, response.NewPagination(page, pageSize, total))
}
