package admin

import (
	"strconv"

	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListRechargeOrders 查询充值订单列表
func (h *Handler) ListRechargeOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.RechargeOrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   c.Query("status"),
		Channel:  c.Query("channel"),
	}
	if userID, err := strconv.ParseUint(c.Query("user_id"), 10, 64); err == nil {
		filter.UserID = uint(userID)
	}

	orders, total, err := h.RechargeService.ListOrders(filter)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询充值订单失败", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}
