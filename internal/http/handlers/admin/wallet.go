package admin

import (
	"errors"
	"strconv"

	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/repository"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/gin-gonic/gin"
)

type adjustWalletRequest struct {
	PaidDelta int64  `json:"paid_delta"`
	FreeDelta int64  `json:"free_delta"`
	Remark    string `json:"remark"`
}

// AdjustUserWallet 管理员调整用户灵币余额
func (h *Handler) AdjustUserWallet(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		response.BadRequest(c, "用户ID不合法")
		return
	}

	var req adjustWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数不合法")
		return
	}
	if req.PaidDelta == 0 && req.FreeDelta == 0 {
		response.BadRequest(c, "调整数量不能为零")
		return
	}

	profile, err := h.WalletService.AdminAdjustCoins(service.AdminAdjustInput{
		UserID:    uint(userID),
		PaidDelta: req.PaidDelta,
		FreeDelta: req.FreeDelta,
		Remark:    req.Remark,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "用户不存在")
		case errors.Is(err, service.ErrInsufficientCoins):
			response.BadRequest(c, "调整后余额不能为负")
		default:
			shared.RespondError(c, response.CodeInternal, "调整余额失败", err)
		}
		return
	}

	requestLog(c).Infow("admin_wallet_adjusted",
		"user_id", userID,
		"paid_delta", req.PaidDelta,
		"free_delta", req.FreeDelta,
	)
	response.Success(c, profile)
}

// GetUserWallet 查询指定用户的钱包余额
func (h *Handler) GetUserWallet(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		response.BadRequest(c, "用户ID不合法")
		return
	}

	profile, err := h.WalletService.GetProfile(uint(userID))
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询钱包失败", err)
		return
	}
	response.Success(c, profile)
}

// ListUserTransactions 查询指定用户的灵币流水
func (h *Handler) ListUserTransactions(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || userID == 0 {
		response.BadRequest(c, "用户ID不合法")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	items, total, err := h.WalletService.ListTransactions(repository.CoinTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		Type:     c.Query("type"),
	})
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询流水失败", err)
		return
	}
	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}
