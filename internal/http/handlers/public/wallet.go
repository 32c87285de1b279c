package public

import (
	"strconv"

	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetWallet 查询当前用户钱包余额
func (h *Handler) GetWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	profile, err := h.WalletService.GetProfile(userID)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询钱包失败", err)
		return
	}

	response.Success(c, gin.H{
		"user_id":      profile.UserID,
		"coin_paid":    profile.CoinPaid,
		"coin_free":    profile.CoinFree,
		"yi_coins":     profile.YiCoins,
		"withdrawable": profile.Withdrawable,
	})
}

// ListWalletTransactions 查询当前用户灵币流水
func (h *Handler) ListWalletTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = shared.NormalizePagination(page, pageSize)

	filter := repository.CoinTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Type:     c.Query("type"),
	}
	items, total, err := h.WalletService.ListTransactions(filter)
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "查询流水失败", err)
		return
	}

	response.SuccessWithPage(c, items, response.NewPagination(page, pageSize, total))
}
