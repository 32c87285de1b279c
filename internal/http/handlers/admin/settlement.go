package admin

import (
	"github.com/lingqian-app/lingqian/internal/http/handlers/shared"
	"github.com/lingqian-app/lingqian/internal/http/response"
	"github.com/lingqian-app/lingqian/internal/queue"

	"github.com/gin-gonic/gin"
)

type runSettlementRequest struct {
	Async bool `json:"async"`
}

// RunSettlement 触发礼物收益结算
//
// async 且队列可用时只投递任务，由 worker 进程执行；
// 否则同步跑完整批次并返回汇总。
func (h *Handler) RunSettlement(c *gin.Context) {
	var req runSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, "参数不合法")
		return
	}

	if req.Async && h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueueSettlementRun(queue.SettlementRunPayload{
			TriggeredBy: "admin",
		}); err != nil {
			shared.RespondError(c, response.CodeInternal, "投递结算任务失败", err)
			return
		}
		requestLog(c).Infow("settlement_enqueued")
		response.SuccessWithMsg(c, "结算任务已投递", nil)
		return
	}

	summary, err := h.SettlementService.Run()
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "结算执行失败", err)
		return
	}

	requestLog(c).Infow("settlement_done",
		"batches", summary.Batches,
		"records", summary.Records,
		"coins", summary.Coins,
	)
	response.Success(c, summary)
}
