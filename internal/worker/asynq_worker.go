package worker

import (
	"context"
	"encoding/json"

	"github.com/lingqian-app/lingqian/internal/logger"
	"github.com/lingqian-app/lingqian/internal/provider"
	"github.com/lingqian-app/lingqian/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSettlementRun, c.handleSettlementRun)
	mux.HandleFunc(queue.TaskWalletCoinRepair, c.handleWalletCoinRepair)
}

func (c *Consumer) handleSettlementRun(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_run_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SettlementRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_settlement_run_unmarshal_failed", "error", err)
		return err
	}
	if c.SettlementService == nil {
		logger.Warnw("worker_settlement_run_skip_service_nil", "triggered_by", payload.TriggeredBy)
		return nil
	}
	summary, err := c.SettlementService.Run()
	if err != nil {
		logger.Warnw("worker_settlement_run_failed",
			"triggered_by", payload.TriggeredBy,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_settlement_run_done",
		"triggered_by", payload.TriggeredBy,
		"batches", summary.Batches,
		"records", summary.Records,
		"coins", summary.Coins,
	)
	return nil
}

func (c *Consumer) handleWalletCoinRepair(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_wallet_coin_repair_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.WalletCoinRepairPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_wallet_coin_repair_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_wallet_coin_repair_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	if c.RechargeService == nil {
		logger.Warnw("worker_wallet_coin_repair_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	c.RechargeService.SyncYiCoins(payload.UserID)
	return nil
}
