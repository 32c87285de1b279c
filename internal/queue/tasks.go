package queue

import (
	"encoding/json"

	"github.com/lingqian-app/lingqian/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSettlementRun 礼物收益结算任务
	TaskSettlementRun = constants.TaskSettlementRun
	// TaskWalletCoinRepair yi_coins 汇总修复任务
	TaskWalletCoinRepair = constants.TaskWalletCoinRepair
)

// SettlementRunPayload 结算任务载荷
type SettlementRunPayload struct {
	TriggeredBy string `json:"triggered_by"`
}

// WalletCoinRepairPayload 汇总修复任务载荷
type WalletCoinRepairPayload struct {
	UserID uint `json:"user_id"`
}

// NewSettlementRunTask 创建结算任务
func NewSettlementRunTask(payload SettlementRunPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementRun, body), nil
}

// NewWalletCoinRepairTask 创建汇总修复任务
func NewWalletCoinRepairTask(payload WalletCoinRepairPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWalletCoinRepair, body), nil
}
