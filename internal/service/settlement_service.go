package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const settlementDefaultBatchSize = 200

// SettlementService 礼物结算服务：把未结算的送礼记录
// 按兑换率折成可提现金额记到收礼方账上。
type SettlementService struct {
	giftRepo   repository.GiftRepository
	walletRepo repository.WalletRepository
	batchSize  int
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	giftRepo repository.GiftRepository,
	walletRepo repository.WalletRepository,
	batchSize int,
) *SettlementService {
	if batchSize <= 0 {
		batchSize = settlementDefaultBatchSize
	}
	return &SettlementService{
		giftRepo:   giftRepo,
		walletRepo: walletRepo,
		batchSize:  batchSize,
	}
}

// SettlementSummary 一次结算的统计
type SettlementSummary struct {
	Batches   int   `json:"batches"`
	Records   int64 `json:"records"`
	Coins     int64 `json:"coins"`
	Receivers int   `json:"receivers"`
}

// Run 循环消费待结算记录直到清空，由定时任务或管理端触发。
func (s *SettlementService) Run() (*SettlementSummary, error) {
	summary := &SettlementSummary{}
	receivers := make(map[uint]struct{})
	log := rechargeLogger("batch_size", s.batchSize)
	log.Infow("settlement_run_started")

	for {
		records, err := s.giftRepo.ListUnsettledRecords(s.batchSize)
		if err != nil {
			log.Errorw("settlement_list_failed", "error", err)
			return summary, err
		}
		if len(records) == 0 {
			break
		}
		if err := s.settleBatch(records, summary, receivers); err != nil {
			log.Errorw("settlement_batch_failed", "batch", summary.Batches, "error", err)
			return summary, err
		}
		summary.Batches++
		if len(records) < s.batchSize {
			break
		}
	}

	summary.Receivers = len(receivers)
	log.Infow("settlement_run_done",
		"batches", summary.Batches,
		"records", summary.Records,
		"coins", summary.Coins,
		"receivers", summary.Receivers,
	)
	return summary, nil
}

// settleBatch 单批结算。逐条带条件标记，并发跑两个结算器时
// 同一条记录只会被其中一个计入。
func (s *SettlementService) settleBatch(records []models.GiftRecord, summary *SettlementSummary, receivers map[uint]struct{}) error {
	return s.walletRepo.Transaction(func(tx *gorm.DB) error {
		giftRepo := s.giftRepo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		credits := make(map[uint]int64)
		for _, record := range records {
			updated, err := giftRepo.MarkRecordsSettled([]uint{record.ID})
			if err != nil {
				return err
			}
			if updated == 0 {
				continue
			}
			credits[record.ReceiverID] += record.Coins
			summary.Records++
			summary.Coins += record.Coins
		}

		now := time.Now()
		for receiverID, coins := range credits {
			amount := models.NewMoneyFromDecimal(
				decimal.NewFromInt(coins).
					Div(decimal.NewFromInt(CoinsPerCNY)).
					Round(2),
			)
			if err := walletRepo.AddWithdrawable(receiverID, amount); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					if err := walletRepo.CreateProfile(&models.Profile{
						UserID:       receiverID,
						Withdrawable: amount,
					}); err != nil {
						return err
					}
				} else {
					return err
				}
			}
			reference := fmt.Sprintf("settlement:%d:%d", receiverID, now.UnixNano())
			if err := walletRepo.CreateTransaction(&models.CoinTransaction{
				UserID:      receiverID,
				Amount:      coins,
				Type:        constants.CoinTxnTypeSettlement,
				Description: fmt.Sprintf("礼物收益结算 %d 币", coins),
				Reference:   &reference,
			}); err != nil {
				return err
			}
			receivers[receiverID] = struct{}{}
		}
		return nil
	})
}
