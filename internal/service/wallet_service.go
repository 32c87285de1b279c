package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/repository"

	"gorm.io/gorm"
)

// WalletService 钱包服务，管灵币余额与流水
type WalletService struct {
	walletRepo repository.WalletRepository
	userRepo   repository.UserRepository
	giftRepo   repository.GiftRepository
}

// NewWalletService 创建钱包服务
func NewWalletService(
	walletRepo repository.WalletRepository,
	userRepo repository.UserRepository,
	giftRepo repository.GiftRepository,
) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		userRepo:   userRepo,
		giftRepo:   giftRepo,
	}
}

// SendGiftInput 送礼输入
type SendGiftInput struct {
	SenderID   uint
	ReceiverID uint
	GiftID     uint
	Quantity   int
}

// AdminAdjustInput 管理员调整灵币输入
type AdminAdjustInput struct {
	UserID    uint
	PaidDelta int64
	FreeDelta int64
	Remark    string
}

// GetProfile 获取用户资料档案，不存在时自动创建
func (s *WalletService) GetProfile(userID uint) (*models.Profile, error) {
	if userID == 0 {
		return nil, ErrProfileNotFound
	}
	profile, err := s.walletRepo.GetProfileByUserID(userID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}
	profile = &models.Profile{UserID: userID}
	if err := s.walletRepo.CreateProfile(profile); err != nil {
		if created, queryErr := s.walletRepo.GetProfileByUserID(userID); queryErr == nil && created != nil {
			return created, nil
		}
		return nil, err
	}
	return profile, nil
}

// ListTransactions 查询灵币流水
func (s *WalletService) ListTransactions(filter repository.CoinTransactionListFilter) ([]models.CoinTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}

// SendGift 送礼：先扣付费币再扣赠送币，事务内落送礼记录，
// 收礼方收益走结算批次，不在这里入账。
func (s *WalletService) SendGift(input SendGiftInput) (*models.GiftRecord, error) {
	if input.SenderID == 0 {
		return nil, ErrUserNotFound
	}
	if input.SenderID == input.ReceiverID {
		return nil, ErrGiftToSelf
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 || quantity > 999 {
		return nil, ErrGiftQuantity
	}

	gift, err := s.giftRepo.GetGiftByID(input.GiftID)
	if err != nil {
		return nil, err
	}
	if gift == nil {
		return nil, ErrGiftNotFound
	}
	if !gift.Active {
		return nil, ErrGiftInactive
	}
	receiver, err := s.userRepo.GetByID(input.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil || receiver.Status != constants.UserStatusActive {
		return nil, ErrReceiverNotFound
	}

	total := gift.PriceCoins * int64(quantity)
	if total <= 0 {
		return nil, ErrGiftQuantity
	}

	var record *models.GiftRecord
	err = s.walletRepo.Transaction(func(tx *gorm.DB) error {
		walletRepo := s.walletRepo.WithTx(tx)
		giftRepo := s.giftRepo.WithTx(tx)

		profile, err := walletRepo.GetProfileByUserIDForUpdate(input.SenderID)
		if err != nil {
			return err
		}
		if profile == nil {
			return ErrInsufficientCoins
		}
		if profile.CoinPaid+profile.CoinFree < total {
			return ErrInsufficientCoins
		}
		paidDebit := total
		if paidDebit > profile.CoinPaid {
			paidDebit = profile.CoinPaid
		}
		freeDebit := total - paidDebit

		profile.CoinPaid -= paidDebit
		profile.CoinFree -= freeDebit
		profile.YiCoins = profile.CoinPaid + profile.CoinFree
		profile.UpdatedAt = time.Now()
		if err := walletRepo.UpdateProfile(profile); err != nil {
			return err
		}

		record = &models.GiftRecord{
			GiftID:     gift.ID,
			SenderID:   input.SenderID,
			ReceiverID: input.ReceiverID,
			Coins:      total,
		}
		if err := giftRepo.CreateRecord(record); err != nil {
			return err
		}

		sendRef := buildCoinReference("gift_send", record.ID)
		if err := walletRepo.CreateTransaction(&models.CoinTransaction{
			UserID:      input.SenderID,
			Amount:      -total,
			Type:        constants.CoinTxnTypeGiftSend,
			BalanceType: giftDebitBalanceType(paidDebit, freeDebit),
			Description: fmt.Sprintf("赠送礼物「%s」x%d", gift.Name, quantity),
			Reference:   &sendRef,
		}); err != nil {
			return err
		}

		// 收礼方的收益在结算批次折算成可提现金额，这里只记收入流水
		incomeRef := buildCoinReference("gift_income", record.ID)
		return walletRepo.CreateTransaction(&models.CoinTransaction{
			UserID:      input.ReceiverID,
			Amount:      total,
			Type:        constants.CoinTxnTypeGiftIncome,
			Description: fmt.Sprintf("收到礼物「%s」x%d", gift.Name, quantity),
			Reference:   &incomeRef,
		})
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// AdminAdjustCoins 管理员增减用户灵币，余额不允许调成负数
func (s *WalletService) AdminAdjustCoins(input AdminAdjustInput) (*models.Profile, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	if input.PaidDelta == 0 && input.FreeDelta == 0 {
		return nil, ErrInvalidCoins
	}

	var result *models.Profile
	err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		walletRepo := s.walletRepo.WithTx(tx)

		profile, err := walletRepo.GetProfileByUserIDForUpdate(input.UserID)
		if err != nil {
			return err
		}
		if profile == nil {
			profile = &models.Profile{UserID: input.UserID}
			if err := walletRepo.CreateProfile(profile); err != nil {
				return err
			}
		}
		nextPaid := profile.CoinPaid + input.PaidDelta
		nextFree := profile.CoinFree + input.FreeDelta
		if nextPaid < 0 || nextFree < 0 {
			return ErrInsufficientCoins
		}
		profile.CoinPaid = nextPaid
		profile.CoinFree = nextFree
		profile.YiCoins = nextPaid + nextFree
		profile.UpdatedAt = time.Now()
		if err := walletRepo.UpdateProfile(profile); err != nil {
			return err
		}

		remark := strings.TrimSpace(input.Remark)
		if remark == "" {
			remark = "管理员调整灵币"
		}
		reference := buildCoinReference("admin_adjust", input.UserID)
		if err := walletRepo.CreateTransaction(&models.CoinTransaction{
			UserID:      input.UserID,
			Amount:      input.PaidDelta + input.FreeDelta,
			Type:        constants.CoinTxnTypeAdminAdjust,
			Description: remark,
			Reference:   &reference,
		}); err != nil {
			return err
		}
		result = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListGifts 查询上架礼物
func (s *WalletService) ListGifts() ([]models.Gift, error) {
	return s.giftRepo.ListGifts(true)
}

// ListGiftRecords 分页查询送礼记录
func (s *WalletService) ListGiftRecords(filter repository.GiftRecordListFilter) ([]models.GiftRecord, int64, error) {
	return s.giftRepo.ListRecords(filter)
}

func giftDebitBalanceType(paidDebit, freeDebit int64) string {
	if paidDebit > 0 && freeDebit > 0 {
		return ""
	}
	if freeDebit > 0 {
		return constants.CoinBalanceTypeFree
	}
	return constants.CoinBalanceTypePaid
}

func buildCoinReference(prefix string, id uint) string {
	return fmt.Sprintf("%s:%d:%d", prefix, id, time.Now().UnixNano())
}
