package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupWalletServiceTest(t *testing.T) (*WalletService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Gift{},
		&models.GiftRecord{},
		&models.CoinTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewWalletService(
		repository.NewWalletRepository(db),
		repository.NewUserRepository(db),
		repository.NewGiftRepository(db),
	)
	return svc, db
}

func createWalletTestUser(t *testing.T, db *gorm.DB, phone, role string) *models.User {
	t.Helper()
	user := models.User{
		Phone:        phone,
		Nickname:     "钱包测试",
		PasswordHash: "hash",
		Role:         role,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return &user
}

func TestGetProfileCreatesOnFirstAccess(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "13700137001", constants.UserRoleMember)

	profile, err := svc.GetProfile(user.ID)
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.UserID != user.ID || profile.CoinPaid != 0 || profile.CoinFree != 0 {
		t.Fatalf("unexpected fresh profile: %+v", profile)
	}

	again, err := svc.GetProfile(user.ID)
	if err != nil {
		t.Fatalf("second get profile failed: %v", err)
	}
	if again.ID != profile.ID {
		t.Fatalf("expected same profile row, got %d vs %d", again.ID, profile.ID)
	}
}

func TestSendGiftDebitsPaidBeforeFree(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	sender := createWalletTestUser(t, db, "13700137002", constants.UserRoleMember)
	receiver := createWalletTestUser(t, db, "13700137003", constants.UserRoleDiviner)

	if err := db.Create(&models.Profile{UserID: sender.ID, CoinPaid: 60, CoinFree: 50, YiCoins: 110}).Error; err != nil {
		t.Fatalf("create sender profile failed: %v", err)
	}
	gift := models.Gift{Name: "莲花灯", PriceCoins: 40, Active: true}
	if err := db.Create(&gift).Error; err != nil {
		t.Fatalf("create gift failed: %v", err)
	}

	record, err := svc.SendGift(SendGiftInput{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		GiftID:     gift.ID,
		Quantity:   2,
	})
	if err != nil {
		t.Fatalf("send gift failed: %v", err)
	}
	if record.Coins != 80 {
		t.Fatalf("expected 80 coins spent, got %d", record.Coins)
	}

	var profile models.Profile
	if err := db.Where("user_id = ?", sender.ID).First(&profile).Error; err != nil {
		t.Fatalf("load sender profile failed: %v", err)
	}
	// 60 付费币先扣光，剩余 20 从赠送币扣
	if profile.CoinPaid != 0 || profile.CoinFree != 30 {
		t.Fatalf("unexpected balances after gift: paid=%d free=%d", profile.CoinPaid, profile.CoinFree)
	}
	if profile.YiCoins != 30 {
		t.Fatalf("yi_coins drifted: %d", profile.YiCoins)
	}

	var debit models.CoinTransaction
	if err := db.Where("user_id = ? AND type = ?", sender.ID, constants.CoinTxnTypeGiftSend).First(&debit).Error; err != nil {
		t.Fatalf("load debit transaction failed: %v", err)
	}
	if debit.Amount != -80 {
		t.Fatalf("expected -80 debit, got %d", debit.Amount)
	}

	var income models.CoinTransaction
	if err := db.Where("user_id = ? AND type = ?", receiver.ID, constants.CoinTxnTypeGiftIncome).First(&income).Error; err != nil {
		t.Fatalf("load income transaction failed: %v", err)
	}
	if income.Amount != 80 {
		t.Fatalf("expected 80 income, got %d", income.Amount)
	}

	var giftRecord models.GiftRecord
	if err := db.Where("sender_id = ?", sender.ID).First(&giftRecord).Error; err != nil {
		t.Fatalf("load gift record failed: %v", err)
	}
	if giftRecord.Settled {
		t.Fatalf("new gift record should be unsettled")
	}
}

func TestSendGiftInsufficientCoins(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	sender := createWalletTestUser(t, db, "13700137004", constants.UserRoleMember)
	receiver := createWalletTestUser(t, db, "13700137005", constants.UserRoleDiviner)

	if err := db.Create(&models.Profile{UserID: sender.ID, CoinPaid: 5, CoinFree: 5, YiCoins: 10}).Error; err != nil {
		t.Fatalf("create sender profile failed: %v", err)
	}
	gift := models.Gift{Name: "平安符", PriceCoins: 50, Active: true}
	if err := db.Create(&gift).Error; err != nil {
		t.Fatalf("create gift failed: %v", err)
	}

	if _, err := svc.SendGift(SendGiftInput{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		GiftID:     gift.ID,
	}); err != ErrInsufficientCoins {
		t.Fatalf("expected insufficient coins, got %v", err)
	}

	var count int64
	db.Model(&models.GiftRecord{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no gift record on failure, got %d", count)
	}
}

func TestSendGiftRejectsSelfAndInactive(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	sender := createWalletTestUser(t, db, "13700137006", constants.UserRoleMember)
	receiver := createWalletTestUser(t, db, "13700137007", constants.UserRoleDiviner)

	gift := models.Gift{Name: "下架礼物", PriceCoins: 10, Active: false}
	if err := db.Create(&gift).Error; err != nil {
		t.Fatalf("create gift failed: %v", err)
	}
	// Active 带 default:true 标签，GORM 创建时跳过零值，需显式写回 false
	if err := db.Model(&gift).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate gift failed: %v", err)
	}

	if _, err := svc.SendGift(SendGiftInput{
		SenderID:   sender.ID,
		ReceiverID: sender.ID,
		GiftID:     gift.ID,
	}); err != ErrGiftToSelf {
		t.Fatalf("expected gift-to-self error, got %v", err)
	}
	if _, err := svc.SendGift(SendGiftInput{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		GiftID:     gift.ID,
	}); err != ErrGiftInactive {
		t.Fatalf("expected inactive gift error, got %v", err)
	}
}

func TestAdminAdjustCoinsCreatesProfileAndLedger(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "13700137008", constants.UserRoleMember)

	profile, err := svc.AdminAdjustCoins(AdminAdjustInput{
		UserID:    user.ID,
		PaidDelta: 100,
		FreeDelta: 20,
	})
	if err != nil {
		t.Fatalf("admin adjust failed: %v", err)
	}
	if profile.CoinPaid != 100 || profile.CoinFree != 20 || profile.YiCoins != 120 {
		t.Fatalf("unexpected balances: %+v", profile)
	}

	var txn models.CoinTransaction
	if err := db.Where("user_id = ? AND type = ?", user.ID, constants.CoinTxnTypeAdminAdjust).First(&txn).Error; err != nil {
		t.Fatalf("load adjust transaction failed: %v", err)
	}
	if txn.Amount != 120 {
		t.Fatalf("expected amount 120, got %d", txn.Amount)
	}
	if txn.Description != "管理员调整灵币" {
		t.Fatalf("unexpected description: %q", txn.Description)
	}
}

func TestAdminAdjustCoinsRejectsNegativeBalance(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "13700137009", constants.UserRoleMember)

	if err := db.Create(&models.Profile{UserID: user.ID, CoinPaid: 10, YiCoins: 10}).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}

	if _, err := svc.AdminAdjustCoins(AdminAdjustInput{
		UserID:    user.ID,
		PaidDelta: -50,
	}); err != ErrInsufficientCoins {
		t.Fatalf("expected insufficient coins, got %v", err)
	}

	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if profile.CoinPaid != 10 {
		t.Fatalf("balance should be unchanged, got %d", profile.CoinPaid)
	}
}
