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

func setupRechargeServiceTest(t *testing.T) (*RechargeService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:recharge_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.RechargeOrder{},
		&models.CoinTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewRechargeService(
		repository.NewRechargeRepository(db),
		repository.NewWalletRepository(db),
		repository.NewUserRepository(db),
		nil,
		true,
	)
	return svc, db
}

func createRechargeTestUser(t *testing.T, db *gorm.DB, phone string) *models.User {
	t.Helper()
	user := models.User{
		Phone:        phone,
		Nickname:     "测试用户",
		PasswordHash: "hash",
		Role:         constants.UserRoleMember,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return &user
}

func countLedgerRows(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.CoinTransaction{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	return count
}

func TestProcessPaymentSuccessCreditsFromAmountCNY(t *testing.T) {
	svc, db := setupRechargeServiceTest(t)
	user := createRechargeTestUser(t, db, "13800138001")

	order := models.RechargeOrder{
		OutTradeNo: "LQTEST0001",
		UserID:     user.ID,
		Status:     constants.RechargeStatusPending,
		AmountCNY:  moneyFromFloat(10),
		Channel:    constants.PaymentChannelAlipay,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	result, err := svc.ProcessPaymentSuccess(PaymentSuccessInput{
		Channel:     constants.PaymentChannelAlipay,
		OutTradeNo:  "LQTEST0001",
		ProviderRef: "2026090122001400001",
	})
	if err != nil {
		t.Fatalf("process payment failed: %v", err)
	}
	if result != RechargeResultCredited {
		t.Fatalf("expected credited, got %s", result)
	}

	var updated models.RechargeOrder
	if err := db.First(&updated, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if updated.Status != constants.RechargeStatusPaid {
		t.Fatalf("expected order PAID, got %s", updated.Status)
	}
	if updated.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}

	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if profile.CoinPaid != 100 {
		t.Fatalf("expected 100 paid coins (10 元 × 10), got %d", profile.CoinPaid)
	}
	if profile.YiCoins != profile.CoinPaid+profile.CoinFree {
		t.Fatalf("yi_coins drifted: %d != %d + %d", profile.YiCoins, profile.CoinPaid, profile.CoinFree)
	}

	var txn models.CoinTransaction
	if err := db.Where("user_id = ?", user.ID).First(&txn).Error; err != nil {
		t.Fatalf("load transaction failed: %v", err)
	}
	if txn.Amount != 100 || txn.Type != constants.CoinTxnTypeRecharge {
		t.Fatalf("unexpected ledger row: amount=%d type=%s", txn.Amount, txn.Type)
	}
	if txn.Reference == nil || *txn.Reference != "recharge:LQTEST0001" {
		t.Fatalf("unexpected reference: %v", txn.Reference)
	}
}

func TestProcessPaymentSuccessDuplicateDelivery(t *testing.T) {
	svc, db := setupRechargeServiceTest(t)
	user := createRechargeTestUser(t, db, "13800138002")

	coins := int64(66)
	order := models.RechargeOrder{
		OutTradeNo:  "LQTEST0002",
		UserID:      user.ID,
		Status:      constants.RechargeStatusPending,
		CoinsAmount: &coins,
		Channel:     constants.PaymentChannelWechat,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	input := PaymentSuccessInput{
		Channel:    constants.PaymentChannelWechat,
		OutTradeNo: "LQTEST0002",
	}
	if result, err := svc.ProcessPaymentSuccess(input); err != nil || result != RechargeResultCredited {
		t.Fatalf("first delivery: result=%v err=%v", result, err)
	}
	if result, err := svc.ProcessPaymentSuccess(input); err != nil || result != RechargeResultAlreadyPaid {
		t.Fatalf("second delivery: result=%v err=%v", result, err)
	}

	if count := countLedgerRows(t, db, user.ID); count != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", count)
	}
	var profile models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&profile).Error; err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if profile.CoinPaid != 66 {
		t.Fatalf("expected 66 coins credited once, got %d", profile.CoinPaid)
	}
}

func TestProcessPaymentSuccessOrderMissing(t *testing.T) {
	svc, _ := setupRechargeServiceTest(t)

	result, err := svc.ProcessPaymentSuccess(PaymentSuccessInput{
		Channel:    constants.PaymentChannelAlipay,
		OutTradeNo: "LQNOSUCH",
	})
	if err != nil {
		t.Fatalf("expected nil error for missing order, got %v", err)
	}
	if result != RechargeResultOrderMissing {
		t.Fatalf("expected order_missing, got %s", result)
	}
}

func TestProcessPaymentSuccessUnresolvedAmount(t *testing.T) {
	svc, db := setupRechargeServiceTest(t)
	user := createRechargeTestUser(t, db, "13800138003")

	order := models.RechargeOrder{
		OutTradeNo: "LQTEST0003",
		UserID:     user.ID,
		Status:     constants.RechargeStatusPending,
		Channel:    constants.PaymentChannelMock,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	_, err := svc.ProcessPaymentSuccess(PaymentSuccessInput{
		Channel:    constants.PaymentChannelMock,
		OutTradeNo: "LQTEST0003",
	})
	if err == nil {
		t.Fatalf("expected error for unresolvable amount")
	}
	if count := countLedgerRows(t, db, user.ID); count != 0 {
		t.Fatalf("expected no ledger rows, got %d", count)
	}
}

func TestCreditRechargeFallbackIdempotent(t *testing.T) {
	svc, db := setupRechargeServiceTest(t)
	user := createRechargeTestUser(t, db, "13800138004")

	profile := models.Profile{UserID: user.ID, CoinPaid: 10, CoinFree: 5, YiCoins: 15}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}

	if err := svc.CreditRechargeFallback(user.ID, 30, "LQTEST0004"); err != nil {
		t.Fatalf("first fallback credit failed: %v", err)
	}
	if err := svc.CreditRechargeFallback(user.ID, 30, "LQTEST0004"); err != nil {
		t.Fatalf("second fallback credit failed: %v", err)
	}

	if count := countLedgerRows(t, db, user.ID); count != 1 {
		t.Fatalf("expected one fallback ledger row, got %d", count)
	}
	var reloaded models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if reloaded.CoinPaid != 40 {
		t.Fatalf("expected coin_paid 40, got %d", reloaded.CoinPaid)
	}
	if reloaded.YiCoins != 45 {
		t.Fatalf("expected yi_coins 45, got %d", reloaded.YiCoins)
	}

	var txn models.CoinTransaction
	if err := db.Where("user_id = ?", user.ID).First(&txn).Error; err != nil {
		t.Fatalf("load transaction failed: %v", err)
	}
	if txn.Description != "充值到账 LQTEST0004" {
		t.Fatalf("unexpected description: %q", txn.Description)
	}
	if txn.Reference != nil {
		t.Fatalf("fallback ledger row should not carry reference, got %v", *txn.Reference)
	}
}

// setupLegacySchemaRechargeTest 用裸 SQL 搭最老一代的三张表：
// recharge_orders 只有 amount（元），profiles 只有 yi_coins，
// coin_transactions 没有 balance_type / reference。
func setupLegacySchemaRechargeTest(t *testing.T) (*RechargeService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:recharge_legacy_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	statements := []string{
		`CREATE TABLE recharge_orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			amount DECIMAL(20,2) NOT NULL DEFAULT 0,
			channel TEXT,
			provider_ref TEXT,
			paid_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL UNIQUE,
			yi_coins INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE coin_transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			amount INTEGER NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	}
	for _, statement := range statements {
		if err := db.Exec(statement).Error; err != nil {
			t.Fatalf("create legacy table failed: %v", err)
		}
	}
	svc := NewRechargeService(
		repository.NewRechargeRepository(db),
		repository.NewWalletRepository(db),
		repository.NewUserRepository(db),
		nil,
		true,
	)
	return svc, db
}

func TestProcessPaymentSuccessLegacySchema(t *testing.T) {
	svc, db := setupLegacySchemaRechargeTest(t)

	err := db.Exec(
		`INSERT INTO recharge_orders (id, user_id, status, amount, channel, created_at, updated_at)
		 VALUES (42, 9, 'PENDING', 8.00, 'alipay', ?, ?)`,
		time.Now(), time.Now(),
	).Error
	if err != nil {
		t.Fatalf("insert legacy order failed: %v", err)
	}

	// 老库时代商户单号就是主键的十进制串
	input := PaymentSuccessInput{
		Channel:     constants.PaymentChannelAlipay,
		OutTradeNo:  "42",
		ProviderRef: "2026090122001400042",
	}
	result, err := svc.ProcessPaymentSuccess(input)
	if err != nil {
		t.Fatalf("legacy schema must be absorbed, got error: %v", err)
	}
	if result != RechargeResultCredited {
		t.Fatalf("expected credited, got %s", result)
	}

	var yiCoins int64
	if err := db.Raw(`SELECT yi_coins FROM profiles WHERE user_id = 9`).Scan(&yiCoins).Error; err != nil {
		t.Fatalf("read yi_coins failed: %v", err)
	}
	if yiCoins != 80 {
		t.Fatalf("expected 80 coins (8 元 × 10), got %d", yiCoins)
	}

	var status string
	if err := db.Raw(`SELECT status FROM recharge_orders WHERE id = 42`).Scan(&status).Error; err != nil {
		t.Fatalf("read order status failed: %v", err)
	}
	if status != constants.RechargeStatusPaid {
		t.Fatalf("expected order PAID, got %s", status)
	}

	// 重投在老库上同样只入账一次
	if result, err := svc.ProcessPaymentSuccess(input); err != nil || result != RechargeResultAlreadyPaid {
		t.Fatalf("second delivery: result=%v err=%v", result, err)
	}
	var ledgerRows int64
	if err := db.Raw(`SELECT COUNT(*) FROM coin_transactions WHERE user_id = 9`).Scan(&ledgerRows).Error; err != nil {
		t.Fatalf("count ledger rows failed: %v", err)
	}
	if ledgerRows != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", ledgerRows)
	}
}

func TestSyncYiCoinsRepairsDrift(t *testing.T) {
	svc, db := setupRechargeServiceTest(t)
	user := createRechargeTestUser(t, db, "13800138005")

	profile := models.Profile{UserID: user.ID, CoinPaid: 70, CoinFree: 30, YiCoins: 1}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}

	svc.SyncYiCoins(user.ID)

	var reloaded models.Profile
	if err := db.Where("user_id = ?", user.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if reloaded.YiCoins != 100 {
		t.Fatalf("expected yi_coins repaired to 100, got %d", reloaded.YiCoins)
	}
}

func TestCreateOrderDerivesAmount(t *testing.T) {
	svc, db := setupRechargeServiceTest(t)
	user := createRechargeTestUser(t, db, "13800138006")

	order, err := svc.CreateOrder(CreateRechargeOrderInput{
		UserID:  user.ID,
		Coins:   150,
		Channel: constants.PaymentChannelMock,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.CoinsAmount == nil || *order.CoinsAmount != 150 {
		t.Fatalf("expected coins_amount 150, got %v", order.CoinsAmount)
	}
	if order.AmountCNY.String() != "15.00" {
		t.Fatalf("expected 15.00 元 for 150 coins, got %s", order.AmountCNY.String())
	}
	if order.OutTradeNo == "" || order.Status != constants.RechargeStatusPending {
		t.Fatalf("unexpected order: no=%q status=%s", order.OutTradeNo, order.Status)
	}
}

func TestCreateOrderRejectsDisabledChannel(t *testing.T) {
	svc, db := setupRechargeServiceTest(t)
	user := createRechargeTestUser(t, db, "13800138007")

	if _, err := svc.CreateOrder(CreateRechargeOrderInput{
		UserID:  user.ID,
		Coins:   10,
		Channel: "unknown",
	}); err != ErrRechargeChannelDisabled {
		t.Fatalf("expected channel disabled error, got %v", err)
	}
}
