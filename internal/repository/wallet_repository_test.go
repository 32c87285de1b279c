package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/lingqian-app/lingqian/internal/constants"
	"github.com/lingqian-app/lingqian/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openWalletTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	return db
}

// createLegacyWalletTables 建最老一代的钱包表：profiles 只有
// yi_coins 汇总列，coin_transactions 没有 balance_type 和 reference。
func createLegacyWalletTables(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec(`CREATE TABLE profiles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL UNIQUE,
		yi_coins INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error
	if err != nil {
		t.Fatalf("create legacy profiles failed: %v", err)
	}
	err = db.Exec(`CREATE TABLE coin_transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error
	if err != nil {
		t.Fatalf("create legacy coin_transactions failed: %v", err)
	}
}

func TestFallbackCreditPaidLegacySchema(t *testing.T) {
	db := openWalletTestDB(t)
	createLegacyWalletTables(t, db)
	repo := NewWalletRepository(db)

	err := db.Exec(
		`INSERT INTO profiles (user_id, yi_coins, created_at, updated_at) VALUES (11, 20, ?, ?)`,
		time.Now(), time.Now(),
	).Error
	if err != nil {
		t.Fatalf("insert legacy profile failed: %v", err)
	}

	// 老库没有分列，入账只动 yi_coins
	if err := repo.FallbackCreditPaid(11, 50); err != nil {
		t.Fatalf("fallback credit failed: %v", err)
	}

	var yiCoins int64
	if err := db.Raw(`SELECT yi_coins FROM profiles WHERE user_id = 11`).Scan(&yiCoins).Error; err != nil {
		t.Fatalf("read yi_coins failed: %v", err)
	}
	if yiCoins != 70 {
		t.Fatalf("expected yi_coins 70, got %d", yiCoins)
	}

	if err := repo.FallbackCreditPaid(99, 10); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected record not found for unknown user, got %v", err)
	}
}

func TestLegacySchemaColumnMissing(t *testing.T) {
	db := openWalletTestDB(t)
	createLegacyWalletTables(t, db)
	repo := NewWalletRepository(db)

	if err := repo.SyncYiCoins(11); err != ErrSchemaColumnMissing {
		t.Fatalf("sync on legacy schema should report missing column, got %v", err)
	}
	if err := repo.AddWithdrawable(11, models.Money{}); err != ErrSchemaColumnMissing {
		t.Fatalf("withdrawable on legacy schema should report missing column, got %v", err)
	}
}

func TestCreditCoinsLegacySchema(t *testing.T) {
	db := openWalletTestDB(t)
	createLegacyWalletTables(t, db)
	repo := NewWalletRepository(db)

	err := db.Exec(
		`INSERT INTO profiles (user_id, yi_coins, created_at, updated_at) VALUES (5, 0, ?, ?)`,
		time.Now(), time.Now(),
	).Error
	if err != nil {
		t.Fatalf("insert legacy profile failed: %v", err)
	}

	if err := repo.CreditCoins(5, 30, 10); err != nil {
		t.Fatalf("credit coins failed: %v", err)
	}

	var yiCoins int64
	if err := db.Raw(`SELECT yi_coins FROM profiles WHERE user_id = 5`).Scan(&yiCoins).Error; err != nil {
		t.Fatalf("read yi_coins failed: %v", err)
	}
	if yiCoins != 40 {
		t.Fatalf("expected yi_coins 40, got %d", yiCoins)
	}
}

func TestCreateTransactionLegacySchemaOmitsMissingColumns(t *testing.T) {
	db := openWalletTestDB(t)
	createLegacyWalletTables(t, db)
	repo := NewWalletRepository(db)

	ref := "recharge:LQLEGACY01"
	txn := models.CoinTransaction{
		UserID:      3,
		Amount:      80,
		Type:        constants.CoinTxnTypeRecharge,
		BalanceType: constants.CoinBalanceTypePaid,
		Description: "充值到账 LQLEGACY01",
		Reference:   &ref,
	}
	if err := repo.CreateTransaction(&txn); err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}

	found, err := repo.GetTransactionByDescription(3, constants.CoinTxnTypeRecharge, "充值到账 LQLEGACY01")
	if err != nil {
		t.Fatalf("lookup by description failed: %v", err)
	}
	if found == nil || found.Amount != 80 {
		t.Fatalf("unexpected transaction: %+v", found)
	}
	// 老库没有 balance_type / reference 列，读回为空
	if found.BalanceType != "" {
		t.Fatalf("balance_type should be dropped on legacy schema, got %q", found.BalanceType)
	}
	if found.Reference != nil {
		t.Fatalf("reference should be dropped on legacy schema, got %v", *found.Reference)
	}

	// 引用号在老库查不到，幂等只能靠描述
	byRef, err := repo.GetTransactionByReference(ref)
	if err != nil {
		t.Fatalf("lookup by reference failed: %v", err)
	}
	if byRef != nil {
		t.Fatalf("reference lookup should miss on legacy schema, got %+v", byRef)
	}
}

func TestCreateProfileLegacySchema(t *testing.T) {
	db := openWalletTestDB(t)
	createLegacyWalletTables(t, db)
	repo := NewWalletRepository(db)

	if err := repo.CreateProfile(&models.Profile{UserID: 21, CoinPaid: 99}); err != nil {
		t.Fatalf("create profile on legacy schema failed: %v", err)
	}

	profile, err := repo.GetProfileByUserID(21)
	if err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if profile == nil || profile.UserID != 21 {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestTransactionReferenceUnique(t *testing.T) {
	db := openWalletTestDB(t)
	if err := db.AutoMigrate(&models.Profile{}, &models.CoinTransaction{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	repo := NewWalletRepository(db)

	ref := "recharge:LQUNIQ01"
	if err := repo.CreateTransaction(&models.CoinTransaction{
		UserID:      1,
		Amount:      10,
		Type:        constants.CoinTxnTypeRecharge,
		Description: "充值到账 LQUNIQ01",
		Reference:   &ref,
	}); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	dup := ref
	err := repo.CreateTransaction(&models.CoinTransaction{
		UserID:      1,
		Amount:      10,
		Type:        constants.CoinTxnTypeRecharge,
		Description: "充值到账 LQUNIQ01",
		Reference:   &dup,
	})
	if !IsDuplicateKeyErr(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}

	found, err := repo.GetTransactionByReference(ref)
	if err != nil {
		t.Fatalf("lookup by reference failed: %v", err)
	}
	if found == nil || found.UserID != 1 {
		t.Fatalf("unexpected transaction: %+v", found)
	}
}

func TestSyncYiCoinsModernSchema(t *testing.T) {
	db := openWalletTestDB(t)
	if err := db.AutoMigrate(&models.Profile{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	repo := NewWalletRepository(db)

	if err := db.Create(&models.Profile{UserID: 8, CoinPaid: 60, CoinFree: 15, YiCoins: 1}).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}

	if err := repo.SyncYiCoins(8); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	profile, err := repo.GetProfileByUserID(8)
	if err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if profile.YiCoins != 75 {
		t.Fatalf("expected yi_coins 75, got %d", profile.YiCoins)
	}
}
