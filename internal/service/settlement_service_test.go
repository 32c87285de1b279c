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

func setupSettlementServiceTest(t *testing.T, batchSize int) (*SettlementService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:settlement_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	svc := NewSettlementService(
		repository.NewGiftRepository(db),
		repository.NewWalletRepository(db),
		batchSize,
	)
	return svc, db
}

func createUnsettledRecord(t *testing.T, db *gorm.DB, receiverID uint, coins int64) {
	t.Helper()
	if err := db.Create(&models.GiftRecord{
		GiftID:     1,
		SenderID:   1,
		ReceiverID: receiverID,
		Coins:      coins,
	}).Error; err != nil {
		t.Fatalf("create gift record failed: %v", err)
	}
}

func TestSettlementRunCreditsWithdrawable(t *testing.T) {
	svc, db := setupSettlementServiceTest(t, 0)

	if err := db.Create(&models.Profile{UserID: 7}).Error; err != nil {
		t.Fatalf("create receiver profile failed: %v", err)
	}
	// 105 币按 10 币/元折算为 10.50 元
	createUnsettledRecord(t, db, 7, 80)
	createUnsettledRecord(t, db, 7, 25)

	summary, err := svc.Run()
	if err != nil {
		t.Fatalf("settlement run failed: %v", err)
	}
	if summary.Records != 2 || summary.Coins != 105 || summary.Receivers != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	var profile models.Profile
	if err := db.Where("user_id = ?", uint(7)).First(&profile).Error; err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if profile.Withdrawable.String() != "10.50" {
		t.Fatalf("expected withdrawable 10.50, got %s", profile.Withdrawable.String())
	}

	var unsettled int64
	db.Model(&models.GiftRecord{}).Where("settled = ?", false).Count(&unsettled)
	if unsettled != 0 {
		t.Fatalf("expected all records settled, %d remain", unsettled)
	}

	var txn models.CoinTransaction
	if err := db.Where("user_id = ? AND type = ?", uint(7), constants.CoinTxnTypeSettlement).First(&txn).Error; err != nil {
		t.Fatalf("load settlement transaction failed: %v", err)
	}
	if txn.Amount != 105 {
		t.Fatalf("expected settlement amount 105, got %d", txn.Amount)
	}
}

func TestSettlementRunCreatesMissingProfile(t *testing.T) {
	svc, db := setupSettlementServiceTest(t, 0)

	createUnsettledRecord(t, db, 9, 30)

	if _, err := svc.Run(); err != nil {
		t.Fatalf("settlement run failed: %v", err)
	}

	var profile models.Profile
	if err := db.Where("user_id = ?", uint(9)).First(&profile).Error; err != nil {
		t.Fatalf("profile should be created: %v", err)
	}
	if profile.Withdrawable.String() != "3.00" {
		t.Fatalf("expected withdrawable 3.00, got %s", profile.Withdrawable.String())
	}
}

func TestSettlementRunIdempotent(t *testing.T) {
	svc, db := setupSettlementServiceTest(t, 0)

	if err := db.Create(&models.Profile{UserID: 3}).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	createUnsettledRecord(t, db, 3, 50)

	if _, err := svc.Run(); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	summary, err := svc.Run()
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if summary.Records != 0 || summary.Coins != 0 {
		t.Fatalf("second run should settle nothing: %+v", summary)
	}

	var profile models.Profile
	if err := db.Where("user_id = ?", uint(3)).First(&profile).Error; err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if profile.Withdrawable.String() != "5.00" {
		t.Fatalf("withdrawable should not double-credit, got %s", profile.Withdrawable.String())
	}
}

func TestSettlementRunDrainsMultipleBatches(t *testing.T) {
	svc, db := setupSettlementServiceTest(t, 2)

	if err := db.Create(&models.Profile{UserID: 5}).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		createUnsettledRecord(t, db, 5, 10)
	}

	summary, err := svc.Run()
	if err != nil {
		t.Fatalf("settlement run failed: %v", err)
	}
	if summary.Records != 5 || summary.Coins != 50 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Batches < 3 {
		t.Fatalf("expected at least 3 batches of size 2, got %d", summary.Batches)
	}

	var profile models.Profile
	if err := db.Where("user_id = ?", uint(5)).First(&profile).Error; err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if profile.Withdrawable.String() != "5.00" {
		t.Fatalf("expected withdrawable 5.00, got %s", profile.Withdrawable.String())
	}
}
