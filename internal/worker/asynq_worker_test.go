package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lingqian-app/lingqian/internal/models"
	"github.com/lingqian-app/lingqian/internal/provider"
	"github.com/lingqian-app/lingqian/internal/queue"
	"github.com/lingqian-app/lingqian/internal/repository"
	"github.com/lingqian-app/lingqian/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	container := &provider.Container{
		RechargeService: service.NewRechargeService(
			repository.NewRechargeRepository(db),
			repository.NewWalletRepository(db),
			repository.NewUserRepository(db),
			nil,
			false,
		),
	}
	return NewConsumer(container), db
}

func TestHandleWalletCoinRepair(t *testing.T) {
	consumer, db := setupConsumerTest(t)

	profile := models.Profile{UserID: 7, CoinPaid: 70, CoinFree: 30, YiCoins: 0}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile failed: %v", err)
	}

	task, err := queue.NewWalletCoinRepairTask(queue.WalletCoinRepairPayload{UserID: 7})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleWalletCoinRepair(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}

	var reloaded models.Profile
	if err := db.Where("user_id = ?", 7).First(&reloaded).Error; err != nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if reloaded.YiCoins != 100 {
		t.Fatalf("expected yi_coins 100, got %d", reloaded.YiCoins)
	}
}

func TestHandleWalletCoinRepairBadPayload(t *testing.T) {
	consumer, _ := setupConsumerTest(t)

	task := asynq.NewTask(queue.TaskWalletCoinRepair, []byte("not-json"))
	if err := consumer.handleWalletCoinRepair(context.Background(), task); err == nil {
		t.Fatal("malformed payload should error for retry")
	}

	// user_id 为 0 的载荷直接丢弃，不进重试
	task, err := queue.NewWalletCoinRepairTask(queue.WalletCoinRepairPayload{})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleWalletCoinRepair(context.Background(), task); err != nil {
		t.Fatalf("zero user id should be dropped, got %v", err)
	}
}
