//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.ProductRelation{},
		&models.DiscountFreeCondition{},
		&models.DiscountCondition{},
		&models.Discount{},
		&models.Constraint{},
		&models.Campaign{},
		&models.DiscountRule{},
		&models.ActivityProduct{},
		&models.TimeLimitActivity{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.TimeLimitActivity{},
		&models.ActivityProduct{},
		&models.DiscountRule{},
		&models.Campaign{},
		&models.Constraint{},
		&models.Discount{},
		&models.DiscountCondition{},
		&models.DiscountFreeCondition{},
		&models.ProductRelation{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

// TestPostgresLedgerConcurrentReserve 并发预占不得超过容量上限。
func TestPostgresLedgerConcurrentReserve(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewLedgerRepository(db)

	discount := models.Discount{Type: constants.DiscountTypeReduction, IsLimited: true, Quota: 10}
	if err := db.Create(&discount).Error; err != nil {
		t.Fatalf("seed discount failed: %v", err)
	}

	const workers = 25
	var wg sync.WaitGroup
	granted := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ReserveDiscountQuota(discount.ID, 1)
			if err != nil {
				t.Errorf("reserve failed: %v", err)
				return
			}
			if ok {
				granted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(granted)

	grantedCount := len(granted)
	if grantedCount != 10 {
		t.Fatalf("granted reserves want 10 got %d", grantedCount)
	}

	var reloaded models.Discount
	if err := db.First(&reloaded, discount.ID).Error; err != nil {
		t.Fatalf("reload discount failed: %v", err)
	}
	if reloaded.Number != 10 {
		t.Fatalf("counter must stop at quota, got %d", reloaded.Number)
	}
}

// TestPostgresLedgerStockGuard 带守卫的库存预占在 PostgreSQL 下语义一致。
func TestPostgresLedgerStockGuard(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewLedgerRepository(db)

	now := time.Now().UTC().Truncate(time.Second)
	limit := 5
	activity := models.TimeLimitActivity{
		Name:         "集成测试活动",
		ActivityType: constants.ActivityTypeLimitedQuantityPurchase,
		StartTime:    now,
		EndTime:      now.Add(time.Hour),
		TotalLimit:   &limit,
		Valid:        true,
	}
	if err := db.Create(&activity).Error; err != nil {
		t.Fatalf("seed activity failed: %v", err)
	}

	ok, err := repo.ReserveActivityTotal(activity.ID, 5)
	if err != nil || !ok {
		t.Fatalf("reserve up to limit should pass: ok=%v err=%v", ok, err)
	}
	ok, err = repo.ReserveActivityTotal(activity.ID, 1)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if ok {
		t.Fatalf("reserve beyond limit must be refused")
	}

	if err := repo.ReleaseActivityTotal(activity.ID, 2); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	ok, err = repo.ReserveActivityTotal(activity.ID, 2)
	if err != nil || !ok {
		t.Fatalf("released capacity should be reservable again: ok=%v err=%v", ok, err)
	}
}
