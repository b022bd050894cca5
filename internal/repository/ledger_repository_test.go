package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupLedgerRepositoryTest(t *testing.T) (*GormLedgerRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.TimeLimitActivity{},
		&models.ActivityProduct{},
		&models.Discount{},
		&models.ProductRelation{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewLedgerRepository(db), db
}

func TestReserveActivityTotal(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	limit := 3
	activity := models.TimeLimitActivity{
		Name:         "限量",
		ActivityType: constants.ActivityTypeLimitedQuantityPurchase,
		StartTime:    now,
		EndTime:      now.Add(time.Hour),
		TotalLimit:   &limit,
		Valid:        true,
	}
	if err := db.Create(&activity).Error; err != nil {
		t.Fatalf("seed activity failed: %v", err)
	}

	ok, err := repo.ReserveActivityTotal(activity.ID, 2)
	if err != nil || !ok {
		t.Fatalf("reserve within limit should pass: ok=%v err=%v", ok, err)
	}
	ok, err = repo.ReserveActivityTotal(activity.ID, 2)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if ok {
		t.Fatalf("reserve beyond limit must be refused")
	}

	var reloaded models.TimeLimitActivity
	if err := db.First(&reloaded, activity.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.SoldQuantity != 2 {
		t.Fatalf("refused reserve must not change counter, got %d", reloaded.SoldQuantity)
	}
}

func TestReserveActivityTotalUnlimited(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	activity := models.TimeLimitActivity{
		Name:         "不限量",
		ActivityType: constants.ActivityTypeLimitedTimeDiscount,
		StartTime:    now,
		EndTime:      now.Add(time.Hour),
		Valid:        true,
	}
	if err := db.Create(&activity).Error; err != nil {
		t.Fatalf("seed activity failed: %v", err)
	}

	ok, err := repo.ReserveActivityTotal(activity.ID, 1000)
	if err != nil || !ok {
		t.Fatalf("nil total_limit means unlimited: ok=%v err=%v", ok, err)
	}
}

func TestReserveActivityStock(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)

	product := models.ActivityProduct{
		ActivityID:    7,
		ProductID:     10,
		ActivityPrice: models.NewMoneyFromDecimal(decimal.RequireFromString("9.9")),
		ActivityStock: 2,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product failed: %v", err)
	}

	ok, err := repo.ReserveActivityStock(7, 10, 2)
	if err != nil || !ok {
		t.Fatalf("reserve within stock should pass: ok=%v err=%v", ok, err)
	}
	ok, err = repo.ReserveActivityStock(7, 10, 1)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if ok {
		t.Fatalf("reserve beyond stock must be refused")
	}

	if err := repo.ReleaseActivityStock(7, 10, 1); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	ok, err = repo.ReserveActivityStock(7, 10, 1)
	if err != nil || !ok {
		t.Fatalf("released stock should be reservable again: ok=%v err=%v", ok, err)
	}
}

func TestReserveDiscountQuotaUnlimitedCounts(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)

	discount := models.Discount{Type: constants.DiscountTypeReduction, IsLimited: false}
	if err := db.Create(&discount).Error; err != nil {
		t.Fatalf("seed discount failed: %v", err)
	}

	ok, err := repo.ReserveDiscountQuota(discount.ID, 5)
	if err != nil || !ok {
		t.Fatalf("unlimited discount always reserves: ok=%v err=%v", ok, err)
	}
	var reloaded models.Discount
	if err := db.First(&reloaded, discount.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Number != 5 {
		t.Fatalf("usage should still be counted, got %d", reloaded.Number)
	}
}

func TestReserveRelationQuota(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)

	relation := models.ProductRelation{DiscountID: 3, SpuID: 3001, Total: 2}
	if err := db.Create(&relation).Error; err != nil {
		t.Fatalf("seed relation failed: %v", err)
	}

	ok, err := repo.ReserveRelationQuota(relation.ID, 2)
	if err != nil || !ok {
		t.Fatalf("reserve within quota should pass: ok=%v err=%v", ok, err)
	}
	ok, err = repo.ReserveRelationQuota(relation.ID, 1)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if ok {
		t.Fatalf("reserve beyond quota must be refused")
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	repo, db := setupLedgerRepositoryTest(t)

	discount := models.Discount{Type: constants.DiscountTypeReduction, IsLimited: true, Quota: 10, Number: 2}
	if err := db.Create(&discount).Error; err != nil {
		t.Fatalf("seed discount failed: %v", err)
	}

	if err := repo.ReleaseDiscountQuota(discount.ID, 5); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	var reloaded models.Discount
	if err := db.First(&reloaded, discount.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Number != 0 {
		t.Fatalf("over-release floors at zero, got %d", reloaded.Number)
	}
}

func TestReserveZeroAmountIsNoop(t *testing.T) {
	repo, _ := setupLedgerRepositoryTest(t)

	ok, err := repo.ReserveDiscountQuota(999, 0)
	if err != nil || !ok {
		t.Fatalf("zero amount reserve is a no-op success: ok=%v err=%v", ok, err)
	}
	if err := repo.ReleaseDiscountQuota(999, 0); err != nil {
		t.Fatalf("zero amount release is a no-op: %v", err)
	}
}
