package service

import (
	"fmt"

	"github.com/promo-engine/internal/constants"
	"github.com/promo-engine/internal/logger"
	"github.com/promo-engine/internal/repository"

	"gorm.io/gorm"
)

// LedgerService 配额/库存台账服务
// 预占在单个数据库事务内完成，任一资源容量不足则整体回滚（全有或全无）。
type LedgerService struct {
	db         *gorm.DB
	ledgerRepo *repository.GormLedgerRepository
}

// NewLedgerService 创建台账服务
func NewLedgerService(db *gorm.DB, ledgerRepo *repository.GormLedgerRepository) *LedgerService {
	return &LedgerService{
		db:         db,
		ledgerRepo: ledgerRepo,
	}
}

// TryReserve 原子预占一组台账资源
// 任意一笔预占失败返回 ErrCapacityExceeded 且不留任何副作用。
func (s *LedgerService) TryReserve(reservations []Reservation) error {
	if len(reservations) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.ledgerRepo.WithTx(tx)
		for _, r := range reservations {
			ok, err := reserveOne(repo, r)
			if err != nil {
				return err
			}
			if !ok {
				logger.Warnw("ledger_reserve_refused",
					"resource", r.Resource,
					"activity_id", r.ActivityID,
					"product_id", r.ProductID,
					"discount_id", r.DiscountID,
					"relation_id", r.RelationID,
					"amount", r.Amount,
				)
				return fmt.Errorf("%w: %s", ErrCapacityExceeded, r.Resource)
			}
		}
		return nil
	})
}

// Release 释放一组台账资源（订单取消等补偿路径）
// 逐笔释放，单笔失败不阻断其余资源，最后返回首个错误。
func (s *LedgerService) Release(reservations []Reservation) error {
	var firstErr error
	for _, r := range reservations {
		if err := releaseOne(s.ledgerRepo, r); err != nil {
			logger.Errorw("ledger_release_failed",
				"resource", r.Resource,
				"activity_id", r.ActivityID,
				"discount_id", r.DiscountID,
				"error", err.Error(),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func reserveOne(repo *repository.GormLedgerRepository, r Reservation) (bool, error) {
	switch r.Resource {
	case constants.LedgerResourceActivityTotal:
		return repo.ReserveActivityTotal(r.ActivityID, r.Amount)
	case constants.LedgerResourceActivityStock:
		return repo.ReserveActivityStock(r.ActivityID, r.ProductID, r.Amount)
	case constants.LedgerResourceDiscountQuota:
		return repo.ReserveDiscountQuota(r.DiscountID, r.Amount)
	case constants.LedgerResourceRelationQuota:
		return repo.ReserveRelationQuota(r.RelationID, r.Amount)
	default:
		return false, fmt.Errorf("%w: unknown resource %q", ErrReservationInvalid, r.Resource)
	}
}

func releaseOne(repo *repository.GormLedgerRepository, r Reservation) error {
	switch r.Resource {
	case constants.LedgerResourceActivityTotal:
		return repo.ReleaseActivityTotal(r.ActivityID, r.Amount)
	case constants.LedgerResourceActivityStock:
		return repo.ReleaseActivityStock(r.ActivityID, r.ProductID, r.Amount)
	case constants.LedgerResourceDiscountQuota:
		return repo.ReleaseDiscountQuota(r.DiscountID, r.Amount)
	case constants.LedgerResourceRelationQuota:
		return repo.ReleaseRelationQuota(r.RelationID, r.Amount)
	default:
		return fmt.Errorf("%w: unknown resource %q", ErrReservationInvalid, r.Resource)
	}
}
