package queue

import (
	"encoding/json"

	"github.com/promo-engine/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskActivityStatusSync 活动状态同步任务
	TaskActivityStatusSync = constants.TaskActivityStatusSync
	// TaskLedgerRelease 台账释放任务
	TaskLedgerRelease = constants.TaskLedgerRelease
)

// ActivityStatusSyncPayload 活动状态同步任务载荷
type ActivityStatusSyncPayload struct {
	TriggeredAt int64 `json:"triggered_at"` // Unix 秒，0 表示以执行时刻为准
}

// LedgerReleaseReservation 台账释放任务中的单笔资源
type LedgerReleaseReservation struct {
	Resource   string `json:"resource"`
	ActivityID uint   `json:"activity_id,omitempty"`
	ProductID  uint   `json:"product_id,omitempty"`
	DiscountID uint   `json:"discount_id,omitempty"`
	RelationID uint   `json:"relation_id,omitempty"`
	Amount     int    `json:"amount"`
}

// LedgerReleasePayload 台账释放任务载荷（订单失败后的补偿释放）
type LedgerReleasePayload struct {
	OrderRef     string                     `json:"order_ref"`
	Reservations []LedgerReleaseReservation `json:"reservations"`
}

// NewActivityStatusSyncTask 创建活动状态同步任务
func NewActivityStatusSyncTask(payload ActivityStatusSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskActivityStatusSync, body), nil
}

// NewLedgerReleaseTask 创建台账释放任务
func NewLedgerReleaseTask(payload LedgerReleasePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerRelease, body), nil
}
