package public

import (
	"github.com/promo-engine/internal/http/response"
	"github.com/promo-engine/internal/queue"
	"github.com/promo-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// CalculatePrice 计算购物车价格（纯预览，不消耗任何配额）
func (h *Handler) CalculatePrice(c *gin.Context) {
	var input service.CalculateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	result, err := h.PricingService.Calculate(&input)
	if err != nil {
		respondWithMappedError(c, err, pricingErrorRules, response.CodeInternal, "pricing failed")
		return
	}
	response.Success(c, result)
}

// CommitPrice 计算并消耗配额/库存（下单确认路径）
func (h *Handler) CommitPrice(c *gin.Context) {
	var input service.CalculateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	result, err := h.PricingService.Commit(&input)
	if err != nil {
		respondWithMappedError(c, err, commitErrorRules, response.CodeInternal, "pricing failed")
		return
	}
	response.Success(c, result)
}

// releaseRequest 台账释放请求
type releaseRequest struct {
	OrderRef     string                `json:"order_ref"`
	Reservations []service.Reservation `json:"reservations"`
}

// ReleaseReservations 释放一次提交消耗的配额/库存（订单失败补偿）
// 队列可用时异步执行，否则同步释放。
func (h *Handler) ReleaseReservations(c *gin.Context) {
	var req releaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if len(req.Reservations) == 0 {
		respondError(c, response.CodeBadRequest, "reservations required", nil)
		return
	}

	if h.QueueClient.Enabled() {
		payload := queue.LedgerReleasePayload{OrderRef: req.OrderRef}
		for _, r := range req.Reservations {
			payload.Reservations = append(payload.Reservations, queue.LedgerReleaseReservation{
				Resource:   r.Resource,
				ActivityID: r.ActivityID,
				ProductID:  r.ProductID,
				DiscountID: r.DiscountID,
				RelationID: r.RelationID,
				Amount:     r.Amount,
			})
		}
		if err := h.QueueClient.EnqueueLedgerRelease(payload, 0); err != nil {
			requestLog(c).Warnw("ledger_release_enqueue_failed", "order_ref", req.OrderRef, "error", err)
			respondError(c, response.CodeInternal, "release failed", err)
			return
		}
		response.SuccessWithMsg(c, "release scheduled", nil)
		return
	}

	if err := h.PricingService.Release(req.Reservations); err != nil {
		respondWithMappedError(c, err, releaseErrorRules, response.CodeInternal, "release failed")
		return
	}
	response.Success(c, nil)
}
