package service

import "errors"

// 定价引擎业务错误
var (
	ErrCartEmpty              = errors.New("cart is empty")
	ErrCartItemInvalid        = errors.New("cart item invalid")
	ErrCapacityExceeded       = errors.New("ledger capacity exceeded")
	ErrReservationInvalid     = errors.New("ledger reservation invalid")
	ErrPromotionConfigInvalid = errors.New("promotion config invalid")
	ErrCatalogUnavailable     = errors.New("catalog store unavailable")
	ErrActivityNotFound       = errors.New("activity not found")
)
