package public

import (
	"errors"

	"github.com/promo-engine/internal/http/response"
	"github.com/promo-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var pricingErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrCartItemInvalid, code: response.CodeBadRequest, msg: "invalid cart item"},
	{target: service.ErrCatalogUnavailable, code: response.CodeInternal, msg: "catalog unavailable"},
}

var commitErrorRules = []mappedHandlerError{
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrCartItemInvalid, code: response.CodeBadRequest, msg: "invalid cart item"},
	{target: service.ErrCapacityExceeded, code: response.CodeBadRequest, msg: "promotion capacity exceeded"},
	{target: service.ErrCatalogUnavailable, code: response.CodeInternal, msg: "catalog unavailable"},
}

var releaseErrorRules = []mappedHandlerError{
	{target: service.ErrReservationInvalid, code: response.CodeBadRequest, msg: "invalid reservation"},
}
