package public

import (
	"errors"
	"net/http"

	"github.com/nextchow/internal/http/response"
	"github.com/nextchow/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
// message 为空时直接使用错误文本（其中带有缺失的目录ID等细节）。
type mappedHandlerError struct {
	target  error
	status  int
	kind    string
	message string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError) {
	for _, rule := range rules {
		if !errors.Is(err, rule.target) {
			continue
		}
		msg := rule.message
		if msg == "" {
			msg = err.Error()
		}
		var logged error
		if rule.status >= http.StatusInternalServerError {
			logged = err
		}
		respondError(c, rule.status, rule.kind, msg, logged)
		return
	}
	respondError(c, http.StatusInternalServerError, response.KindInternal, "internal server error", err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var commonErrorRules = []mappedHandlerError{
	{target: service.ErrCheckoutBusy, status: http.StatusConflict, kind: response.KindCheckoutBusy, message: "another request for this cart is in progress, please retry"},
	{target: service.ErrCustomerNotFound, status: http.StatusNotFound, kind: response.KindCustomerNotFound},
	{target: service.ErrPersistenceFailure, status: http.StatusInternalServerError, kind: response.KindPersistenceFailure, message: "failed to save data, please retry"},
}

var cartErrorRules = concatMappedHandlerErrors([]mappedHandlerError{
	{target: service.ErrInvalidPack, status: http.StatusBadRequest, kind: response.KindInvalidPack},
	{target: service.ErrReferenceNotFound, status: http.StatusBadRequest, kind: response.KindReferenceNotFound},
	{target: service.ErrCapacityExceeded, status: http.StatusBadRequest, kind: response.KindCapacityExceeded},
	{target: service.ErrMultiVendorCartUnsupported, status: http.StatusBadRequest, kind: response.KindMultiVendorCartUnsupported},
	{target: service.ErrCartNotFound, status: http.StatusNotFound, kind: response.KindCartNotFound},
	{target: service.ErrIndexOutOfRange, status: http.StatusBadRequest, kind: response.KindIndexOutOfRange},
}, commonErrorRules)

// placeOrderErrorRules 结算与再来一单共用
var placeOrderErrorRules = []mappedHandlerError{
	{target: service.ErrEmptyCart, status: http.StatusBadRequest, kind: response.KindEmptyCart},
	{target: service.ErrCatalogReferenceGone, status: http.StatusBadRequest, kind: response.KindCatalogReferenceGone},
	{target: service.ErrReferenceNotFound, status: http.StatusBadRequest, kind: response.KindReferenceNotFound},
	{target: service.ErrLocationMissing, status: http.StatusBadRequest, kind: response.KindLocationMissing},
	{target: service.ErrMultiVendorCartUnsupported, status: http.StatusBadRequest, kind: response.KindMultiVendorCartUnsupported},
	{target: service.ErrVendorNotFound, status: http.StatusBadRequest, kind: response.KindVendorNotFound},
	{target: service.ErrPaymentInitiationFailed, status: http.StatusInternalServerError, kind: response.KindPaymentInitiationFailed, message: "payment could not be initiated, your order is pending and checkout can be retried"},
}

var checkoutErrorRules = concatMappedHandlerErrors(placeOrderErrorRules, commonErrorRules)

var orderErrorRules = concatMappedHandlerErrors([]mappedHandlerError{
	{target: service.ErrOrderNotFound, status: http.StatusNotFound, kind: response.KindOrderNotFound},
	{target: service.ErrOrderStatusInvalid, status: http.StatusBadRequest, kind: response.KindOrderStatusInvalid},
}, placeOrderErrorRules, commonErrorRules)

var vendorErrorRules = concatMappedHandlerErrors([]mappedHandlerError{
	{target: service.ErrVendorNotFound, status: http.StatusNotFound, kind: response.KindVendorNotFound},
}, commonErrorRules)

var webhookErrorRules = concatMappedHandlerErrors([]mappedHandlerError{
	{target: service.ErrWebhookSignatureInvalid, status: http.StatusUnauthorized, kind: response.KindWebhookSignatureInvalid, message: "invalid webhook signature"},
	{target: service.ErrWebhookPayloadInvalid, status: http.StatusBadRequest, kind: response.KindWebhookPayloadInvalid, message: "invalid webhook payload"},
}, commonErrorRules)
