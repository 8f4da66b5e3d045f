package response

// 错误类型，作为响应体 error 字段的稳定取值
const (
	KindBadRequest      = "bad_request"
	KindUnauthorized    = "unauthorized"
	KindForbidden       = "forbidden"
	KindNotFound        = "not_found"
	KindConflict        = "conflict"
	KindTooManyRequests = "rate_limited"
	KindInternal        = "internal_error"
	KindUnavailable     = "service_unavailable"

	KindInvalidPack                = "invalid_pack"
	KindReferenceNotFound          = "reference_not_found"
	KindCapacityExceeded           = "capacity_exceeded"
	KindCartNotFound               = "cart_not_found"
	KindIndexOutOfRange            = "index_out_of_range"
	KindEmptyCart                  = "empty_cart"
	KindCatalogReferenceGone       = "catalog_reference_gone"
	KindLocationMissing            = "location_missing"
	KindMultiVendorCartUnsupported = "multi_vendor_cart_unsupported"
	KindCheckoutBusy               = "checkout_busy"
	KindPaymentInitiationFailed    = "payment_initiation_failed"
	KindPersistenceFailure         = "persistence_failure"
	KindCustomerNotFound           = "customer_not_found"
	KindVendorNotFound             = "vendor_not_found"
	KindOrderNotFound              = "order_not_found"
	KindOrderStatusInvalid         = "order_status_invalid"
	KindWebhookSignatureInvalid    = "webhook_signature_invalid"
	KindWebhookPayloadInvalid      = "webhook_payload_invalid"
)
