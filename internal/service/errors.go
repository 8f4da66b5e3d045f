package service

import (
	"errors"
	"fmt"
)

var (
	ErrReferenceNotFound          = errors.New("catalog reference not found")
	ErrCapacityExceeded           = errors.New("cart capacity exceeded")
	ErrCartNotFound               = errors.New("cart not found")
	ErrIndexOutOfRange            = errors.New("pack index out of range")
	ErrEmptyCart                  = errors.New("cart is empty")
	ErrCatalogReferenceGone       = errors.New("catalog reference no longer exists")
	ErrLocationMissing            = errors.New("location missing")
	ErrMultiVendorCartUnsupported = errors.New("cart cannot contain packs from more than one vendor")
	ErrPaymentInitiationFailed    = errors.New("payment initiation failed")
	ErrPersistenceFailure         = errors.New("persistence failure")
	ErrInvalidPack                = errors.New("invalid pack")
	ErrCheckoutBusy               = errors.New("another cart operation is in progress")
	ErrCustomerNotFound           = errors.New("customer not found")
	ErrCustomerDisabled           = errors.New("customer disabled")
	ErrVendorNotFound             = errors.New("vendor not found")
	ErrOrderNotFound              = errors.New("order not found")
	ErrOrderStatusInvalid         = errors.New("order status invalid")
	ErrPaymentNotFound            = errors.New("payment intent not found")
	ErrWebhookSignatureInvalid    = errors.New("webhook signature invalid")
	ErrWebhookPayloadInvalid      = errors.New("webhook payload invalid")
	ErrGatewayUnavailable         = errors.New("payment gateway unavailable")
	ErrInvalidToken               = errors.New("invalid token")
)

// persistenceError 将存储层错误归类为 ErrPersistenceFailure，同时保留原始错误
func persistenceError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
}
