package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/models"
	"github.com/nextchow/internal/repository"

	"github.com/shopspring/decimal"
)

// PaymentService 支付结果处理
type PaymentService struct {
	paymentRepo repository.PaymentIntentRepository
	orderRepo   repository.OrderRepository
	gateway     PaymentGateway
	now         func() time.Time
}

// NewPaymentService 创建支付服务
func NewPaymentService(paymentRepo repository.PaymentIntentRepository, orderRepo repository.OrderRepository, gateway PaymentGateway) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		gateway:     gateway,
		now:         time.Now,
	}
}

// HandleWebhook 处理网关回调，重复回调是幂等的
func (s *PaymentService) HandleWebhook(ctx context.Context, headers map[string]string, body []byte) error {
	event, err := s.gateway.ParseWebhook(headers, body)
	if err != nil {
		logger.Warnw("payment_webhook_rejected", "error", err)
		return err
	}
	switch event.Event {
	case constants.PaystackEventChargeSuccess, constants.PaystackEventChargeFailed:
	default:
		logger.Debugw("payment_webhook_event_ignored", "event", event.Event, "reference", event.Reference)
		return nil
	}
	status := event.Status
	if event.Event == constants.PaystackEventChargeFailed {
		status = constants.PaymentStatusFailed
	} else if status != constants.PaymentStatusSuccess {
		logger.Warnw("payment_webhook_unconfirmed_success", "reference", event.Reference, "status", event.Status)
		return nil
	}
	if status == constants.PaymentStatusSuccess && !event.Amount.IsPositive() {
		// 回调缺少金额时以网关查询结果为准
		logger.Warnw("payment_webhook_amount_missing", "reference", event.Reference)
		err = s.VerifyPayment(ctx, event.Reference)
	} else {
		err = s.applyPaymentResult(ctx, event.Reference, status, event.Amount, event.PaidAt, event.Raw)
	}
	if errors.Is(err, ErrPaymentNotFound) {
		logger.Warnw("payment_webhook_unknown_reference", "reference", event.Reference)
		return nil
	}
	return err
}

// VerifyPayment 主动查询网关结果，用于回调丢失时补偿
func (s *PaymentService) VerifyPayment(ctx context.Context, reference string) error {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return ErrPaymentNotFound
	}
	intent, err := s.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		return persistenceError(err)
	}
	if intent == nil {
		return ErrPaymentNotFound
	}
	if intent.Status != constants.PaymentStatusPending {
		return nil
	}
	result, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		logger.Warnw("payment_verify_failed", "reference", reference, "error", err)
		return err
	}
	if result.Status == constants.PaymentStatusPending {
		logger.Debugw("payment_verify_still_pending", "reference", reference)
		return nil
	}
	return s.applyPaymentResult(ctx, reference, result.Status, result.Amount, result.PaidAt, result.Raw)
}

// applyPaymentResult 更新支付意图，并据此推进订单状态
// 只接受 success 与 failed 两种终态；成功但金额缺失或不符按失败处理。
func (s *PaymentService) applyPaymentResult(ctx context.Context, reference, status string, amount decimal.Decimal, paidAt *time.Time, raw map[string]interface{}) error {
	if status != constants.PaymentStatusSuccess && status != constants.PaymentStatusFailed {
		logger.Debugw("payment_result_not_final", "reference", reference, "status", status)
		return nil
	}
	intent, err := s.paymentRepo.GetByReference(ctx, reference)
	if err != nil {
		return persistenceError(err)
	}
	if intent == nil {
		return ErrPaymentNotFound
	}
	received := models.NewMoneyFromDecimal(amount)
	if status == constants.PaymentStatusSuccess && (!amount.IsPositive() || !received.Equal(intent.Amount)) {
		logger.Errorw("payment_amount_mismatch",
			"reference", reference,
			"order_id", intent.OrderID,
			"expected", intent.Amount.String(),
			"received", received.String(),
		)
		status = constants.PaymentStatusFailed
	}
	if status == constants.PaymentStatusSuccess && paidAt == nil {
		now := s.now()
		paidAt = &now
	}
	if status != constants.PaymentStatusSuccess {
		paidAt = nil
	}

	changed, err := s.paymentRepo.MarkStatus(ctx, reference, status, paidAt, models.JSON(raw))
	if err != nil {
		return persistenceError(err)
	}
	if !changed {
		logger.Debugw("payment_result_already_applied", "reference", reference, "status", intent.Status)
		return nil
	}
	logger.Infow("payment_status_changed", "reference", reference, "order_id", intent.OrderID, "status", status)

	target := constants.OrderStatusCancelled
	if status == constants.PaymentStatusSuccess {
		target = constants.OrderStatusPreparing
	}
	if err := transitionOrder(ctx, s.orderRepo, intent.OrderID, target, s.now()); err != nil {
		if errors.Is(err, ErrOrderStatusInvalid) {
			logger.Warnw("payment_order_transition_skipped", "order_id", intent.OrderID, "target", target)
			return nil
		}
		return err
	}
	return nil
}
