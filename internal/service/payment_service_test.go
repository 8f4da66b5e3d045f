package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/nextchow/internal/constants"

	"github.com/shopspring/decimal"
)

func TestPaymentWebhookSuccessIsIdempotent(t *testing.T) {
	env := setupServiceTest(t, "payment_webhook_success")
	f := seedFixture(t, env)
	ctx := context.Background()
	order := placeTestOrder(t, env, f)
	reference := order.PaymentIntent.Reference

	paidAt := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	env.gateway.event = &GatewayEvent{
		Event:     constants.PaystackEventChargeSuccess,
		Reference: reference,
		Status:    constants.PaymentStatusSuccess,
		Amount:    decimal.NewFromInt(1500),
		PaidAt:    &paidAt,
		Raw:       map[string]interface{}{"event": "charge.success"},
	}
	for i := 0; i < 2; i++ {
		if err := env.payments.HandleWebhook(ctx, nil, []byte("{}")); err != nil {
			t.Fatalf("webhook %d failed: %v", i, err)
		}
	}

	intent, _ := env.paymentRepo.GetByReference(ctx, reference)
	if intent.Status != constants.PaymentStatusSuccess || intent.PaidAt == nil {
		t.Fatalf("unexpected intent after webhook: %+v", intent)
	}
	stored, _ := env.orderRepo.GetByID(ctx, order.ID)
	if stored.Status != constants.OrderStatusPreparing {
		t.Fatalf("expected order preparing, got %s", stored.Status)
	}
}

func TestPaymentWebhookFailureCancelsOrder(t *testing.T) {
	env := setupServiceTest(t, "payment_webhook_failed")
	f := seedFixture(t, env)
	ctx := context.Background()
	order := placeTestOrder(t, env, f)

	env.gateway.event = &GatewayEvent{
		Event:     constants.PaystackEventChargeFailed,
		Reference: order.PaymentIntent.Reference,
		Status:    constants.PaymentStatusPending,
	}
	if err := env.payments.HandleWebhook(ctx, nil, nil); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	intent, _ := env.paymentRepo.GetByReference(ctx, order.PaymentIntent.Reference)
	if intent.Status != constants.PaymentStatusFailed {
		t.Fatalf("expected failed intent, got %s", intent.Status)
	}
	stored, _ := env.orderRepo.GetByID(ctx, order.ID)
	if stored.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled order, got %s", stored.Status)
	}
}

func TestPaymentWebhookAmountMismatch(t *testing.T) {
	env := setupServiceTest(t, "payment_webhook_mismatch")
	f := seedFixture(t, env)
	ctx := context.Background()
	order := placeTestOrder(t, env, f)

	env.gateway.event = &GatewayEvent{
		Event:     constants.PaystackEventChargeSuccess,
		Reference: order.PaymentIntent.Reference,
		Status:    constants.PaymentStatusSuccess,
		Amount:    decimal.NewFromInt(10),
	}
	if err := env.payments.HandleWebhook(ctx, nil, nil); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	intent, _ := env.paymentRepo.GetByReference(ctx, order.PaymentIntent.Reference)
	if intent.Status != constants.PaymentStatusFailed {
		t.Fatalf("underpaid charge must not succeed, got %s", intent.Status)
	}
}

func TestPaymentWebhookRejectsAndIgnores(t *testing.T) {
	env := setupServiceTest(t, "payment_webhook_reject")
	ctx := context.Background()

	env.gateway.parseErr = fmt.Errorf("%w: bad", ErrWebhookSignatureInvalid)
	if err := env.payments.HandleWebhook(ctx, nil, nil); !errors.Is(err, ErrWebhookSignatureInvalid) {
		t.Fatalf("expected ErrWebhookSignatureInvalid, got %v", err)
	}

	env.gateway.parseErr = nil
	env.gateway.event = &GatewayEvent{Event: constants.PaystackEventChargeSuccess, Reference: "UNKNOWN", Status: constants.PaymentStatusSuccess}
	if err := env.payments.HandleWebhook(ctx, nil, nil); err != nil {
		t.Fatalf("unknown reference must be acknowledged, got %v", err)
	}

	env.gateway.event = &GatewayEvent{Event: "transfer.success", Reference: "T1"}
	if err := env.payments.HandleWebhook(ctx, nil, nil); err != nil {
		t.Fatalf("unrelated events must be ignored, got %v", err)
	}
}

func TestVerifyPayment(t *testing.T) {
	env := setupServiceTest(t, "payment_verify")
	f := seedFixture(t, env)
	ctx := context.Background()
	order := placeTestOrder(t, env, f)
	reference := order.PaymentIntent.Reference

	if err := env.payments.VerifyPayment(ctx, reference); err != nil {
		t.Fatalf("verify pending failed: %v", err)
	}
	intent, _ := env.paymentRepo.GetByReference(ctx, reference)
	if intent.Status != constants.PaymentStatusPending {
		t.Fatalf("pending gateway status must not change intent, got %s", intent.Status)
	}

	env.gateway.verifyResult = &PaymentStatusResult{Reference: reference, Status: constants.PaymentStatusSuccess, Amount: decimal.NewFromInt(1500)}
	if err := env.payments.VerifyPayment(ctx, reference); err != nil {
		t.Fatalf("verify success failed: %v", err)
	}
	intent, _ = env.paymentRepo.GetByReference(ctx, reference)
	if intent.Status != constants.PaymentStatusSuccess {
		t.Fatalf("expected success, got %s", intent.Status)
	}
	if err := env.payments.VerifyPayment(ctx, "missing"); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestPaymentWebhookIgnoresUnconfirmedSuccess(t *testing.T) {
	env := setupServiceTest(t, "payment_webhook_unconfirmed")
	f := seedFixture(t, env)
	ctx := context.Background()
	order := placeTestOrder(t, env, f)
	reference := order.PaymentIntent.Reference

	for _, status := range []string{constants.PaymentStatusPending, "abandoned", ""} {
		env.gateway.event = &GatewayEvent{
			Event:     constants.PaystackEventChargeSuccess,
			Reference: reference,
			Status:    status,
			Amount:    decimal.NewFromInt(1500),
		}
		if err := env.payments.HandleWebhook(ctx, nil, nil); err != nil {
			t.Fatalf("webhook with status %q failed: %v", status, err)
		}
	}

	intent, _ := env.paymentRepo.GetByReference(ctx, reference)
	if intent.Status != constants.PaymentStatusPending || intent.PaidAt != nil {
		t.Fatalf("unconfirmed charge must leave intent pending, got %+v", intent)
	}
	stored, _ := env.orderRepo.GetByID(ctx, order.ID)
	if stored.Status != constants.OrderStatusPending {
		t.Fatalf("unconfirmed charge must not advance the order, got %s", stored.Status)
	}
}

func TestPaymentWebhookWithoutAmountDefersToGateway(t *testing.T) {
	env := setupServiceTest(t, "payment_webhook_no_amount")
	f := seedFixture(t, env)
	ctx := context.Background()
	order := placeTestOrder(t, env, f)
	reference := order.PaymentIntent.Reference

	env.gateway.event = &GatewayEvent{
		Event:     constants.PaystackEventChargeSuccess,
		Reference: reference,
		Status:    constants.PaymentStatusSuccess,
	}
	if err := env.payments.HandleWebhook(ctx, nil, nil); err != nil {
		t.Fatalf("webhook failed: %v", err)
	}
	intent, _ := env.paymentRepo.GetByReference(ctx, reference)
	if intent.Status != constants.PaymentStatusPending {
		t.Fatalf("amount-less success must not be trusted while gateway reports pending, got %s", intent.Status)
	}
	stored, _ := env.orderRepo.GetByID(ctx, order.ID)
	if stored.Status != constants.OrderStatusPending {
		t.Fatalf("expected order pending, got %s", stored.Status)
	}

	env.gateway.verifyResult = &PaymentStatusResult{Reference: reference, Status: constants.PaymentStatusSuccess, Amount: decimal.NewFromInt(1500)}
	if err := env.payments.HandleWebhook(ctx, nil, nil); err != nil {
		t.Fatalf("webhook after gateway confirmation failed: %v", err)
	}
	intent, _ = env.paymentRepo.GetByReference(ctx, reference)
	if intent.Status != constants.PaymentStatusSuccess {
		t.Fatalf("expected success after gateway confirmation, got %s", intent.Status)
	}
	stored, _ = env.orderRepo.GetByID(ctx, order.ID)
	if stored.Status != constants.OrderStatusPreparing {
		t.Fatalf("expected order preparing, got %s", stored.Status)
	}
}

func TestVerifyPaymentWithoutAmountIsRejected(t *testing.T) {
	env := setupServiceTest(t, "payment_verify_no_amount")
	f := seedFixture(t, env)
	ctx := context.Background()
	order := placeTestOrder(t, env, f)
	reference := order.PaymentIntent.Reference

	env.gateway.verifyResult = &PaymentStatusResult{Reference: reference, Status: constants.PaymentStatusSuccess}
	if err := env.payments.VerifyPayment(ctx, reference); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	intent, _ := env.paymentRepo.GetByReference(ctx, reference)
	if intent.Status != constants.PaymentStatusFailed {
		t.Fatalf("success without amount must be treated as mismatch, got %s", intent.Status)
	}
	stored, _ := env.orderRepo.GetByID(ctx, order.ID)
	if stored.Status == constants.OrderStatusPreparing {
		t.Fatalf("order must not advance without a confirmed amount")
	}
}
