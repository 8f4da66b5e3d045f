package repository

import (
	"context"
	"testing"
	"time"

	"github.com/nextchow/internal/constants"
	"github.com/nextchow/internal/models"
)

func TestPaymentIntentRepositoryMarkStatusOnlyFromPending(t *testing.T) {
	db := setupRepositoryTestDB(t, "payment_repo_mark")
	repo := NewPaymentIntentRepository(db)
	ctx := context.Background()
	order := createTestOrder(t, db, 1, constants.OrderStatusPending, time.Now())

	intent := &models.PaymentIntent{
		OrderID:       order.ID,
		CustomerID:    1,
		Amount:        order.TotalPrice,
		Currency:      "NGN",
		Reference:     "REF1",
		AccessCode:    "AC1",
		PaymentMethod: constants.PaymentMethodPaystack,
		Status:        constants.PaymentStatusPending,
	}
	if err := repo.Create(ctx, intent); err != nil {
		t.Fatalf("create intent failed: %v", err)
	}

	paidAt := time.Now()
	changed, err := repo.MarkStatus(ctx, "REF1", constants.PaymentStatusSuccess, &paidAt, models.JSON{"event": "charge.success"})
	if err != nil || !changed {
		t.Fatalf("expected status change, changed=%v err=%v", changed, err)
	}
	changed, err = repo.MarkStatus(ctx, "REF1", constants.PaymentStatusFailed, nil, nil)
	if err != nil || changed {
		t.Fatalf("settled intent must not change again, changed=%v err=%v", changed, err)
	}

	stored, err := repo.GetByReference(ctx, "REF1")
	if err != nil || stored == nil {
		t.Fatalf("get intent failed: %v", err)
	}
	if stored.Status != constants.PaymentStatusSuccess || stored.PaidAt == nil {
		t.Fatalf("unexpected stored intent: %+v", stored)
	}
	if stored.GatewayPayload["event"] != "charge.success" {
		t.Fatalf("unexpected payload: %+v", stored.GatewayPayload)
	}

	count, err := repo.CountByOrderID(ctx, order.ID)
	if err != nil || count != 1 {
		t.Fatalf("expected one intent, count=%d err=%v", count, err)
	}
	if missing, err := repo.GetByReference(ctx, "  "); err != nil || missing != nil {
		t.Fatalf("blank reference must resolve to nil")
	}
}
