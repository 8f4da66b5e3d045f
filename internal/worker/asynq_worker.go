package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/nextchow/internal/logger"
	"github.com/nextchow/internal/provider"
	"github.com/nextchow/internal/queue"
	"github.com/nextchow/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderReconcile, c.handleOrderReconcile)
	mux.HandleFunc(queue.TaskPaymentVerify, c.handlePaymentVerify)
}

func (c *Consumer) handleOrderReconcile(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_reconcile_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_reconcile_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_reconcile_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.ReconcileService == nil {
		logger.Warnw("worker_order_reconcile_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	cancelled, err := c.ReconcileService.ReconcileOrder(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("worker_order_reconcile_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_order_reconcile_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	logger.Debugw("worker_order_reconcile_done", "order_id", payload.OrderID, "cancelled", cancelled)
	return nil
}

func (c *Consumer) handlePaymentVerify(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_payment_verify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.PaymentVerifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_payment_verify_unmarshal_failed", "error", err)
		return err
	}
	reference := strings.TrimSpace(payload.Reference)
	if reference == "" {
		logger.Debugw("worker_payment_verify_skip_invalid_payload")
		return nil
	}
	if c.PaymentService == nil {
		logger.Warnw("worker_payment_verify_skip_service_nil", "reference", reference)
		return nil
	}
	if err := c.PaymentService.VerifyPayment(ctx, reference); err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			logger.Debugw("worker_payment_verify_skip_payment_not_found", "reference", reference)
			return nil
		}
		logger.Warnw("worker_payment_verify_failed", "reference", reference, "error", err)
		return err
	}
	return nil
}
