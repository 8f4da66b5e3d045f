package queue

import (
	"encoding/json"

	"github.com/nextchow/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderReconcile 待处理订单对账任务
	TaskOrderReconcile = constants.TaskOrderReconcile
	// TaskPaymentVerify 支付结果主动查询任务
	TaskPaymentVerify = constants.TaskPaymentVerify
)

// OrderReconcilePayload 订单对账任务载荷
type OrderReconcilePayload struct {
	OrderID uint `json:"order_id"`
}

// PaymentVerifyPayload 支付查询任务载荷
type PaymentVerifyPayload struct {
	Reference string `json:"reference"`
}

// NewOrderReconcileTask 创建订单对账任务
func NewOrderReconcileTask(payload OrderReconcilePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderReconcile, body), nil
}

// NewPaymentVerifyTask 创建支付查询任务
func NewPaymentVerifyTask(payload PaymentVerifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPaymentVerify, body), nil
}
