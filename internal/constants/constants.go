package constants

// 订单状态常量
const (
	OrderStatusPending   = "Pending"
	OrderStatusPreparing = "Preparing"
	OrderStatusReady     = "Ready"
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
)

// 支付状态常量
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// 支付方式常量
const (
	PaymentMethodPaystack = "paystack"
)

// 顾客状态常量
const (
	CustomerStatusActive   = "active"
	CustomerStatusDisabled = "disabled"
)

// VendorTokenAudience 商家 Token 的 audience
const VendorTokenAudience = "vendor"

// 购物车存储后端
const (
	CartStoreDatabase = "database"
	CartStoreMongoDB  = "mongodb"
)

// 购物车限制
const (
	DefaultMaxCartPacks = 20
)

// Paystack 回调事件
const (
	PaystackEventChargeSuccess = "charge.success"
	PaystackEventChargeFailed  = "charge.failed"
)

// 队列常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskOrderReconcile = "order:reconcile"
	TaskPaymentVerify  = "payment:verify"
)
