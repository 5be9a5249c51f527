package entity

import (
	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "PENDING"
	OrderStatusPaymentAttempted  OrderStatus = "PAYMENT_ATTEMPTED"
	OrderStatusPaymentProcessing OrderStatus = "PAYMENT_PROCESSING"
	OrderStatusConfirmed         OrderStatus = "CONFIRMED"
	OrderStatusCancelled         OrderStatus = "CANCELLED"
	OrderStatusCompleted         OrderStatus = "COMPLETED"
	OrderStatusPaymentFailed     OrderStatus = "PAYMENT_FAILED"
)

// Order records a purchase of a lesson product. A confirmed order issues
// exactly one ticket.
type Order struct {
	Base
	UserID          uuid.UUID   `db:"user_id"`
	LessonProductID uuid.UUID   `db:"lesson_product_id"`
	OrderID         string      `db:"order_id"` // merchant order number, sent to the PG as moid
	Quantity        int         `db:"quantity"`
	TotalAmount     float64     `db:"total_amount"`
	Status          OrderStatus `db:"status"`
}
