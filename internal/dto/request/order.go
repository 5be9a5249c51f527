package request

type CreateOrderRequest struct {
	LessonProductID string `json:"lesson_product_id" validate:"required,uuid4"`
	Quantity        int    `json:"quantity" validate:"required,min=1,max=10"`
}

// PaymentResultRequest mirrors the gateway callback: the raw payload is
// stored as-is, only the listed fields drive the order state machine.
type PaymentResultRequest struct {
	OrderID      string `json:"order_id" validate:"required"`
	Success      bool   `json:"success"`
	TID          string `json:"tid" validate:"omitempty,max=100"`
	ErrorCode    string `json:"error_code" validate:"omitempty,max=50"`
	ErrorMessage string `json:"error_message" validate:"omitempty,max=500"`
}
