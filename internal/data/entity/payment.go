package entity

import (
	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusAuthRequested  PaymentStatus = "AUTH_REQUESTED"
	PaymentStatusAuthSuccess    PaymentStatus = "AUTH_SUCCESS"
	PaymentStatusAuthFailed     PaymentStatus = "AUTH_FAILED"
	PaymentStatusCaptureSuccess PaymentStatus = "CAPTURE_SUCCESS"
	PaymentStatusCaptureFailed  PaymentStatus = "CAPTURE_FAILED"
	PaymentStatusCancelSuccess  PaymentStatus = "CANCEL_SUCCESS"
)

// Payment is one PG attempt against an order. The gateway's own
// request/response payloads are stored as raw JSON; the core only reads
// the flow status.
type Payment struct {
	Base
	OrderID       uuid.UUID     `db:"order_id"`
	AttemptNumber int           `db:"attempt_number"`
	Amount        float64       `db:"amount"`
	Status        PaymentStatus `db:"status"`
	PGProvider    string        `db:"pg_provider"`
	Moid          string        `db:"moid"`
	TID           *string       `db:"tid"`
	RawRequest    []byte        `db:"raw_request"`
	RawResponse   []byte        `db:"raw_response"`
	ErrorCode     *string       `db:"error_code"`
	ErrorMessage  *string       `db:"error_message"`
}
