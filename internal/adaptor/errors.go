package adaptor

import (
	"errors"
	"net/http"
	"strings"

	"lesson-booking/internal/data/entity"
	"lesson-booking/pkg/utils"

	"go.uber.org/zap"
)

// statusFor maps a booking error to its HTTP status. Conflicts with the
// current state of the slot or order are 409; everything the caller could
// have known up front is 400; lookups that found nothing are 404.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrDuplicateReservation),
		errors.Is(err, entity.ErrCapacityExceeded),
		errors.Is(err, entity.ErrSlotNotOpen),
		errors.Is(err, entity.ErrOrderNotPayable):
		return http.StatusConflict
	case errors.Is(err, entity.ErrReservationNotFound),
		errors.Is(err, entity.ErrSlotNotFound),
		errors.Is(err, entity.ErrOrderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

// handleServiceError writes the error response for a failed service call.
// Booking errors carry a stable machine code alongside the message.
func handleServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	errMsg := err.Error()

	if code := entity.ErrorCode(err); code != "" {
		log.Warn(operation+" failed",
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("code", code),
		)
		utils.ResponseError(w, statusFor(err), code, errMsg)
		return
	}

	switch {
	case strings.Contains(errMsg, "not found"):
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, errMsg)

	case strings.Contains(errMsg, "validation failed"),
		strings.Contains(errMsg, "invalid"):
		log.Warn(operation+" failed - bad input",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, errMsg, nil)

	case strings.Contains(errMsg, "already registered"),
		strings.Contains(errMsg, "already exists"):
		log.Warn(operation+" failed - conflict",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, errMsg)

	default:
		log.Error(operation+" failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
