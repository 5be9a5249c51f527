package request

// ApplySessionRequest is the body of the apply-session endpoint. DayOrder is
// the 1-based lesson day the user is booking and is required for non-theory
// instructor sessions; free practice ignores both fields.
type ApplySessionRequest struct {
	DayOrder *int `json:"day_order" validate:"omitempty,min=1,max=60"`
	IsTheory bool `json:"is_theory"`
}
