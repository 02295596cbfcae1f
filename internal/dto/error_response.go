package dto

import (
	"time"

	apperrors "orderflow/internal/errors"
)

type ErrorResponse struct {
	TraceID       string                       `json:"traceId"`
	Status        int                          `json:"status"`
	Code          string                       `json:"code"`
	Message       string                       `json:"message"`
	CurrentStatus string                       `json:"currentStatus,omitempty"`
	Details       []apperrors.ValidationDetail `json:"details,omitempty"`
	Timestamp     time.Time                    `json:"timestamp"`
}
