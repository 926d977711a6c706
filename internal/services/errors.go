// Package services provides the business logic layer between handlers
// and the forecasting pipeline. Services encapsulate orchestration,
// eligibility rules and persistence of generated forecasts.
package services

// Error codes surfaced in API responses and run logs. Per-entity
// failures are expected operating conditions, not fatal errors: an
// entity that cannot be modeled is rerouted to the fallback and the
// run keeps going.
const (
	CodeInsufficientHistory  = "INSUFFICIENT_HISTORY"
	CodeModelFitFailed       = "MODEL_FIT_FAILED"
	CodeInstabilityDetected  = "INSTABILITY_DETECTED"
	CodeInvalidObservation   = "INVALID_OBSERVATION"
	CodeRunInProgress        = "RUN_IN_PROGRESS"
	CodeSourceUnavailable    = "SOURCE_UNAVAILABLE"
	CodeForecastNotAvailable = "FORECAST_NOT_AVAILABLE"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}
