package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CategoryListResponse represents all cached category forecasts
type CategoryListResponse struct {
	Forecasts []CategoryForecast `json:"forecasts"`
	Count     int                `json:"count"`
}

// ProductListResponse represents all cached product forecasts
type ProductListResponse struct {
	Forecasts []ProductForecast `json:"forecasts"`
	Count     int               `json:"count"`
}

// RefreshResponse acknowledges a background regeneration request
type RefreshResponse struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"` // accepted, already_running
	Message string `json:"message,omitempty"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
