package dto

// APIResponse is the success envelope shared by every endpoint.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
}

// NewAPIResponse builds a success envelope. success is true for any status below 400.
func NewAPIResponse(statusCode int, data any, message string) APIResponse {
	if message == "" {
		message = "Success"
	}
	return APIResponse{StatusCode: statusCode, Data: data, Message: message, Success: statusCode < 400}
}

// NewErrorResponse builds a failure envelope.
func NewErrorResponse(statusCode int, message string, errs ...string) ErrorResponse {
	if message == "" {
		message = "Something went wrong"
	}
	return ErrorResponse{StatusCode: statusCode, Message: message, Success: false, Errors: errs}
}
