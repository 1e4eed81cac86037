package response

import "github.com/bbasabana/redevance-sub001/pkg/apperr"

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Code       string      `json:"code,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError maps a coded service error to the response envelope, keeping the
// machine-readable code next to the human-readable message.
func FromError(err error) (int, Response) {
	code := apperr.CodeOf(err)
	statusCode := apperr.HTTPStatus(code)
	return statusCode, Response{
		Status:     "error",
		StatusCode: statusCode,
		Code:       string(code),
		Error:      err.Error(),
	}
}
