package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Request & Input-Validation Errors
var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidField         = errors.New("invalid field")
	ErrMaxBodySizeExceeded  = errors.New("max body size exceeded")
	ErrInvalidJSON          = errors.New("invalid JSON")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// Request protection errors
var (
	ErrCSRFTokenMissing  = errors.New("missing CSRF token")
	ErrCSRFTokenInvalid  = errors.New("invalid CSRF token")
	ErrRateLimitExceeded = errors.New("Too Many Requests")
)

// NewValidationError lists every field that failed validation.
func NewValidationError(fields []string) *ApiErr {
	e := &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrValidation,
		Details:    fmt.Sprintf("Invalid or missing fields: %s", joinFields(fields)),
		Fields:     fields,
	}
	if len(fields) == 1 {
		e.Field = fields[0]
	}
	return e
}

func NewInvalidFieldError(fieldName string, reason string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidField,
		Details:    fmt.Sprintf("Invalid field %s: %s", fieldName, reason),
		Field:      fieldName,
		Fields:     []string{fieldName},
	}
}

func NewMaxBodySizeExceededError(maxSize int64) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusRequestEntityTooLarge,
		err:        ErrMaxBodySizeExceeded,
		Details:    fmt.Sprintf("Request body size exceeded maximum allowed size of %d bytes", maxSize),
		Field:      "body_size",
	}
}

func NewInvalidJSONError(cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusBadRequest,
		err:        ErrInvalidJSON,
		Details:    "Invalid JSON format",
		Cause:      cause,
		Field:      "json",
	}
}

func NewUnsupportedMediaTypeError(contentType string) *ApiErr {
	details := fmt.Sprintf("Unsupported media type: %s", contentType)
	if contentType == "" {
		details = "Content-Type header is missing"
	}
	return &ApiErr{
		StatusCode: http.StatusUnsupportedMediaType,
		err:        ErrUnsupportedMediaType,
		Details:    details,
		Field:      "content_type",
	}
}

func NewCSRFMissingError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusForbidden,
		err:        ErrCSRFTokenMissing,
		Details:    "A CSRF token must be sent in the XSRF-TOKEN cookie and a matching header",
	}
}

func NewCSRFInvalidError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusForbidden,
		err:        ErrCSRFTokenInvalid,
		Details:    "CSRF token mismatch",
	}
}
