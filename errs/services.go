package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Configuration & Environment Errors
var (
	ErrConfigInvalid = errors.New("configuration invalid")
)

// Document store credential & client errors
var (
	ErrCredentialMalformed = errors.New("malformed document store credential")
	ErrNoCredentials       = errors.New("no document store credentials configured")
	ErrStoreNotInitialized = errors.New("document store not initialized")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrTimeout             = errors.New("timeout")
)

func NewConfigInvalidError(key string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrConfigInvalid,
		Details:    fmt.Sprintf("Invalid configuration value for %s", key),
		Field:      key,
		Cause:      cause,
	}
}

// NewCredentialMalformedError marks a credential source whose payload could not be decoded or parsed.
func NewCredentialMalformedError(source string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrCredentialMalformed,
		Details:    fmt.Sprintf("credential from %s could not be parsed", source),
		Cause:      cause,
	}
}

func NewStoreNotInitializedError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusServiceUnavailable,
		err:        ErrStoreNotInitialized,
		Details:    "The document store client is not ready",
	}
}

// NewDocumentStoreError maps a document store RPC failure to an API error.
func NewDocumentStoreError(operation string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s", operation)

	if errors.Is(cause, context.DeadlineExceeded) {
		return &ApiErr{StatusCode: http.StatusGatewayTimeout, err: ErrTimeout, Details: details, Cause: cause}
	}

	switch status.Code(cause) {
	case codes.NotFound:
		return &ApiErr{StatusCode: http.StatusNotFound, err: ErrNotFound, Details: details, Cause: cause}
	case codes.AlreadyExists:
		return &ApiErr{StatusCode: http.StatusConflict, err: ErrAlreadyExists, Details: details, Cause: cause}
	case codes.InvalidArgument, codes.FailedPrecondition:
		return &ApiErr{StatusCode: http.StatusBadRequest, err: ErrBadRequest, Details: details, Cause: cause}
	case codes.PermissionDenied, codes.Unauthenticated:
		return &ApiErr{StatusCode: http.StatusForbidden, err: ErrForbidden, Details: details, Cause: cause}
	case codes.Unavailable, codes.ResourceExhausted:
		return &ApiErr{StatusCode: http.StatusServiceUnavailable, err: ErrServiceUnavailable, Details: details, Cause: cause}
	case codes.DeadlineExceeded:
		return &ApiErr{StatusCode: http.StatusGatewayTimeout, err: ErrTimeout, Details: details, Cause: cause}
	}

	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrInternal,
		Details:    details,
		Cause:      cause,
	}
}

func IsCredentialMalformed(err error) bool {
	return errors.Is(err, ErrCredentialMalformed)
}
