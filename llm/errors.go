package llm

import "fmt"

// BaseError is the base type for all normalized provider failures.
type BaseError struct {
	Message string
	Cause   error
}

func (e *BaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BaseError) Unwrap() error { return e.Cause }

// ProviderError carries vendor context for an error surfaced by a provider
// API: which vendor, the HTTP status, and whether a retry is worthwhile.
type ProviderError struct {
	BaseError
	Provider   string
	StatusCode int
	Retryable  bool
	RetryAfter *float64
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s (status=%d)", e.Provider, e.Message, e.StatusCode)
}

// Typed provider failures.

type AuthError struct{ ProviderError }
type AccessDeniedError struct{ ProviderError }
type NotFoundError struct{ ProviderError }
type BadRequestError struct{ ProviderError }
type RateLimitError struct{ ProviderError }
type ServerError struct{ ProviderError }
type ContextLengthError struct{ ProviderError }

// Non-provider failures.

type TimeoutError struct{ BaseError }
type NetworkError struct{ BaseError }
type ConfigError struct{ BaseError }

// ErrorFromStatus maps an HTTP status code from a vendor API into the
// taxonomy. Unknown statuses default to a retryable ProviderError.
func ErrorFromStatus(provider string, statusCode int, message string, retryAfter *float64) error {
	pe := ProviderError{
		BaseError:  BaseError{Message: message},
		Provider:   provider,
		StatusCode: statusCode,
		RetryAfter: retryAfter,
	}

	switch statusCode {
	case 400, 422:
		return &BadRequestError{ProviderError: pe}
	case 401:
		return &AuthError{ProviderError: pe}
	case 403:
		return &AccessDeniedError{ProviderError: pe}
	case 404:
		return &NotFoundError{ProviderError: pe}
	case 413:
		return &ContextLengthError{ProviderError: pe}
	case 429:
		pe.Retryable = true
		return &RateLimitError{ProviderError: pe}
	case 500, 502, 503, 504:
		pe.Retryable = true
		return &ServerError{ProviderError: pe}
	default:
		pe.Retryable = true
		return &pe
	}
}

// IsRetryable reports whether a failure is safe to retry. The orchestration
// loop uses this together with its consecutive-error budget; adapters
// themselves never retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	switch e := err.(type) {
	case *AuthError, *AccessDeniedError, *NotFoundError, *BadRequestError, *ContextLengthError, *ConfigError:
		return false
	case *RateLimitError, *ServerError, *NetworkError, *TimeoutError:
		return true
	case *ProviderError:
		return e.Retryable
	default:
		// Unknown failures default to retryable.
		return true
	}
}
