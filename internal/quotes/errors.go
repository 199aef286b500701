package quotes

import "fmt"

// QuoteErrorCode represents specific market data error types.
type QuoteErrorCode string

const (
	ErrProviderUnavailable QuoteErrorCode = "PROVIDER_UNAVAILABLE"
	ErrProviderTimeout     QuoteErrorCode = "PROVIDER_TIMEOUT"
	ErrProviderRateLimited QuoteErrorCode = "PROVIDER_RATE_LIMITED"
	ErrUnknownTicker       QuoteErrorCode = "UNKNOWN_TICKER"
	ErrMalformedResponse   QuoteErrorCode = "MALFORMED_RESPONSE"
)

// QuoteError is a structured error for market data failures.
type QuoteError struct {
	Code      QuoteErrorCode
	Message   string
	Retryable bool
	Cause     error
}

func (e *QuoteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *QuoteError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether this error is retryable.
func (e *QuoteError) IsRetryable() bool {
	return e.Retryable
}
