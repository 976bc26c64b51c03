package manager

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a ProviderError.
type Kind int

const (
	KindInvalidQuery Kind = iota + 1
	KindNetwork
	KindCancelled
	KindProvider
	KindDecode
)

// Sentinels usable with errors.Is against any *ProviderError of that kind.
var (
	ErrInvalidQuery = &ProviderError{Kind: KindInvalidQuery}
	ErrNetwork      = &ProviderError{Kind: KindNetwork}
	ErrCancelled    = &ProviderError{Kind: KindCancelled}
	ErrProvider     = &ProviderError{Kind: KindProvider}
	ErrDecode       = &ProviderError{Kind: KindDecode}
)

func (k Kind) String() string {
	switch k {
	case KindInvalidQuery:
		return "invalid query"
	case KindNetwork:
		return "network"
	case KindCancelled:
		return "cancelled"
	case KindProvider:
		return "provider"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// ProviderError is the only error type returned by provider clients and the facade.
type ProviderError struct {
	Kind     Kind
	Provider string
	Message  string
	// Status and Body are set for KindProvider.
	Status int
	Body   string
	Err    error
}

func (e *ProviderError) Error() string {
	msg := e.Kind.String()
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Kind == KindProvider && e.Status != 0 {
		msg = fmt.Sprintf("%s: status code %d", msg, e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is matches on Kind so the package sentinels work with errors.Is.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Status == 0 && t.Message == "" && t.Err == nil
}

func InvalidQuery(provider, format string, args ...any) *ProviderError {
	return &ProviderError{Kind: KindInvalidQuery, Provider: provider, Message: fmt.Sprintf(format, args...)}
}

func NetworkError(provider string, err error) *ProviderError {
	return &ProviderError{Kind: KindNetwork, Provider: provider, Err: err}
}

func CancelledError(provider string, err error) *ProviderError {
	return &ProviderError{Kind: KindCancelled, Provider: provider, Err: err}
}

func StatusError(provider string, status int, body string) *ProviderError {
	return &ProviderError{Kind: KindProvider, Provider: provider, Status: status, Body: body}
}

func DecodeError(provider string, err error) *ProviderError {
	return &ProviderError{Kind: KindDecode, Provider: provider, Err: err}
}

// KindOf returns the kind of the first ProviderError in err's chain, or 0.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

// IsAuthError reports a rejected or missing credential.
func IsAuthError(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != KindProvider {
		return false
	}
	return pe.Status == http.StatusUnauthorized || pe.Status == http.StatusForbidden
}

// IsQuotaExceeded reports an exhausted quota or a rate limit hit.
// OpenCage answers 402 once the daily quota is spent.
func IsQuotaExceeded(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != KindProvider {
		return false
	}
	return pe.Status == http.StatusPaymentRequired || pe.Status == http.StatusTooManyRequests
}

// IsRetryable reports transient failures: transport errors, 429 and 5xx.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Kind {
	case KindNetwork:
		return true
	case KindProvider:
		return pe.Status == http.StatusTooManyRequests || pe.Status >= 500
	default:
		return false
	}
}
