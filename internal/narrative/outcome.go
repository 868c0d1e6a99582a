package narrative

import "errors"

// Outcome carries a narrative value and whether it came from the model or
// from the deterministic fallback. Value is always populated.
type Outcome[T any] struct {
	Value        T
	FallbackUsed bool
	// Reason is set when FallbackUsed is true.
	Reason error
}

// Source labels where the value came from: "model" or "fallback".
func (o Outcome[T]) Source() string {
	if o.FallbackUsed {
		return "fallback"
	}
	return "model"
}

// Cacheable reports whether the value may be stored for the cache window.
// Model output and fallbacks that a retry would reproduce (malformed reply,
// generation disabled) are cacheable. Transport failures, empty replies and
// rate limiting are transient.
func (o Outcome[T]) Cacheable() bool {
	if !o.FallbackUsed {
		return true
	}
	return errors.Is(o.Reason, ErrMalformedResponse) || errors.Is(o.Reason, ErrDisabled)
}

// reasonLabel maps a fallback reason onto a bounded metric label.
func reasonLabel(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrPrompt):
		return "prompt"
	default:
		return "transport"
	}
}
