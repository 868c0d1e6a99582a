package narrative

import (
	"log"
	"time"
)

// LogRequest logs a completion call being made.
func LogRequest(kind Kind, model string) {
	log.Printf("[narrative] %s request model=%s", kind, model)
}

// LogResponse logs a completion reply.
func LogResponse(kind Kind, duration time.Duration, tokens int) {
	log.Printf("[narrative] %s response duration=%dms tokens=%d",
		kind, duration.Milliseconds(), tokens)
}

// LogFallback logs that a deterministic narrative replaced the model output.
func LogFallback(kind Kind, key string, reason error) {
	log.Printf("[narrative] %s fallback key=%s reason: %v", kind, key, reason)
}
