package advisor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// narrativeSourceHeader tells the dashboard whether the text came from the
// model or the deterministic fallback.
const narrativeSourceHeader = "X-Narrative-Source"

// timing collects Server-Timing phases for one request.
type timing [][2]string

func (t *timing) add(name string, d time.Duration) {
	*t = append(*t, [2]string{name, fmt.Sprintf("%.1f", float64(d.Microseconds())/1000)})
}

func addServerTiming(w http.ResponseWriter, kv timing) {
	if len(kv) == 0 {
		return
	}
	parts := make([]string, 0, len(kv))
	for _, p := range kv {
		parts = append(parts, fmt.Sprintf("%s;dur=%s", p[0], p[1]))
	}
	w.Header().Add("Server-Timing", strings.Join(parts, ", "))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
