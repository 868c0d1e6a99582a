package advisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/h2operator/h2operator-backend/internal/compliance"
	"github.com/h2operator/h2operator-backend/internal/narrative"
)

type urgentResponse struct {
	UrgentAction *narrative.ActionGuidance `json:"urgentAction"`
	// Signal is the engine's selection the narrative was written from.
	Signal *compliance.UrgentAction `json:"signal,omitempty"`
}

type summaryResponse struct {
	Summary  narrative.FacilitySummary `json:"summary"`
	Analysis *compliance.Analysis      `json:"analysis,omitempty"`
}

type explainResponse struct {
	Explanation narrative.ViolationExplanation `json:"explanation"`
}

// cached pairs a response body with the narrative source it came from.
type cached[T any] struct {
	body   T
	source string
}

// explainRequest is the body of POST /violation/explain. The dashboard sends
// flags as "Y"/"N" and codes as strings or numbers.
type explainRequest struct {
	ViolationCode     looseString `json:"violationCode"`
	ViolationCategory looseString `json:"violationCategory"`
	RuleCode          looseString `json:"ruleCode"`
	IsHealthBased     indicator   `json:"isHealthBased"`
	IsMajor           indicator   `json:"isMajor"`
	ContaminantCode   looseString `json:"contaminantCode"`
}

// cacheKey identifies an explanation: code, category, rule and both flags.
func (r explainRequest) cacheKey() string {
	return fmt.Sprintf("%s-%s-%s-%s-%s",
		r.ViolationCode, r.ViolationCategory, r.RuleCode, r.IsHealthBased, r.IsMajor)
}

// looseString decodes a JSON string or number. null decodes as "".
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(strings.TrimSpace(v))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("expected string or number, got %s", b)
		}
		*s = looseString(n.String())
	}
	return nil
}

// indicator decodes the dataset's "Y"/"N" flags as well as JSON booleans.
type indicator bool

func (i *indicator) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*i = indicator(t)
	case string:
		switch strings.ToUpper(strings.TrimSpace(t)) {
		case "Y", "YES", "TRUE", "1":
			*i = true
		default:
			*i = false
		}
	case float64:
		*i = t != 0
	case nil:
		*i = false
	default:
		return fmt.Errorf("invalid indicator %s", b)
	}
	return nil
}

// String renders the flag the way the dataset stores it.
func (i indicator) String() string {
	if i {
		return "Y"
	}
	return "N"
}
