package fetch

import (
	"bytes"
	"encoding/json"
)

// Outcome is the provider-level result of a 200 response.
type Outcome int

const (
	OutcomeOK Outcome = iota
	// OutcomeQuotaExceeded is a soft rate limit: HTTP 200 with a Note or
	// Information message instead of data.
	OutcomeQuotaExceeded
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeQuotaExceeded:
		return "quota"
	case OutcomeError:
		return "api_error"
	default:
		return "ok"
	}
}

type Classification struct {
	Outcome Outcome
	Message string
}

// Classify inspects a provider body for in-band failures. Bodies that are
// not JSON objects are passed through as OK for the decoder to judge.
func Classify(body []byte) Classification {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return Classification{Outcome: OutcomeOK}
	}

	var envelope struct {
		ErrorMessage *string `json:"Error Message"`
		Note         *string `json:"Note"`
		Information  *string `json:"Information"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Classification{Outcome: OutcomeOK}
	}

	switch {
	case envelope.ErrorMessage != nil:
		return Classification{Outcome: OutcomeError, Message: *envelope.ErrorMessage}
	case envelope.Note != nil:
		return Classification{Outcome: OutcomeQuotaExceeded, Message: *envelope.Note}
	case envelope.Information != nil:
		return Classification{Outcome: OutcomeQuotaExceeded, Message: *envelope.Information}
	}
	return Classification{Outcome: OutcomeOK}
}
