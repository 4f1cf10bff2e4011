package notification

import (
	"fmt"
	"strings"
	"time"
)

const msgNothingToProcess = "nothing to process"

type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Attempt is the outcome of processing one queued event.
type Attempt struct {
	RunID   string
	Kind    Kind
	Key     string
	Outcome Outcome
	Error   string
	At      time.Time
}

// KindResult aggregates the attempts of one queue.
type KindResult struct {
	Kind      Kind   `json:"kind"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Eligible  int    `json:"eligible"`
	Delivered int    `json:"delivered"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

func newKindResult(kind Kind, attempts []Attempt) KindResult {
	res := KindResult{Kind: kind, Eligible: len(attempts)}
	for _, a := range attempts {
		switch a.Outcome {
		case OutcomeDelivered:
			res.Delivered++
		case OutcomeSkipped:
			res.Skipped++
		case OutcomeFailed:
			res.Failed++
		}
	}

	if res.Eligible == 0 {
		res.Success = true
		res.Message = msgNothingToProcess
		return res
	}
	res.Message = fmt.Sprintf("processed %d (delivered %d, skipped %d, failed %d)",
		res.Eligible, res.Delivered, res.Skipped, res.Failed)
	res.Success = res.Failed == 0
	if !res.Success {
		res.Error = fmt.Sprintf("%d of %d %s deliveries failed", res.Failed, res.Eligible, kind.label())
	}
	return res
}

func failedKindResult(kind Kind) KindResult {
	return KindResult{
		Kind:  kind,
		Error: fmt.Sprintf("failed to process %s notifications", kind.label()),
	}
}

// Result of a dispatch run. Success is the AND of every processed queue.
type Result struct {
	RunID    string       `json:"run_id"`
	Selector Selector     `json:"selector"`
	Kinds    []KindResult `json:"kinds"`
}

func (r Result) Success() bool {
	for _, k := range r.Kinds {
		if !k.Success {
			return false
		}
	}
	return true
}

// Message is the status of the single processed queue, or a {kind: status} map.
func (r Result) Message() interface{} {
	if r.Selector != SelectAll && len(r.Kinds) == 1 {
		return r.Kinds[0].Message
	}
	msgs := make(map[Kind]string, len(r.Kinds))
	for _, k := range r.Kinds {
		msgs[k.Kind] = k.Message
	}
	return msgs
}

func (r Result) Error() string {
	var errs []string
	for _, k := range r.Kinds {
		if k.Error != "" {
			errs = append(errs, k.Error)
		}
	}
	return strings.Join(errs, "; ")
}

// Envelope is the JSON shape returned to triggers.
type Envelope struct {
	Success bool        `json:"success"`
	Message interface{} `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (r Result) Envelope() Envelope {
	return Envelope{
		Success: r.Success(),
		Message: r.Message(),
		Error:   r.Error(),
	}
}
