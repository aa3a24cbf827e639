package turn

// State is the orchestrator's per-turn lifecycle. Every turn starts and ends
// in StateIdle.
type State string

const (
	StateIdle                 State = "idle"
	StateSending              State = "sending"
	StateAwaitingVerification State = "awaiting_verification"
)

// OutcomeKind classifies how a call to Send ended.
type OutcomeKind string

const (
	// OutcomeRejected means the send was ignored: blank text or a turn
	// already in flight. Nothing was appended and no backend was called.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeReplied means the assistant answered without candidates.
	OutcomeReplied OutcomeKind = "replied"
	// OutcomeVerified means candidates were verified and merged.
	OutcomeVerified OutcomeKind = "verified"
	// OutcomeVerificationUnavailable means verification failed and
	// placeholder rows were emitted instead.
	OutcomeVerificationUnavailable OutcomeKind = "verification_unavailable"
	// OutcomeChatFailed means the chat step failed and the fixed error
	// message was appended.
	OutcomeChatFailed OutcomeKind = "chat_failed"
)

// Outcome reports what a turn did.
type Outcome struct {
	Kind OutcomeKind
	// Results is the list emitted by this turn. Nil unless Emitted.
	Results []Result
	Emitted bool
}

// Result is one rendered domain row.
type Result struct {
	Domain     string   `json:"domain"`
	Available  bool     `json:"available"`
	Score      *float64 `json:"score,omitempty"`
	Signatures []string `json:"signatures,omitempty"`
	Reason     string   `json:"reason"`
	Price      string   `json:"price,omitempty"`
	// Placeholder marks rows produced while verification was unavailable.
	// Their availability and score carry no information.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Clone returns a copy sharing no memory with r.
func (r Result) Clone() Result {
	if r.Score != nil {
		score := *r.Score
		r.Score = &score
	}
	if r.Signatures != nil {
		r.Signatures = append([]string{}, r.Signatures...)
	}
	return r
}

// CloneResults deep-copies a result list. nil stays nil.
func CloneResults(in []Result) []Result {
	if in == nil {
		return nil
	}
	out := make([]Result, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// Candidate is a domain proposed by the chat backend with its reason.
type Candidate struct {
	Domain string
	Reason string
}
