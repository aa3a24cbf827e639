package handler

import (
	"strings"
	"unicode/utf8"

	"domainagent/internal/verification"
	dErrors "domainagent/pkg/domain-errors"
	pstrings "domainagent/pkg/platform/strings"
)

const (
	maxMessageRunes = 4000
	maxKeywords     = 20
	maxCount        = 100
)

// SendMessageRequest is the body of POST /conversations/{id}/messages.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// Normalize leaves the message untouched; it is stored verbatim.
func (r *SendMessageRequest) Normalize() {}

func (r *SendMessageRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.Message) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "message is required")
	}
	if utf8.RuneCountInString(r.Message) > maxMessageRunes {
		return dErrors.New(dErrors.CodeInvalidInput, "message is too long")
	}
	return nil
}

// SuggestRequest is the body of POST /domains/suggest.
type SuggestRequest struct {
	Keywords []string `json:"keywords"`
	TLDs     []string `json:"tlds,omitempty"`
	MaxLen   int      `json:"max_len,omitempty"`
	MinLen   int      `json:"min_len,omitempty"`
	Count    int      `json:"count,omitempty"`
}

func (r *SuggestRequest) Normalize() {
	if r == nil {
		return
	}
	r.Keywords = pstrings.DedupeAndTrim(r.Keywords)
	r.TLDs = pstrings.DedupeAndTrimLower(r.TLDs)
}

func (r *SuggestRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Keywords) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "keywords are required")
	}
	if len(r.Keywords) > maxKeywords {
		return dErrors.New(dErrors.CodeInvalidInput, "too many keywords")
	}
	if r.MaxLen < 0 || r.MinLen < 0 || r.Count < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "lengths and count must not be negative")
	}
	if r.MaxLen > 0 && r.MinLen > r.MaxLen {
		return dErrors.New(dErrors.CodeInvalidInput, "min_len must not exceed max_len")
	}
	if r.Count > maxCount {
		return dErrors.New(dErrors.CodeInvalidInput, "count is too large")
	}
	return nil
}

func (r *SuggestRequest) toModel() verification.SuggestRequest {
	return verification.SuggestRequest{
		Keywords: r.Keywords,
		TLDs:     r.TLDs,
		MaxLen:   r.MaxLen,
		MinLen:   r.MinLen,
		Count:    r.Count,
	}
}
