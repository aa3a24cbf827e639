package verification

// CheckRequest is the body of POST /domains/check.
type CheckRequest struct {
	Domains []string `json:"domains"`
}

// Result is the availability verdict for one submitted domain.
// Score and Price are passed through when the backend computes them.
type Result struct {
	Domain     string   `json:"domain"`
	Available  bool     `json:"available"`
	Signatures []string `json:"signatures"`
	Score      *float64 `json:"score,omitempty"`
	Price      string   `json:"price,omitempty"`
}

type checkResponse struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
}

// SuggestRequest is the body of POST /domains/suggest.
type SuggestRequest struct {
	Keywords []string `json:"keywords"`
	TLDs     []string `json:"tlds,omitempty"`
	MaxLen   int      `json:"max_len,omitempty"`
	MinLen   int      `json:"min_len,omitempty"`
	Count    int      `json:"count,omitempty"`
}

// Suggestion is one generated domain idea.
type Suggestion struct {
	Domain       string  `json:"domain"`
	Score        float64 `json:"score"`
	Reason       string  `json:"reason"`
	Length       int     `json:"length"`
	Memorability float64 `json:"memorability"`
}

type suggestResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
	Count       int          `json:"count"`
}
