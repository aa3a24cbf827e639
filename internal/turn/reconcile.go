package turn

import (
	"domainagent/internal/chat"
	"domainagent/internal/verification"
)

// reasonIndex looks up chat-provided reasons by match key. The first reason
// given for a key wins.
type reasonIndex struct {
	mode    MatchMode
	reasons map[string]string
}

func newReasonIndex(mode MatchMode, entries []chat.DomainReason) reasonIndex {
	idx := reasonIndex{mode: mode, reasons: make(map[string]string, len(entries))}
	for _, e := range entries {
		key := mode.Key(e.Domain)
		if _, seen := idx.reasons[key]; !seen {
			idx.reasons[key] = e.Reason
		}
	}
	return idx
}

func (r reasonIndex) lookup(domain string) (string, bool) {
	reason, ok := r.reasons[r.mode.Key(domain)]
	return reason, ok
}

// candidates pairs each proposed domain with its reason, keeping the
// proposal order and duplicates.
func candidates(p *chat.Payload, idx reasonIndex) []Candidate {
	out := make([]Candidate, 0, len(p.Domains))
	for _, d := range p.Domains {
		reason, _ := idx.lookup(d)
		out = append(out, Candidate{Domain: d, Reason: reason})
	}
	return out
}

// mergeReport describes what reconciliation had to paper over.
type mergeReport struct {
	// Candidates with no verification row.
	Omitted []string
	// Verified domains with no reason in the chat payload.
	MissingReasons []string
}

// merge combines verification rows with candidate reasons. Rows follow the
// candidate order; each candidate consumes the first unused row with the same
// key. Rows no candidate claimed follow in backend order. Candidates the
// backend did not return are left out.
func merge(cands []Candidate, verified []verification.Result, idx reasonIndex) ([]Result, mergeReport) {
	var report mergeReport

	queues := make(map[string][]int, len(verified))
	for i, v := range verified {
		key := idx.mode.Key(v.Domain)
		queues[key] = append(queues[key], i)
	}

	used := make([]bool, len(verified))
	out := make([]Result, 0, len(verified))
	appendRow := func(i int) {
		used[i] = true
		row := fromVerification(verified[i])
		reason, ok := idx.lookup(row.Domain)
		if !ok {
			report.MissingReasons = append(report.MissingReasons, row.Domain)
		}
		row.Reason = reason
		out = append(out, row)
	}

	for _, c := range cands {
		key := idx.mode.Key(c.Domain)
		q := queues[key]
		if len(q) == 0 {
			report.Omitted = append(report.Omitted, c.Domain)
			continue
		}
		queues[key] = q[1:]
		appendRow(q[0])
	}
	for i := range verified {
		if !used[i] {
			appendRow(i)
		}
	}
	return out, report
}

func fromVerification(v verification.Result) Result {
	r := Result{
		Domain:    v.Domain,
		Available: v.Available,
		Price:     v.Price,
	}
	if v.Score != nil {
		score := *v.Score
		r.Score = &score
	}
	if v.Signatures != nil {
		r.Signatures = append([]string{}, v.Signatures...)
	}
	return r
}

// placeholders builds one row per candidate, duplicates included, for when
// verification is unavailable.
func placeholders(cands []Candidate, policy PlaceholderPolicy) []Result {
	out := make([]Result, 0, len(cands))
	for _, c := range cands {
		available, score := policy.Placeholder(c.Domain)
		s := float64(score)
		out = append(out, Result{
			Domain:      c.Domain,
			Available:   available,
			Score:       &s,
			Reason:      c.Reason,
			Placeholder: true,
		})
	}
	return out
}
