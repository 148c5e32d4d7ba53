// Package triage suggests a priority for a security report by scanning its
// text for known incident keywords.
package triage

import (
	"errors"
	"strings"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"

	"github.com/kittclouds/rtdb/internal/store"
)

// Rule maps a set of keywords to the priority they imply.
type Rule struct {
	Priority string
	Keywords []string
}

// DefaultRules are the keyword tiers used by the portal.
var DefaultRules = []Rule{
	{Priority: store.PriorityHigh, Keywords: []string{
		"senjata", "pisau", "kebakaran", "perampokan", "begal", "penyerangan",
		"penganiayaan", "penculikan", "ledakan", "pembunuhan", "tawuran", "kekerasan",
	}},
	{Priority: store.PriorityMedium, Keywords: []string{
		"pencurian", "maling", "pembobolan", "penipuan", "mencurigakan",
		"narkoba", "mabuk", "vandalisme",
	}},
	{Priority: store.PriorityLow, Keywords: []string{
		"parkir", "sampah", "kebisingan", "berisik", "lampu jalan", "hewan liar", "coretan",
	}},
}

var rank = map[string]int{
	store.PriorityLow:    1,
	store.PriorityMedium: 2,
	store.PriorityHigh:   3,
}

// Result is a triage outcome. Matched lists the keywords found, in text order.
type Result struct {
	Priority string   `json:"priority"`
	Matched  []string `json:"matched"`
}

// Triage is a compiled keyword automaton. It is safe for concurrent use.
type Triage struct {
	ac ahocorasick.AhoCorasick

	// pattern index -> priority
	priorities []string
	patterns   []string
}

// Compile builds a Triage from rules. A keyword listed under several
// priorities keeps the first one.
func Compile(rules []Rule) (*Triage, error) {
	t := &Triage{}
	seen := make(map[string]bool)

	for _, r := range rules {
		if _, ok := rank[r.Priority]; !ok {
			return nil, errors.New("triage: unknown priority " + r.Priority)
		}
		for _, kw := range r.Keywords {
			key := normalize(kw)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			t.patterns = append(t.patterns, key)
			t.priorities = append(t.priorities, r.Priority)
		}
	}
	if len(t.patterns) == 0 {
		return nil, errors.New("triage: no keywords")
	}

	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: true,
		MatchOnlyWholeWords:  false,
		MatchKind:            ahocorasick.LeftMostLongestMatch,
	})
	t.ac = builder.Build(t.patterns)
	return t, nil
}

// MustDefault compiles DefaultRules.
func MustDefault() *Triage {
	t, err := Compile(DefaultRules)
	if err != nil {
		panic(err)
	}
	return t
}

// Assess scans texts and returns the highest priority any keyword implies.
// Text with no keyword gets Medium.
func (t *Triage) Assess(texts ...string) Result {
	res := Result{Priority: store.PriorityMedium, Matched: []string{}}
	best := 0

	for _, text := range texts {
		for _, m := range t.ac.FindAll(normalize(text)) {
			p := t.priorities[m.Pattern()]
			res.Matched = append(res.Matched, t.patterns[m.Pattern()])
			if rank[p] > best {
				best = rank[p]
				res.Priority = p
			}
		}
	}
	return res
}

// AssessReport scans the incident type and the chronology of r.
func (t *Triage) AssessReport(r store.SecurityReport) Result {
	return t.Assess(r.JenisKejadian, r.Kronologi)
}

// normalize lower-cases and collapses whitespace so "Lampu  Jalan" matches.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
