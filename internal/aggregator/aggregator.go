package aggregator

import (
	"cmp"
	"slices"

	"comment-insights-go/internal/types"
)

// Selector picks the label to count. ok=false excludes the record.
type Selector func(types.CanonicalRecord) (label string, ok bool)

// BySentiment selects the sentiment label, if the sentiment stage has run.
func BySentiment(r types.CanonicalRecord) (string, bool) {
	if r.Sentiment == nil {
		return "", false
	}
	return r.Sentiment.Label, true
}

// ByTopic selects the topic label, if the topic stage has run.
func ByTopic(r types.CanonicalRecord) (string, bool) {
	if r.Topic == nil {
		return "", false
	}
	return r.Topic.Label, true
}

// Aggregate counts selected labels. Records without the field are not counted.
func Aggregate(records []types.CanonicalRecord, sel Selector) types.FrequencyTable {
	counts := types.FrequencyTable{}
	for _, r := range records {
		if label, ok := sel(r); ok {
			counts[label]++
		}
	}
	return counts
}

type Report struct {
	Sentiment  types.FrequencyTable `json:"sentiment"`
	Topic      types.FrequencyTable `json:"topic"`
	Total      int                  `json:"total"`
	Classified int                  `json:"classified"`
}

// Summarize builds both distribution tables for the reporting view.
func Summarize(records []types.CanonicalRecord) Report {
	classified := 0
	for _, r := range records {
		if r.Sentiment != nil && r.Topic != nil {
			classified++
		}
	}
	return Report{
		Sentiment:  Aggregate(records, BySentiment),
		Topic:      Aggregate(records, ByTopic),
		Total:      len(records),
		Classified: classified,
	}
}

type Entry struct {
	Label string
	Count int
}

// Sorted orders a table by count (descending), then label.
func Sorted(t types.FrequencyTable) []Entry {
	out := make([]Entry, 0, len(t))
	for label, n := range t {
		out = append(out, Entry{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}
