package inference

import (
	"context"
	"hash/fnv"
	"sort"
	"strings"
)

// Mock is an offline stand-in for both models. Output depends only on the input
// text and categories, so repeated runs give identical results.
type Mock struct {
	positive []string
	negative []string
}

var _ SentimentModel = (*Mock)(nil)
var _ TopicModel = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{
		positive: []string{"good", "great", "love", "thanks", "thank you", "awesome", "nice", "harika", "güzel", "teşekkür", "süper", "mükemmel"},
		negative: []string{"bad", "hate", "terrible", "awful", "worst", "boring", "kötü", "berbat", "rezalet", "sıkıcı", "şikayet"},
	}
}

func (m *Mock) Sentiment(_ context.Context, texts []string, _ int) ([]SentimentResult, error) {
	out := make([]SentimentResult, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		pos := countHits(lower, m.positive)
		neg := countHits(lower, m.negative)
		switch {
		case pos > neg:
			out[i] = SentimentResult{Label: "positive", Score: confidence(pos - neg)}
		case neg > pos:
			out[i] = SentimentResult{Label: "negative", Score: confidence(neg - pos)}
		default:
			out[i] = SentimentResult{Label: "neutral", Score: 0.5}
		}
	}
	return out, nil
}

// ZeroShot scores each category by a stable hash of (text, category), boosted
// when the text mentions the category name, then normalizes and ranks.
func (m *Mock) ZeroShot(_ context.Context, texts []string, categories []string, _ int) ([]TopicResult, error) {
	out := make([]TopicResult, len(texts))
	for i, t := range texts {
		lower := strings.ToLower(t)
		type scored struct {
			label string
			score float64
		}
		ranked := make([]scored, len(categories))
		total := 0.0
		for j, c := range categories {
			s := 1 + float64(hash(t, c)%100)/100
			if strings.Contains(lower, strings.ToLower(c)) {
				s += 10
			}
			ranked[j] = scored{label: c, score: s}
			total += s
		}
		sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

		res := TopicResult{Labels: make([]string, len(ranked)), Scores: make([]float64, len(ranked))}
		for j, r := range ranked {
			res.Labels[j] = r.label
			res.Scores[j] = r.score / total
		}
		out[i] = res
	}
	return out, nil
}

func countHits(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

func confidence(margin int) float64 {
	return min(0.6+0.1*float64(margin), 0.99)
}

func hash(parts ...string) uint32 {
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum32()
}
