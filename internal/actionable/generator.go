package actionable

import (
	"fmt"
	"strings"

	"comment-insights-go/internal/aggregator"
)

const (
	negativeThreshold = 0.35
	topicThreshold    = 0.40
)

type ActionCard struct {
	Insight string `json:"insight"`
	Action  string `json:"action"`
	Impact  string `json:"impact"`
}

// topicActions maps a dominant topic category to a follow-up.
var topicActions = map[string]ActionCard{
	"Şikayet": {
		Action: "Review the most voted complaints and reply with a fix or a timeline",
		Impact: "Contain negative word of mouth",
	},
	"Sorular": {
		Action: "Pin a FAQ comment or answer recurring questions in the description",
		Impact: "Fewer repeated questions, faster answers for viewers",
	},
	"Öneri": {
		Action: "Collect suggestions into the content backlog",
		Impact: "Topics the audience already asked for",
	},
	"Spam": {
		Action: "Tighten comment moderation filters",
		Impact: "Cleaner discussion and more reliable signals",
	},
}

// Generate derives follow-up cards from a report. A report with nothing
// classified yields a single monitoring card.
func Generate(r aggregator.Report) []ActionCard {
	var cards []ActionCard

	if total := r.Sentiment.Total(); total > 0 {
		neg := 0
		for label, n := range r.Sentiment {
			if strings.EqualFold(label, "negative") {
				neg += n
			}
		}
		if share := float64(neg) / float64(total); share >= negativeThreshold {
			cards = append(cards, ActionCard{
				Insight: fmt.Sprintf("High negative sentiment (%.0f%%)", share*100),
				Action:  "Read the negative comments first and address the common cause publicly",
				Impact:  "Recover audience trust",
			})
		}
	}

	if total := r.Topic.Total(); total > 0 {
		if top := aggregator.Sorted(r.Topic); len(top) > 0 {
			share := float64(top[0].Count) / float64(total)
			if card, ok := topicActions[top[0].Label]; ok && share >= topicThreshold {
				card.Insight = fmt.Sprintf("%s dominates the discussion (%.0f%%)", top[0].Label, share*100)
				cards = append(cards, card)
			}
		}
	}

	if len(cards) == 0 {
		cards = append(cards, ActionCard{
			Insight: "No strong pattern detected",
			Action:  "Monitor and collect more comments",
			Impact:  "Low immediate intervention",
		})
	}
	return cards
}
