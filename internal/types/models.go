package types

import (
	"fmt"
	"strings"
	"time"
)

// RawRecord is a comment as delivered by a supplier. Its shape is owned by the supplier.
type RawRecord map[string]any

// Classification is one label/confidence pair produced by an inference stage.
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type CanonicalRecord struct {
	Index      int        `json:"index"`
	ID         string     `json:"id"`
	Text       string     `json:"text"`
	TimeRaw    string     `json:"time_raw"`
	TimeEdited bool       `json:"time_edited"`
	Author     string     `json:"author"`
	Channel    string     `json:"channel"`
	Votes      *int       `json:"votes"`
	Replies    *int       `json:"replies"`
	PhotoURL   *string    `json:"photo_url"`
	Hearted    bool       `json:"hearted"`
	IsReply    bool       `json:"is_reply"`
	TimeParsed *time.Time `json:"time_parsed"`

	// nil until the corresponding stage has run
	Sentiment *Classification `json:"sentiment,omitempty"`
	Topic     *Classification `json:"topic,omitempty"`
}

// FrequencyTable counts records per label for one classification dimension.
type FrequencyTable map[string]int

// Total returns the sum of all counts.
func (t FrequencyTable) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

type SortOrder string

const (
	SortPopular SortOrder = "popular"
	SortRecent  SortOrder = "recent"
)

// ParseSortOrder accepts "popular" or "recent" (case-insensitive), or the menu
// numbers "1" and "2".
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "popular", "1":
		return SortPopular, nil
	case "recent", "2":
		return SortRecent, nil
	}
	return "", fmt.Errorf("invalid sort order %q: want popular or recent", s)
}

func (s SortOrder) Valid() bool {
	return s == SortPopular || s == SortRecent
}
