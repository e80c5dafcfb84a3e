// Package normalize converts raw supplier comments into the canonical record schema.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"comment-insights-go/internal/errors"
	"comment-insights-go/internal/types"
)

const editedMarker = "(edited)"

// Raw keys read from a supplier record.
const (
	KeyID         = "cid"
	KeyText       = "text"
	KeyTime       = "time"
	KeyEdited     = "edited"
	KeyAuthor     = "author"
	KeyChannel    = "channel"
	KeyVotes      = "votes"
	KeyReplies    = "replies"
	KeyPhoto      = "photo"
	KeyHeart      = "heart"
	KeyReply      = "reply"
	KeyTimeParsed = "time_parsed"
)

// SplitEdited removes the "(edited)" marker from a relative time string.
func SplitEdited(timeText string) (string, bool) {
	if !strings.Contains(timeText, editedMarker) {
		return timeText, false
	}
	return strings.TrimSpace(strings.ReplaceAll(timeText, editedMarker, "")), true
}

// Normalize builds a CanonicalRecord from raw. Only a missing or blank text is an error.
func Normalize(raw types.RawRecord, index int) (types.CanonicalRecord, error) {
	text, ok := raw[KeyText].(string)
	if !ok {
		return types.CanonicalRecord{}, errors.NewInvalidRecord(index, "missing text field")
	}
	if strings.TrimSpace(text) == "" {
		return types.CanonicalRecord{}, errors.NewInvalidRecord(index, "empty text field")
	}

	timeRaw, edited := SplitEdited(stringField(raw, KeyTime))
	// exported sheets carry the marker in a separate column
	edited = edited || boolField(raw, KeyEdited)

	rec := types.CanonicalRecord{
		Index:      index,
		ID:         stringField(raw, KeyID),
		Text:       text,
		TimeRaw:    timeRaw,
		TimeEdited: edited,
		Author:     stringField(raw, KeyAuthor),
		Channel:    stringField(raw, KeyChannel),
		Votes:      countField(raw, KeyVotes),
		Replies:    countField(raw, KeyReplies),
		Hearted:    boolField(raw, KeyHeart),
		IsReply:    boolField(raw, KeyReply),
		TimeParsed: timeField(raw, KeyTimeParsed),
	}
	if photo := stringField(raw, KeyPhoto); photo != "" {
		rec.PhotoURL = &photo
	}
	return rec, nil
}

// All normalizes raws in order, assigning 1-based indexes. Invalid records are
// dropped and counted; their index is not reused.
func All(raws []types.RawRecord) ([]types.CanonicalRecord, int) {
	out := make([]types.CanonicalRecord, 0, len(raws))
	dropped := 0
	for i, raw := range raws {
		rec, err := Normalize(raw, i+1)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}

func stringField(raw types.RawRecord, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func boolField(raw types.RawRecord, key string) bool {
	switch v := raw[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && b
	}
	return false
}

func countField(raw types.RawRecord, key string) *int {
	var n int
	switch v := raw[key].(type) {
	case int:
		if v < 0 {
			return nil
		}
		n = v
	case int64:
		c, ok := countFromFloat(float64(v))
		if !ok {
			return nil
		}
		n = c
	case float64:
		c, ok := countFromFloat(v)
		if !ok {
			return nil
		}
		n = c
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		c, ok := countFromFloat(f)
		if !ok {
			return nil
		}
		n = c
	case string:
		parsed, ok := ParseCount(v)
		if !ok {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	return &n
}

// ParseCount parses counts as rendered by comment pages: "42", "1,234", "1.2K", "3M".
// Anything else, including exponents and values beyond int range, is rejected.
func ParseCount(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'K', 'k':
		mult = 1e3
		s = s[:len(s)-1]
	case 'M', 'm':
		mult = 1e6
		s = s[:len(s)-1]
	case 'B', 'b':
		mult = 1e9
		s = s[:len(s)-1]
	}
	if !plainDecimal(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return countFromFloat(f * mult)
}

// plainDecimal reports whether s is digits with at most one decimal point.
func plainDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// countFromFloat rounds f to a count. Negative, non-finite and out of range
// values are rejected.
func countFromFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	f = math.Round(f)
	if f >= float64(math.MaxInt) {
		return 0, false
	}
	return int(f), true
}

func timeField(raw types.RawRecord, key string) *time.Time {
	var t time.Time
	switch v := raw[key].(type) {
	case time.Time:
		t = v
	case float64:
		t = unixSeconds(v)
	case int64:
		t = time.Unix(v, 0)
	case int:
		t = time.Unix(int64(v), 0)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		t = unixSeconds(f)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			t = unixSeconds(f)
		} else if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			t = parsed
		} else {
			return nil
		}
	default:
		return nil
	}
	t = t.UTC()
	return &t
}

func unixSeconds(f float64) time.Time {
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9))
}
