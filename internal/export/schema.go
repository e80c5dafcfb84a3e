// Package export exposes the selectable column schema of enriched comments and
// writes a chosen subset to a spreadsheet.
package export

import (
	"fmt"
	"strings"
	"time"

	"comment-insights-go/internal/errors"
	"comment-insights-go/internal/types"
)

// Field is one exportable column, named by its spreadsheet header.
type Field string

const (
	FieldIndex          Field = "Index"
	FieldCommentID      Field = "Comment ID"
	FieldText           Field = "Text"
	FieldTime           Field = "Time"
	FieldEdited         Field = "Edited"
	FieldAuthor         Field = "Author"
	FieldChannel        Field = "Channel"
	FieldVotes          Field = "Votes"
	FieldReplies        Field = "Replies"
	FieldPhotoURL       Field = "Photo URL"
	FieldHearted        Field = "Hearted"
	FieldReply          Field = "Reply"
	FieldTimeParsed     Field = "Time Parsed"
	FieldSentiment      Field = "Sentiment"
	FieldSentimentScore Field = "Sentiment_Score"
	FieldTopic          Field = "Topic"
	FieldTopicScore     Field = "Topic_Score"
)

// BaseFields are present on every normalized record, in column order.
var BaseFields = []Field{
	FieldIndex, FieldCommentID, FieldText, FieldTime, FieldEdited, FieldAuthor, FieldChannel,
	FieldVotes, FieldReplies, FieldPhotoURL, FieldHearted, FieldReply, FieldTimeParsed,
}

// EnrichedFields are added by the classification stages, in column order.
var EnrichedFields = []Field{FieldSentiment, FieldSentimentScore, FieldTopic, FieldTopicScore}

// AllFields is the full column order.
func AllFields() []Field {
	return append(append([]Field(nil), BaseFields...), EnrichedFields...)
}

// Column describes one field and whether the current record set carries it.
type Column struct {
	Field     Field `json:"field"`
	Enriched  bool  `json:"enriched"`
	Populated bool  `json:"populated"`
}

// Schema lists every field. Base fields are always populated; an enriched field
// is populated once any record has the corresponding classification.
func Schema(records []types.CanonicalRecord) []Column {
	hasSentiment, hasTopic := false, false
	for _, r := range records {
		hasSentiment = hasSentiment || r.Sentiment != nil
		hasTopic = hasTopic || r.Topic != nil
	}

	cols := make([]Column, 0, len(BaseFields)+len(EnrichedFields))
	for _, f := range BaseFields {
		cols = append(cols, Column{Field: f, Populated: true})
	}
	for _, f := range EnrichedFields {
		populated := hasTopic
		if f == FieldSentiment || f == FieldSentimentScore {
			populated = hasSentiment
		}
		cols = append(cols, Column{Field: f, Enriched: true, Populated: populated})
	}
	return cols
}

// Populated returns the populated fields of the schema, in column order.
func Populated(records []types.CanonicalRecord) []Field {
	var out []Field
	for _, c := range Schema(records) {
		if c.Populated {
			out = append(out, c.Field)
		}
	}
	return out
}

// ParseFields resolves header names (case-insensitive) to fields, keeping the
// caller's order and dropping repeats.
func ParseFields(names []string) ([]Field, error) {
	byName := map[string]Field{}
	for _, f := range AllFields() {
		byName[strings.ToLower(string(f))] = f
	}

	var out []Field
	seen := map[Field]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		f, ok := byName[strings.ToLower(n)]
		if !ok {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown field %q", n))
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errors.NewInvalidRequest("no columns selected")
	}
	return out, nil
}

// Value returns the cell value of field for r, or nil when absent.
func Value(r types.CanonicalRecord, field Field) any {
	switch field {
	case FieldIndex:
		return r.Index
	case FieldCommentID:
		return r.ID
	case FieldText:
		return r.Text
	case FieldTime:
		return r.TimeRaw
	case FieldEdited:
		return boolText(r.TimeEdited)
	case FieldAuthor:
		return r.Author
	case FieldChannel:
		return r.Channel
	case FieldVotes:
		if r.Votes == nil {
			return nil
		}
		return *r.Votes
	case FieldReplies:
		if r.Replies == nil {
			return nil
		}
		return *r.Replies
	case FieldPhotoURL:
		if r.PhotoURL == nil {
			return nil
		}
		return *r.PhotoURL
	case FieldHearted:
		return boolText(r.Hearted)
	case FieldReply:
		return boolText(r.IsReply)
	case FieldTimeParsed:
		if r.TimeParsed == nil {
			return nil
		}
		return r.TimeParsed.UTC().Format(time.RFC3339)
	case FieldSentiment:
		if r.Sentiment == nil {
			return nil
		}
		return r.Sentiment.Label
	case FieldSentimentScore:
		if r.Sentiment == nil {
			return nil
		}
		return r.Sentiment.Score
	case FieldTopic:
		if r.Topic == nil {
			return nil
		}
		return r.Topic.Label
	case FieldTopicScore:
		if r.Topic == nil {
			return nil
		}
		return r.Topic.Score
	}
	return nil
}

func boolText(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
