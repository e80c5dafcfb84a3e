package supplier

import (
	"context"
	"encoding/json"
	"maps"
	"slices"

	"comment-insights-go/internal/types"
)

// Mock serves a fixed comment list for offline demos. Every source returns the same comments.
type Mock struct {
	comments []types.RawRecord
}

var _ Supplier = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{comments: []types.RawRecord{
		{"cid": "mock-1", "text": "Harika bir video, teşekkürler!", "time": "2 days ago", "author": "@ayse", "channel": "UCa", "votes": "1.2K", "replies": json.Number("4"), "heart": true, "reply": false, "time_parsed": json.Number("1717000000")},
		{"cid": "mock-2", "text": "Ses çok kötü, hiçbir şey duyulmuyor.", "time": "3 days ago (edited)", "author": "@mehmet", "channel": "UCb", "votes": "87", "replies": json.Number("2"), "heart": false, "reply": false, "time_parsed": json.Number("1716900000")},
		{"cid": "mock-3", "text": "Bir sonraki bölüm ne zaman gelecek?", "time": "5 days ago", "author": "@zeynep", "channel": "UCc", "votes": "12", "heart": false, "reply": false},
		{"cid": "mock-4", "text": "Check out my channel for free giveaways!!! spam", "time": "1 week ago", "author": "@bot", "channel": "UCd", "votes": "0", "heart": false, "reply": false},
		{"cid": "mock-4.1", "text": "Bence de ses berbat", "time": "1 week ago", "author": "@ali", "channel": "UCe", "votes": "3", "heart": false, "reply": true},
		{"cid": "mock-5", "text": "Öneri: altyazı ekleyebilir misiniz?", "time": "2 weeks ago", "author": "@can", "channel": "UCf", "votes": "240", "heart": true, "reply": false},
		{"cid": "mock-6", "text": "", "time": "3 weeks ago", "author": "@empty", "channel": "UCg"},
	}}
}

func (m *Mock) Fetch(_ context.Context, source string, sort types.SortOrder) ([]types.RawRecord, error) {
	if err := checkRequest(source, sort); err != nil {
		return nil, err
	}
	out := make([]types.RawRecord, len(m.comments))
	for i, c := range m.comments {
		out[i] = maps.Clone(c)
	}
	if sort == types.SortPopular {
		slices.SortStableFunc(out, func(a, b types.RawRecord) int {
			return votesOf(b) - votesOf(a)
		})
	}
	return out, nil
}
