package supplier

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"comment-insights-go/internal/normalize"
	"comment-insights-go/internal/types"
)

// Spreadsheet reads raw comments from the first sheet of an .xlsx file. Column
// headers are matched loosely, so both raw downloader keys ("cid", "heart") and
// exported headers ("Comment ID", "Hearted") are understood.
type Spreadsheet struct {
	log *logrus.Entry
}

var _ Supplier = (*Spreadsheet)(nil)

func NewSpreadsheet(log *logrus.Entry) *Spreadsheet {
	return &Spreadsheet{log: log.WithField("component", "supplier-spreadsheet")}
}

// Fetch loads rows in sheet order. SortPopular reorders by votes, highest first,
// keeping sheet order among ties.
func (s *Spreadsheet) Fetch(_ context.Context, path string, sort types.SortOrder) ([]types.RawRecord, error) {
	if err := checkRequest(path, sort); err != nil {
		return nil, err
	}
	log := s.log.WithField("path", path)

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	columns := mapHeader(rows[0])
	if _, ok := columns[normalize.KeyText]; !ok {
		return nil, fmt.Errorf("no text column in header %v", rows[0])
	}
	log.WithField("columns", columns).Debug("detected spreadsheet columns")

	out := make([]types.RawRecord, 0, len(rows)-1)
	for _, r := range rows[1:] {
		rec := types.RawRecord{}
		for key, idx := range columns {
			if idx < len(r) && r[idx] != "" {
				rec[key] = r[idx]
			}
		}
		if len(rec) == 0 {
			continue
		}
		out = append(out, rec)
	}

	if sort == types.SortPopular {
		slices.SortStableFunc(out, func(a, b types.RawRecord) int {
			return votesOf(b) - votesOf(a)
		})
	}
	log.WithField("count", len(out)).Info("spreadsheet comments loaded")
	return out, nil
}

// mapHeader maps raw record keys to column positions. The first matching column wins.
func mapHeader(header []string) map[string]int {
	cols := map[string]int{}
	set := func(key string, i int) {
		if _, ok := cols[key]; !ok {
			cols[key] = i
		}
	}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		l = strings.NewReplacer("_", " ", "-", " ").Replace(l)
		switch {
		case l == "cid" || l == "comment id" || l == "id":
			set(normalize.KeyID, i)
		case l == "text" || l == "comment" || strings.Contains(l, "comment text"):
			set(normalize.KeyText, i)
		case l == "time parsed" || l == "timestamp":
			set(normalize.KeyTimeParsed, i)
		case l == "time":
			set(normalize.KeyTime, i)
		case l == "edited":
			set(normalize.KeyEdited, i)
		case l == "author":
			set(normalize.KeyAuthor, i)
		case l == "channel":
			set(normalize.KeyChannel, i)
		case l == "votes" || l == "likes":
			set(normalize.KeyVotes, i)
		case l == "replies":
			set(normalize.KeyReplies, i)
		case l == "photo" || strings.Contains(l, "photo url"):
			set(normalize.KeyPhoto, i)
		case l == "heart" || l == "hearted":
			set(normalize.KeyHeart, i)
		case l == "reply" || l == "is reply":
			set(normalize.KeyReply, i)
		}
	}
	return cols
}

func votesOf(rec types.RawRecord) int {
	s, _ := rec[normalize.KeyVotes].(string)
	n, ok := normalize.ParseCount(s)
	if !ok {
		return 0
	}
	return n
}
