// Package supplier fetches raw comments for a source (a video URL or a spreadsheet path).
package supplier

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/types"
)

// Supplier returns raw comments for source in the requested order.
type Supplier interface {
	Fetch(ctx context.Context, source string, sort types.SortOrder) ([]types.RawRecord, error)
}

// Router sends spreadsheet paths to Spreadsheet and everything else to Remote.
type Router struct {
	Remote      Supplier
	Spreadsheet Supplier
}

func (r Router) Fetch(ctx context.Context, source string, sort types.SortOrder) ([]types.RawRecord, error) {
	if IsSpreadsheet(source) {
		if r.Spreadsheet == nil {
			return nil, fmt.Errorf("spreadsheet sources are not enabled")
		}
		return r.Spreadsheet.Fetch(ctx, source, sort)
	}
	if r.Remote == nil {
		return nil, fmt.Errorf("remote sources are not enabled")
	}
	return r.Remote.Fetch(ctx, source, sort)
}

// IsSpreadsheet reports whether source names an .xlsx file.
func IsSpreadsheet(source string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(source)), ".xlsx")
}

// New builds the supplier described by cfg.
func New(cfg config.SupplierConfig, log *logrus.Entry) Supplier {
	if cfg.Mock {
		log.Info("mock supplier mode ON - serving fixed comments")
		return Router{Remote: NewMock(), Spreadsheet: NewSpreadsheet(log)}
	}
	return Router{Remote: NewHTTP(cfg, log), Spreadsheet: NewSpreadsheet(log)}
}

func checkRequest(source string, sort types.SortOrder) error {
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("source is required")
	}
	if !sort.Valid() {
		return fmt.Errorf("invalid sort order %q", sort)
	}
	return nil
}
