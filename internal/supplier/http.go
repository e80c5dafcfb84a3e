package supplier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/config"
	"comment-insights-go/internal/types"
)

// HTTP fetches comments from a download service:
//
//	GET {base}/comments?source=<url>&sort=popular|recent&language=en
//
// The response body is a JSON array of comment objects.
type HTTP struct {
	base     string
	language string
	http     *http.Client
	log      *logrus.Entry
}

var _ Supplier = (*HTTP)(nil)

func NewHTTP(cfg config.SupplierConfig, log *logrus.Entry) *HTTP {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTP{
		base:     strings.TrimRight(cfg.URL, "/"),
		language: cfg.Language,
		http:     &http.Client{Timeout: timeout},
		log:      log.WithField("component", "supplier-http"),
	}
}

func (s *HTTP) Fetch(ctx context.Context, source string, sort types.SortOrder) ([]types.RawRecord, error) {
	if err := checkRequest(source, sort); err != nil {
		return nil, err
	}
	if s.base == "" {
		return nil, fmt.Errorf("SUPPLIER_URL not configured")
	}

	u, err := url.Parse(s.base + "/comments")
	if err != nil {
		return nil, fmt.Errorf("supplier url: %w", err)
	}
	q := u.Query()
	q.Set("source", source)
	q.Set("sort", string(sort))
	if s.language != "" {
		q.Set("language", s.language)
	}
	u.RawQuery = q.Encode()

	log := s.log.WithFields(logrus.Fields{"source": source, "sort": sort})
	log.Info("fetching comments")

	var out []types.RawRecord
	if err := s.doJSON(ctx, u.String(), &out); err != nil {
		log.WithError(err).Error("fetch failed")
		return nil, err
	}
	log.WithField("count", len(out)).Info("comments fetched")
	return out, nil
}

// doJSON issues a GET with retry. Numbers are kept as json.Number so large
// counts and timestamps survive decoding.
func (s *HTTP) doJSON(ctx context.Context, endpoint string, target *[]types.RawRecord) error {
	var lastErr error
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.http.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("request rejected %d: %s", resp.StatusCode, string(body))
			return backoff.Permanent(lastErr)
		}
		if len(body) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(target); err != nil {
			lastErr = fmt.Errorf("json decode error: %v", err)
			return backoff.Permanent(lastErr)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * s.http.Timeout
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr != nil {
			return lastErr
		}
		return err
	}
	return nil
}
