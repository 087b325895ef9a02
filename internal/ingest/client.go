package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ashwinsharma89/adlens/internal/models"
	"github.com/ashwinsharma89/adlens/internal/utils"
)

// HTTPClient is the minimal surface the fetcher needs, so tests can stub
// the transport.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// Fetcher pulls a dataset from a remote JSON endpoint, retrying transient
// failures with exponential backoff.
type Fetcher struct {
	c  HTTPClient
	bo utils.Backoff
}

func NewFetcher(c HTTPClient) *Fetcher {
	return &Fetcher{c: c, bo: utils.NewBackoff(100*time.Millisecond, 2)}
}

// FetchRows downloads and converts the row array served at url.
func (f *Fetcher) FetchRows(ctx context.Context, url string) ([]models.CampaignRecord, error) {
	if url == "" {
		return nil, errors.New("empty url")
	}
	var recs []models.CampaignRecord
	err := f.bo.Do(ctx, func(int) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := f.c.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return fmt.Errorf("non-2xx: %d body=%s", resp.StatusCode, string(b))
		}
		recs, err = DecodeRows(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	return recs, nil
}
