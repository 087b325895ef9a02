package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ashwinsharma89/adlens/internal/models"
)

// Row is the wire shape delivered by the ingestion collaborator: one
// already-typed record per reporting grain. The engine owns no file
// parsing; CSV/Parquet handling happens upstream.
type Row struct {
	Date       string             `json:"date"`
	Dimensions map[string]string  `json:"dimensions"`
	Metrics    map[string]float64 `json:"metrics"`
}

// DecodeRows reads a JSON array of rows and converts it into campaign
// records. A bad date is an error, not a silent skip: dropping rows would
// quietly change every aggregate computed afterwards.
func DecodeRows(r io.Reader) ([]models.CampaignRecord, error) {
	var rows []Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode dataset rows: %w", err)
	}
	return Convert(rows)
}

// Convert turns wire rows into campaign records.
func Convert(rows []Row) ([]models.CampaignRecord, error) {
	out := make([]models.CampaignRecord, 0, len(rows))
	for i, r := range rows {
		d, err := time.Parse("2006-01-02", strings.TrimSpace(r.Date))
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q (want YYYY-MM-DD)", i, r.Date)
		}
		dims := make(map[string]string, len(r.Dimensions))
		for k, v := range r.Dimensions {
			dims[k] = strings.TrimSpace(v)
		}
		bases := make(map[string]float64, len(r.Metrics))
		for k, v := range r.Metrics {
			bases[k] = v
		}
		out = append(out, models.CampaignRecord{Date: d, Dims: dims, Bases: bases})
	}
	return out, nil
}
