package engine

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/ashwinsharma89/adlens/internal/models"
)

// Export serializes a result as CSV bytes for download. Null cells
// (insufficient data) become empty fields; no additional semantics.
func Export(res *models.QueryResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	dim := res.Dimension
	if dim == "" {
		dim = "group"
	}
	header := []string{dim}
	comparison := res.Baseline != nil
	for _, m := range res.Metrics {
		header = append(header, m)
		if comparison {
			header = append(header, m+"_baseline", m+"_delta", m+"_delta_pct")
		}
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range res.Rows {
		rec := []string{row.Key}
		for _, m := range res.Metrics {
			rec = append(rec, cell(row.Values[m]))
			if comparison {
				rec = append(rec, cell(row.Baseline[m]), cell(row.Delta[m]), cell(row.DeltaPct[m]))
			}
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cell(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}
