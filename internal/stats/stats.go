package stats

import (
	"math"
	"sort"

	"github.com/ashwinsharma89/adlens/internal/models"
)

// All functions here operate on already-aggregated rows coming out of the
// executor, so they inherit ratio-of-sums correctness by construction and
// never touch per-row data. Null metric values (insufficient data) are
// skipped, not treated as zero.

// DetectAnomalies flags rows whose metric deviates from the cross-group
// mean by more than threshold population standard deviations.
func DetectAnomalies(rows []models.ResultRow, metric string, threshold float64) []models.Anomaly {
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v := r.Values[metric]; v != nil {
			vals = append(vals, *v)
		}
	}
	if len(vals) < 2 {
		return nil
	}
	mean := sum(vals) / float64(len(vals))
	var sq float64
	for _, v := range vals {
		sq += (v - mean) * (v - mean)
	}
	stddev := math.Sqrt(sq / float64(len(vals)))
	if stddev == 0 {
		return nil
	}

	var out []models.Anomaly
	for _, r := range rows {
		v := r.Values[metric]
		if v == nil || math.Abs(*v-mean) < threshold*stddev {
			continue
		}
		devPct := 0.0
		if mean != 0 {
			devPct = (*v - mean) / mean * 100
		}
		out = append(out, models.Anomaly{
			Key:          r.Key,
			Metric:       metric,
			Observed:     *v,
			Expected:     mean,
			DeviationPct: devPct,
		})
	}
	return out
}

// FitTrend fits a least-squares line over the last window points of a
// chronological series and forecasts the next period as last value plus
// slope. The returned WindowSize records how much data backed the estimate;
// callers must present the forecast as such, never as an exact figure.
func FitTrend(rows []models.ResultRow, metric string, window int) *models.Trend {
	series := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v := r.Values[metric]; v != nil {
			series = append(series, *v)
		}
	}
	if window > 0 && len(series) > window {
		series = series[len(series)-window:]
	}
	n := len(series)
	if n < 2 {
		return nil
	}

	// slope = cov(x, y) / var(x) with x = 0..n-1
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range series {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return nil
	}
	slope := (fn*sumXY - sumX*sumY) / denom

	return &models.Trend{
		Metric:     metric,
		Slope:      slope,
		Forecast:   series[n-1] + slope,
		WindowSize: n,
	}
}

// ParetoRank orders rows by descending metric value and accumulates until
// cumulative share reaches the coverage threshold (0.8 means "which groups
// produce 80% of the total").
func ParetoRank(rows []models.ResultRow, metric string, coverage float64) []models.ParetoEntry {
	type kv struct {
		key string
		val float64
	}
	var items []kv
	var total float64
	for _, r := range rows {
		if v := r.Values[metric]; v != nil && *v > 0 {
			items = append(items, kv{r.Key, *v})
			total += *v
		}
	}
	if total == 0 {
		return nil
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].val != items[j].val {
			return items[i].val > items[j].val
		}
		return items[i].key < items[j].key
	})

	var out []models.ParetoEntry
	var cum float64
	for _, it := range items {
		cum += it.val
		out = append(out, models.ParetoEntry{
			Key:           it.key,
			Value:         it.val,
			SharePct:      it.val / total * 100,
			CumulativePct: cum / total * 100,
		})
		if cum/total >= coverage {
			break
		}
	}
	return out
}

func sum(xs []float64) float64 {
	var t float64
	for _, x := range xs {
		t += x
	}
	return t
}
