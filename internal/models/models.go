package models

import "time"

// CampaignRecord is one row of the loaded dataset at reporting grain
// (e.g. campaign x platform x date x device). Dimensions and base metrics
// are map-shaped because column presence is discovered per dataset; the
// ingestion collaborator delivers rows already typed.
type CampaignRecord struct {
	Date  time.Time
	Dims  map[string]string
	Bases map[string]float64
}

// TimeWindow is an inclusive, non-degenerate date range.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the inclusive length of the window in days.
func (w TimeWindow) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

func (w TimeWindow) Valid() bool { return !w.Start.After(w.End) }

// Comparison window pair modes.
const (
	ModeAuto   = "auto"
	ModePreset = "preset"
	ModeCustom = "custom"
)

// ComparisonWindowPair binds a current window to its baseline. Under auto
// and preset modes the two windows have equal length and never overlap.
// Custom pairs may be asymmetric; Note carries the annotation.
type ComparisonWindowPair struct {
	Current  TimeWindow `json:"current"`
	Baseline TimeWindow `json:"baseline"`
	Mode     string     `json:"mode"`
	Note     string     `json:"note,omitempty"`
}

// Aggregation verbs accepted by QueryIntent.
const (
	AggSum   = "sum"
	AggAvg   = "avg"
	AggCount = "count"
	AggMin   = "min"
	AggMax   = "max"
)

// Analysis kinds layered on top of an executed result.
const (
	AnalysisNone      = ""
	AnalysisAnomalies = "anomalies"
	AnalysisTrend     = "trend"
	AnalysisPareto    = "pareto"
)

// DimFilter is an equality predicate on a dimension value.
type DimFilter struct {
	Dimension string `json:"dimension"`
	Value     string `json:"value"`
}

// HavingFilter is a post-aggregation threshold on a metric value.
// Op is ">" or "<".
type HavingFilter struct {
	Metric string  `json:"metric"`
	Op     string  `json:"op"`
	Value  float64 `json:"value"`
}

// QueryIntent is the structured form of a question: stateless, produced by
// the intent resolver and discarded after compilation.
type QueryIntent struct {
	Dimension   string                `json:"dimension,omitempty"` // empty = grand total
	Metrics     []string              `json:"metrics"`
	Aggregation string                `json:"aggregation"`
	Filters     []DimFilter           `json:"filters,omitempty"`
	Having      []HavingFilter        `json:"having,omitempty"`
	Window      *TimeWindow           `json:"window,omitempty"` // nil = whole dataset
	Comparison  *ComparisonWindowPair `json:"comparison,omitempty"`
	SortBy      string                `json:"sort_by,omitempty"`
	SortDesc    bool                  `json:"sort_desc"`
	Limit       int                   `json:"limit,omitempty"`
	Analysis    string                `json:"analysis,omitempty"`
}

// ResultRow carries the aggregated values for one dimension key. Metric
// values are pointers so a zero-denominator ratio serializes as null
// ("insufficient data") instead of a fake number.
type ResultRow struct {
	Key      string              `json:"key"`
	Values   map[string]*float64 `json:"values"`
	Baseline map[string]*float64 `json:"baseline,omitempty"`
	Delta    map[string]*float64 `json:"delta,omitempty"`
	DeltaPct map[string]*float64 `json:"delta_pct,omitempty"`
}

// Anomaly flags a group whose value deviates from the cross-group mean by
// more than the configured number of population standard deviations.
type Anomaly struct {
	Key          string  `json:"key"`
	Metric       string  `json:"metric"`
	Observed     float64 `json:"observed"`
	Expected     float64 `json:"expected"`
	DeviationPct float64 `json:"deviation_pct"`
}

// Trend is a linear fit over the last WindowSize periods. Forecast is an
// estimate, never an exact figure; WindowSize documents how much data
// backed it.
type Trend struct {
	Metric     string  `json:"metric"`
	Slope      float64 `json:"slope"`
	Forecast   float64 `json:"forecast"`
	WindowSize int     `json:"window_size"`
}

// ParetoEntry is one step of a cumulative-share ranking.
type ParetoEntry struct {
	Key           string  `json:"key"`
	Value         float64 `json:"value"`
	SharePct      float64 `json:"share_pct"`
	CumulativePct float64 `json:"cumulative_pct"`
}

// QueryResult is the immutable answer to one question.
type QueryResult struct {
	Dimension string        `json:"dimension,omitempty"`
	Metrics   []string      `json:"metrics"`
	Rows      []ResultRow   `json:"rows"`
	Window    *TimeWindow   `json:"window,omitempty"`
	Baseline  *TimeWindow   `json:"baseline,omitempty"`
	Note      string        `json:"note,omitempty"`
	Anomalies []Anomaly     `json:"anomalies,omitempty"`
	Trend     *Trend        `json:"trend,omitempty"`
	Pareto    []ParetoEntry `json:"pareto,omitempty"`
}
