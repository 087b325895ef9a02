package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ashwinsharma89/adlens/internal/errs"
	"github.com/ashwinsharma89/adlens/internal/metrics"
	"github.com/ashwinsharma89/adlens/internal/models"
	"github.com/ashwinsharma89/adlens/internal/schema"
	"github.com/ashwinsharma89/adlens/internal/temporal"
)

// Resolver maps a free-text question to a structured QueryIntent using the
// metric registry's synonym table, the schema catalog of the loaded
// dataset, and the temporal resolver. It is a deterministic pattern engine:
// same question, same catalog, same anchor date, same intent.
//
// Permissiveness policy: a question that names no metric falls back to the
// configured default metric instead of failing; the resolver only fails on
// internal contradiction (two mutually exclusive readings both fully
// specified) or on tokens that name nothing in the catalog.
type Resolver struct {
	reg           *metrics.Registry
	defaultMetric string
	now           func() time.Time
}

func NewResolver(reg *metrics.Registry, defaultMetric string, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{reg: reg, defaultMetric: defaultMetric, now: now}
}

var (
	reGroupBy  = regexp.MustCompile(`(?:\bby\b|\bper\b|\bacross\b|\bfor each\b)\s+([a-z][a-z0-9_]*(?:\s+[a-z][a-z0-9_]*)?)`)
	reTopN     = regexp.MustCompile(`\b(top|bottom)\s+(\d+)\b`)
	reTopNoun  = regexp.MustCompile(`\b(?:top|bottom)\s+\d+\s+([a-z][a-z0-9_]*)`)
	reExplicit = regexp.MustCompile(`\b([a-z][a-z0-9_]*)\s*(?:=|:)\s*([a-z0-9][a-z0-9_ -]*?)(?:\s|$|,)`)
	reHaving   = regexp.MustCompile(`\b(above|over|greater than|more than|under|below|less than)\s+\$?(\d+(?:\.\d+)?)\b`)

	autoModes = []struct{ phrase, mode string }{
		{"week over week", "wow"}, {"week-over-week", "wow"}, {"wow", "wow"},
		{"month over month", "mom"}, {"month-over-month", "mom"}, {"mom", "mom"},
		{"quarter over quarter", "qoq"}, {"quarter-over-quarter", "qoq"}, {"qoq", "qoq"},
		{"year over year", "yoy"}, {"year-over-year", "yoy"}, {"yoy", "yoy"},
	}

	// date-grain tokens map "by day"/"by week" grouping onto the Date column
	dateGrains = map[string]bool{"day": true, "date": true, "week": true, "month": true}
)

// Resolve parses the question against the given catalog.
func (r *Resolver) Resolve(question string, cat *schema.Catalog) (models.QueryIntent, error) {
	q := " " + strings.ToLower(strings.TrimSpace(question)) + " "
	intent := models.QueryIntent{Aggregation: models.AggSum}

	// 1. temporal: auto comparison modes first, then plain ranges
	var modes []string
	for _, am := range autoModes {
		if containsWord(q, am.phrase) && !contains(modes, am.mode) {
			modes = append(modes, am.mode)
		}
	}
	if len(modes) > 1 {
		return intent, errs.AmbiguousIntent(modes...)
	}
	if len(modes) == 1 {
		pair, err := temporal.ResolveComparison(modes[0], r.now())
		if err != nil {
			return intent, err
		}
		intent.Comparison = &pair
	} else {
		win, found, err := temporal.ResolveRange(q, r.now())
		if err != nil {
			return intent, err
		}
		if found {
			if wantsComparison(q) {
				pair := models.ComparisonWindowPair{
					Current:  win,
					Baseline: temporal.PreviousPeriod(win),
					Mode:     models.ModePreset,
				}
				intent.Comparison = &pair
			} else {
				intent.Window = &win
			}
		}
	}

	// 2. metrics, with the documented default fallback
	intent.Metrics = r.reg.Match(q)
	if len(intent.Metrics) == 0 {
		intent.Metrics = []string{r.defaultMetric}
	}

	// 3. grouping dimension; "by spend" in "top 3 platforms by spend" is a
	// sort key, not a grouping, so metric tokens are exempt
	if m := reGroupBy.FindStringSubmatch(q); m != nil && !r.isMetricToken(m[1]) {
		dim, err := r.resolveGroupToken(m[1], cat)
		if err != nil {
			return intent, err
		}
		intent.Dimension = dim
	}
	if intent.Dimension == "" {
		if m := reTopNoun.FindStringSubmatch(q); m != nil {
			if dim, err := cat.ResolveDimension(m[1]); err == nil {
				intent.Dimension = dim
			}
		}
	}

	// 4. aggregation verbs
	switch {
	case containsWord(q, "average") || containsWord(q, "avg"):
		intent.Aggregation = models.AggAvg
	case containsWord(q, "how many") || containsWord(q, "count"):
		intent.Aggregation = models.AggCount
	}

	// 5. top/bottom N and sort direction
	highest := containsAny(q, "highest", "best", "most")
	lowest := containsAny(q, "lowest", "worst", "least", "cheapest")
	if highest && lowest {
		return intent, errs.AmbiguousIntent("sort descending (highest)", "sort ascending (lowest)")
	}
	intent.SortBy = intent.Metrics[0]
	intent.SortDesc = !lowest
	if m := reTopN.FindStringSubmatch(q); m != nil {
		n, _ := strconv.Atoi(m[2])
		intent.Limit = n
		intent.SortDesc = m[1] == "top"
	}

	// 6. filters: explicit dim=value pairs, then bare value mentions
	if err := r.parseFilters(q, cat, &intent); err != nil {
		return intent, err
	}

	// 7. post-aggregation thresholds
	for _, m := range reHaving.FindAllStringSubmatch(q, -1) {
		v, _ := strconv.ParseFloat(m[2], 64)
		op := ">"
		if m[1] == "under" || m[1] == "below" || m[1] == "less than" {
			op = "<"
		}
		intent.Having = append(intent.Having, models.HavingFilter{Metric: intent.Metrics[0], Op: op, Value: v})
	}

	// 8. statistical analysis layer
	switch {
	case containsAny(q, "anomal", "outlier", "unusual", "spike"):
		intent.Analysis = models.AnalysisAnomalies
	case containsAny(q, "trend", "forecast", "trajectory"):
		intent.Analysis = models.AnalysisTrend
		if intent.Dimension == "" {
			intent.Dimension = "Date"
		}
	case containsAny(q, "pareto", "80/20", "cumulative share"):
		intent.Analysis = models.AnalysisPareto
	}

	return intent, nil
}

// isMetricToken reports whether the captured group phrase names a registry
// metric rather than a dimension.
func (r *Resolver) isMetricToken(token string) bool {
	words := strings.Fields(strings.TrimSpace(token))
	if _, err := r.reg.Resolve(strings.Join(words, " ")); err == nil {
		return true
	}
	_, err := r.reg.Resolve(words[0])
	return err == nil
}

// resolveGroupToken maps the phrase captured after "by"/"per" to a canonical
// dimension, trying the two-word form before the single word so that
// "by age group" beats "by age".
func (r *Resolver) resolveGroupToken(token string, cat *schema.Catalog) (string, error) {
	token = strings.TrimSpace(token)
	words := strings.Fields(token)
	if dateGrains[words[0]] {
		return "Date", nil
	}
	if len(words) > 1 {
		if dim, err := cat.ResolveDimension(strings.Join(words[:2], " ")); err == nil {
			return dim, nil
		}
	}
	return cat.ResolveDimension(words[0])
}

func (r *Resolver) parseFilters(q string, cat *schema.Catalog, intent *models.QueryIntent) error {
	seen := map[string]bool{}
	for _, m := range reExplicit.FindAllStringSubmatch(q, -1) {
		dim, err := cat.ResolveDimension(m[1])
		if err != nil {
			continue // "top = 5" style noise, not a filter
		}
		val, err := cat.ResolveValue(dim, strings.TrimSpace(m[2]))
		if err != nil {
			return err
		}
		intent.Filters = append(intent.Filters, models.DimFilter{Dimension: dim, Value: val})
		seen[dim] = true
	}
	// bare mentions: any distinct value appearing as a whole word
	for _, dim := range cat.Dimensions() {
		if seen[dim] || dim == intent.Dimension || dim == "Date" {
			continue
		}
		vals, _ := cat.DistinctValues(dim)
		for _, v := range vals {
			if containsWord(q, strings.ToLower(v)) {
				intent.Filters = append(intent.Filters, models.DimFilter{Dimension: dim, Value: v})
				break
			}
		}
	}
	return nil
}

// wantsComparison reports whether the question asks for a period-over-period
// view of the resolved range ("last week vs previous week", "compared to the
// prior period").
func wantsComparison(q string) bool {
	if !containsAny(q, "previous", "prior", "before") {
		return false
	}
	return containsAny(q, " vs ", " vs. ", "versus", "compare", "compared")
}

func containsWord(q, phrase string) bool {
	return strings.Contains(q, " "+phrase+" ") ||
		strings.Contains(q, " "+phrase+"?") ||
		strings.Contains(q, " "+phrase+",") ||
		strings.Contains(q, " "+phrase+".")
}

func containsAny(q string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(q, s) {
			return true
		}
	}
	return false
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
