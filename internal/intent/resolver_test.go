package intent

import (
	"errors"
	"testing"
	"time"

	"github.com/ashwinsharma89/adlens/internal/errs"
	"github.com/ashwinsharma89/adlens/internal/metrics"
	"github.com/ashwinsharma89/adlens/internal/models"
	"github.com/ashwinsharma89/adlens/internal/schema"
)

// 2026-08-19 is a Wednesday.
func fixedNow() time.Time { return time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC) }

func testCatalog() *schema.Catalog {
	day := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	rows := []models.CampaignRecord{
		{
			Date: day,
			Dims: map[string]string{"Platform": "Google", "Channel": "Search", "Device": "Mobile"},
			Bases: map[string]float64{"Impressions": 1000, "Clicks": 50, "Spend": 20,
				"Conversions": 5, "Revenue": 100},
		},
		{
			Date: day,
			Dims: map[string]string{"Platform": "Meta", "Channel": "Social", "Device": "Desktop"},
			Bases: map[string]float64{"Impressions": 2000, "Clicks": 40, "Spend": 30,
				"Conversions": 2, "Revenue": 60},
		},
	}
	return schema.Build(rows)
}

func newTestResolver() *Resolver {
	return NewResolver(metrics.NewRegistry(), "Spend", fixedNow)
}

func TestResolveComparisonQuestion(t *testing.T) {
	r := newTestResolver()
	qi, err := r.Resolve("compare CTR by platform last week vs previous week", testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if qi.Dimension != "Platform" {
		t.Fatalf("dimension = %q", qi.Dimension)
	}
	if len(qi.Metrics) != 1 || qi.Metrics[0] != "CTR" {
		t.Fatalf("metrics = %v", qi.Metrics)
	}
	if qi.Comparison == nil {
		t.Fatal("expected a comparison window pair")
	}
	c := qi.Comparison
	if c.Current.Days() != c.Baseline.Days() {
		t.Fatal("auto comparison windows must have equal length")
	}
	if !c.Baseline.End.Before(c.Current.Start) {
		t.Fatal("windows must be disjoint")
	}
}

func TestDefaultMetricFallback(t *testing.T) {
	r := newTestResolver()
	qi, err := r.Resolve("how did we do by channel last month", testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if len(qi.Metrics) != 1 || qi.Metrics[0] != "Spend" {
		t.Fatalf("metrics = %v, want default Spend", qi.Metrics)
	}
	if qi.Window == nil {
		t.Fatal("expected a resolved window")
	}
}

func TestTopN(t *testing.T) {
	r := newTestResolver()
	qi, err := r.Resolve("top 3 platforms by spend", testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if qi.Limit != 3 || !qi.SortDesc {
		t.Fatalf("limit=%d desc=%v", qi.Limit, qi.SortDesc)
	}
	if qi.Dimension != "Platform" {
		t.Fatalf("dimension = %q", qi.Dimension)
	}
}

func TestWeekOverWeekMode(t *testing.T) {
	r := newTestResolver()
	qi, err := r.Resolve("spend by channel week over week", testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if qi.Comparison == nil || qi.Comparison.Mode != models.ModeAuto {
		t.Fatalf("comparison = %+v", qi.Comparison)
	}
}

func TestAmbiguousSortDirection(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve("which platform has the highest and lowest cpc", testCatalog())
	var se *errs.Error
	if !errors.As(err, &se) || se.Code != errs.CodeAmbiguousIntent {
		t.Fatalf("err = %v, want ambiguous intent", err)
	}
	if len(se.Interpretations) != 2 {
		t.Fatalf("interpretations = %v", se.Interpretations)
	}
}

func TestUnknownDimension(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve("spend by flavor", testCatalog())
	var se *errs.Error
	if !errors.As(err, &se) || se.Code != errs.CodeUnknownDimension {
		t.Fatalf("err = %v, want unknown dimension", err)
	}
}

func TestBareValueBecomesFilter(t *testing.T) {
	r := newTestResolver()
	qi, err := r.Resolve("ctr for google by device", testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range qi.Filters {
		if f.Dimension == "Platform" && f.Value == "Google" {
			found = true
		}
	}
	if !found {
		t.Fatalf("filters = %v, want Platform=Google", qi.Filters)
	}
}

func TestHavingThreshold(t *testing.T) {
	r := newTestResolver()
	qi, err := r.Resolve("channels with spend above 100", testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if len(qi.Having) != 1 || qi.Having[0].Op != ">" || qi.Having[0].Value != 100 {
		t.Fatalf("having = %v", qi.Having)
	}
}

func TestTrendGroupsbyDate(t *testing.T) {
	r := newTestResolver()
	qi, err := r.Resolve("trend of roas last 8 weeks", testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if qi.Analysis != models.AnalysisTrend || qi.Dimension != "Date" {
		t.Fatalf("analysis=%q dimension=%q", qi.Analysis, qi.Dimension)
	}
	if len(qi.Metrics) != 1 || qi.Metrics[0] != "ROAS" {
		t.Fatalf("metrics = %v", qi.Metrics)
	}
}

func TestAnomalyDetectionRequested(t *testing.T) {
	r := newTestResolver()
	qi, err := r.Resolve("any anomalies in cpa by platform last month", testCatalog())
	if err != nil {
		t.Fatal(err)
	}
	if qi.Analysis != models.AnalysisAnomalies {
		t.Fatalf("analysis = %q", qi.Analysis)
	}
	if qi.Metrics[0] != "CPA" {
		t.Fatalf("metrics = %v", qi.Metrics)
	}
}
