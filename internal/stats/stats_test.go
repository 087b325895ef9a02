package stats

import (
	"math"
	"testing"

	"github.com/ashwinsharma89/adlens/internal/models"
)

func row(key string, v float64) models.ResultRow {
	val := v
	return models.ResultRow{Key: key, Values: map[string]*float64{"Spend": &val}}
}

func nullRow(key string) models.ResultRow {
	return models.ResultRow{Key: key, Values: map[string]*float64{"Spend": nil}}
}

func TestAnomalyAtTwoStdDev(t *testing.T) {
	rows := []models.ResultRow{row("a", 10), row("b", 10), row("c", 10), row("d", 10), row("e", 100)}

	found := DetectAnomalies(rows, "Spend", 2)
	if len(found) != 1 || found[0].Key != "e" {
		t.Fatalf("anomalies = %v, want only e", found)
	}
	a := found[0]
	if a.Observed != 100 || a.Expected != 28 {
		t.Fatalf("observed=%v expected=%v", a.Observed, a.Expected)
	}
	wantDev := (100.0 - 28.0) / 28.0 * 100
	if math.Abs(a.DeviationPct-wantDev) > 1e-9 {
		t.Fatalf("deviation%% = %v, want %v", a.DeviationPct, wantDev)
	}

	if got := DetectAnomalies(rows, "Spend", 5); len(got) != 0 {
		t.Fatalf("at 5 stddev nothing should be flagged, got %v", got)
	}
}

func TestAnomalySkipsNulls(t *testing.T) {
	rows := []models.ResultRow{row("a", 10), nullRow("n"), row("b", 10), row("c", 10), row("d", 10), row("e", 100)}
	found := DetectAnomalies(rows, "Spend", 2)
	if len(found) != 1 || found[0].Key != "e" {
		t.Fatalf("anomalies = %v", found)
	}
}

func TestAnomalyUniformSeries(t *testing.T) {
	rows := []models.ResultRow{row("a", 5), row("b", 5), row("c", 5)}
	if got := DetectAnomalies(rows, "Spend", 2); got != nil {
		t.Fatalf("zero variance must flag nothing, got %v", got)
	}
}

func TestFitTrend(t *testing.T) {
	rows := []models.ResultRow{row("w1", 10), row("w2", 20), row("w3", 30), row("w4", 40)}
	tr := FitTrend(rows, "Spend", 8)
	if tr == nil {
		t.Fatal("expected a trend")
	}
	if math.Abs(tr.Slope-10) > 1e-9 {
		t.Fatalf("slope = %v, want 10", tr.Slope)
	}
	if math.Abs(tr.Forecast-50) > 1e-9 {
		t.Fatalf("forecast = %v, want 50", tr.Forecast)
	}
	if tr.WindowSize != 4 {
		t.Fatalf("window size = %d, want 4", tr.WindowSize)
	}
}

func TestFitTrendRespectsWindow(t *testing.T) {
	rows := []models.ResultRow{row("w1", 100), row("w2", 10), row("w3", 20), row("w4", 30)}
	tr := FitTrend(rows, "Spend", 3)
	if tr == nil || tr.WindowSize != 3 {
		t.Fatalf("trend = %+v, want last 3 points only", tr)
	}
	if math.Abs(tr.Slope-10) > 1e-9 {
		t.Fatalf("slope = %v, want 10 (early outlier excluded)", tr.Slope)
	}
}

func TestFitTrendInsufficientData(t *testing.T) {
	if tr := FitTrend([]models.ResultRow{row("w1", 10)}, "Spend", 8); tr != nil {
		t.Fatalf("one point is not a trend, got %+v", tr)
	}
}

func TestParetoRank(t *testing.T) {
	rows := []models.ResultRow{row("a", 50), row("b", 30), row("c", 15), row("d", 5)}
	got := ParetoRank(rows, "Spend", 0.8)
	if len(got) != 2 {
		t.Fatalf("entries = %v, want a and b reaching 80%%", got)
	}
	if got[0].Key != "a" || got[1].Key != "b" {
		t.Fatalf("order = %s, %s", got[0].Key, got[1].Key)
	}
	if math.Abs(got[1].CumulativePct-80) > 1e-9 {
		t.Fatalf("cumulative = %v, want 80", got[1].CumulativePct)
	}
}

func TestParetoEmpty(t *testing.T) {
	if got := ParetoRank([]models.ResultRow{nullRow("a")}, "Spend", 0.8); got != nil {
		t.Fatalf("got %v", got)
	}
}
