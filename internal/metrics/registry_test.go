package metrics

import (
	"math"
	"testing"
)

func TestResolveSynonyms(t *testing.T) {
	r := NewRegistry()
	cases := map[string]string{
		"cost per click":     "CPC",
		"CTR":                "CTR",
		"ctr":                "CTR",
		"return on ad spend": "ROAS",
		"conversion rate":    "Conversion_Rate",
		"spend":              "Spend",
	}
	for in, want := range cases {
		def, err := r.Resolve(in)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", in, err)
		}
		if def.Name != want {
			t.Fatalf("Resolve(%q) = %s, want %s", in, def.Name, want)
		}
	}
}

func TestResolveUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Resolve("ctrr"); err == nil {
		t.Fatal("expected unknown metric error")
	}
}

// The central invariant: a ratio over a grouping equals the ratio of the
// summed bases, which must diverge from the naive per-row average whenever
// the per-row denominators are unequal.
func TestRatioOfSumsDivergesFromNaiveAverage(t *testing.T) {
	r := NewRegistry()
	ctr, err := r.Resolve("CTR")
	if err != nil {
		t.Fatal(err)
	}

	rows := []map[string]float64{
		{"Impressions": 100, "Clicks": 2},
		{"Impressions": 100000, "Clicks": 1000},
	}
	sums := map[string]float64{}
	naive := 0.0
	for _, row := range rows {
		for k, v := range row {
			sums[k] += v
		}
		naive += row["Clicks"] / row["Impressions"]
	}
	naive /= float64(len(rows))

	got, ok := ctr.Value(sums)
	if !ok {
		t.Fatal("expected a CTR value")
	}
	want := 1002.0 / 100100.0 // ~1.001%
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("ratio-of-sums CTR = %v, want %v", got, want)
	}
	if math.Abs(naive-0.015) > 1e-12 {
		t.Fatalf("naive average = %v, want 0.015", naive)
	}
	if math.Abs(got-naive) < 1e-4 {
		t.Fatal("ratio-of-sums must diverge from the naive per-row average on this fixture")
	}
}

func TestZeroDenominatorYieldsNull(t *testing.T) {
	r := NewRegistry()
	cpc, _ := r.Resolve("CPC")
	if _, ok := cpc.Value(map[string]float64{"Spend": 50, "Clicks": 0}); ok {
		t.Fatal("zero denominator must yield no value, not a number")
	}
}

func TestCPMScale(t *testing.T) {
	r := NewRegistry()
	cpm, _ := r.Resolve("cost per mille")
	got, ok := cpm.Value(map[string]float64{"Spend": 50, "Impressions": 10000})
	if !ok || got != 5 {
		t.Fatalf("CPM = %v (ok=%v), want 5", got, ok)
	}
}

func TestMatchLongestPhraseWins(t *testing.T) {
	r := NewRegistry()
	got := r.Match("what is the cost per click by channel")
	if len(got) != 1 || got[0] != "CPC" {
		t.Fatalf("Match = %v, want [CPC]", got)
	}
	// "cost" alone is Spend, but "cost per click" must consume it
	got = r.Match("total cost last week")
	if len(got) != 1 || got[0] != "Spend" {
		t.Fatalf("Match = %v, want [Spend]", got)
	}
}

func TestMatchMultipleInOrder(t *testing.T) {
	r := NewRegistry()
	got := r.Match("show ctr and roas by platform")
	if len(got) != 2 || got[0] != "CTR" || got[1] != "ROAS" {
		t.Fatalf("Match = %v, want [CTR ROAS]", got)
	}
}
