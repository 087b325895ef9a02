package metrics

import (
	"sort"
	"strings"

	"github.com/ashwinsharma89/adlens/internal/errs"
)

// Metric kinds. Additive metrics are safe to SUM across any grouping.
// Ratio metrics must be recomputed from summed bases: SUM(num)/SUM(den),
// never AVG of per-row ratios. That rule is the central correctness
// invariant of the engine and is enforced by the query compiler.
const (
	KindAdditive = "additive"
	KindRatio    = "ratio"
)

// Definition describes one metric: where its value comes from and how it
// aggregates. For ratio metrics Numerator/Denominator name base columns and
// Scale multiplies the quotient (1000 for CPM, 100 for percent-style output
// is left to presentation). Zero denominator yields a null value, not an
// error, so sorting and deltas skip it deterministically.
type Definition struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Base        string   `json:"base,omitempty"` // additive: backing column
	Numerator   string   `json:"numerator,omitempty"`
	Denominator string   `json:"denominator,omitempty"`
	Scale       float64  `json:"scale,omitempty"`
	Synonyms    []string `json:"-"`
}

// Bases returns the base columns this metric needs summed.
func (d Definition) Bases() []string {
	if d.Kind == KindRatio {
		return []string{d.Numerator, d.Denominator}
	}
	return []string{d.Base}
}

// Value computes the metric from summed bases. ok=false marks
// "insufficient data" (zero denominator or missing column).
func (d Definition) Value(sums map[string]float64) (float64, bool) {
	if d.Kind == KindAdditive {
		v, ok := sums[d.Base]
		return v, ok
	}
	num, den := sums[d.Numerator], sums[d.Denominator]
	if den == 0 {
		return 0, false
	}
	scale := d.Scale
	if scale == 0 {
		scale = 1
	}
	return num / den * scale, true
}

// Registry is the canonical catalog of metrics and their aggregation
// formulas, plus the synonym table used by the intent resolver.
type Registry struct {
	defs     map[string]Definition
	synonyms map[string]string // normalized phrase -> canonical name
	order    []string
}

func additive(name, base string, syns ...string) Definition {
	return Definition{Name: name, Kind: KindAdditive, Base: base, Synonyms: syns}
}

func ratio(name, num, den string, scale float64, syns ...string) Definition {
	return Definition{Name: name, Kind: KindRatio, Numerator: num, Denominator: den, Scale: scale, Synonyms: syns}
}

// NewRegistry builds the default advertising catalog.
func NewRegistry() *Registry {
	r := &Registry{defs: map[string]Definition{}, synonyms: map[string]string{}}
	for _, d := range []Definition{
		additive("Impressions", "Impressions", "impression", "views"),
		additive("Clicks", "Clicks", "click"),
		additive("Conversions", "Conversions", "conversion", "purchases", "orders"),
		additive("Spend", "Spend", "cost", "budget spent", "ad spend"),
		additive("Revenue", "Revenue", "sales", "income"),
		additive("Reach", "Reach", "unique users"),
		ratio("CTR", "Clicks", "Impressions", 0, "click through rate", "click-through rate", "clickthrough rate"),
		ratio("CPC", "Spend", "Clicks", 0, "cost per click"),
		ratio("CPM", "Spend", "Impressions", 1000, "cost per mille", "cost per thousand", "cost per thousand impressions"),
		ratio("CPA", "Spend", "Conversions", 0, "cost per acquisition", "cost per conversion", "cost per action"),
		ratio("ROAS", "Revenue", "Spend", 0, "return on ad spend", "return on advertising spend"),
		ratio("Conversion_Rate", "Conversions", "Clicks", 0, "conversion rate", "cvr"),
		ratio("AOV", "Revenue", "Conversions", 0, "average order value"),
		ratio("Frequency", "Impressions", "Reach", 0, "avg impressions per user"),
	} {
		r.register(d)
	}
	return r
}

func (r *Registry) register(d Definition) {
	r.defs[norm(d.Name)] = d
	r.order = append(r.order, d.Name)
	r.synonyms[norm(d.Name)] = d.Name
	for _, s := range d.Synonyms {
		r.synonyms[norm(s)] = d.Name
	}
}

// Resolve returns the definition for a canonical name or synonym.
func (r *Registry) Resolve(name string) (Definition, error) {
	if canon, ok := r.synonyms[norm(name)]; ok {
		return r.defs[norm(canon)], nil
	}
	return Definition{}, errs.UnknownMetric(name, r.Names())
}

// List returns all definitions in registration order.
func (r *Registry) List() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.defs[norm(n)])
	}
	return out
}

// Names returns canonical metric names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Match scans a normalized question for metric mentions, longest synonym
// first so "cost per click" wins over "cost". Returns canonical names in
// order of first appearance, without duplicates.
func (r *Registry) Match(question string) []string {
	type hit struct {
		pos  int
		name string
	}
	q := " " + norm(question) + " "
	phrases := make([]string, 0, len(r.synonyms))
	for p := range r.synonyms {
		phrases = append(phrases, p)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})

	var hits []hit
	seen := map[string]bool{}
	consumed := make([]bool, len(q))
	for _, p := range phrases {
		idx := strings.Index(q, " "+p+" ")
		if idx < 0 || consumed[idx+1] {
			continue
		}
		canon := r.synonyms[p]
		if seen[canon] {
			continue
		}
		seen[canon] = true
		for i := idx + 1; i < idx+1+len(p); i++ {
			consumed[i] = true
		}
		hits = append(hits, hit{pos: idx, name: canon})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	return out
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
