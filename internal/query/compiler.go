package query

import (
	"github.com/ashwinsharma89/adlens/internal/metrics"
	"github.com/ashwinsharma89/adlens/internal/models"
)

// Column is one output metric of a plan, bound to its registry definition.
// For ratio metrics the requested aggregation verb is irrelevant: the plan
// always sums numerator and denominator over the grouping and divides after
// aggregation. Averaging a precomputed per-row ratio column is the
// documented recurring failure mode this compiler exists to make
// unrepresentable.
type Column struct {
	Def metrics.Definition
	Agg string
}

// Plan is an executable aggregation: which bases to sum, over which
// grouping, within which window.
type Plan struct {
	Dimension string
	Columns   []Column
	Bases     []string
	Filters   []models.DimFilter
	Having    []models.HavingFilter
	Window    *models.TimeWindow
	SortBy    string
	SortDesc  bool
	Limit     int
}

// Compiler turns intents into plans, consulting the metric registry for
// each metric's aggregation formula.
type Compiler struct {
	reg *metrics.Registry
}

func NewCompiler(reg *metrics.Registry) *Compiler { return &Compiler{reg: reg} }

// Compile produces the current-window plan and, when the intent carries a
// comparison, a baseline plan with the identical grouping/filter shape
// bound to the baseline window. The note propagates custom-window
// asymmetry annotations.
func (c *Compiler) Compile(intent models.QueryIntent) (cur Plan, base *Plan, note string, err error) {
	cols := make([]Column, 0, len(intent.Metrics))
	bases := map[string]bool{}
	var baseOrder []string
	for _, name := range intent.Metrics {
		def, rerr := c.reg.Resolve(name)
		if rerr != nil {
			return Plan{}, nil, "", rerr
		}
		agg := intent.Aggregation
		if def.Kind == metrics.KindRatio {
			agg = models.AggSum // ratio-of-sums, always
		}
		cols = append(cols, Column{Def: def, Agg: agg})
		for _, b := range def.Bases() {
			if !bases[b] {
				bases[b] = true
				baseOrder = append(baseOrder, b)
			}
		}
	}

	sortBy := intent.SortBy
	if intent.Dimension == "Date" && intent.Limit == 0 {
		sortBy = "" // time series come back in chronological key order
	}

	cur = Plan{
		Dimension: intent.Dimension,
		Columns:   cols,
		Bases:     baseOrder,
		Filters:   intent.Filters,
		Having:    intent.Having,
		Window:    intent.Window,
		SortBy:    sortBy,
		SortDesc:  intent.SortDesc,
		Limit:     intent.Limit,
	}

	if intent.Comparison != nil {
		cw, bw := intent.Comparison.Current, intent.Comparison.Baseline
		cur.Window = &cw
		b := cur
		b.Window = &bw
		base = &b
		note = intent.Comparison.Note
	}
	return cur, base, note, nil
}
